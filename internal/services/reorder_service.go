// internal/services/reorder_service.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/models"
)

// ReorderService is a derived view over the inventory ledger: it flags bulk
// records below their reorder point and raises purchasing notifications for
// them. It holds no state of its own.
type ReorderService struct {
	db                  *gorm.DB
	inventoryService    *InventoryService
	notificationService *NotificationService
}

type LowStockEntry struct {
	Record             models.InventoryRecord `json:"record"`
	Product            *models.Product        `json:"product,omitempty"`
	ShortfallToReorder float64                `json:"shortfall_to_reorder"`
	SuggestedOrder     float64                `json:"suggested_order"`
}

func NewReorderService(db *gorm.DB, inventoryService *InventoryService, notificationService *NotificationService) *ReorderService {
	return &ReorderService{
		db:                  db,
		inventoryService:    inventoryService,
		notificationService: notificationService,
	}
}

// IsLowStock is the reorder predicate: bulk records with a reorder point set
// and on-hand below it. Serialized records never reorder through this path.
func IsLowStock(record *models.InventoryRecord) bool {
	return record.InventoryType == models.InventoryTypeBulk &&
		record.ReorderPoint != nil &&
		record.QuantityOnHand < *record.ReorderPoint
}

func (s *ReorderService) LowStock() ([]LowStockEntry, error) {
	records, err := s.inventoryService.LowStock()
	if err != nil {
		return nil, err
	}

	entries := make([]LowStockEntry, 0, len(records))
	for i := range records {
		record := records[i]
		entry := LowStockEntry{
			Record:             record,
			ShortfallToReorder: *record.ReorderPoint - record.QuantityOnHand,
		}
		if record.ReorderQuantity != nil {
			entry.SuggestedOrder = *record.ReorderQuantity
		} else {
			entry.SuggestedOrder = entry.ShortfallToReorder
		}

		var product models.Product
		if err := s.db.First(&product, "id = ?", record.ProductID).Error; err == nil {
			entry.Product = &product
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NotifyLowStock raises one notification per newly-low record. Records that
// already carry an unread low-stock notification are skipped so the periodic
// check does not spam purchasing.
func (s *ReorderService) NotifyLowStock() (int, error) {
	entries, err := s.LowStock()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, entry := range entries {
		var existing int64
		if err := s.db.Model(&models.Notification{}).
			Where("type = ? AND related_resource_id = ? AND status = ?",
				"low_stock", entry.Record.ID, models.NotificationStatusUnread).
			Count(&existing).Error; err != nil {
			return created, fmt.Errorf("failed to check existing notifications: %w", err)
		}
		if existing > 0 {
			continue
		}

		name := "inventory record"
		if entry.Product != nil {
			name = entry.Product.Name
		}
		if err := s.notificationService.CreateLowStockNotification(&entry.Record, name, entry.SuggestedOrder); err != nil {
			logrus.WithError(err).WithField("inventory_record_id", entry.Record.ID).
				Error("Failed to create low-stock notification")
			continue
		}
		created++
	}

	if created > 0 {
		logrus.WithField("count", created).Info("Low-stock notifications raised")
	}
	return created, nil
}
