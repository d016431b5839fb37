// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
	"github.com/buildops/materials-backend/internal/utils"
)

// InventoryService owns the inventory ledger: one record per (product,
// optional variant), an append-only transaction log as the source of truth,
// and cached aggregates recomputed from each delta. All mutations to one
// record are applied under a gorm transaction with an optimistic version
// check, retried on conflict, so two concurrent issues cannot both pass an
// availability check against a stale snapshot.
type InventoryService struct {
	db *gorm.DB
}

const defaultLocation = "main"

type CreateOrUpdateInventoryRequest struct {
	ProductID       uuid.UUID            `json:"product_id" validate:"required"`
	VariantID       *uuid.UUID           `json:"variant_id,omitempty"`
	InventoryType   models.InventoryType `json:"inventory_type" validate:"required,oneof=bulk serialized"`
	InitialQuantity *float64             `json:"initial_quantity,omitempty" validate:"omitempty,min=0"`
	Location        string               `json:"location,omitempty" validate:"omitempty,max=100"`
	ReorderPoint    *float64             `json:"reorder_point,omitempty" validate:"omitempty,min=0"`
	ReorderQuantity *float64             `json:"reorder_quantity,omitempty" validate:"omitempty,min=0"`
	CostMethod      models.CostMethod    `json:"cost_method,omitempty" validate:"omitempty,oneof=moving_average standard last_cost"`
	PerformedBy     string               `json:"performed_by,omitempty"`
}

type AddTransactionRequest struct {
	Type             models.TransactionType  `json:"type" validate:"required,oneof=receipt issue return adjustment transfer write_off"`
	Quantity         float64                 `json:"quantity,omitempty"`
	SerialNumbers    []string                `json:"serial_numbers,omitempty"`
	FromLocation     string                  `json:"from_location,omitempty" validate:"omitempty,max=100"`
	ToLocation       string                  `json:"to_location,omitempty" validate:"omitempty,max=100"`
	ReferenceType    string                  `json:"reference_type,omitempty" validate:"omitempty,max=50"`
	ReferenceID      *uuid.UUID              `json:"reference_id,omitempty"`
	AdjustmentReason models.AdjustmentReason `json:"adjustment_reason,omitempty"`
	UnitCost         *float64                `json:"unit_cost,omitempty" validate:"omitempty,min=0"`
	Notes            string                  `json:"notes,omitempty"`
	PerformedBy      string                  `json:"performed_by,omitempty"`
}

type UpdateSerializedUnitRequest struct {
	Status     *models.UnitStatus `json:"status,omitempty" validate:"omitempty,oneof=available assigned in_use maintenance retired"`
	AssignedTo *uuid.UUID         `json:"assigned_to,omitempty"`
	Location   *string            `json:"location,omitempty" validate:"omitempty,max=100"`
	Notes      *string            `json:"notes,omitempty"`
}

// ReconciliationReport compares the cached on-hand quantity against a fold of
// the full transaction history. Replay is the audit path, never the hot path.
type ReconciliationReport struct {
	InventoryRecordID uuid.UUID `json:"inventory_record_id"`
	TransactionCount  int       `json:"transaction_count"`
	ExpectedOnHand    float64   `json:"expected_on_hand"`
	CachedOnHand      float64   `json:"cached_on_hand"`
	Consistent        bool      `json:"consistent"`
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// CreateOrUpdateInventory upserts the inventory record for a product+variant
// key. The inventory type is immutable once set. An initial quantity on a new
// bulk record is booked as a receipt transaction so the ledger fold always
// reproduces the cached aggregates.
func (s *InventoryService) CreateOrUpdateInventory(req *CreateOrUpdateInventoryRequest) (*models.InventoryRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	existing, err := s.findByProductVariant(req.ProductID, req.VariantID)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.InventoryType != req.InventoryType {
			return nil, apperrors.New(apperrors.CodeImmutableField,
				"inventory type cannot be changed after creation")
		}
		updates := map[string]interface{}{}
		if req.ReorderPoint != nil {
			updates["reorder_point"] = *req.ReorderPoint
		}
		if req.ReorderQuantity != nil {
			updates["reorder_quantity"] = *req.ReorderQuantity
		}
		if req.CostMethod != "" {
			updates["cost_method"] = req.CostMethod
		}
		if len(updates) > 0 {
			if err := s.db.Model(existing).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update inventory record: %w", err)
			}
		}
		return s.GetInventory(existing.ID)
	}

	costMethod := req.CostMethod
	if costMethod == "" {
		costMethod = models.CostMethodMovingAverage
	}

	record := &models.InventoryRecord{
		ProductID:          req.ProductID,
		VariantID:          req.VariantID,
		InventoryType:      req.InventoryType,
		LocationQuantities: models.QuantityMap{},
		ReorderPoint:       req.ReorderPoint,
		ReorderQuantity:    req.ReorderQuantity,
		CostMethod:         costMethod,
		Version:            1,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create inventory record: %w", err)
		}

		if req.InventoryType == models.InventoryTypeBulk && req.InitialQuantity != nil && *req.InitialQuantity > 0 {
			location := req.Location
			if location == "" {
				location = defaultLocation
			}
			record.QuantityOnHand = *req.InitialQuantity
			record.QuantityAvailable = *req.InitialQuantity
			record.LocationQuantities = models.QuantityMap{location: *req.InitialQuantity}

			if err := tx.Model(record).Updates(map[string]interface{}{
				"quantity_on_hand":    record.QuantityOnHand,
				"quantity_available":  record.QuantityAvailable,
				"location_quantities": record.LocationQuantities,
			}).Error; err != nil {
				return fmt.Errorf("failed to seed initial quantity: %w", err)
			}

			seed := &models.Transaction{
				InventoryRecordID: record.ID,
				Type:              models.TransactionTypeReceipt,
				Quantity:          *req.InitialQuantity,
				ToLocation:        location,
				Notes:             "initial stock",
				PerformedBy:       req.PerformedBy,
			}
			if err := tx.Create(seed).Error; err != nil {
				return fmt.Errorf("failed to record initial receipt: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInventory(record.ID)
}

func (s *InventoryService) GetInventory(id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := s.db.Preload("Units").First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("inventory record")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

func (s *InventoryService) GetInventoryByProduct(productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.findByProductVariant(productID, variantID)
	if err != nil {
		return nil, err
	}
	return s.GetInventory(record.ID)
}

func (s *InventoryService) findByProductVariant(productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryRecord, error) {
	q := s.db.Where("product_id = ?", productID)
	if variantID != nil {
		q = q.Where("variant_id = ?", *variantID)
	} else {
		q = q.Where("variant_id IS NULL")
	}

	var record models.InventoryRecord
	if err := q.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("inventory record")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &record, nil
}

// LowStock returns bulk records whose on-hand quantity has dropped below
// their reorder point. Pure query, no persisted state.
func (s *InventoryService) LowStock() ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	if err := s.db.
		Where("inventory_type = ?", models.InventoryTypeBulk).
		Where("reorder_point IS NOT NULL").
		Where("quantity_on_hand < reorder_point").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch low-stock records: %w", err)
	}
	return records, nil
}

func (s *InventoryService) ListTransactions(inventoryID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	if _, err := s.GetInventory(inventoryID); err != nil {
		return nil, 0, err
	}

	q := s.db.Model(&models.Transaction{}).Where("inventory_record_id = ?", inventoryID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var transactions []models.Transaction
	if err := utils.ApplyPagination(q.Order("performed_at DESC"), params).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transactions, total, nil
}

// AddTransaction applies one ledger mutation: it validates the movement
// against current state, appends exactly one immutable transaction row, and
// recomputes the cached aggregates from the delta, all inside a single gorm
// transaction guarded by the record's version.
func (s *InventoryService) AddTransaction(inventoryID uuid.UUID, req *AddTransactionRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		txRow, err := s.addTransactionOnce(inventoryID, req)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return txRow, nil
	}
	return nil, lastErr
}

func (s *InventoryService) addTransactionOnce(inventoryID uuid.UUID, req *AddTransactionRequest) (*models.Transaction, error) {
	record, err := s.GetInventory(inventoryID)
	if err != nil {
		return nil, err
	}

	txRow := &models.Transaction{
		InventoryRecordID: record.ID,
		Type:              req.Type,
		Quantity:          req.Quantity,
		SerialNumbers:     req.SerialNumbers,
		FromLocation:      req.FromLocation,
		ToLocation:        req.ToLocation,
		ReferenceType:     req.ReferenceType,
		ReferenceID:       req.ReferenceID,
		AdjustmentReason:  req.AdjustmentReason,
		UnitCost:          req.UnitCost,
		Notes:             req.Notes,
		PerformedBy:       req.PerformedBy,
		PerformedAt:       time.Now(),
	}
	if req.UnitCost != nil {
		total := *req.UnitCost * movedQuantity(req)
		txRow.TotalCost = &total
	}

	var newUnits []models.SerializedUnit
	var unitUpdates []models.SerializedUnit

	switch record.InventoryType {
	case models.InventoryTypeBulk:
		if err := s.applyBulk(record, req, txRow); err != nil {
			return nil, err
		}
	case models.InventoryTypeSerialized:
		newUnits, unitUpdates, err = s.applySerialized(record, req)
		if err != nil {
			return nil, err
		}
		txRow.Quantity = 0
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InventoryRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]interface{}{
				"quantity_on_hand":    record.QuantityOnHand,
				"quantity_reserved":   record.QuantityReserved,
				"quantity_available":  record.QuantityAvailable,
				"location_quantities": record.LocationQuantities,
				"average_cost":        record.AverageCost,
				"version":             record.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeConflict, "inventory record was modified concurrently")
		}

		if len(newUnits) > 0 {
			if err := tx.Create(&newUnits).Error; err != nil {
				return fmt.Errorf("failed to create serialized units: %w", err)
			}
		}
		for i := range unitUpdates {
			u := unitUpdates[i]
			if err := tx.Model(&models.SerializedUnit{}).Where("id = ?", u.ID).
				Updates(map[string]interface{}{
					"status":        u.Status,
					"location":      u.Location,
					"assigned_to":   u.AssignedTo,
					"assigned_type": u.AssignedType,
				}).Error; err != nil {
				return fmt.Errorf("failed to update serialized unit: %w", err)
			}
		}

		if err := tx.Create(txRow).Error; err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txRow, nil
}

func movedQuantity(req *AddTransactionRequest) float64 {
	if len(req.SerialNumbers) > 0 {
		return float64(len(req.SerialNumbers))
	}
	if req.Quantity < 0 {
		return -req.Quantity
	}
	return req.Quantity
}

// applyBulk mutates the in-memory bulk aggregates for the requested movement,
// or fails without touching anything. The caller persists under the version
// guard.
func (s *InventoryService) applyBulk(record *models.InventoryRecord, req *AddTransactionRequest, txRow *models.Transaction) error {
	if record.LocationQuantities == nil {
		record.LocationQuantities = models.QuantityMap{}
	}

	switch req.Type {
	case models.TransactionTypeReceipt:
		if req.Quantity <= 0 {
			return apperrors.Validation("receipt quantity must be positive")
		}
		location := orDefault(req.ToLocation)
		txRow.ToLocation = location
		s.updateAverageCost(record, req)
		record.QuantityOnHand += req.Quantity
		record.LocationQuantities[location] += req.Quantity

	case models.TransactionTypeIssue:
		if req.Quantity <= 0 {
			return apperrors.Validation("issue quantity must be positive")
		}
		if req.Quantity > record.QuantityAvailable {
			return apperrors.Newf(apperrors.CodeInsufficientQuantity,
				"requested %.4f but only %.4f available", req.Quantity, record.QuantityAvailable)
		}
		if err := s.drainLocations(record, req.FromLocation, req.Quantity); err != nil {
			return err
		}
		record.QuantityOnHand -= req.Quantity
		txRow.Quantity = -req.Quantity

	case models.TransactionTypeReturn:
		if req.Quantity <= 0 {
			return apperrors.Validation("return quantity must be positive")
		}
		location := orDefault(req.ToLocation)
		txRow.ToLocation = location
		record.QuantityOnHand += req.Quantity
		record.LocationQuantities[location] += req.Quantity

	case models.TransactionTypeAdjustment:
		if req.Quantity == 0 {
			return apperrors.Validation("adjustment quantity must be non-zero")
		}
		if !req.AdjustmentReason.Valid() {
			return apperrors.Validation("adjustment requires a valid reason category")
		}
		if record.QuantityOnHand+req.Quantity < 0 {
			return apperrors.Newf(apperrors.CodeNegativeQuantity,
				"adjustment of %.4f would drive on-hand below zero", req.Quantity)
		}
		if req.Quantity > 0 {
			location := orDefault(req.ToLocation)
			txRow.ToLocation = location
			record.LocationQuantities[location] += req.Quantity
		} else {
			if err := s.drainLocations(record, req.FromLocation, -req.Quantity); err != nil {
				return err
			}
		}
		record.QuantityOnHand += req.Quantity

	case models.TransactionTypeTransfer:
		if req.Quantity <= 0 {
			return apperrors.Validation("transfer quantity must be positive")
		}
		if req.FromLocation == "" || req.ToLocation == "" {
			return apperrors.Validation("transfer requires from_location and to_location")
		}
		if record.LocationQuantities[req.FromLocation] < req.Quantity {
			return apperrors.Newf(apperrors.CodeInsufficientQuantityAtLocation,
				"location %q holds %.4f, requested %.4f",
				req.FromLocation, record.LocationQuantities[req.FromLocation], req.Quantity)
		}
		record.LocationQuantities[req.FromLocation] -= req.Quantity
		if record.LocationQuantities[req.FromLocation] == 0 {
			delete(record.LocationQuantities, req.FromLocation)
		}
		record.LocationQuantities[req.ToLocation] += req.Quantity
		// on-hand is unchanged in aggregate
		txRow.Quantity = req.Quantity

	case models.TransactionTypeWriteOff:
		if req.Quantity <= 0 {
			return apperrors.Validation("write-off quantity must be positive")
		}
		if req.Quantity > record.QuantityOnHand {
			return apperrors.Newf(apperrors.CodeInsufficientQuantity,
				"cannot write off %.4f with only %.4f on hand", req.Quantity, record.QuantityOnHand)
		}
		if err := s.drainLocations(record, req.FromLocation, req.Quantity); err != nil {
			return err
		}
		record.QuantityOnHand -= req.Quantity
		txRow.Quantity = -req.Quantity
	}

	record.QuantityAvailable = record.QuantityOnHand - record.QuantityReserved
	if record.QuantityAvailable < 0 {
		return apperrors.Newf(apperrors.CodeNegativeQuantity,
			"movement would drive available quantity below zero")
	}
	return nil
}

func orDefault(location string) string {
	if location == "" {
		return defaultLocation
	}
	return location
}

// drainLocations removes quantity from a named location, or when none is
// given, from locations in deterministic order. Keeps the invariant that the
// location breakdown always sums to on-hand.
func (s *InventoryService) drainLocations(record *models.InventoryRecord, from string, quantity float64) error {
	if from != "" {
		if record.LocationQuantities[from] < quantity {
			return apperrors.Newf(apperrors.CodeInsufficientQuantityAtLocation,
				"location %q holds %.4f, requested %.4f", from, record.LocationQuantities[from], quantity)
		}
		record.LocationQuantities[from] -= quantity
		if record.LocationQuantities[from] == 0 {
			delete(record.LocationQuantities, from)
		}
		return nil
	}

	locations := make([]string, 0, len(record.LocationQuantities))
	for loc := range record.LocationQuantities {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	remaining := quantity
	for _, loc := range locations {
		if remaining <= 0 {
			break
		}
		take := record.LocationQuantities[loc]
		if take > remaining {
			take = remaining
		}
		record.LocationQuantities[loc] -= take
		if record.LocationQuantities[loc] == 0 {
			delete(record.LocationQuantities, loc)
		}
		remaining -= take
	}
	if remaining > 0 {
		return apperrors.Newf(apperrors.CodeInsufficientQuantity,
			"location breakdown cannot cover %.4f", quantity)
	}
	return nil
}

// updateAverageCost folds a costed receipt into the moving average.
func (s *InventoryService) updateAverageCost(record *models.InventoryRecord, req *AddTransactionRequest) {
	if req.UnitCost == nil || record.CostMethod != models.CostMethodMovingAverage {
		if req.UnitCost != nil && record.CostMethod == models.CostMethodLastCost {
			record.AverageCost = *req.UnitCost
		}
		return
	}
	newOnHand := record.QuantityOnHand + req.Quantity
	if newOnHand <= 0 {
		return
	}
	record.AverageCost = (record.AverageCost*record.QuantityOnHand + *req.UnitCost*req.Quantity) / newOnHand
}

// applySerialized resolves the movement against named units and returns the
// unit rows to create or update. Serialized aggregates are derived from unit
// status counts: on-hand is every non-retired unit, reserved covers assigned
// and in-use units.
func (s *InventoryService) applySerialized(record *models.InventoryRecord, req *AddTransactionRequest) ([]models.SerializedUnit, []models.SerializedUnit, error) {
	if len(req.SerialNumbers) == 0 {
		return nil, nil, apperrors.Validation("serialized movements require serial_numbers")
	}
	if req.Type == models.TransactionTypeAdjustment {
		return nil, nil, apperrors.Validation(
			"serialized records adjust via explicit receipt/write_off of units, not signed deltas")
	}

	bySerial := make(map[string]*models.SerializedUnit, len(record.Units))
	for i := range record.Units {
		bySerial[record.Units[i].SerialNumber] = &record.Units[i]
	}

	var newUnits []models.SerializedUnit
	var updates []models.SerializedUnit

	switch req.Type {
	case models.TransactionTypeReceipt:
		location := orDefault(req.ToLocation)
		seen := make(map[string]bool, len(req.SerialNumbers))
		for _, serial := range req.SerialNumbers {
			if _, exists := bySerial[serial]; exists || seen[serial] {
				return nil, nil, apperrors.Newf(apperrors.CodeDuplicateSerial,
					"serial number %q already exists on this record", serial)
			}
			seen[serial] = true
			newUnits = append(newUnits, models.SerializedUnit{
				InventoryRecordID: record.ID,
				SerialNumber:      serial,
				Status:            models.UnitStatusAvailable,
				Location:          location,
			})
		}

	case models.TransactionTypeIssue:
		for _, serial := range req.SerialNumbers {
			unit, exists := bySerial[serial]
			if !exists {
				return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "serialized unit %q not found", serial)
			}
			if unit.Status != models.UnitStatusAvailable {
				return nil, nil, apperrors.Newf(apperrors.CodeUnitNotAvailable,
					"unit %q is %s, not available", serial, unit.Status)
			}
			unit.Status = models.UnitStatusAssigned
			unit.AssignedTo = req.ReferenceID
			unit.AssignedType = req.ReferenceType
			updates = append(updates, *unit)
		}

	case models.TransactionTypeReturn:
		location := orDefault(req.ToLocation)
		for _, serial := range req.SerialNumbers {
			unit, exists := bySerial[serial]
			if !exists {
				return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "serialized unit %q not found", serial)
			}
			if !models.CanTransition(unit.Status, models.UnitStatusAvailable) {
				return nil, nil, apperrors.Newf(apperrors.CodeInvalidTransition,
					"unit %q cannot return from status %s", serial, unit.Status)
			}
			unit.Status = models.UnitStatusAvailable
			unit.AssignedTo = nil
			unit.AssignedType = ""
			unit.Location = location
			updates = append(updates, *unit)
		}

	case models.TransactionTypeTransfer:
		if req.FromLocation == "" || req.ToLocation == "" {
			return nil, nil, apperrors.Validation("transfer requires from_location and to_location")
		}
		for _, serial := range req.SerialNumbers {
			unit, exists := bySerial[serial]
			if !exists {
				return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "serialized unit %q not found", serial)
			}
			if unit.Location != req.FromLocation {
				return nil, nil, apperrors.Newf(apperrors.CodeInsufficientQuantityAtLocation,
					"unit %q is at %q, not %q", serial, unit.Location, req.FromLocation)
			}
			unit.Location = req.ToLocation
			updates = append(updates, *unit)
		}

	case models.TransactionTypeWriteOff:
		for _, serial := range req.SerialNumbers {
			unit, exists := bySerial[serial]
			if !exists {
				return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "serialized unit %q not found", serial)
			}
			if unit.Status == models.UnitStatusRetired {
				return nil, nil, apperrors.Newf(apperrors.CodeInvalidTransition,
					"unit %q is already retired", serial)
			}
			unit.Status = models.UnitStatusRetired
			updates = append(updates, *unit)
		}
	}

	s.recomputeSerializedAggregates(record, newUnits)
	return newUnits, updates, nil
}

// recomputeSerializedAggregates rebuilds the cached counts from unit
// statuses. record.Units already reflects the pending status changes;
// pending new units are passed separately.
func (s *InventoryService) recomputeSerializedAggregates(record *models.InventoryRecord, pending []models.SerializedUnit) {
	onHand, available, reserved := 0.0, 0.0, 0.0
	locations := models.QuantityMap{}

	count := func(u *models.SerializedUnit) {
		if u.Status == models.UnitStatusRetired {
			return
		}
		onHand++
		if u.Location != "" {
			locations[u.Location]++
		}
		switch u.Status {
		case models.UnitStatusAvailable:
			available++
		case models.UnitStatusAssigned, models.UnitStatusInUse:
			reserved++
		}
	}

	for i := range record.Units {
		count(&record.Units[i])
	}
	for i := range pending {
		count(&pending[i])
	}

	record.QuantityOnHand = onHand
	record.QuantityAvailable = available
	record.QuantityReserved = reserved
	record.LocationQuantities = locations
}

// UpdateSerializedUnit edits a unit's status, assignment, or location outside
// the transaction-quantity path (maintenance, retirement, relocation
// bookkeeping). Status changes are checked against the transition table.
func (s *InventoryService) UpdateSerializedUnit(inventoryID uuid.UUID, serialNumber string, req *UpdateSerializedUnitRequest) (*models.SerializedUnit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		unit, err := s.updateUnitOnce(inventoryID, serialNumber, req)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return unit, nil
	}
	return nil, lastErr
}

func (s *InventoryService) updateUnitOnce(inventoryID uuid.UUID, serialNumber string, req *UpdateSerializedUnitRequest) (*models.SerializedUnit, error) {
	record, err := s.GetInventory(inventoryID)
	if err != nil {
		return nil, err
	}

	var unit *models.SerializedUnit
	for i := range record.Units {
		if record.Units[i].SerialNumber == serialNumber {
			unit = &record.Units[i]
			break
		}
	}
	if unit == nil {
		return nil, apperrors.NotFound("serialized unit")
	}

	updates := map[string]interface{}{}
	if req.Status != nil && *req.Status != unit.Status {
		if !models.CanTransition(unit.Status, *req.Status) {
			return nil, apperrors.Newf(apperrors.CodeInvalidTransition,
				"cannot transition unit from %s to %s", unit.Status, *req.Status)
		}
		unit.Status = *req.Status
		updates["status"] = *req.Status
		if *req.Status == models.UnitStatusMaintenance {
			now := time.Now()
			unit.LastMaintenanceDate = &now
			updates["last_maintenance_date"] = now
		}
		if *req.Status == models.UnitStatusAvailable {
			unit.AssignedTo = nil
			updates["assigned_to"] = nil
		}
	}
	if req.AssignedTo != nil {
		unit.AssignedTo = req.AssignedTo
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.Location != nil {
		unit.Location = *req.Location
		updates["location"] = *req.Location
	}
	if req.Notes != nil {
		unit.Notes = *req.Notes
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return unit, nil
	}

	s.recomputeSerializedAggregates(record, nil)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InventoryRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]interface{}{
				"quantity_on_hand":    record.QuantityOnHand,
				"quantity_reserved":   record.QuantityReserved,
				"quantity_available":  record.QuantityAvailable,
				"location_quantities": record.LocationQuantities,
				"version":             record.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeConflict, "inventory record was modified concurrently")
		}
		return tx.Model(&models.SerializedUnit{}).Where("id = ?", unit.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return unit, nil
}

// Reconcile folds the full transaction history of a record and compares the
// result with the cached on-hand quantity.
func (s *InventoryService) Reconcile(inventoryID uuid.UUID) (*ReconciliationReport, error) {
	record, err := s.GetInventory(inventoryID)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := s.db.Where("inventory_record_id = ?", inventoryID).
		Order("performed_at ASC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transaction history: %w", err)
	}

	expected := 0.0
	for _, t := range transactions {
		switch record.InventoryType {
		case models.InventoryTypeBulk:
			// bulk rows carry signed quantities; transfers are net-zero
			if t.Type != models.TransactionTypeTransfer {
				expected += t.Quantity
			}
		case models.InventoryTypeSerialized:
			switch t.Type {
			case models.TransactionTypeReceipt:
				expected += float64(len(t.SerialNumbers))
			case models.TransactionTypeWriteOff:
				expected -= float64(len(t.SerialNumbers))
			}
		}
	}

	return &ReconciliationReport{
		InventoryRecordID: record.ID,
		TransactionCount:  len(transactions),
		ExpectedOnHand:    expected,
		CachedOnHand:      record.QuantityOnHand,
		Consistent:        expected == record.QuantityOnHand,
	}, nil
}
