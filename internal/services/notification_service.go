// internal/services/notification_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/config"
	"github.com/buildops/materials-backend/internal/models"
	"github.com/buildops/materials-backend/internal/utils"
)

// NotificationService persists operational notifications and optionally
// mails them to the purchasing inbox. Email failures are logged, never
// propagated: state changes in this core must not block on delivery.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) CreateLowStockNotification(record *models.InventoryRecord, productName string, suggestedOrder float64) error {
	notification := &models.Notification{
		Type:  "low_stock",
		Title: fmt.Sprintf("Low stock: %s", productName),
		Message: fmt.Sprintf("%s is below its reorder point (%.2f on hand). Suggested order quantity: %.2f.",
			productName, record.QuantityOnHand, suggestedOrder),
		Priority:            "high",
		Status:              models.NotificationStatusUnread,
		RelatedResourceType: "inventory_record",
		RelatedResourceID:   &record.ID,
		Data: models.JSONB{
			"quantity_on_hand": record.QuantityOnHand,
			"reorder_point":    record.ReorderPoint,
			"suggested_order":  suggestedOrder,
		},
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.config != nil && s.config.Email.PurchasingEmail != "" {
		go s.sendLowStockEmail(notification, productName)
	}
	return nil
}

func (s *NotificationService) ListNotifications(params utils.PaginationParams, unreadOnly bool) ([]models.Notification, int64, error) {
	q := s.db.Model(&models.Notification{})
	if unreadOnly {
		q = q.Where("status = ?", models.NotificationStatusUnread)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := utils.ApplyPagination(q.Order("created_at DESC"), params).
		Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *NotificationService) MarkRead(id uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

var lowStockEmailTemplate = template.Must(template.New("low_stock").Parse(`
<h2>Low stock alert</h2>
<p>{{.Message}}</p>
<p>Open the purchasing dashboard to convert outstanding material requests.</p>
`))

func (s *NotificationService) sendLowStockEmail(notification *models.Notification, productName string) {
	var body bytes.Buffer
	if err := lowStockEmailTemplate.Execute(&body, notification); err != nil {
		logrus.WithError(err).Error("Failed to render low-stock email")
		return
	}

	if err := s.sendEmail(s.config.Email.PurchasingEmail, notification.Title, body.String()); err != nil {
		logrus.WithError(err).WithField("product", productName).Warn("Failed to send low-stock email")
	}
}

func (s *NotificationService) sendEmail(to, subject, htmlBody string) error {
	if s.config.Email.SMTPHost == "" {
		return errors.New("smtp is not configured")
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg))
}
