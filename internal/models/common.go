// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// IDs are assigned in Go so the same models work against postgres and the
// sqlite databases used by the test suites.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL (stored as plain JSON text on sqlite)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return errors.New("unsupported type for JSONB")
}

// QuantityMap holds a per-location quantity breakdown. The sum of its values
// must always equal the owning record's QuantityOnHand.
type QuantityMap map[string]float64

func (q QuantityMap) Value() (driver.Value, error) {
	if q == nil {
		return nil, nil
	}
	return json.Marshal(q)
}

func (q *QuantityMap) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	}
	return errors.New("unsupported type for QuantityMap")
}

// Enums
type DiscountType string

const (
	DiscountTypeCategory  DiscountType = "category"
	DiscountTypeCustomer  DiscountType = "customer"
	DiscountTypeProduct   DiscountType = "product"
	DiscountTypeSupplier  DiscountType = "supplier"
	DiscountTypeGroup     DiscountType = "group"
	DiscountTypeUniversal DiscountType = "universal"
)

type InventoryType string

const (
	InventoryTypeBulk       InventoryType = "bulk"
	InventoryTypeSerialized InventoryType = "serialized"
)

type TransactionType string

const (
	TransactionTypeReceipt    TransactionType = "receipt"
	TransactionTypeIssue      TransactionType = "issue"
	TransactionTypeReturn     TransactionType = "return"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeWriteOff   TransactionType = "write_off"
)

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusAssigned    UnitStatus = "assigned"
	UnitStatusInUse       UnitStatus = "in_use"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusRetired     UnitStatus = "retired"
)

type CostMethod string

const (
	CostMethodMovingAverage CostMethod = "moving_average"
	CostMethodStandard      CostMethod = "standard"
	CostMethodLastCost      CostMethod = "last_cost"
)

type AdjustmentReason string

const (
	AdjustmentReasonCycleCount     AdjustmentReason = "cycle_count"
	AdjustmentReasonDamage         AdjustmentReason = "damage"
	AdjustmentReasonShrinkage      AdjustmentReason = "shrinkage"
	AdjustmentReasonDataCorrection AdjustmentReason = "data_correction"
	AdjustmentReasonFound          AdjustmentReason = "found"
)

func (r AdjustmentReason) Valid() bool {
	switch r {
	case AdjustmentReasonCycleCount, AdjustmentReasonDamage, AdjustmentReasonShrinkage,
		AdjustmentReasonDataCorrection, AdjustmentReasonFound:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
