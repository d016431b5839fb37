// internal/models/inventory.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// InventoryRecord is the single stock row for a (product, optional variant)
// pair. InventoryType is fixed at creation: bulk records track quantities and
// a per-location breakdown, serialized records track individually identified
// units. The quantity fields are a cache of the transaction-log fold,
// recomputed on every write; Reconcile replays the log to verify them.
type InventoryRecord struct {
	BaseModel
	ProductID          uuid.UUID     `json:"product_id" gorm:"type:uuid;not null;index"`
	VariantID          *uuid.UUID    `json:"variant_id" gorm:"type:uuid;index"`
	InventoryType      InventoryType `json:"inventory_type" gorm:"type:varchar(20);not null"`
	QuantityOnHand     float64       `json:"quantity_on_hand" gorm:"type:decimal(14,4);default:0"`
	QuantityReserved   float64       `json:"quantity_reserved" gorm:"type:decimal(14,4);default:0"`
	QuantityAvailable  float64       `json:"quantity_available" gorm:"type:decimal(14,4);default:0"`
	LocationQuantities QuantityMap   `json:"location_quantities" gorm:"type:jsonb"`
	ReorderPoint       *float64      `json:"reorder_point" gorm:"type:decimal(14,4)"`
	ReorderQuantity    *float64      `json:"reorder_quantity" gorm:"type:decimal(14,4)"`
	AverageCost        float64       `json:"average_cost" gorm:"type:decimal(12,4);default:0"`
	CostMethod         CostMethod    `json:"cost_method" gorm:"type:varchar(20);default:'moving_average'"`
	Version            int           `json:"version" gorm:"not null;default:1"`

	// Relationships
	Units []SerializedUnit `json:"units,omitempty" gorm:"foreignKey:InventoryRecordID"`
}

// SerializedUnit is one physically distinct item within a serialized
// inventory record. SerialNumber is unique within the parent record.
type SerializedUnit struct {
	BaseModel
	InventoryRecordID   uuid.UUID  `json:"inventory_record_id" gorm:"type:uuid;not null;index:idx_units_record_serial,unique"`
	SerialNumber        string     `json:"serial_number" gorm:"size:100;not null;index:idx_units_record_serial,unique"`
	Status              UnitStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	Location            string     `json:"location" gorm:"size:100"`
	AssignedTo          *uuid.UUID `json:"assigned_to" gorm:"type:uuid;index"`
	AssignedType        string     `json:"assigned_type" gorm:"size:50"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	Notes               string     `json:"notes" gorm:"type:text"`
}

// unitTransitions is the full legal-transition graph for serialized units.
// available is the initial state (set on receipt), retired is terminal.
var unitTransitions = map[UnitStatus][]UnitStatus{
	UnitStatusAvailable:   {UnitStatusAssigned, UnitStatusMaintenance, UnitStatusRetired},
	UnitStatusAssigned:    {UnitStatusInUse, UnitStatusAvailable, UnitStatusRetired},
	UnitStatusInUse:       {UnitStatusAvailable, UnitStatusMaintenance, UnitStatusRetired},
	UnitStatusMaintenance: {UnitStatusAvailable, UnitStatusRetired},
	UnitStatusRetired:     {},
}

// CanTransition reports whether a serialized unit may move from one status to
// another. Same-status updates are allowed (no-op edits of location/notes).
func CanTransition(from, to UnitStatus) bool {
	if from == to {
		return true
	}
	for _, next := range unitTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transaction is one immutable row in the inventory ledger. Every quantity or
// unit-status change appends exactly one transaction; rows are never updated
// or deleted, and the current record state must always be derivable by
// folding its transaction history.
type Transaction struct {
	ID                uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	InventoryRecordID uuid.UUID        `json:"inventory_record_id" gorm:"type:uuid;not null;index"`
	Type              TransactionType  `json:"type" gorm:"type:varchar(20);not null;index"`
	Quantity          float64          `json:"quantity" gorm:"type:decimal(14,4);default:0"` // signed delta; zero for serialized moves
	SerialNumbers     pq.StringArray   `json:"serial_numbers" gorm:"type:text[]"`
	FromLocation      string           `json:"from_location" gorm:"size:100"`
	ToLocation        string           `json:"to_location" gorm:"size:100"`
	ReferenceType     string           `json:"reference_type" gorm:"size:50;index"`
	ReferenceID       *uuid.UUID       `json:"reference_id" gorm:"type:uuid;index"`
	AdjustmentReason  AdjustmentReason `json:"adjustment_reason,omitempty" gorm:"type:varchar(30)"`
	UnitCost          *float64         `json:"unit_cost" gorm:"type:decimal(12,4)"`
	TotalCost         *float64         `json:"total_cost" gorm:"type:decimal(14,4)"`
	PerformedBy       string           `json:"performed_by" gorm:"size:100"`
	PerformedAt       time.Time        `json:"performed_at" gorm:"not null;index"`
	Notes             string           `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time        `json:"created_at"`
}

func (Transaction) TableName() string {
	return "inventory_transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.PerformedAt.IsZero() {
		t.PerformedAt = time.Now()
	}
	return nil
}
