// internal/models/discount.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount is a declarative pricing rule. It carries exactly one selector for
// its type (category/group name, product id, supplier id, ...) and is matched
// against the catalog dynamically on every apply run, so products created
// after the rule still pick it up. Apply runs mutate only the bookkeeping
// fields (LastApplied, ProductsAffected), never the rule itself. Rules are
// deactivated rather than deleted to preserve the audit trail.
type Discount struct {
	BaseModel
	Name             string       `json:"name" gorm:"size:255"`
	DiscountType     DiscountType `json:"discount_type" gorm:"type:varchar(20);not null;index"`
	Category         *string      `json:"category,omitempty" gorm:"size:100;index"`
	CategoryGroup    *string      `json:"category_group,omitempty" gorm:"size:50;index"`
	ProductID        *uuid.UUID   `json:"product_id,omitempty" gorm:"type:uuid;index"`
	SupplierID       *uuid.UUID   `json:"supplier_id,omitempty" gorm:"type:uuid;index"`
	CustomerID       *uuid.UUID   `json:"customer_id,omitempty" gorm:"type:uuid;index"`
	DiscountPercent  float64      `json:"discount_percent" gorm:"type:decimal(7,4);not null"`
	EffectiveDate    *time.Time   `json:"effective_date"`
	ExpiresDate      *time.Time   `json:"expires_date"`
	ReplacesDate     *time.Time   `json:"replaces_date"`
	LastApplied      *time.Time   `json:"last_applied"`
	ProductsAffected int          `json:"products_affected" gorm:"default:0"`
	IsActive         bool         `json:"is_active" gorm:"default:true;index"`
}

// HasSelector reports whether the rule carries a usable selector for its
// type. Rules failing this check are rejected with an invalid-rule error
// when applied.
func (d *Discount) HasSelector() bool {
	switch d.DiscountType {
	case DiscountTypeCategory:
		return (d.Category != nil && *d.Category != "") || (d.CategoryGroup != nil && *d.CategoryGroup != "")
	case DiscountTypeGroup:
		return d.CategoryGroup != nil && *d.CategoryGroup != ""
	case DiscountTypeProduct:
		return d.ProductID != nil
	case DiscountTypeSupplier:
		return d.SupplierID != nil
	case DiscountTypeCustomer:
		return d.CustomerID != nil
	case DiscountTypeUniversal:
		return true
	}
	return false
}
