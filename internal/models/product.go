// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry for a stocked material. Pricing lives on its
// supplier offers and variants; the product-level DiscountPercent mirrors the
// last rule applied to it. Products referenced by open POs or inventory are
// soft-deactivated via IsActive, never hard-deleted.
type Product struct {
	BaseModel
	Code                  string     `json:"code" gorm:"size:100;uniqueIndex;not null"`
	Name                  string     `json:"name" gorm:"size:255;not null"`
	Description           string     `json:"description" gorm:"type:text"`
	Category              string     `json:"category" gorm:"size:100;index"`
	Unit                  string     `json:"unit" gorm:"size:30;not null;default:'each'"`
	PricebookSection      string     `json:"pricebook_section" gorm:"size:50"`
	PricebookPage         string     `json:"pricebook_page" gorm:"size:50"`
	CategoryGroup         string     `json:"category_group" gorm:"size:50;index"`
	ManufacturerID        *uuid.UUID `json:"manufacturer_id" gorm:"type:uuid;index"`
	Properties            JSONB      `json:"properties" gorm:"type:jsonb"`
	DiscountPercent       float64    `json:"discount_percent" gorm:"type:decimal(7,4);default:0"`
	DiscountEffectiveDate *time.Time `json:"discount_effective_date"`
	IsActive              bool       `json:"is_active" gorm:"default:true;index"`
	Version               int        `json:"version" gorm:"not null;default:1"`

	// Relationships
	Variants       []Variant       `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	SupplierOffers []SupplierOffer `json:"supplier_offers,omitempty" gorm:"foreignKey:ProductID"`
}

// Variant is a specific SKU within a product, distinguished by a fixed set of
// variant-key properties (e.g. pipe diameter x insulation thickness). It
// carries its own pricing block and supplier offers, independently overridable
// from the parent product.
type Variant struct {
	BaseModel
	ProductID       uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	SKU             string    `json:"sku" gorm:"size:100;uniqueIndex;not null"`
	Name            string    `json:"name" gorm:"size:255"`
	VariantKey      JSONB     `json:"variant_key" gorm:"type:jsonb"`
	ListPrice       *float64  `json:"list_price" gorm:"type:decimal(12,4)"`
	NetPrice        *float64  `json:"net_price" gorm:"type:decimal(12,4)"`
	DiscountPercent float64   `json:"discount_percent" gorm:"type:decimal(7,4);default:0"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	SupplierOffers []SupplierOffer `json:"supplier_offers,omitempty" gorm:"foreignKey:VariantID"`
}

// SupplierOffer pairs a distributor with a manufacturer for a product or a
// variant (exactly one of ProductID/VariantID is set) and carries the
// list/net price for that sourcing path.
type SupplierOffer struct {
	BaseModel
	ProductID        *uuid.UUID `json:"product_id" gorm:"type:uuid;index"`
	VariantID        *uuid.UUID `json:"variant_id" gorm:"type:uuid;index"`
	DistributorID    *uuid.UUID `json:"distributor_id" gorm:"type:uuid;index"`
	ManufacturerID   *uuid.UUID `json:"manufacturer_id" gorm:"type:uuid;index"`
	DistributorName  string     `json:"distributor_name" gorm:"size:255"`
	ManufacturerName string     `json:"manufacturer_name" gorm:"size:255"`
	ListPrice        *float64   `json:"list_price" gorm:"type:decimal(12,4)"`
	NetPrice         *float64   `json:"net_price" gorm:"type:decimal(12,4)"`
	DiscountPercent  float64    `json:"discount_percent" gorm:"type:decimal(7,4);default:0"`
	IsPreferred      bool       `json:"is_preferred" gorm:"default:false"`
}

// PriceSnapshot is an append-only record of a pricing change. Rows are written
// whenever the discount engine or a manual edit rewrites a net price, and are
// never updated or deleted, so audit tooling can replay pricing history
// without parsing live state.
type PriceSnapshot struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ProductID       uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	VariantID       *uuid.UUID `json:"variant_id" gorm:"type:uuid;index"`
	SupplierOfferID *uuid.UUID `json:"supplier_offer_id" gorm:"type:uuid;index"`
	DiscountID      *uuid.UUID `json:"discount_id" gorm:"type:uuid;index"`
	ListPrice       *float64   `json:"list_price" gorm:"type:decimal(12,4)"`
	NetPriceBefore  *float64   `json:"net_price_before" gorm:"type:decimal(12,4)"`
	NetPriceAfter   *float64   `json:"net_price_after" gorm:"type:decimal(12,4)"`
	PercentBefore   float64    `json:"percent_before" gorm:"type:decimal(7,4)"`
	PercentAfter    float64    `json:"percent_after" gorm:"type:decimal(7,4)"`
	Source          string     `json:"source" gorm:"size:50;not null;default:'discount_apply'"`
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`
}

func (s *PriceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// PropertyDefinition declares a property key products and variants may carry.
// Property maps are validated against this catalog at write time; numeric
// properties are normalized through the unit converter using UnitKey.
type PropertyDefinition struct {
	BaseModel
	Key          string `json:"key" gorm:"size:100;uniqueIndex;not null"`
	Label        string `json:"label" gorm:"size:255"`
	DataType     string `json:"data_type" gorm:"size:20;not null;default:'string'"` // string | number | boolean
	UnitKey      string `json:"unit_key" gorm:"size:50"`
	IsVariantKey bool   `json:"is_variant_key" gorm:"default:false"`
}
