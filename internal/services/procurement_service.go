// internal/services/procurement_service.go
package services

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
	"github.com/buildops/materials-backend/internal/utils"
)

// ProcurementService is the read-only caller contract for the material
// request to purchase order conversion workflow: it resolves each requested
// line's preferred supplier offer and groups lines into per-supplier draft
// orders. It exposes no write path.
type ProcurementService struct {
	db      *gorm.DB
	catalog *CatalogService
}

type RequestLine struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  float64    `json:"quantity" validate:"required,gt=0"`
	Notes     string     `json:"notes,omitempty"`
}

type GroupRequest struct {
	Lines []RequestLine `json:"lines" validate:"required,min=1,dive"`
}

type DraftLine struct {
	ProductID        uuid.UUID  `json:"product_id"`
	VariantID        *uuid.UUID `json:"variant_id,omitempty"`
	Code             string     `json:"code"`
	Description      string     `json:"description"`
	Quantity         float64    `json:"quantity"`
	Unit             string     `json:"unit"`
	UnitPrice        *float64   `json:"unit_price,omitempty"`
	LineTotal        float64    `json:"line_total"`
	ManufacturerName string     `json:"manufacturer_name,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

type PurchaseOrderDraft struct {
	DistributorID   *uuid.UUID  `json:"distributor_id,omitempty"`
	DistributorName string      `json:"distributor_name"`
	Lines           []DraftLine `json:"lines"`
	Subtotal        float64     `json:"subtotal"`
}

const unassignedSupplier = "unassigned"

func NewProcurementService(db *gorm.DB, catalog *CatalogService) *ProcurementService {
	return &ProcurementService{db: db, catalog: catalog}
}

// GroupRequestLines resolves pricing for every line and groups them by
// distributor. Lines whose product carries no usable offer land in an
// "unassigned" draft for manual sourcing.
func (s *ProcurementService) GroupRequestLines(req *GroupRequest) ([]PurchaseOrderDraft, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	drafts := map[string]*PurchaseOrderDraft{}

	for _, line := range req.Lines {
		product, err := s.catalog.GetProduct(line.ProductID)
		if err != nil {
			return nil, err
		}

		offers := product.SupplierOffers
		code := product.Code
		description := product.Name
		if line.VariantID != nil {
			variant := findVariant(product, *line.VariantID)
			if variant == nil {
				return nil, apperrors.NotFound("variant")
			}
			if len(variant.SupplierOffers) > 0 {
				offers = variant.SupplierOffers
			}
			code = variant.SKU
			if variant.Name != "" {
				description = variant.Name
			}
		}

		offer := pickOffer(offers)

		draftLine := DraftLine{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			Code:        code,
			Description: description,
			Quantity:    line.Quantity,
			Unit:        product.Unit,
			Notes:       line.Notes,
		}

		key := unassignedSupplier
		supplierName := "Unassigned"
		var distributorID *uuid.UUID
		if offer != nil {
			draftLine.UnitPrice = offer.NetPrice
			if offer.NetPrice == nil {
				draftLine.UnitPrice = offer.ListPrice
			}
			if draftLine.UnitPrice != nil {
				draftLine.LineTotal = *draftLine.UnitPrice * line.Quantity
			}
			draftLine.ManufacturerName = offer.ManufacturerName
			if offer.DistributorID != nil {
				key = offer.DistributorID.String()
				distributorID = offer.DistributorID
			}
			if offer.DistributorName != "" {
				supplierName = offer.DistributorName
				if offer.DistributorID == nil {
					key = offer.DistributorName
				}
			}
		}

		draft, exists := drafts[key]
		if !exists {
			draft = &PurchaseOrderDraft{DistributorID: distributorID, DistributorName: supplierName}
			drafts[key] = draft
		}
		draft.Lines = append(draft.Lines, draftLine)
		draft.Subtotal += draftLine.LineTotal
	}

	out := make([]PurchaseOrderDraft, 0, len(drafts))
	for _, draft := range drafts {
		out = append(out, *draft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistributorName < out[j].DistributorName })
	return out, nil
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.Variant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

// pickOffer prefers an explicitly preferred offer, then the cheapest priced
// one.
func pickOffer(offers []models.SupplierOffer) *models.SupplierOffer {
	var best *models.SupplierOffer
	for i := range offers {
		offer := &offers[i]
		if offer.IsPreferred {
			return offer
		}
		price := offer.NetPrice
		if price == nil {
			price = offer.ListPrice
		}
		if price == nil {
			continue
		}
		if best == nil {
			best = offer
			continue
		}
		bestPrice := best.NetPrice
		if bestPrice == nil {
			bestPrice = best.ListPrice
		}
		if *price < *bestPrice {
			best = offer
		}
	}
	if best == nil && len(offers) > 0 {
		return &offers[0]
	}
	return best
}
