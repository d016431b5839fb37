// internal/services/discount_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
	"github.com/buildops/materials-backend/internal/utils"
)

// DiscountService matches discount rules to products and rewrites their net
// prices. Recomputation always replaces from the list price, never stacks,
// so repeated runs are idempotent. Application is not transactional across
// the catalog: each matched product is read, recomputed, and saved
// independently under its own optimistic version.
type DiscountService struct {
	db *gorm.DB
}

const saveRetries = 3

type CreateDiscountRequest struct {
	Name            string              `json:"name,omitempty" validate:"omitempty,max=255"`
	DiscountType    models.DiscountType `json:"discount_type" validate:"required,oneof=category customer product supplier group universal"`
	Category        *string             `json:"category,omitempty"`
	CategoryGroup   *string             `json:"category_group,omitempty"`
	ProductID       *uuid.UUID          `json:"product_id,omitempty"`
	SupplierID      *uuid.UUID          `json:"supplier_id,omitempty"`
	CustomerID      *uuid.UUID          `json:"customer_id,omitempty"`
	DiscountPercent float64             `json:"discount_percent" validate:"min=0,max=100"`
	EffectiveDate   *time.Time          `json:"effective_date,omitempty"`
	ExpiresDate     *time.Time          `json:"expires_date,omitempty"`
	ReplacesDate    *time.Time          `json:"replaces_date,omitempty"`
}

type UpdateDiscountRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	Category        *string    `json:"category,omitempty"`
	CategoryGroup   *string    `json:"category_group,omitempty"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"`
	SupplierID      *uuid.UUID `json:"supplier_id,omitempty"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`
	DiscountPercent *float64   `json:"discount_percent,omitempty" validate:"omitempty,min=0,max=100"`
	EffectiveDate   *time.Time `json:"effective_date,omitempty"`
	ExpiresDate     *time.Time `json:"expires_date,omitempty"`
	ReplacesDate    *time.Time `json:"replaces_date,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
}

// DiscountApplyResult is the per-rule outcome of an apply run. Inactive rules
// are reported as skipped rather than failed; batch runs attach individual
// failures to Error without aborting the remaining rules.
type DiscountApplyResult struct {
	DiscountID      uuid.UUID `json:"discount_id"`
	Name            string    `json:"name,omitempty"`
	Skipped         bool      `json:"skipped,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ProductsMatched int       `json:"products_matched"`
	ProductsUpdated int       `json:"products_updated"`
	VariantsUpdated int       `json:"variants_updated"`
	Error           string    `json:"error,omitempty"`
}

func NewDiscountService(db *gorm.DB) *DiscountService {
	return &DiscountService{db: db}
}

func (s *DiscountService) CreateDiscount(req *CreateDiscountRequest) (*models.Discount, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	discount := &models.Discount{
		Name:            req.Name,
		DiscountType:    req.DiscountType,
		Category:        req.Category,
		CategoryGroup:   req.CategoryGroup,
		ProductID:       req.ProductID,
		SupplierID:      req.SupplierID,
		CustomerID:      req.CustomerID,
		DiscountPercent: req.DiscountPercent,
		EffectiveDate:   req.EffectiveDate,
		ExpiresDate:     req.ExpiresDate,
		ReplacesDate:    req.ReplacesDate,
		IsActive:        true,
	}

	if !discount.HasSelector() {
		return nil, apperrors.Newf(apperrors.CodeInvalidRule,
			"discount of type %q has no usable selector", req.DiscountType)
	}

	if err := s.db.Create(discount).Error; err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}
	return discount, nil
}

func (s *DiscountService) GetDiscount(id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	if err := s.db.First(&discount, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("discount")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &discount, nil
}

func (s *DiscountService) ListDiscounts(params utils.PaginationParams, includeInactive bool) ([]models.Discount, int64, error) {
	q := s.db.Model(&models.Discount{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count discounts: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "discount_type", "discount_percent", "last_applied"}
	q = utils.ApplySort(q, params, allowedSortFields)
	q = utils.ApplyPagination(q, params)

	var discounts []models.Discount
	if err := q.Find(&discounts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch discounts: %w", err)
	}
	return discounts, total, nil
}

// UpdateDiscount edits rule fields. Bookkeeping fields (last_applied,
// products_affected) are owned by apply runs and cannot be set here.
func (s *DiscountService) UpdateDiscount(id uuid.UUID, req *UpdateDiscountRequest) (*models.Discount, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	discount, err := s.GetDiscount(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		discount.Name = *req.Name
	}
	if req.Category != nil {
		discount.Category = req.Category
	}
	if req.CategoryGroup != nil {
		discount.CategoryGroup = req.CategoryGroup
	}
	if req.ProductID != nil {
		discount.ProductID = req.ProductID
	}
	if req.SupplierID != nil {
		discount.SupplierID = req.SupplierID
	}
	if req.CustomerID != nil {
		discount.CustomerID = req.CustomerID
	}
	if req.DiscountPercent != nil {
		discount.DiscountPercent = *req.DiscountPercent
	}
	if req.EffectiveDate != nil {
		discount.EffectiveDate = req.EffectiveDate
	}
	if req.ExpiresDate != nil {
		discount.ExpiresDate = req.ExpiresDate
	}
	if req.ReplacesDate != nil {
		discount.ReplacesDate = req.ReplacesDate
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}

	if !discount.HasSelector() {
		return nil, apperrors.Newf(apperrors.CodeInvalidRule,
			"discount of type %q has no usable selector", discount.DiscountType)
	}

	if err := s.db.Save(discount).Error; err != nil {
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}
	return discount, nil
}

// DeactivateDiscount handles DELETE semantics: rules are deactivated, never
// hard-deleted, so the pricing audit trail stays intact.
func (s *DiscountService) DeactivateDiscount(id uuid.UUID) error {
	res := s.db.Model(&models.Discount{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate discount: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("discount")
	}
	return nil
}

// ApplyDiscount resolves the rule's match query, rewrites net prices on every
// matched product's supplier offers and variants, and records the run on the
// discount. Products are only persisted when at least one field actually
// changed, which keeps re-runs cheap and idempotent.
func (s *DiscountService) ApplyDiscount(id uuid.UUID) (*DiscountApplyResult, error) {
	discount, err := s.GetDiscount(id)
	if err != nil {
		return nil, err
	}
	return s.apply(discount)
}

func (s *DiscountService) apply(discount *models.Discount) (*DiscountApplyResult, error) {
	result := &DiscountApplyResult{DiscountID: discount.ID, Name: discount.Name}

	if !discount.IsActive {
		result.Skipped = true
		result.Reason = "discount is inactive"
		return result, nil
	}

	if !discount.HasSelector() {
		return nil, apperrors.Newf(apperrors.CodeInvalidRule,
			"discount of type %q has no usable selector", discount.DiscountType)
	}

	matched, err := s.matchProducts(discount)
	if err != nil {
		return nil, err
	}
	result.ProductsMatched = len(matched)

	for i := range matched {
		updated, variantsUpdated, err := s.applyToProductWithRetry(discount, matched[i].ID)
		if err != nil {
			return nil, err
		}
		if updated {
			result.ProductsUpdated++
			result.VariantsUpdated += variantsUpdated
		}
	}

	now := time.Now()
	if err := s.db.Model(discount).Updates(map[string]interface{}{
		"last_applied":      now,
		"products_affected": result.VariantsUpdated,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to record discount application: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"discount_id":      discount.ID,
		"discount_type":    discount.DiscountType,
		"products_matched": result.ProductsMatched,
		"products_updated": result.ProductsUpdated,
		"variants_updated": result.VariantsUpdated,
	}).Info("Discount applied")

	return result, nil
}

// ApplyAllDiscounts runs every active discount. A single rule's failure is
// recorded in its result entry and does not abort the remaining rules.
func (s *DiscountService) ApplyAllDiscounts() ([]DiscountApplyResult, error) {
	discounts, err := s.FindActiveDiscounts()
	if err != nil {
		return nil, err
	}

	results := make([]DiscountApplyResult, 0, len(discounts))
	for i := range discounts {
		d := &discounts[i]
		res, err := s.apply(d)
		if err != nil {
			logrus.WithError(err).WithField("discount_id", d.ID).Warn("Discount application failed")
			results = append(results, DiscountApplyResult{
				DiscountID: d.ID,
				Name:       d.Name,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *DiscountService) FindActiveDiscounts() ([]models.Discount, error) {
	var discounts []models.Discount
	if err := s.db.Where("is_active = ?", true).Order("created_at ASC").
		Find(&discounts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active discounts: %w", err)
	}
	return discounts, nil
}

// matchProducts resolves the rule's declarative selector against the live
// catalog. Category rules apply both predicates when category and
// categoryGroup are both present. Supplier rules match the product's primary
// manufacturer or any offer's manufacturer. Customer rules are resolved at
// quote time by the sales layer and match nothing here.
func (s *DiscountService) matchProducts(d *models.Discount) ([]models.Product, error) {
	if d.DiscountType == models.DiscountTypeCustomer {
		return nil, nil
	}

	q := s.db.Model(&models.Product{}).Where("is_active = ?", true).
		Preload("SupplierOffers").Preload("Variants").Preload("Variants.SupplierOffers")

	switch d.DiscountType {
	case models.DiscountTypeCategory:
		if d.Category != nil && *d.Category != "" {
			q = q.Where("category = ?", *d.Category)
		}
		if d.CategoryGroup != nil && *d.CategoryGroup != "" {
			q = q.Where("category_group = ?", *d.CategoryGroup)
		}
	case models.DiscountTypeGroup:
		q = q.Where("category_group = ?", *d.CategoryGroup)
	case models.DiscountTypeProduct:
		q = q.Where("id = ?", *d.ProductID)
	case models.DiscountTypeUniversal:
		// no additional predicate
	case models.DiscountTypeSupplier:
		// matched in Go below: the selector may hit either the primary
		// manufacturer or any nested offer's manufacturer
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to match products: %w", err)
	}

	if d.DiscountType != models.DiscountTypeSupplier {
		return products, nil
	}

	matched := products[:0]
	for _, p := range products {
		if productHasSupplier(&p, *d.SupplierID) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func productHasSupplier(p *models.Product, supplierID uuid.UUID) bool {
	if p.ManufacturerID != nil && *p.ManufacturerID == supplierID {
		return true
	}
	for _, offer := range p.SupplierOffers {
		if offer.ManufacturerID != nil && *offer.ManufacturerID == supplierID {
			return true
		}
	}
	for _, v := range p.Variants {
		for _, offer := range v.SupplierOffers {
			if offer.ManufacturerID != nil && *offer.ManufacturerID == supplierID {
				return true
			}
		}
	}
	return false
}

// applyToProductWithRetry recomputes and persists one product under its
// optimistic version, retrying against fresh state when a concurrent edit
// bumped the version mid-run.
func (s *DiscountService) applyToProductWithRetry(d *models.Discount, productID uuid.UUID) (bool, int, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		var product models.Product
		if err := s.db.Preload("SupplierOffers").Preload("Variants").Preload("Variants.SupplierOffers").
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// deactivated or removed since matching; nothing to update
				return false, 0, nil
			}
			return false, 0, fmt.Errorf("database error: %w", err)
		}

		changed, variantsUpdated, err := s.applyToProduct(d, &product)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeConflict) {
				lastErr = err
				continue
			}
			return false, 0, err
		}
		return changed, variantsUpdated, nil
	}
	return false, 0, lastErr
}

// applyToProduct rewrites the product's price fields from the rule. The net
// price is always recomputed from the list price (replace, never stack).
// Returns whether anything changed and how many variants were updated.
func (s *DiscountService) applyToProduct(d *models.Discount, product *models.Product) (bool, int, error) {
	percent := d.DiscountPercent
	now := time.Now()

	changed := false
	variantsUpdated := 0
	var offerUpdates []models.SupplierOffer
	var variantUpdates []models.Variant
	var snapshots []models.PriceSnapshot

	for i := range product.SupplierOffers {
		offer := &product.SupplierOffers[i]
		if offer.ListPrice == nil {
			continue
		}
		net := netPrice(*offer.ListPrice, percent)
		if !priceEqual(offer.NetPrice, net) || offer.DiscountPercent != percent {
			snapshots = append(snapshots, offerSnapshot(product.ID, nil, offer, d, net, percent, now))
			offer.NetPrice = &net
			offer.DiscountPercent = percent
			offerUpdates = append(offerUpdates, *offer)
			changed = true
		}
	}

	for i := range product.Variants {
		variant := &product.Variants[i]
		variantChanged := false

		if variant.ListPrice != nil {
			net := netPrice(*variant.ListPrice, percent)
			if !priceEqual(variant.NetPrice, net) || variant.DiscountPercent != percent {
				snapshots = append(snapshots, variantSnapshot(product.ID, variant, d, net, percent, now))
				variant.NetPrice = &net
				variant.DiscountPercent = percent
				variantUpdates = append(variantUpdates, *variant)
				variantChanged = true
			}
		}

		for j := range variant.SupplierOffers {
			offer := &variant.SupplierOffers[j]
			if offer.ListPrice == nil {
				continue
			}
			net := netPrice(*offer.ListPrice, percent)
			if !priceEqual(offer.NetPrice, net) || offer.DiscountPercent != percent {
				snapshots = append(snapshots, offerSnapshot(product.ID, &variant.ID, offer, d, net, percent, now))
				offer.NetPrice = &net
				offer.DiscountPercent = percent
				offerUpdates = append(offerUpdates, *offer)
				variantChanged = true
			}
		}

		if variantChanged {
			variantsUpdated++
			changed = true
		}
	}

	if !changed {
		return false, 0, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND version = ?", product.ID, product.Version).
			Updates(map[string]interface{}{
				"discount_percent":        percent,
				"discount_effective_date": now,
				"version":                 product.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeConflict, "product was modified concurrently")
		}

		for i := range offerUpdates {
			o := offerUpdates[i]
			if err := tx.Model(&models.SupplierOffer{}).Where("id = ?", o.ID).
				Updates(map[string]interface{}{
					"net_price":        o.NetPrice,
					"discount_percent": o.DiscountPercent,
				}).Error; err != nil {
				return err
			}
		}
		for i := range variantUpdates {
			v := variantUpdates[i]
			if err := tx.Model(&models.Variant{}).Where("id = ?", v.ID).
				Updates(map[string]interface{}{
					"net_price":        v.NetPrice,
					"discount_percent": v.DiscountPercent,
				}).Error; err != nil {
				return err
			}
		}

		if len(snapshots) > 0 {
			if err := tx.Create(&snapshots).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return true, variantsUpdated, nil
}

// netPrice is the engine's only pricing formula. Percent is stored 0-100; the
// computation is exact floating math with no rounding (callers round for
// display only).
func netPrice(listPrice, percent float64) float64 {
	return listPrice * (1 - percent/100)
}

func priceEqual(current *float64, want float64) bool {
	return current != nil && *current == want
}

func offerSnapshot(productID uuid.UUID, variantID *uuid.UUID, offer *models.SupplierOffer, d *models.Discount, net, percent float64, at time.Time) models.PriceSnapshot {
	return models.PriceSnapshot{
		ProductID:       productID,
		VariantID:       variantID,
		SupplierOfferID: &offer.ID,
		DiscountID:      &d.ID,
		ListPrice:       offer.ListPrice,
		NetPriceBefore:  offer.NetPrice,
		NetPriceAfter:   &net,
		PercentBefore:   offer.DiscountPercent,
		PercentAfter:    percent,
		Source:          "discount_apply",
		CreatedAt:       at,
	}
}

func variantSnapshot(productID uuid.UUID, variant *models.Variant, d *models.Discount, net, percent float64, at time.Time) models.PriceSnapshot {
	return models.PriceSnapshot{
		ProductID:      productID,
		VariantID:      &variant.ID,
		DiscountID:     &d.ID,
		ListPrice:      variant.ListPrice,
		NetPriceBefore: variant.NetPrice,
		NetPriceAfter:  &net,
		PercentBefore:  variant.DiscountPercent,
		PercentAfter:   percent,
		Source:         "discount_apply",
		CreatedAt:      at,
	}
}
