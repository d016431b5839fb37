// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
	"github.com/buildops/materials-backend/internal/unitconv"
	"github.com/buildops/materials-backend/internal/utils"
)

// CatalogService is the system of record for products, variants, supplier
// offers, and current prices. The discount engine and the procurement
// grouping both read through it.
type CatalogService struct {
	db *gorm.DB
}

type SupplierOfferInput struct {
	DistributorID    *uuid.UUID `json:"distributor_id,omitempty"`
	ManufacturerID   *uuid.UUID `json:"manufacturer_id,omitempty"`
	DistributorName  string     `json:"distributor_name,omitempty" validate:"omitempty,max=255"`
	ManufacturerName string     `json:"manufacturer_name,omitempty" validate:"omitempty,max=255"`
	ListPrice        *float64   `json:"list_price,omitempty" validate:"omitempty,min=0"`
	IsPreferred      bool       `json:"is_preferred,omitempty"`
}

type VariantInput struct {
	SKU            string                 `json:"sku" validate:"required,max=100"`
	Name           string                 `json:"name,omitempty" validate:"omitempty,max=255"`
	VariantKey     map[string]interface{} `json:"variant_key,omitempty"`
	ListPrice      *float64               `json:"list_price,omitempty" validate:"omitempty,min=0"`
	SupplierOffers []SupplierOfferInput   `json:"supplier_offers,omitempty" validate:"dive"`
}

type CreateProductRequest struct {
	Code             string                 `json:"code" validate:"required,max=100"`
	Name             string                 `json:"name" validate:"required,min=2,max=255"`
	Description      string                 `json:"description,omitempty"`
	Category         string                 `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit             string                 `json:"unit,omitempty" validate:"omitempty,max=30"`
	PricebookSection string                 `json:"pricebook_section,omitempty"`
	PricebookPage    string                 `json:"pricebook_page,omitempty"`
	CategoryGroup    string                 `json:"category_group,omitempty" validate:"omitempty,max=50"`
	ManufacturerID   *uuid.UUID             `json:"manufacturer_id,omitempty"`
	Properties       map[string]interface{} `json:"properties,omitempty"`
	SupplierOffers   []SupplierOfferInput   `json:"supplier_offers" validate:"required,min=1,dive"`
	Variants         []VariantInput         `json:"variants,omitempty" validate:"dive"`
}

type UpdateProductRequest struct {
	Name             string                 `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description      string                 `json:"description,omitempty"`
	Category         string                 `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit             string                 `json:"unit,omitempty" validate:"omitempty,max=30"`
	PricebookSection string                 `json:"pricebook_section,omitempty"`
	PricebookPage    string                 `json:"pricebook_page,omitempty"`
	CategoryGroup    string                 `json:"category_group,omitempty" validate:"omitempty,max=50"`
	ManufacturerID   *uuid.UUID             `json:"manufacturer_id,omitempty"`
	Properties       map[string]interface{} `json:"properties,omitempty"`
	IsActive         *bool                  `json:"is_active,omitempty"`
}

type ProductQuery struct {
	utils.PaginationParams
	CategoryGroup   string     `json:"category_group,omitempty"`
	ManufacturerID  *uuid.UUID `json:"manufacturer_id,omitempty"`
	IncludeInactive bool       `json:"include_inactive,omitempty"`
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	// Every product must carry at least one supplier offer.
	if len(req.SupplierOffers) == 0 {
		return nil, apperrors.Validation("a product requires at least one supplier offer")
	}

	properties, err := s.normalizeProperties(req.Properties)
	if err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "each"
	}

	product := &models.Product{
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Unit:             unit,
		PricebookSection: req.PricebookSection,
		PricebookPage:    req.PricebookPage,
		CategoryGroup:    req.CategoryGroup,
		ManufacturerID:   req.ManufacturerID,
		Properties:       properties,
		IsActive:         true,
		Version:          1,
	}

	for _, in := range req.SupplierOffers {
		product.SupplierOffers = append(product.SupplierOffers, buildOffer(in))
	}

	for _, vin := range req.Variants {
		variant, err := s.buildVariant(vin)
		if err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, *variant)
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *CatalogService) buildVariant(in VariantInput) (*models.Variant, error) {
	key, err := s.normalizeProperties(in.VariantKey)
	if err != nil {
		return nil, err
	}

	variant := &models.Variant{
		SKU:        in.SKU,
		Name:       in.Name,
		VariantKey: key,
		ListPrice:  in.ListPrice,
		NetPrice:   in.ListPrice, // no discount applied yet
		IsActive:   true,
	}
	for _, oin := range in.SupplierOffers {
		variant.SupplierOffers = append(variant.SupplierOffers, buildOffer(oin))
	}
	return variant, nil
}

func buildOffer(in SupplierOfferInput) models.SupplierOffer {
	return models.SupplierOffer{
		DistributorID:    in.DistributorID,
		ManufacturerID:   in.ManufacturerID,
		DistributorName:  in.DistributorName,
		ManufacturerName: in.ManufacturerName,
		ListPrice:        in.ListPrice,
		NetPrice:         in.ListPrice,
		IsPreferred:      in.IsPreferred,
	}
}

// normalizeProperties validates an open property map against the declared
// property catalog and normalizes numeric values through the unit converter.
// Normalized numbers are stored as {"value": n, "unit": code} objects.
func (s *CatalogService) normalizeProperties(raw map[string]interface{}) (models.JSONB, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var defs []models.PropertyDefinition
	if err := s.db.Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to load property definitions: %w", err)
	}

	byKey := make(map[string]models.PropertyDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make(models.JSONB, len(raw))
	for key, value := range raw {
		def, declared := byKey[key]
		if !declared {
			return nil, apperrors.Newf(apperrors.CodeValidation, "unknown property key %q", key)
		}

		if def.DataType != "number" {
			out[key] = value
			continue
		}

		unitKey := def.UnitKey
		if unitKey == "" {
			unitKey = key
		}
		num, code, err := unitconv.Normalize(unitKey, value)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		out[key] = map[string]interface{}{"value": num, "unit": code}
	}

	return out, nil
}

func (s *CatalogService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Variants.SupplierOffers").Preload("Variants").Preload("SupplierOffers").
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) FindProducts(query ProductQuery) ([]models.Product, int64, error) {
	q := s.db.Model(&models.Product{}).
		Preload("Variants.SupplierOffers").Preload("Variants").Preload("SupplierOffers")

	if !query.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	if query.CategoryGroup != "" {
		q = q.Where("category_group = ?", query.CategoryGroup)
	}
	if query.ManufacturerID != nil {
		q = q.Where("manufacturer_id = ?", *query.ManufacturerID)
	}
	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "code", "category"}
	q = utils.ApplySort(q, query.PaginationParams, allowedSortFields)
	q = utils.ApplyPagination(q, query.PaginationParams)

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *CatalogService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.PricebookSection != "" {
		updates["pricebook_section"] = req.PricebookSection
	}
	if req.PricebookPage != "" {
		updates["pricebook_page"] = req.PricebookPage
	}
	if req.CategoryGroup != "" {
		updates["category_group"] = req.CategoryGroup
	}
	if req.ManufacturerID != nil {
		updates["manufacturer_id"] = *req.ManufacturerID
	}
	if req.Properties != nil {
		properties, err := s.normalizeProperties(req.Properties)
		if err != nil {
			return nil, err
		}
		updates["properties"] = properties
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return &product, nil
	}
	updates["version"] = gorm.Expr("version + 1")

	// Manual catalog edits bump the version so overlapping discount-apply
	// runs detect the conflict and retry against fresh state.
	res := s.db.Model(&models.Product{}).
		Where("id = ? AND version = ?", id, product.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.CodeConflict, "product was modified concurrently")
	}

	return s.GetProduct(id)
}

// DeactivateProduct soft-deactivates a product. Products are never hard
// deleted while referenced by open purchase orders or inventory records.
func (s *CatalogService) DeactivateProduct(id uuid.UUID) error {
	res := s.db.Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product")
	}
	return nil
}

func (s *CatalogService) AddVariant(productID uuid.UUID, in *VariantInput) (*models.Variant, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	variant, err := s.buildVariant(*in)
	if err != nil {
		return nil, err
	}
	variant.ProductID = product.ID

	if err := s.db.Create(variant).Error; err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}
	return variant, nil
}

func (s *CatalogService) ListPriceSnapshots(productID uuid.UUID, params utils.PaginationParams) ([]models.PriceSnapshot, int64, error) {
	q := s.db.Model(&models.PriceSnapshot{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count price snapshots: %w", err)
	}

	var snapshots []models.PriceSnapshot
	if err := utils.ApplyPagination(q.Order("created_at DESC"), params).
		Find(&snapshots).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch price snapshots: %w", err)
	}
	return snapshots, total, nil
}
