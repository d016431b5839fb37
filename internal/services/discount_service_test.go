// internal/services/discount_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
)

type DiscountServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	catalog   *CatalogService
	discounts *DiscountService
}

func (suite *DiscountServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.catalog = NewCatalogService(suite.db)
	suite.discounts = NewDiscountService(suite.db)
}

func (suite *DiscountServiceTestSuite) createProduct(code, category, group string, listPrice float64) *models.Product {
	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code:          code,
		Name:          code,
		Category:      category,
		CategoryGroup: group,
		SupplierOffers: []SupplierOfferInput{
			{DistributorName: "ABC Supply", ListPrice: ptr(listPrice)},
		},
	})
	require.NoError(suite.T(), err)
	return product
}

func (suite *DiscountServiceTestSuite) TestNetPriceFormulaExact() {
	suite.createProduct("FG-207", "FIBREGLASS", "", 3.69)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCategory,
		Category:        ptr("FIBREGLASS"),
		DiscountPercent: 67.75,
	})
	require.NoError(suite.T(), err)

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.ProductsMatched)
	assert.Equal(suite.T(), 1, result.ProductsUpdated)

	var offer models.SupplierOffer
	require.NoError(suite.T(), suite.db.First(&offer).Error)
	require.NotNil(suite.T(), offer.NetPrice)
	// exact float math, no rounding
	assert.Equal(suite.T(), 3.69*(1-67.75/100), *offer.NetPrice)
	assert.Equal(suite.T(), 67.75, offer.DiscountPercent)
}

func (suite *DiscountServiceTestSuite) TestApplyIsIdempotent() {
	suite.createProduct("CU-100", "COPPER", "", 10.00)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCategory,
		Category:        ptr("COPPER"),
		DiscountPercent: 25,
	})
	require.NoError(suite.T(), err)

	first, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, first.ProductsUpdated)

	var snapshotsAfterFirst int64
	suite.db.Model(&models.PriceSnapshot{}).Count(&snapshotsAfterFirst)

	// Second run replaces from list price again and finds nothing to change.
	second, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, second.ProductsMatched)
	assert.Equal(suite.T(), 0, second.ProductsUpdated)

	var snapshotsAfterSecond int64
	suite.db.Model(&models.PriceSnapshot{}).Count(&snapshotsAfterSecond)
	assert.Equal(suite.T(), snapshotsAfterFirst, snapshotsAfterSecond)

	var offer models.SupplierOffer
	require.NoError(suite.T(), suite.db.First(&offer).Error)
	assert.Equal(suite.T(), 7.5, *offer.NetPrice)
}

func (suite *DiscountServiceTestSuite) TestCategoryAndGroupBothRequired() {
	suite.createProduct("A-1", "PIPE", "PLUMBING", 10)
	suite.createProduct("A-2", "PIPE", "HVAC", 10)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCategory,
		Category:        ptr("PIPE"),
		CategoryGroup:   ptr("PLUMBING"),
		DiscountPercent: 10,
	})
	require.NoError(suite.T(), err)

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.ProductsMatched)
}

func (suite *DiscountServiceTestSuite) TestSupplierMatchesPrimaryOrOfferManufacturer() {
	manufacturerID := uuid.New()

	// matches through an offer's manufacturer
	_, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "S-1", Name: "S-1",
		SupplierOffers: []SupplierOfferInput{
			{ManufacturerID: &manufacturerID, ListPrice: ptr(20.0)},
		},
	})
	require.NoError(suite.T(), err)

	// matches through the primary manufacturer
	_, err = suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "S-2", Name: "S-2", ManufacturerID: &manufacturerID,
		SupplierOffers: []SupplierOfferInput{
			{DistributorName: "Other", ListPrice: ptr(30.0)},
		},
	})
	require.NoError(suite.T(), err)

	// matches neither
	suite.createProduct("S-3", "", "", 40)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeSupplier,
		SupplierID:      &manufacturerID,
		DiscountPercent: 50,
	})
	require.NoError(suite.T(), err)

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, result.ProductsMatched)
	assert.Equal(suite.T(), 2, result.ProductsUpdated)
}

func (suite *DiscountServiceTestSuite) TestCustomerRuleMatchesNothing() {
	suite.createProduct("C-1", "", "", 10)

	customerID := uuid.New()
	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCustomer,
		CustomerID:      &customerID,
		DiscountPercent: 15,
	})
	require.NoError(suite.T(), err)

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, result.ProductsMatched)
	assert.Equal(suite.T(), 0, result.ProductsUpdated)
}

func (suite *DiscountServiceTestSuite) TestInactiveDiscountIsSkippedNotFailed() {
	suite.createProduct("I-1", "STEEL", "", 10)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCategory,
		Category:        ptr("STEEL"),
		DiscountPercent: 10,
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.discounts.DeactivateDiscount(discount.ID))

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), result.Skipped)
	assert.Equal(suite.T(), 0, result.ProductsUpdated)
}

func (suite *DiscountServiceTestSuite) TestCreateRejectsMissingSelector() {
	_, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeProduct,
		DiscountPercent: 10,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeInvalidRule))
}

func (suite *DiscountServiceTestSuite) TestApplyAllContinuesPastFailures() {
	suite.createProduct("B-1", "WIRE", "", 10)

	good, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeCategory,
		Category:        ptr("WIRE"),
		DiscountPercent: 20,
	})
	require.NoError(suite.T(), err)

	// A rule whose selector was wiped after creation; inserted directly since
	// CreateDiscount rejects it.
	bad := &models.Discount{
		DiscountType:    models.DiscountTypeProduct,
		DiscountPercent: 30,
		IsActive:        true,
	}
	require.NoError(suite.T(), suite.db.Create(bad).Error)

	results, err := suite.discounts.ApplyAllDiscounts()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 2)

	byID := map[uuid.UUID]DiscountApplyResult{}
	for _, r := range results {
		byID[r.DiscountID] = r
	}
	assert.Equal(suite.T(), 1, byID[good.ID].ProductsUpdated)
	assert.Empty(suite.T(), byID[good.ID].Error)
	assert.NotEmpty(suite.T(), byID[bad.ID].Error)
}

func (suite *DiscountServiceTestSuite) TestUniversalAppliesToVariantsAndOffers() {
	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "U-1", Name: "U-1",
		SupplierOffers: []SupplierOfferInput{
			{DistributorName: "ABC", ListPrice: ptr(100.0)},
		},
		Variants: []VariantInput{
			{SKU: "U-1-A", ListPrice: ptr(50.0)},
			{SKU: "U-1-B"}, // unpriced, must be left alone
		},
	})
	require.NoError(suite.T(), err)

	discount, err := suite.discounts.CreateDiscount(&CreateDiscountRequest{
		DiscountType:    models.DiscountTypeUniversal,
		DiscountPercent: 10,
	})
	require.NoError(suite.T(), err)

	result, err := suite.discounts.ApplyDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.ProductsUpdated)
	assert.Equal(suite.T(), 1, result.VariantsUpdated)

	reloaded, err := suite.catalog.GetProduct(product.ID)
	require.NoError(suite.T(), err)
	for _, v := range reloaded.Variants {
		if v.SKU == "U-1-A" {
			require.NotNil(suite.T(), v.NetPrice)
			assert.Equal(suite.T(), 45.0, *v.NetPrice)
		}
		if v.SKU == "U-1-B" {
			assert.Nil(suite.T(), v.NetPrice)
		}
	}

	// bookkeeping writeback
	stored, err := suite.discounts.GetDiscount(discount.ID)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), stored.LastApplied)
	assert.Equal(suite.T(), 1, stored.ProductsAffected)
}

func TestDiscountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DiscountServiceTestSuite))
}
