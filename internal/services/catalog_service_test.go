// internal/services/catalog_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/apperrors"
	"github.com/buildops/materials-backend/internal/models"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	catalog *CatalogService
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.catalog = NewCatalogService(suite.db)
}

func (suite *CatalogServiceTestSuite) seedPropertyDefinitions() {
	defs := []models.PropertyDefinition{
		{Key: "pipe_diameter", DataType: "number", UnitKey: "pipe_diameter", IsVariantKey: true},
		{Key: "color", DataType: "string"},
	}
	require.NoError(suite.T(), suite.db.Create(&defs).Error)
}

func (suite *CatalogServiceTestSuite) TestCreateRequiresSupplierOffer() {
	_, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "P-1",
		Name: "Copper pipe",
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeValidation))
}

func (suite *CatalogServiceTestSuite) TestPropertiesAreNormalized() {
	suite.seedPropertyDefinitions()

	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "P-2",
		Name: "Insulated pipe",
		Properties: map[string]interface{}{
			"pipe_diameter": "25.4mm",
			"color":         "grey",
		},
		SupplierOffers: []SupplierOfferInput{{DistributorName: "ABC", ListPrice: ptr(12.5)}},
	})
	require.NoError(suite.T(), err)

	normalized, ok := product.Properties["pipe_diameter"].(map[string]interface{})
	require.True(suite.T(), ok)
	assert.InDelta(suite.T(), 1.0, normalized["value"].(float64), 1e-9)
	assert.Equal(suite.T(), "in", normalized["unit"])
	assert.Equal(suite.T(), "grey", product.Properties["color"])
}

func (suite *CatalogServiceTestSuite) TestUnknownPropertyKeyRejected() {
	suite.seedPropertyDefinitions()

	_, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "P-3",
		Name: "Widget",
		Properties: map[string]interface{}{
			"made_up_key": 1,
		},
		SupplierOffers: []SupplierOfferInput{{DistributorName: "ABC"}},
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeValidation))
}

func (suite *CatalogServiceTestSuite) TestUpdateBumpsVersion() {
	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code:           "P-4",
		Name:           "Steel stud",
		SupplierOffers: []SupplierOfferInput{{DistributorName: "ABC"}},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, product.Version)

	updated, err := suite.catalog.UpdateProduct(product.ID, &UpdateProductRequest{Name: "Steel stud 2"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Steel stud 2", updated.Name)
	assert.Equal(suite.T(), 2, updated.Version)
}

func (suite *CatalogServiceTestSuite) TestDeactivateHidesFromDefaultListing() {
	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code:           "P-5",
		Name:           "Old part",
		SupplierOffers: []SupplierOfferInput{{DistributorName: "ABC"}},
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.catalog.DeactivateProduct(product.ID))

	products, total, err := suite.catalog.FindProducts(ProductQuery{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), total)
	assert.Empty(suite.T(), products)

	// still fetchable by ID for audit
	fetched, err := suite.catalog.GetProduct(product.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), fetched.IsActive)
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
