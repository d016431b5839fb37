// internal/services/procurement_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ProcurementServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	catalog     *CatalogService
	procurement *ProcurementService
}

func (suite *ProcurementServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.catalog = NewCatalogService(suite.db)
	suite.procurement = NewProcurementService(suite.db, suite.catalog)
}

func (suite *ProcurementServiceTestSuite) TestGroupsLinesByDistributor() {
	distA := uuid.New()
	distB := uuid.New()

	p1, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "G-1", Name: "Pipe", Unit: "ft",
		SupplierOffers: []SupplierOfferInput{
			{DistributorID: &distA, DistributorName: "Alpha Supply", ListPrice: ptr(2.0), IsPreferred: true},
			{DistributorID: &distB, DistributorName: "Beta Supply", ListPrice: ptr(1.5)},
		},
	})
	require.NoError(suite.T(), err)

	p2, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "G-2", Name: "Fitting",
		SupplierOffers: []SupplierOfferInput{
			{DistributorID: &distB, DistributorName: "Beta Supply", ListPrice: ptr(0.75)},
		},
	})
	require.NoError(suite.T(), err)

	drafts, err := suite.procurement.GroupRequestLines(&GroupRequest{
		Lines: []RequestLine{
			{ProductID: p1.ID, Quantity: 100},
			{ProductID: p2.ID, Quantity: 40},
		},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), drafts, 2)

	// sorted by distributor name
	assert.Equal(suite.T(), "Alpha Supply", drafts[0].DistributorName)
	assert.Equal(suite.T(), 200.0, drafts[0].Subtotal) // preferred beats cheaper
	assert.Equal(suite.T(), "Beta Supply", drafts[1].DistributorName)
	assert.Equal(suite.T(), 30.0, drafts[1].Subtotal)
}

func (suite *ProcurementServiceTestSuite) TestCheapestOfferWhenNonePreferred() {
	distA := uuid.New()
	distB := uuid.New()

	p, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "G-3", Name: "Wire",
		SupplierOffers: []SupplierOfferInput{
			{DistributorID: &distA, DistributorName: "Alpha Supply", ListPrice: ptr(2.0)},
			{DistributorID: &distB, DistributorName: "Beta Supply", ListPrice: ptr(1.5)},
		},
	})
	require.NoError(suite.T(), err)

	drafts, err := suite.procurement.GroupRequestLines(&GroupRequest{
		Lines: []RequestLine{{ProductID: p.ID, Quantity: 10}},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), drafts, 1)
	assert.Equal(suite.T(), "Beta Supply", drafts[0].DistributorName)
	assert.Equal(suite.T(), 15.0, drafts[0].Subtotal)
}

func (suite *ProcurementServiceTestSuite) TestVariantOffersOverrideProductOffers() {
	distA := uuid.New()
	distB := uuid.New()

	p, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Code: "G-4", Name: "Insulation",
		SupplierOffers: []SupplierOfferInput{
			{DistributorID: &distA, DistributorName: "Alpha Supply", ListPrice: ptr(9.0)},
		},
		Variants: []VariantInput{
			{SKU: "G-4-2IN", ListPrice: ptr(11.0), SupplierOffers: []SupplierOfferInput{
				{DistributorID: &distB, DistributorName: "Beta Supply", ListPrice: ptr(11.0)},
			}},
		},
	})
	require.NoError(suite.T(), err)

	full, err := suite.catalog.GetProduct(p.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), full.Variants, 1)

	drafts, err := suite.procurement.GroupRequestLines(&GroupRequest{
		Lines: []RequestLine{{ProductID: p.ID, VariantID: &full.Variants[0].ID, Quantity: 2}},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), drafts, 1)
	assert.Equal(suite.T(), "Beta Supply", drafts[0].DistributorName)
	assert.Equal(suite.T(), "G-4-2IN", drafts[0].Lines[0].Code)
}

func TestProcurementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProcurementServiceTestSuite))
}
