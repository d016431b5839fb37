// internal/services/inventory_service_test.go
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

type InventoryServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	inventory *InventoryService
}

func (suite *InventoryServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.inventory = NewInventoryService(suite.db)
}

func (suite *InventoryServiceTestSuite) createBulk(initial float64, location string) *models.InventoryRecord {
	req := &CreateOrUpdateInventoryRequest{
		ProductID:     uuid.New(),
		InventoryType: models.InventoryTypeBulk,
		Location:      location,
	}
	if initial > 0 {
		req.InitialQuantity = &initial
	}
	record, err := suite.inventory.CreateOrUpdateInventory(req)
	require.NoError(suite.T(), err)
	return record
}

func (suite *InventoryServiceTestSuite) createSerialized() *models.InventoryRecord {
	record, err := suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:     uuid.New(),
		InventoryType: models.InventoryTypeSerialized,
	})
	require.NoError(suite.T(), err)
	return record
}

func (suite *InventoryServiceTestSuite) TestInitialQuantitySeedsLedger() {
	record := suite.createBulk(10, "warehouse-a")

	assert.Equal(suite.T(), 10.0, record.QuantityOnHand)
	assert.Equal(suite.T(), 10.0, record.QuantityAvailable)
	assert.Equal(suite.T(), 10.0, record.LocationQuantities["warehouse-a"])

	// initial stock is a real receipt row, so replay reproduces the cache
	report, err := suite.inventory.Reconcile(record.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), report.Consistent)
	assert.Equal(suite.T(), 1, report.TransactionCount)
}

func (suite *InventoryServiceTestSuite) TestInventoryTypeIsImmutable() {
	record := suite.createBulk(5, "")

	var existing models.InventoryRecord
	require.NoError(suite.T(), suite.db.First(&existing, "id = ?", record.ID).Error)

	_, err := suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:     existing.ProductID,
		InventoryType: models.InventoryTypeSerialized,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeImmutableField))
}

func (suite *InventoryServiceTestSuite) TestIssueInsufficientLeavesStateUnchanged() {
	record := suite.createBulk(3, "main")

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:     models.TransactionTypeIssue,
		Quantity: 5,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeInsufficientQuantity))

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, reloaded.QuantityOnHand)
	assert.Equal(suite.T(), 3.0, reloaded.LocationQuantities["main"])

	var txCount int64
	suite.db.Model(&models.Transaction{}).Where("inventory_record_id = ?", record.ID).Count(&txCount)
	assert.Equal(suite.T(), int64(1), txCount) // only the seed receipt
}

func (suite *InventoryServiceTestSuite) TestIssueRecordsNegativeDelta() {
	record := suite.createBulk(10, "main")

	txRow, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:     models.TransactionTypeIssue,
		Quantity: 4,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), -4.0, txRow.Quantity)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6.0, reloaded.QuantityOnHand)
	assert.Equal(suite.T(), 6.0, reloaded.QuantityAvailable)
}

func (suite *InventoryServiceTestSuite) TestTransferMovesBetweenLocations() {
	record := suite.createBulk(5, "a")

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:         models.TransactionTypeTransfer,
		Quantity:     3,
		FromLocation: "a",
		ToLocation:   "b",
	})
	require.NoError(suite.T(), err)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5.0, reloaded.QuantityOnHand) // unchanged in aggregate
	assert.Equal(suite.T(), 2.0, reloaded.LocationQuantities["a"])
	assert.Equal(suite.T(), 3.0, reloaded.LocationQuantities["b"])

	report, err := suite.inventory.Reconcile(record.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), report.Consistent)
}

func (suite *InventoryServiceTestSuite) TestTransferInsufficientAtLocation() {
	record := suite.createBulk(5, "a")

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:         models.TransactionTypeTransfer,
		Quantity:     6,
		FromLocation: "a",
		ToLocation:   "b",
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeInsufficientQuantityAtLocation))
}

func (suite *InventoryServiceTestSuite) TestAdjustmentRequiresReasonAndFloorsAtZero() {
	record := suite.createBulk(5, "main")

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:     models.TransactionTypeAdjustment,
		Quantity: -2,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:             models.TransactionTypeAdjustment,
		Quantity:         -8,
		AdjustmentReason: models.AdjustmentReasonShrinkage,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeNegativeQuantity))

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:             models.TransactionTypeAdjustment,
		Quantity:         -2,
		AdjustmentReason: models.AdjustmentReasonCycleCount,
	})
	require.NoError(suite.T(), err)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, reloaded.QuantityOnHand)
}

func (suite *InventoryServiceTestSuite) TestMovingAverageCost() {
	record := suite.createBulk(0, "")

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:     models.TransactionTypeReceipt,
		Quantity: 10,
		UnitCost: ptr(2.0),
	})
	require.NoError(suite.T(), err)

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:     models.TransactionTypeReceipt,
		Quantity: 10,
		UnitCost: ptr(4.0),
	})
	require.NoError(suite.T(), err)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, reloaded.AverageCost)
	assert.Equal(suite.T(), 20.0, reloaded.QuantityOnHand)
}

func (suite *InventoryServiceTestSuite) TestSerializedReceiptAndDuplicateSerial() {
	record := suite.createSerialized()

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeReceipt,
		SerialNumbers: []string{"SN-001", "SN-002"},
	})
	require.NoError(suite.T(), err)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2.0, reloaded.QuantityOnHand)
	assert.Equal(suite.T(), 2.0, reloaded.QuantityAvailable)
	assert.Len(suite.T(), reloaded.Units, 2)

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeReceipt,
		SerialNumbers: []string{"SN-002"},
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeDuplicateSerial))
}

func (suite *InventoryServiceTestSuite) TestSerializedIssueReturnWriteOff() {
	record := suite.createSerialized()
	jobID := uuid.New()

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeReceipt,
		SerialNumbers: []string{"SN-001", "SN-002", "SN-003"},
	})
	require.NoError(suite.T(), err)

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeIssue,
		SerialNumbers: []string{"SN-001"},
		ReferenceType: "job",
		ReferenceID:   &jobID,
	})
	require.NoError(suite.T(), err)

	reloaded, err := suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, reloaded.QuantityOnHand)
	assert.Equal(suite.T(), 2.0, reloaded.QuantityAvailable)
	assert.Equal(suite.T(), 1.0, reloaded.QuantityReserved)

	// an assigned unit cannot be issued again
	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeIssue,
		SerialNumbers: []string{"SN-001"},
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeUnitNotAvailable))

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeReturn,
		SerialNumbers: []string{"SN-001"},
		ToLocation:    "main",
	})
	require.NoError(suite.T(), err)

	_, err = suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeWriteOff,
		SerialNumbers: []string{"SN-003"},
	})
	require.NoError(suite.T(), err)

	reloaded, err = suite.inventory.GetInventory(record.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2.0, reloaded.QuantityOnHand) // retired units drop out
	assert.Equal(suite.T(), 2.0, reloaded.QuantityAvailable)
	assert.Equal(suite.T(), 0.0, reloaded.QuantityReserved)

	report, err := suite.inventory.Reconcile(record.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), report.Consistent)
}

func (suite *InventoryServiceTestSuite) TestSerializedRejectsQuantityAdjustment() {
	record := suite.createSerialized()

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:             models.TransactionTypeAdjustment,
		SerialNumbers:    []string{"SN-001"},
		AdjustmentReason: models.AdjustmentReasonCycleCount,
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeValidation))
}

func (suite *InventoryServiceTestSuite) TestUnitTransitionTable() {
	record := suite.createSerialized()

	_, err := suite.inventory.AddTransaction(record.ID, &AddTransactionRequest{
		Type:          models.TransactionTypeReceipt,
		SerialNumbers: []string{"SN-100"},
	})
	require.NoError(suite.T(), err)

	// available -> maintenance sets the maintenance date
	unit, err := suite.inventory.UpdateSerializedUnit(record.ID, "SN-100", &UpdateSerializedUnitRequest{
		Status: ptr(models.UnitStatusMaintenance),
	})
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), unit.LastMaintenanceDate)

	// maintenance -> in_use is illegal
	_, err = suite.inventory.UpdateSerializedUnit(record.ID, "SN-100", &UpdateSerializedUnitRequest{
		Status: ptr(models.UnitStatusInUse),
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeInvalidTransition))

	// retired is terminal
	_, err = suite.inventory.UpdateSerializedUnit(record.ID, "SN-100", &UpdateSerializedUnitRequest{
		Status: ptr(models.UnitStatusRetired),
	})
	require.NoError(suite.T(), err)

	_, err = suite.inventory.UpdateSerializedUnit(record.ID, "SN-100", &UpdateSerializedUnitRequest{
		Status: ptr(models.UnitStatusAvailable),
	})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

func (suite *InventoryServiceTestSuite) TestLowStockQuery() {
	low, err := suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:       uuid.New(),
		InventoryType:   models.InventoryTypeBulk,
		InitialQuantity: ptr(2.0),
		ReorderPoint:    ptr(5.0),
		ReorderQuantity: ptr(20.0),
	})
	require.NoError(suite.T(), err)

	_, err = suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:       uuid.New(),
		InventoryType:   models.InventoryTypeBulk,
		InitialQuantity: ptr(50.0),
		ReorderPoint:    ptr(5.0),
	})
	require.NoError(suite.T(), err)

	records, err := suite.inventory.LowStock()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), records, 1)
	assert.Equal(suite.T(), low.ID, records[0].ID)
	assert.True(suite.T(), IsLowStock(&records[0]))
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
