// internal/services/reorder_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/models"
)

type ReorderServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	inventory *InventoryService
	reorder   *ReorderService
}

func (suite *ReorderServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.inventory = NewInventoryService(suite.db)
	notifications := NewNotificationService(suite.db, nil)
	suite.reorder = NewReorderService(suite.db, suite.inventory, notifications)
}

func (suite *ReorderServiceTestSuite) TestLowStockEntriesCarrySuggestedOrder() {
	_, err := suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:       uuid.New(),
		InventoryType:   models.InventoryTypeBulk,
		InitialQuantity: ptr(2.0),
		ReorderPoint:    ptr(10.0),
		ReorderQuantity: ptr(25.0),
	})
	require.NoError(suite.T(), err)

	// no reorder quantity: suggestion falls back to the shortfall
	_, err = suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:       uuid.New(),
		InventoryType:   models.InventoryTypeBulk,
		InitialQuantity: ptr(4.0),
		ReorderPoint:    ptr(10.0),
	})
	require.NoError(suite.T(), err)

	entries, err := suite.reorder.LowStock()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), entries, 2)

	for _, entry := range entries {
		if entry.Record.ReorderQuantity != nil {
			assert.Equal(suite.T(), 25.0, entry.SuggestedOrder)
			assert.Equal(suite.T(), 8.0, entry.ShortfallToReorder)
		} else {
			assert.Equal(suite.T(), 6.0, entry.SuggestedOrder)
		}
	}
}

func (suite *ReorderServiceTestSuite) TestNotifyLowStockSkipsAlreadyNotified() {
	_, err := suite.inventory.CreateOrUpdateInventory(&CreateOrUpdateInventoryRequest{
		ProductID:       uuid.New(),
		InventoryType:   models.InventoryTypeBulk,
		InitialQuantity: ptr(1.0),
		ReorderPoint:    ptr(5.0),
	})
	require.NoError(suite.T(), err)

	created, err := suite.reorder.NotifyLowStock()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, created)

	// unread notification already open for this record
	created, err = suite.reorder.NotifyLowStock()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, created)

	var count int64
	suite.db.Model(&models.Notification{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

func TestReorderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReorderServiceTestSuite))
}
