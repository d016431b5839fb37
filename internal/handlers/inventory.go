// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/buildops/materials-backend/internal/i18n"
	"github.com/buildops/materials-backend/internal/services"
	"github.com/buildops/materials-backend/internal/utils"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
	reorderService   *services.ReorderService
}

func NewInventoryHandler(inventoryService *services.InventoryService, reorderService *services.ReorderService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		reorderService:   reorderService,
	}
}

// POST /inventory — upsert by (product_id, variant_id)
func (h *InventoryHandler) CreateOrUpdateInventory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateOrUpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if username, exists := utils.GetUsernameFromContext(c); exists && req.PerformedBy == "" {
		req.PerformedBy = username
	}

	record, err := h.inventoryService.CreateOrUpdateInventory(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyInventoryCreated),
		"inventory": record,
	})
}

// GET /inventory?product_id=&variant_id=
func (h *InventoryHandler) GetInventoryByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, "product_id query parameter is required", nil)
		return
	}

	var variantID *uuid.UUID
	if variantIDStr := c.Query("variant_id"); variantIDStr != "" {
		parsed, err := uuid.Parse(variantIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid variant ID", nil)
			return
		}
		variantID = &parsed
	}

	record, err := h.inventoryService.GetInventoryByProduct(productID, variantID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"inventory": record,
	})
}

// GET /inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	entries, err := h.reorderService.LowStock()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// GET /inventory/:id
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid inventory record ID", nil)
		return
	}

	record, err := h.inventoryService.GetInventory(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"inventory": record,
	})
}

// POST /inventory/:id/transactions
func (h *InventoryHandler) AddTransaction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid inventory record ID", nil)
		return
	}

	var req services.AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if username, exists := utils.GetUsernameFromContext(c); exists && req.PerformedBy == "" {
		req.PerformedBy = username
	}

	transaction, err := h.inventoryService.AddTransaction(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyTransactionRecorded),
		"transaction": transaction,
	})
}

// GET /inventory/:id/transactions
func (h *InventoryHandler) GetTransactions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid inventory record ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.inventoryService.ListTransactions(id, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /inventory/:id/units/:serial
func (h *InventoryHandler) UpdateSerializedUnit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid inventory record ID", nil)
		return
	}

	serial := c.Param("serial")
	if serial == "" {
		utils.BadRequestResponse(c, "Serial number is required", nil)
		return
	}

	var req services.UpdateSerializedUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	unit, err := h.inventoryService.UpdateSerializedUnit(id, serial, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUnitUpdated),
		"unit":    unit,
	})
}

// GET /inventory/:id/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid inventory record ID", nil)
		return
	}

	report, err := h.inventoryService.Reconcile(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"report": report,
	})
}
