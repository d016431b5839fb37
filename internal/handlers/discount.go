// internal/handlers/discount.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/buildops/materials-backend/internal/i18n"
	"github.com/buildops/materials-backend/internal/services"
	"github.com/buildops/materials-backend/internal/utils"
)

type DiscountHandler struct {
	discountService *services.DiscountService
}

func NewDiscountHandler(discountService *services.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// GET /discounts
func (h *DiscountHandler) GetDiscounts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	includeInactive := c.Query("include_inactive") == "true"

	discounts, total, err := h.discountService.ListDiscounts(params, includeInactive)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(discounts, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /discounts
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	discount, err := h.discountService.CreateDiscount(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDiscountCreated),
		"discount": discount,
	})
}

// GET /discounts/:id
func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid discount ID", nil)
		return
	}

	discount, err := h.discountService.GetDiscount(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"discount": discount,
	})
}

// PUT /discounts/:id
func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid discount ID", nil)
		return
	}

	var req services.UpdateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	discount, err := h.discountService.UpdateDiscount(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDiscountUpdated),
		"discount": discount,
	})
}

// DELETE /discounts/:id — deactivates; rules are never hard-deleted.
func (h *DiscountHandler) DeactivateDiscount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid discount ID", nil)
		return
	}

	if err := h.discountService.DeactivateDiscount(id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDiscountDeactivated),
	})
}

// POST /discounts/:id/apply
func (h *DiscountHandler) ApplyDiscount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid discount ID", nil)
		return
	}

	result, err := h.discountService.ApplyDiscount(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDiscountApplied),
		"result":  result,
	})
}

// POST /discounts/apply-all
func (h *DiscountHandler) ApplyAllDiscounts(c *gin.Context) {
	results, err := h.discountService.ApplyAllDiscounts()
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"results": results,
	})
}
