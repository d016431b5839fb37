// internal/handlers/procurement.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/buildops/materials-backend/internal/i18n"
	"github.com/buildops/materials-backend/internal/services"
	"github.com/buildops/materials-backend/internal/utils"
)

type ProcurementHandler struct {
	procurementService *services.ProcurementService
}

func NewProcurementHandler(procurementService *services.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurementService: procurementService}
}

// POST /procurement/group — resolves supplier offers for the requested lines
// and groups them into per-distributor draft purchase orders. Read-only.
func (h *ProcurementHandler) GroupRequestLines(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	drafts, err := h.procurementService.GroupRequestLines(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"drafts": drafts,
	})
}
