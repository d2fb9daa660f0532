// internal/handlers/batch.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veritrace/veritrace-backend/internal/i18n"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type BatchHandler struct {
	batchService *services.BatchService
}

func NewBatchHandler(batchService *services.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
	}
}

// POST /manufacturer/products/:id/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	batch, err := h.batchService.CreateBatch(actor, productID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBatchCreated),
		"batch":   batch,
	})
}

// GET /manufacturer/batches and GET /admin/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	filter := services.BatchFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ApprovalStatus(statusStr)
		if !status.IsValid() {
			utils.BadRequestResponse(c, "Invalid status filter", nil)
			return
		}
		filter.Status = &status
	}
	// Mounted both as /batches and nested under /products/:id/batches.
	productIDStr := c.Param("id")
	if productIDStr == "" {
		productIDStr = c.Query("product_id")
	}
	if productIDStr != "" {
		productID, err := uuid.Parse(productIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid product_id", nil)
			return
		}
		filter.ProductID = &productID
	}

	batches, total, err := h.batchService.ListBatches(actor, filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(batches, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /manufacturer/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchService.GetBatch(actor, batchID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch": batch,
	})
}

// PATCH /admin/batches/:id/verify
func (h *BatchHandler) ReviewBatch(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	batch, err := h.batchService.ReviewBatch(actor, batchID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBatchReviewed),
		"batch":   batch,
	})
}

// POST /manufacturer/batches/:id/codes
func (h *BatchHandler) BackfillCodes(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	batchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	batch, codeCount, err := h.batchService.BackfillCodes(actor, batchID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch":      batch,
		"code_count": codeCount,
	})
}
