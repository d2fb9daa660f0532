// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/veritrace/veritrace-backend/internal/i18n"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// POST /manufacturer/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.CreateProduct(actor, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /manufacturer/products and GET /admin/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	filter := services.ProductFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Category:         c.Query("category"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ApprovalStatus(statusStr)
		if !status.IsValid() {
			utils.BadRequestResponse(c, "Invalid status filter", nil)
			return
		}
		filter.Status = &status
	}

	products, total, err := h.productService.ListProducts(actor, filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /manufacturer/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(actor, productID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// PATCH /admin/products/:id/review
func (h *ProductHandler) ReviewProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.ReviewProduct(actor, productID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductReviewed),
		"product": product,
	})
}
