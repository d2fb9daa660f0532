// internal/services/product_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type ProductService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateProductRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Code         string   `json:"code" validate:"required,max=100"`
	Category     string   `json:"category" validate:"max=100"`
	Description  string   `json:"description,omitempty"`
	Certificates []string `json:"certificates,omitempty"`
}

type ReviewRequest struct {
	Decision models.ReviewDecision `json:"decision" validate:"required"`
	Notes    string                `json:"notes,omitempty"`
}

type ProductFilter struct {
	utils.PaginationParams
	Status   *models.ApprovalStatus `json:"status,omitempty"`
	Category string                 `json:"category,omitempty"`
}

func NewProductService(db *gorm.DB, notificationService *NotificationService) *ProductService {
	return &ProductService{
		db:                  db,
		notificationService: notificationService,
	}
}

// manufacturerForUser resolves the manufacturer profile owned by a user.
func manufacturerForUser(db *gorm.DB, userID uuid.UUID) (*models.Manufacturer, error) {
	var manufacturer models.Manufacturer
	if err := db.Where("user_id = ?", userID).First(&manufacturer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("manufacturer profile not found")
		}
		return nil, apperrors.Internal("database error", err)
	}
	return &manufacturer, nil
}

func (s *ProductService) CreateProduct(actor Principal, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	if !actor.IsManufacturer() {
		return nil, apperrors.Authorization("only manufacturers can register products")
	}

	manufacturer, err := manufacturerForUser(s.db, actor.ID)
	if err != nil {
		return nil, err
	}

	if !manufacturer.Approved {
		return nil, apperrors.Authorization("manufacturer profile has not been approved")
	}

	product := &models.Product{
		ManufacturerID: manufacturer.ID,
		Name:           req.Name,
		Code:           req.Code,
		Category:       req.Category,
		Description:    req.Description,
		Certificates:   req.Certificates,
		ApprovalStatus: models.ApprovalStatusPending,
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("product code already registered for this manufacturer")
		}
		return nil, apperrors.Internal("failed to create product", err)
	}

	go s.notificationService.NotifyProductSubmitted(product, manufacturer)

	return product, nil
}

// ListProducts returns products visible to the actor: manufacturers see only
// their own, administrators see all.
func (s *ProductService) ListProducts(actor Principal, filter ProductFilter) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Manufacturer")

	if !actor.IsAdmin() {
		manufacturer, err := manufacturerForUser(s.db, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("manufacturer_id = ?", manufacturer.ID)
	}

	if filter.Status != nil {
		query = query.Where("approval_status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count products", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "approval_status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch products", err)
	}

	return products, total, nil
}

func (s *ProductService) GetProduct(actor Principal, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Manufacturer").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if !actor.IsAdmin() && product.Manufacturer.UserID != actor.ID {
		return nil, apperrors.Authorization("not the owner of this product")
	}

	return &product, nil
}

// ReviewProduct transitions a pending product to approved or rejected. The
// status change is a conditional update keyed on the pending status, so a
// concurrent duplicate review loses cleanly instead of double-applying.
func (s *ProductService) ReviewProduct(actor Principal, productID uuid.UUID, req *ReviewRequest) (*models.Product, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can review products")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	target, ok := req.Decision.Status()
	if !ok {
		return nil, apperrors.Validation("decision must be approve or reject")
	}

	var product models.Product
	if err := s.db.Preload("Manufacturer").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	now := time.Now()
	result := s.db.Model(&models.Product{}).
		Where("id = ? AND approval_status = ?", productID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"approval_status": target,
			"review_notes":    req.Notes,
			"reviewed_by":     actor.ID,
			"reviewed_at":     now,
		})
	if result.Error != nil {
		return nil, apperrors.Internal("failed to update product status", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.State("product has already been reviewed")
	}

	product.ApprovalStatus = target
	product.ReviewNotes = req.Notes
	product.ReviewedBy = &actor.ID
	product.ReviewedAt = &now

	go s.notificationService.NotifyProductReviewed(&product)

	return &product, nil
}
