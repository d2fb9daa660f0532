// internal/services/batch_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/database"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type BatchService struct {
	db                  *gorm.DB
	codeGenerator       *CodeGenerator
	notificationService *NotificationService
}

type CreateBatchRequest struct {
	BatchNumber     string    `json:"batch_number" validate:"required,max=100"`
	Quantity        int       `json:"quantity" validate:"required,min=1"`
	ManufactureDate time.Time `json:"manufacture_date" validate:"required"`
	ExpiryDate      time.Time `json:"expiry_date" validate:"required"`
}

type BatchFilter struct {
	utils.PaginationParams
	Status    *models.ApprovalStatus `json:"status,omitempty"`
	ProductID *uuid.UUID             `json:"product_id,omitempty"`
}

// BatchWithCodes pairs a batch with the number of verification codes minted
// for it, for listing responses.
type BatchWithCodes struct {
	models.ProductBatch
	CodeCount int64 `json:"code_count"`
}

func NewBatchService(db *gorm.DB, codeGenerator *CodeGenerator, notificationService *NotificationService) *BatchService {
	return &BatchService{
		db:                  db,
		codeGenerator:       codeGenerator,
		notificationService: notificationService,
	}
}

// CreateBatch registers a production batch under an approved product and mints
// its verification codes in the same transaction, so a batch is never visible
// without its codes.
func (s *BatchService) CreateBatch(actor Principal, productID uuid.UUID, req *CreateBatchRequest) (*models.ProductBatch, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	if !req.ExpiryDate.After(req.ManufactureDate) {
		return nil, apperrors.Validation("expiry date must be after manufacture date")
	}

	if !actor.IsManufacturer() {
		return nil, apperrors.Authorization("only manufacturers can register batches")
	}

	manufacturer, err := manufacturerForUser(s.db, actor.ID)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if product.ManufacturerID != manufacturer.ID {
		return nil, apperrors.Authorization("not the owner of this product")
	}
	if product.ApprovalStatus != models.ApprovalStatusApproved {
		return nil, apperrors.Authorization("product must be approved before batches can be registered")
	}

	batch := &models.ProductBatch{
		ProductID:       product.ID,
		BatchNumber:     req.BatchNumber,
		Quantity:        req.Quantity,
		ManufactureDate: req.ManufactureDate,
		ExpiryDate:      req.ExpiryDate,
		Status:          models.ApprovalStatusPending,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("batch number already registered for this product")
			}
			return apperrors.Internal("failed to create batch", err)
		}
		codes, err := s.codeGenerator.GenerateForBatch(tx, batch.ID, batch.Quantity)
		if err != nil {
			return err
		}
		batch.Codes = codes
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to create batch", err)
	}

	go s.notificationService.NotifyBatchSubmitted(batch, &product, manufacturer)

	return batch, nil
}

func (s *BatchService) ListBatches(actor Principal, filter BatchFilter) ([]BatchWithCodes, int64, error) {
	query := s.db.Model(&models.ProductBatch{}).
		Preload("Product").
		Preload("Product.Manufacturer")

	if !actor.IsAdmin() {
		manufacturer, err := manufacturerForUser(s.db, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("product_id IN (?)",
			s.db.Model(&models.Product{}).Select("id").Where("manufacturer_id = ?", manufacturer.ID))
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Search != "" {
		query = query.Where("batch_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count batches", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "batch_number", "expiry_date", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var batches []models.ProductBatch
	if err := query.Find(&batches).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch batches", err)
	}

	results := make([]BatchWithCodes, 0, len(batches))
	for _, batch := range batches {
		var codeCount int64
		if err := s.db.Model(&models.VerificationCode{}).Where("batch_id = ?", batch.ID).Count(&codeCount).Error; err != nil {
			logrus.WithError(err).WithField("batch_id", batch.ID).Warn("Failed to count batch codes")
		}
		results = append(results, BatchWithCodes{ProductBatch: batch, CodeCount: codeCount})
	}

	return results, total, nil
}

func (s *BatchService) GetBatch(actor Principal, batchID uuid.UUID) (*models.ProductBatch, error) {
	var batch models.ProductBatch
	err := s.db.Preload("Product").Preload("Product.Manufacturer").Preload("Codes").
		First(&batch, batchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("batch not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if !actor.IsAdmin() && batch.Product.Manufacturer.UserID != actor.ID {
		return nil, apperrors.Authorization("not the owner of this batch")
	}

	return &batch, nil
}

// ReviewBatch approves or rejects a pending batch. Like product review, the
// transition is a conditional update keyed on the pending status.
func (s *BatchService) ReviewBatch(actor Principal, batchID uuid.UUID, req *ReviewRequest) (*models.ProductBatch, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization("only administrators can review batches")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	target, ok := req.Decision.Status()
	if !ok {
		return nil, apperrors.Validation("decision must be approve or reject")
	}

	var batch models.ProductBatch
	err := s.db.Preload("Product").Preload("Product.Manufacturer").First(&batch, batchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("batch not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	now := time.Now()
	result := s.db.Model(&models.ProductBatch{}).
		Where("id = ? AND status = ?", batchID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":       target,
			"review_notes": req.Notes,
			"reviewed_by":  actor.ID,
			"reviewed_at":  now,
		})
	if result.Error != nil {
		return nil, apperrors.Internal("failed to update batch status", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.State("batch has already been reviewed")
	}

	batch.Status = target
	batch.ReviewNotes = req.Notes
	batch.ReviewedBy = &actor.ID
	batch.ReviewedAt = &now

	// Older batches created before code minting moved into the create
	// transaction may still lack codes; approval is the last safe point
	// to mint them.
	if target == models.ApprovalStatusApproved {
		if _, err := s.codeGenerator.EnsureCodes(s.db, &batch); err != nil {
			logrus.WithError(err).WithField("batch_id", batch.ID).Error("Failed to backfill verification codes")
		}
	}

	go s.notificationService.NotifyBatchReviewed(&batch)

	return &batch, nil
}

// BackfillCodes repairs a batch that was left without verification codes.
// Idempotent: a batch that already has codes is left untouched.
func (s *BatchService) BackfillCodes(actor Principal, batchID uuid.UUID) (*models.ProductBatch, int64, error) {
	batch, err := s.GetBatch(actor, batchID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.codeGenerator.EnsureCodes(s.db, batch); err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, 0, appErr
		}
		return nil, 0, apperrors.Internal("failed to backfill verification codes", err)
	}

	var codeCount int64
	if err := s.db.Model(&models.VerificationCode{}).Where("batch_id = ?", batch.ID).Count(&codeCount).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count batch codes", err)
	}

	return batch, codeCount, nil
}
