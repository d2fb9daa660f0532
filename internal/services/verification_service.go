// internal/services/verification_service.go
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// VerificationStore is the persistence surface the verification flow needs.
// Kept narrow so the outcome logic can be exercised against an in-memory
// implementation.
type VerificationStore interface {
	// FindCode returns the code row with its batch, product and manufacturer
	// loaded, or (nil, nil) when the submitted string matches nothing.
	FindCode(code string) (*models.VerificationCode, error)
	// ConsumeCode marks an unused code as used and appends the log row in the
	// same transaction, so a code is never consumed without its log. It sets
	// the log outcome to VALID for the winner and USED for a caller that lost
	// the first-use race, and returns whether this call won.
	ConsumeCode(codeID uuid.UUID, usedAt time.Time, log *models.VerificationLog) (bool, error)
	AppendLog(log *models.VerificationLog) error
	CountByOutcome(since *time.Time) (map[models.VerificationOutcome]int64, error)
}

type VerificationService struct {
	store VerificationStore
	now   func() time.Time
}

type VerifiedProduct struct {
	ProductName     string    `json:"product_name"`
	Manufacturer    string    `json:"manufacturer"`
	BatchNumber     string    `json:"batch_number"`
	ManufactureDate time.Time `json:"manufacture_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
}

type VerificationResult struct {
	Outcome models.VerificationOutcome `json:"outcome"`
	// Product is nil when the outcome is FAKE.
	Product *VerifiedProduct `json:"product,omitempty"`
	UsedAt  *time.Time       `json:"used_at,omitempty"`
}

type VerificationStats struct {
	Total   int64 `json:"total"`
	Valid   int64 `json:"valid"`
	Expired int64 `json:"expired"`
	Used    int64 `json:"used"`
	Fake    int64 `json:"fake"`
}

func NewVerificationService(store VerificationStore) *VerificationService {
	return &VerificationService{
		store: store,
		now:   time.Now,
	}
}

// Verify resolves a submitted code to exactly one outcome and appends exactly
// one log row. Outcome precedence: an unknown code is FAKE, a consumed code is
// USED regardless of expiry, an expired code is EXPIRED and is never consumed,
// and only then is the code atomically marked used and reported VALID. A
// concurrent scan that loses the mark-used race is reported USED.
func (s *VerificationService) Verify(submitted, ipAddress, userAgent string) (*VerificationResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(submitted))
	if normalized == "" {
		return nil, apperrors.Validation("verification code is required")
	}

	code, err := s.store.FindCode(normalized)
	if err != nil {
		return nil, apperrors.Internal("failed to look up verification code", err)
	}

	result := &VerificationResult{}
	logEntry := &models.VerificationLog{
		SubmittedCode: normalized,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
	}

	switch {
	case code == nil:
		result.Outcome = models.VerificationOutcomeFake

	case code.Used:
		result.Outcome = models.VerificationOutcomeUsed
		result.Product = verifiedProduct(code)
		result.UsedAt = code.UsedAt
		logEntry.CodeID = &code.ID

	case code.Batch.Expired(s.now()):
		result.Outcome = models.VerificationOutcomeExpired
		result.Product = verifiedProduct(code)
		logEntry.CodeID = &code.ID

	default:
		logEntry.CodeID = &code.ID
		consumed, err := s.store.ConsumeCode(code.ID, s.now(), logEntry)
		if err != nil {
			return nil, apperrors.Internal("failed to consume verification code", err)
		}
		if consumed {
			result.Outcome = models.VerificationOutcomeValid
		} else {
			result.Outcome = models.VerificationOutcomeUsed
		}
		result.Product = verifiedProduct(code)
		return result, nil
	}

	logEntry.Outcome = result.Outcome
	if err := s.store.AppendLog(logEntry); err != nil {
		return nil, apperrors.Internal("failed to record verification outcome", err)
	}

	return result, nil
}

func (s *VerificationService) Stats(since *time.Time) (*VerificationStats, error) {
	counts, err := s.store.CountByOutcome(since)
	if err != nil {
		return nil, apperrors.Internal("failed to aggregate verification stats", err)
	}

	stats := &VerificationStats{
		Valid:   counts[models.VerificationOutcomeValid],
		Expired: counts[models.VerificationOutcomeExpired],
		Used:    counts[models.VerificationOutcomeUsed],
		Fake:    counts[models.VerificationOutcomeFake],
	}
	stats.Total = stats.Valid + stats.Expired + stats.Used + stats.Fake
	return stats, nil
}

func verifiedProduct(code *models.VerificationCode) *VerifiedProduct {
	return &VerifiedProduct{
		ProductName:     code.Batch.Product.Name,
		Manufacturer:    code.Batch.Product.Manufacturer.CompanyName,
		BatchNumber:     code.Batch.BatchNumber,
		ManufactureDate: code.Batch.ManufactureDate,
		ExpiryDate:      code.Batch.ExpiryDate,
	}
}

// gormVerificationStore is the production VerificationStore.
type gormVerificationStore struct {
	db *gorm.DB
}

func NewGormVerificationStore(db *gorm.DB) VerificationStore {
	return &gormVerificationStore{db: db}
}

func (s *gormVerificationStore) FindCode(code string) (*models.VerificationCode, error) {
	var verificationCode models.VerificationCode
	err := s.db.Preload("Batch").
		Preload("Batch.Product").
		Preload("Batch.Product.Manufacturer").
		Where("code = ?", code).
		First(&verificationCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &verificationCode, nil
}

func (s *gormVerificationStore) ConsumeCode(codeID uuid.UUID, usedAt time.Time, log *models.VerificationLog) (bool, error) {
	var consumed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.VerificationCode{}).
			Where("id = ? AND used = ?", codeID, false).
			Updates(map[string]interface{}{
				"used":    true,
				"used_at": usedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		consumed = result.RowsAffected == 1
		if consumed {
			log.Outcome = models.VerificationOutcomeValid
		} else {
			log.Outcome = models.VerificationOutcomeUsed
		}
		return tx.Create(log).Error
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

func (s *gormVerificationStore) AppendLog(log *models.VerificationLog) error {
	return s.db.Create(log).Error
}

func (s *gormVerificationStore) CountByOutcome(since *time.Time) (map[models.VerificationOutcome]int64, error) {
	type row struct {
		Outcome models.VerificationOutcome
		Count   int64
	}

	query := s.db.Model(&models.VerificationLog{}).
		Select("outcome, COUNT(*) as count").
		Group("outcome")
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.VerificationOutcome]int64, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}
