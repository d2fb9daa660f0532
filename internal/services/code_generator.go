// internal/services/code_generator.go
package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/config"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// CodeStore is the persistence surface code generation needs. Kept narrow so
// the retry and backfill logic can be exercised against an in-memory
// implementation.
type CodeStore interface {
	// CreateCode inserts the code row, surfacing gorm.ErrDuplicatedKey when
	// the generated code collides with an existing one.
	CreateCode(code *models.VerificationCode) error
	CountCodes(batchID uuid.UUID) (int64, error)
}

type gormCodeStore struct {
	db *gorm.DB
}

func (s gormCodeStore) CreateCode(code *models.VerificationCode) error {
	return s.db.Create(code).Error
}

func (s gormCodeStore) CountCodes(batchID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.VerificationCode{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return count, err
}

// CodeGenerator produces verification codes for a batch. A code is the
// configured prefix followed by an uppercase suffix derived from a random
// UUID. The suffix is truncated well below 128 bits, so the database unique
// index on the code column is the real uniqueness guarantee: inserts that hit
// a duplicate key are retried with a fresh suffix a bounded number of times.
type CodeGenerator struct {
	cfg config.VerificationConfig
}

func NewCodeGenerator(cfg config.VerificationConfig) *CodeGenerator {
	return &CodeGenerator{cfg: cfg}
}

// CodeQuantity caps the number of codes generated for a batch.
func CodeQuantity(quantity, maxPerBatch int) int {
	if quantity < maxPerBatch {
		return quantity
	}
	return maxPerBatch
}

// newSuffix derives an uppercase alphanumeric suffix from a random UUID by
// stripping the hyphens and truncating to the configured length.
func (g *CodeGenerator) newSuffix() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	suffix := strings.ToUpper(raw)
	if len(suffix) > g.cfg.CodeSuffixLength {
		suffix = suffix[:g.cfg.CodeSuffixLength]
	}
	return suffix
}

func (g *CodeGenerator) newCode() string {
	return g.cfg.CodePrefix + g.newSuffix()
}

// GenerateForBatch inserts min(quantity, MaxCodesPerBatch) codes for the
// batch. Each insert that fails on the unique code column is retried with a
// freshly generated code; only an exhausted retry budget fails the operation,
// as a ConflictError.
func (g *CodeGenerator) GenerateForBatch(tx *gorm.DB, batchID uuid.UUID, quantity int) ([]models.VerificationCode, error) {
	return g.generate(gormCodeStore{db: tx}, batchID, quantity)
}

func (g *CodeGenerator) generate(store CodeStore, batchID uuid.UUID, quantity int) ([]models.VerificationCode, error) {
	n := CodeQuantity(quantity, g.cfg.MaxCodesPerBatch)

	codes := make([]models.VerificationCode, 0, n)
	for i := 0; i < n; i++ {
		code, err := g.insertWithRetry(store, batchID)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}

	return codes, nil
}

func (g *CodeGenerator) insertWithRetry(store CodeStore, batchID uuid.UUID) (*models.VerificationCode, error) {
	for attempt := 0; attempt <= g.cfg.InsertRetries; attempt++ {
		code := &models.VerificationCode{
			BatchID: batchID,
			Code:    g.newCode(),
		}

		err := store.CreateCode(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Internal("failed to persist verification code", err)
		}
		// Collision on the truncated suffix; loop with a new one.
	}

	return nil, apperrors.Conflict("verification code generation exhausted retries")
}

// EnsureCodes backfills codes for a batch that has none. A batch that already
// has at least one code is left untouched, so repeated invocations are no-ops.
func (g *CodeGenerator) EnsureCodes(db *gorm.DB, batch *models.ProductBatch) ([]models.VerificationCode, error) {
	return g.ensure(gormCodeStore{db: db}, batch)
}

func (g *CodeGenerator) ensure(store CodeStore, batch *models.ProductBatch) ([]models.VerificationCode, error) {
	existing, err := store.CountCodes(batch.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to count verification codes", err)
	}

	if existing > 0 {
		return nil, nil
	}

	return g.generate(store, batch.ID, batch.Quantity)
}
