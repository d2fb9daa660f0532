// internal/services/code_generator_test.go
package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/config"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// fakeCodeStore is an in-memory CodeStore enforcing the unique code column.
type fakeCodeStore struct {
	codes      map[string]uuid.UUID
	collisions int // next N inserts fail as duplicates
	createErr  error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]uuid.UUID)}
}

func (f *fakeCodeStore) CreateCode(code *models.VerificationCode) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.collisions > 0 {
		f.collisions--
		return gorm.ErrDuplicatedKey
	}
	if _, exists := f.codes[code.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.codes[code.Code] = code.BatchID
	return nil
}

func (f *fakeCodeStore) CountCodes(batchID uuid.UUID) (int64, error) {
	var count int64
	for _, id := range f.codes {
		if id == batchID {
			count++
		}
	}
	return count, nil
}

func testVerificationConfig() config.VerificationConfig {
	return config.VerificationConfig{
		CodePrefix:       "FDA-PROD-",
		CodeSuffixLength: 12,
		MaxCodesPerBatch: 10,
		InsertRetries:    3,
	}
}

func TestCodeQuantity(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		maxPerBatch int
		want        int
	}{
		{"below cap", 5, 10, 5},
		{"at cap", 10, 10, 10},
		{"above cap", 100000, 10, 10},
		{"single unit", 1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeQuantity(tt.quantity, tt.maxPerBatch))
		})
	}
}

func TestNewCodeFormat(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())

	code := g.newCode()

	assert.True(t, strings.HasPrefix(code, "FDA-PROD-"), "code %q missing prefix", code)

	suffix := strings.TrimPrefix(code, "FDA-PROD-")
	assert.Len(t, suffix, 12)
	assert.Equal(t, strings.ToUpper(suffix), suffix, "suffix must be uppercase")
	for _, r := range suffix {
		assert.Contains(t, "0123456789ABCDEF", string(r), "suffix must be hex characters")
	}
}

func TestNewCodeRespectsConfiguredLength(t *testing.T) {
	cfg := testVerificationConfig()
	cfg.CodePrefix = "VT-"
	cfg.CodeSuffixLength = 8

	g := NewCodeGenerator(cfg)
	code := g.newCode()

	assert.True(t, strings.HasPrefix(code, "VT-"))
	assert.Len(t, strings.TrimPrefix(code, "VT-"), 8)
}

func TestNewCodeIsRandomized(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := g.newCode()
		assert.False(t, seen[code], "generated duplicate code %q", code)
		seen[code] = true
	}
}

func TestGenerateCapsAtMaxPerBatch(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	batchID := uuid.New()

	codes, err := g.generate(store, batchID, 100000)
	require.NoError(t, err)
	assert.Len(t, codes, 10)

	count, err := store.CountCodes(batchID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestGeneratePersistsRequestedQuantityBelowCap(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	batchID := uuid.New()

	codes, err := g.generate(store, batchID, 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	for _, code := range codes {
		assert.Equal(t, batchID, code.BatchID)
		assert.True(t, strings.HasPrefix(code.Code, "FDA-PROD-"))
	}
	count, err := store.CountCodes(batchID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestInsertRetriesPastDuplicateKeys(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	store.collisions = 3 // equals the retry budget; the final attempt lands

	codes, err := g.generate(store, uuid.New(), 1)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

func TestInsertRetryBudgetExhaustedIsConflict(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	store.collisions = 4 // one more than the budget allows

	_, err := g.generate(store, uuid.New(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestInsertFailureSurfacesInternalError(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	store.createErr = errors.New("connection refused")

	_, err := g.generate(store, uuid.New(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}

func TestEnsureCodesIsIdempotent(t *testing.T) {
	g := NewCodeGenerator(testVerificationConfig())
	store := newFakeCodeStore()
	batch := &models.ProductBatch{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Quantity:  5,
	}

	first, err := g.ensure(store, batch)
	require.NoError(t, err)
	assert.Len(t, first, 5)

	minted := make(map[string]uuid.UUID, len(store.codes))
	for code, id := range store.codes {
		minted[code] = id
	}

	second, err := g.ensure(store, batch)
	require.NoError(t, err)
	assert.Nil(t, second, "a batch with codes must be left untouched")
	assert.Equal(t, minted, store.codes, "backfill must not mint extra codes")
}
