// internal/services/verification_service_test.go
package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// fakeVerificationStore is an in-memory VerificationStore with the same
// consume-once semantics as the database implementation.
type fakeVerificationStore struct {
	mu    sync.Mutex
	codes map[string]*models.VerificationCode
	logs  []models.VerificationLog

	findErr    error
	consumeErr error
	appendErr  error
}

func newFakeStore() *fakeVerificationStore {
	return &fakeVerificationStore{
		codes: make(map[string]*models.VerificationCode),
	}
}

func (f *fakeVerificationStore) FindCode(code string) (*models.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}

	stored, ok := f.codes[code]
	if !ok {
		return nil, nil
	}
	// Return a snapshot, like a database read would.
	snapshot := *stored
	return &snapshot, nil
}

func (f *fakeVerificationStore) ConsumeCode(codeID uuid.UUID, usedAt time.Time, log *models.VerificationLog) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.consumeErr != nil {
		return false, f.consumeErr
	}
	// A failed log append rolls the whole transaction back, leaving the
	// code unconsumed.
	if f.appendErr != nil {
		return false, f.appendErr
	}

	consumed := false
	for _, stored := range f.codes {
		if stored.ID == codeID {
			if !stored.Used {
				stored.Used = true
				stored.UsedAt = &usedAt
				consumed = true
			}
			break
		}
	}

	if consumed {
		log.Outcome = models.VerificationOutcomeValid
	} else {
		log.Outcome = models.VerificationOutcomeUsed
	}
	f.logs = append(f.logs, *log)
	return consumed, nil
}

func (f *fakeVerificationStore) AppendLog(log *models.VerificationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return f.appendErr
	}
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeVerificationStore) CountByOutcome(since *time.Time) (map[models.VerificationOutcome]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[models.VerificationOutcome]int64)
	for _, log := range f.logs {
		if since != nil && log.CreatedAt.Before(*since) {
			continue
		}
		counts[log.Outcome]++
	}
	return counts, nil
}

func (f *fakeVerificationStore) addCode(code string, expiry time.Time) *models.VerificationCode {
	stored := &models.VerificationCode{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Code:      code,
		Batch: models.ProductBatch{
			BatchNumber:     "LOT-2026-001",
			ManufactureDate: expiry.AddDate(-2, 0, 0),
			ExpiryDate:      expiry,
			Product: models.Product{
				Name: "Paracetamol 500mg",
				Manufacturer: models.Manufacturer{
					CompanyName: "Acme Pharma Ltd",
				},
			},
		},
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = stored
	return stored
}

func newTestVerificationService(store VerificationStore, now time.Time) *VerificationService {
	svc := NewVerificationService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestVerifyUnknownCodeIsFake(t *testing.T) {
	store := newFakeStore()
	svc := newTestVerificationService(store, time.Now())

	result, err := svc.Verify("FDA-PROD-DEADBEEF0001", "203.0.113.9", "test-agent")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeFake, result.Outcome)
	assert.Nil(t, result.Product)

	require.Len(t, store.logs, 1)
	assert.Nil(t, store.logs[0].CodeID)
	assert.Equal(t, "FDA-PROD-DEADBEEF0001", store.logs[0].SubmittedCode)
	assert.Equal(t, models.VerificationOutcomeFake, store.logs[0].Outcome)
	assert.Equal(t, "203.0.113.9", store.logs[0].IPAddress)
}

func TestVerifyValidCodeConsumesIt(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	stored := store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	svc := newTestVerificationService(store, now)

	result, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeValid, result.Outcome)
	require.NotNil(t, result.Product)
	assert.Equal(t, "Paracetamol 500mg", result.Product.ProductName)
	assert.Equal(t, "Acme Pharma Ltd", result.Product.Manufacturer)
	assert.Equal(t, "LOT-2026-001", result.Product.BatchNumber)

	assert.True(t, stored.Used)
	require.NotNil(t, stored.UsedAt)
	assert.Equal(t, now, *stored.UsedAt)

	require.Len(t, store.logs, 1)
	require.NotNil(t, store.logs[0].CodeID)
	assert.Equal(t, stored.ID, *store.logs[0].CodeID)
}

func TestVerifySecondScanIsUsed(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	svc := newTestVerificationService(store, now)

	first, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)
	require.Equal(t, models.VerificationOutcomeValid, first.Outcome)

	second, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeUsed, second.Outcome)
	require.NotNil(t, second.Product)
	assert.NotNil(t, second.UsedAt)
	assert.Len(t, store.logs, 2)
}

func TestVerifyExpiredCodeIsNotConsumed(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	stored := store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(0, 0, -1))
	svc := newTestVerificationService(store, now)

	result, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeExpired, result.Outcome)
	require.NotNil(t, result.Product)
	assert.False(t, stored.Used, "expired codes must never be consumed")
	assert.Nil(t, stored.UsedAt)

	// Still expired on a repeat scan, never flipping to used.
	again, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationOutcomeExpired, again.Outcome)
}

func TestVerifyUsedTakesPrecedenceOverExpired(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	usedAt := now.AddDate(0, -6, 0)
	stored := store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(0, 0, -1))
	stored.Used = true
	stored.UsedAt = &usedAt
	svc := newTestVerificationService(store, now)

	result, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeUsed, result.Outcome)
	require.NotNil(t, result.UsedAt)
	assert.Equal(t, usedAt, *result.UsedAt)
}

func TestVerifyNormalizesInput(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	svc := newTestVerificationService(store, now)

	result, err := svc.Verify("  fda-prod-a1b2c3d4e5f6\n", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.VerificationOutcomeValid, result.Outcome)
	assert.Equal(t, "FDA-PROD-A1B2C3D4E5F6", store.logs[0].SubmittedCode)
}

func TestVerifyEmptyCodeRejectedWithoutLog(t *testing.T) {
	store := newFakeStore()
	svc := newTestVerificationService(store, time.Now())

	_, err := svc.Verify("   ", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Empty(t, store.logs)
}

func TestVerifyLookupFailureSurfacesInternalError(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection refused")
	svc := newTestVerificationService(store, time.Now())

	_, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}

func TestVerifyLogFailureFailsScanAndRollsBack(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	stored := store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	store.appendErr = errors.New("disk full")
	svc := newTestVerificationService(store, now)

	_, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))

	assert.False(t, stored.Used, "a scan that was not logged must not consume the code")
	assert.Nil(t, stored.UsedAt)
	assert.Empty(t, store.logs)
}

func TestVerifyLogFailureSurfacesForUnknownCode(t *testing.T) {
	store := newFakeStore()
	store.appendErr = errors.New("disk full")
	svc := newTestVerificationService(store, time.Now())

	_, err := svc.Verify("FDA-PROD-NOSUCHCODE99", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
	assert.Empty(t, store.logs)
}

func TestVerifyConcurrentScansYieldOneValid(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	svc := newTestVerificationService(store, now)

	const scans = 32
	outcomes := make([]models.VerificationOutcome, scans)
	errs := make([]error, scans)

	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Verify("FDA-PROD-A1B2C3D4E5F6", "", "")
			if err != nil {
				errs[i] = err
				return
			}
			outcomes[i] = result.Outcome
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "scan %d", i)
	}

	valid := 0
	for _, outcome := range outcomes {
		switch outcome {
		case models.VerificationOutcomeValid:
			valid++
		case models.VerificationOutcomeUsed:
		default:
			t.Fatalf("unexpected outcome %q", outcome)
		}
	}
	assert.Equal(t, 1, valid, "exactly one concurrent scan may win")
	assert.Len(t, store.logs, scans)
}

func TestStatsAggregatesOutcomes(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	svc := newTestVerificationService(store, now)

	store.addCode("FDA-PROD-A1B2C3D4E5F6", now.AddDate(1, 0, 0))
	store.addCode("FDA-PROD-0000EXPIRED1", now.AddDate(0, 0, -1))

	mustVerify := func(code string) {
		_, err := svc.Verify(code, "", "")
		require.NoError(t, err)
	}

	mustVerify("FDA-PROD-A1B2C3D4E5F6") // valid
	mustVerify("FDA-PROD-A1B2C3D4E5F6") // used
	mustVerify("FDA-PROD-0000EXPIRED1") // expired
	mustVerify("FDA-PROD-NOSUCHCODE99") // fake
	mustVerify("FDA-PROD-NOSUCHCODE98") // fake

	stats, err := svc.Stats(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Valid)
	assert.Equal(t, int64(1), stats.Used)
	assert.Equal(t, int64(1), stats.Expired)
	assert.Equal(t, int64(2), stats.Fake)
	assert.Equal(t, int64(5), stats.Total)
}
