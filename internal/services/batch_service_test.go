// internal/services/batch_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// The request checks run before any database access, so a service without a
// connection is enough to exercise them.
func newValidationOnlyBatchService() *BatchService {
	return NewBatchService(nil, nil, nil)
}

func validCreateBatchRequest() *CreateBatchRequest {
	manufactured := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return &CreateBatchRequest{
		BatchNumber:     "LOT-2026-001",
		Quantity:        5,
		ManufactureDate: manufactured,
		ExpiryDate:      manufactured.AddDate(2, 0, 0),
	}
}

func TestCreateBatchRejectsInvalidDates(t *testing.T) {
	svc := newValidationOnlyBatchService()
	actor := Principal{ID: uuid.New(), Role: models.UserRoleManufacturer}

	tests := []struct {
		name   string
		expiry func(manufactured time.Time) time.Time
	}{
		{"expiry before manufacture", func(m time.Time) time.Time { return m.AddDate(0, 0, -1) }},
		{"expiry equals manufacture", func(m time.Time) time.Time { return m }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateBatchRequest()
			req.ExpiryDate = tt.expiry(req.ManufactureDate)

			_, err := svc.CreateBatch(actor, uuid.New(), req)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}

func TestCreateBatchRejectsNonPositiveQuantity(t *testing.T) {
	svc := newValidationOnlyBatchService()
	actor := Principal{ID: uuid.New(), Role: models.UserRoleManufacturer}

	for _, quantity := range []int{0, -5} {
		req := validCreateBatchRequest()
		req.Quantity = quantity

		_, err := svc.CreateBatch(actor, uuid.New(), req)
		require.Error(t, err, "quantity %d", quantity)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "quantity %d", quantity)
	}
}

func TestCreateBatchRequiresManufacturerRole(t *testing.T) {
	svc := newValidationOnlyBatchService()
	actor := Principal{ID: uuid.New(), Role: models.UserRoleConsumer}

	_, err := svc.CreateBatch(actor, uuid.New(), validCreateBatchRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}
