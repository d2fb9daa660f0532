// internal/services/auth_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
)

func TestRegisterPersistErrorDuplicateKeyIsConflict(t *testing.T) {
	// Either the email or the registration number index can fire here, so
	// the message must not claim a specific field.
	for _, cause := range []error{
		gorm.ErrDuplicatedKey,
		fmt.Errorf("create manufacturer: %w", gorm.ErrDuplicatedKey),
	} {
		err := registerPersistError(cause)
		require.Error(t, err)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindConflict, appErr.Kind)
		assert.Equal(t, "account details already in use", appErr.Message)
	}
}

func TestRegisterPersistErrorOtherFailuresAreInternal(t *testing.T) {
	err := registerPersistError(errors.New("connection refused"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}
