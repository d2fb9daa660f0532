// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passwordFixture struct {
	Password string `validate:"required,strong_password"`
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"meets all rules", "Str0ngPass", true},
		{"too short", "Ab1", false},
		{"no uppercase", "weakpass1", false},
		{"no lowercase", "WEAKPASS1", false},
		{"no number", "WeakPassword", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&passwordFixture{Password: tt.password})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

type registrationFixture struct {
	Email    string `validate:"required,email"`
	Quantity int    `validate:"required,min=1"`
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&registrationFixture{Email: "not-an-email", Quantity: 0})
	require.Error(t, err)

	fieldErrors := GetValidationErrors(err)
	require.Len(t, fieldErrors, 2)

	byField := map[string]ValidationError{}
	for _, fe := range fieldErrors {
		byField[fe.Field] = fe
	}

	assert.Equal(t, "email", byField["email"].Tag)
	assert.Equal(t, "Invalid email format", byField["email"].Message)
	assert.Equal(t, "required", byField["quantity"].Tag)
}

func TestGetValidationErrorsIgnoresPlainErrors(t *testing.T) {
	assert.Empty(t, GetValidationErrors(assert.AnError))
	assert.Empty(t, GetValidationErrors(nil))
}
