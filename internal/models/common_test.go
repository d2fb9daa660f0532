// internal/models/common_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewDecisionStatus(t *testing.T) {
	tests := []struct {
		decision ReviewDecision
		want     ApprovalStatus
		ok       bool
	}{
		{ReviewDecisionApprove, ApprovalStatusApproved, true},
		{ReviewDecisionReject, ApprovalStatusRejected, true},
		{ReviewDecision("escalate"), "", false},
		{ReviewDecision(""), "", false},
	}

	for _, tt := range tests {
		got, ok := tt.decision.Status()
		assert.Equal(t, tt.ok, ok, "decision %q", tt.decision)
		assert.Equal(t, tt.want, got, "decision %q", tt.decision)
	}
}

func TestApprovalStatusIsValid(t *testing.T) {
	assert.True(t, ApprovalStatusPending.IsValid())
	assert.True(t, ApprovalStatusApproved.IsValid())
	assert.True(t, ApprovalStatusRejected.IsValid())
	assert.False(t, ApprovalStatus("archived").IsValid())
}

func TestBatchExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	batch := &ProductBatch{ExpiryDate: now.AddDate(0, 0, 1)}

	assert.False(t, batch.Expired(now))
	assert.True(t, batch.Expired(now.AddDate(0, 0, 2)))
	// An expiry equal to the scan instant is not yet expired.
	assert.False(t, batch.Expired(batch.ExpiryDate))
}

func TestUserPasswordHashing(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("Str0ngPass"))

	assert.NotEqual(t, "Str0ngPass", user.PasswordHash)
	assert.NoError(t, user.CheckPassword("Str0ngPass"))
	assert.Error(t, user.CheckPassword("wrongpass"))
}

func TestJSONBRoundtrip(t *testing.T) {
	value := JSONB{"max_codes_per_batch": float64(10)}

	raw, err := value.Value()
	require.NoError(t, err)

	var scanned JSONB
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, value, scanned)

	var nilScan JSONB
	require.NoError(t, nilScan.Scan(nil))
	assert.Nil(t, nilScan)
}
