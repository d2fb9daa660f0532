// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleManufacturer UserRole = "manufacturer"
	UserRoleConsumer     UserRole = "consumer"
)

// ApprovalStatus is the administrator's decision state on a product or batch.
// PENDING transitions to APPROVED or REJECTED exactly once; both are terminal.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// ReviewDecision is the admin input that moves a pending entity to a
// terminal approval status.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
)

// Status returns the terminal approval status the decision maps to.
func (d ReviewDecision) Status() (ApprovalStatus, bool) {
	switch d {
	case ReviewDecisionApprove:
		return ApprovalStatusApproved, true
	case ReviewDecisionReject:
		return ApprovalStatusRejected, true
	}
	return "", false
}

// VerificationOutcome classifies a single consumer scan.
type VerificationOutcome string

const (
	VerificationOutcomeValid   VerificationOutcome = "valid"
	VerificationOutcomeExpired VerificationOutcome = "expired"
	VerificationOutcomeFake    VerificationOutcome = "fake"
	VerificationOutcomeUsed    VerificationOutcome = "used"
)
