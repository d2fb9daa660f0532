// internal/models/verification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode is a single-use token printed on product packaging.
// The code column is globally unique; uniqueness of the truncated suffix is
// statistical, so inserts must handle duplicate-key failures.
type VerificationCode struct {
	BaseModel
	BatchID uuid.UUID  `json:"batch_id" gorm:"type:uuid;not null;index"`
	Code    string     `json:"code" gorm:"uniqueIndex;size:64;not null"`
	Used    bool       `json:"used" gorm:"default:false"`
	UsedAt  *time.Time `json:"used_at"`

	// Relationships
	Batch ProductBatch `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
}

// VerificationLog is an append-only record of a single scan. CodeID is nil
// when the submitted string matched nothing, which implies a FAKE outcome.
type VerificationLog struct {
	BaseModel
	CodeID        *uuid.UUID          `json:"code_id" gorm:"type:uuid;index"`
	SubmittedCode string              `json:"submitted_code" gorm:"size:128;not null"`
	Outcome       VerificationOutcome `json:"outcome" gorm:"type:varchar(20);not null;index"`
	IPAddress     string              `json:"ip_address" gorm:"size:45"`
	UserAgent     string              `json:"user_agent" gorm:"type:text"`

	// Relationships
	Code *VerificationCode `json:"code,omitempty" gorm:"foreignKey:CodeID"`
}
