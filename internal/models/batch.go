// internal/models/batch.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductBatch is a manufactured lot of an approved product. Its verification
// codes are generated once at creation and are immutable afterwards except for
// the used flag.
type ProductBatch struct {
	BaseModel
	ProductID       uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_batches_product_number"`
	BatchNumber     string         `json:"batch_number" gorm:"size:100;not null;uniqueIndex:idx_batches_product_number"`
	Quantity        int            `json:"quantity" gorm:"not null"`
	ManufactureDate time.Time      `json:"manufacture_date" gorm:"not null"`
	ExpiryDate      time.Time      `json:"expiry_date" gorm:"not null;index"`
	Status          ApprovalStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewNotes     string         `json:"review_notes,omitempty" gorm:"type:text"`
	ReviewedBy      *uuid.UUID     `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`

	// Relationships
	Product Product            `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Codes   []VerificationCode `json:"codes,omitempty" gorm:"foreignKey:BatchID"`
}

// Expired reports whether the batch expiry window has passed at the given
// instant.
func (b *ProductBatch) Expired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}
