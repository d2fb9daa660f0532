// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	ManufacturerID uuid.UUID      `json:"manufacturer_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_products_manufacturer_code"`
	Name           string         `json:"name" gorm:"size:255;not null"`
	Code           string         `json:"code" gorm:"size:100;not null;uniqueIndex:idx_products_manufacturer_code"`
	Category       string         `json:"category" gorm:"size:100;index"`
	Description    string         `json:"description" gorm:"type:text"`
	Certificates   pq.StringArray `json:"certificates" gorm:"type:text[]"`
	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewNotes    string         `json:"review_notes,omitempty" gorm:"type:text"`
	ReviewedBy     *uuid.UUID     `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`

	// Relationships
	Manufacturer Manufacturer   `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
	Batches      []ProductBatch `json:"batches,omitempty" gorm:"foreignKey:ProductID"`
}
