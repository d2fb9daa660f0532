// internal/models/manufacturer.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Manufacturer struct {
	BaseModel
	UserID             uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	CompanyName        string     `json:"company_name" gorm:"size:255;not null"`
	RegistrationNumber string     `json:"registration_number" gorm:"uniqueIndex;size:100;not null"`
	ContactEmail       string     `json:"contact_email" gorm:"size:255"`
	ContactPhone       string     `json:"contact_phone" gorm:"size:50"`
	Address            string     `json:"address" gorm:"type:text"`
	Approved           bool       `json:"approved" gorm:"default:false;index"`
	ApprovedAt         *time.Time `json:"approved_at"`
	ApprovedBy         *uuid.UUID `json:"approved_by" gorm:"type:uuid"`

	// Relationships
	User     User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:ManufacturerID"`
}
