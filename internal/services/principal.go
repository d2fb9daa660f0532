// internal/services/principal.go
package services

import (
	"github.com/google/uuid"

	"github.com/veritrace/veritrace-backend/internal/models"
)

// Principal is the authenticated actor performing an operation. It is resolved
// from the request credential at the boundary and passed explicitly; services
// never reach back into transport state.
type Principal struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.UserRoleAdmin
}

func (p Principal) IsManufacturer() bool {
	return p.Role == models.UserRoleManufacturer
}
