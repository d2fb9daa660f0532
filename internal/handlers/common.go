// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

// principalFromContext builds the acting principal from the claims the auth
// middleware stored on the context. Returns false when the request is not
// authenticated, in which case a response has already been written.
func principalFromContext(c *gin.Context) (services.Principal, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return services.Principal{}, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return services.Principal{}, false
	}

	role, _ := utils.GetUserRoleFromContext(c)
	return services.Principal{ID: userID, Role: models.UserRole(role)}, true
}

// parseUUIDParam parses a path parameter as a UUID, writing a 400 on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
