// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veritrace/veritrace-backend/internal/i18n"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := services.UserFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		filter.Role = &role
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filter.Active = &active
	}

	users, total, err := h.adminService.ListUsers(filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/users/:id/status
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "active"), nil)
		return
	}

	user, err := h.adminService.SetUserActive(actor.ID, userID, *req.Active)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminActionSuccess),
		"user":    user,
	})
}

// GET /admin/manufacturers
func (h *AdminHandler) ListManufacturers(c *gin.Context) {
	filter := services.ManufacturerFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}
	if approvedStr := c.Query("approved"); approvedStr != "" {
		approved := approvedStr == "true"
		filter.Approved = &approved
	}

	manufacturers, total, err := h.adminService.ListManufacturers(filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(manufacturers, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/manufacturers/:id/review
func (h *AdminHandler) ReviewManufacturer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	manufacturerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	manufacturer, err := h.adminService.ReviewManufacturer(actor.ID, manufacturerID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyAdminActionSuccess),
		"manufacturer": manufacturer,
	})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings(c.Query("category"))
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settings": settings,
	})
}

// PUT /admin/settings/:category/:key
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req services.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	setting, err := h.adminService.UpdateSetting(actor.ID, c.Param("category"), c.Param("key"), &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminSettingsUpdated),
		"setting": setting,
	})
}

// GET /admin/notifications
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.adminService.ListNotifications(params, unreadOnly)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.MarkNotificationRead(notificationID); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "notification marked as read",
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	filter := services.AuditLogFilter{
		PaginationParams: utils.GetPaginationParams(c),
		ResourceType:     c.Query("resource_type"),
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user_id", nil)
			return
		}
		filter.UserID = &userID
	}

	logs, total, err := h.adminService.ListAuditLogs(filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}
