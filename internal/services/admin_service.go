// internal/services/admin_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

// AdminService backs the admin surface. Role enforcement happens in the
// router's AdminRequired middleware; methods here take the admin's ID only
// where the row records who acted.
type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type DashboardStats struct {
	TotalUsers            int64              `json:"total_users"`
	ActiveManufacturers   int64              `json:"active_manufacturers"`
	PendingManufacturers  int64              `json:"pending_manufacturers"`
	PendingProducts       int64              `json:"pending_products"`
	PendingBatches        int64              `json:"pending_batches"`
	TotalCodes            int64              `json:"total_codes"`
	UsedCodes             int64              `json:"used_codes"`
	Verifications         *VerificationStats `json:"verifications"`
	VerificationsLastWeek *VerificationStats `json:"verifications_last_week"`
}

type UserFilter struct {
	utils.PaginationParams
	Role   *models.UserRole `json:"role,omitempty"`
	Active *bool            `json:"active,omitempty"`
}

type ManufacturerFilter struct {
	utils.PaginationParams
	Approved *bool `json:"approved,omitempty"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
}

type UpdateSettingRequest struct {
	Value       models.JSONB `json:"value" validate:"required"`
	Description string       `json:"description,omitempty"`
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
	}
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, s.db.Model(&models.User{})},
		{&stats.ActiveManufacturers, s.db.Model(&models.Manufacturer{}).Where("approved = ?", true)},
		{&stats.PendingManufacturers, s.db.Model(&models.Manufacturer{}).Where("approved = ?", false)},
		{&stats.PendingProducts, s.db.Model(&models.Product{}).Where("approval_status = ?", models.ApprovalStatusPending)},
		{&stats.PendingBatches, s.db.Model(&models.ProductBatch{}).Where("status = ?", models.ApprovalStatusPending)},
		{&stats.TotalCodes, s.db.Model(&models.VerificationCode{})},
		{&stats.UsedCodes, s.db.Model(&models.VerificationCode{}).Where("used = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperrors.Internal("failed to aggregate dashboard stats", err)
		}
	}

	verificationService := NewVerificationService(NewGormVerificationStore(s.db))
	allTime, err := verificationService.Stats(nil)
	if err != nil {
		return nil, err
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	lastWeek, err := verificationService.Stats(&weekAgo)
	if err != nil {
		return nil, err
	}
	stats.Verifications = allTime
	stats.VerificationsLastWeek = lastWeek

	return stats, nil
}

// User management

func (s *AdminService) ListUsers(filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{}).Preload("Manufacturer")

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		query = query.Where("email ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count users", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "email", "role"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch users", err)
	}

	return users, total, nil
}

func (s *AdminService) SetUserActive(adminID, userID uuid.UUID, active bool) (*models.User, error) {
	if adminID == userID {
		return nil, apperrors.State("administrators cannot change their own account status")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if err := s.db.Model(&user).Update("active", active).Error; err != nil {
		return nil, apperrors.Internal("failed to update user status", err)
	}
	user.Active = active

	return &user, nil
}

// Manufacturer approval

func (s *AdminService) ListManufacturers(filter ManufacturerFilter) ([]models.Manufacturer, int64, error) {
	query := s.db.Model(&models.Manufacturer{}).Preload("User")

	if filter.Approved != nil {
		query = query.Where("approved = ?", *filter.Approved)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("company_name ILIKE ? OR registration_number ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count manufacturers", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "company_name"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var manufacturers []models.Manufacturer
	if err := query.Find(&manufacturers).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch manufacturers", err)
	}

	return manufacturers, total, nil
}

// ReviewManufacturer approves or rejects a manufacturer profile. Approval is a
// conditional update keyed on approved = false; rejection keeps the profile
// unapproved and deactivates the owning account so it cannot operate.
func (s *AdminService) ReviewManufacturer(adminID, manufacturerID uuid.UUID, req *ReviewRequest) (*models.Manufacturer, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}
	if _, ok := req.Decision.Status(); !ok {
		return nil, apperrors.Validation("decision must be approve or reject")
	}

	var manufacturer models.Manufacturer
	if err := s.db.Preload("User").First(&manufacturer, manufacturerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("manufacturer not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if req.Decision == models.ReviewDecisionApprove {
		now := time.Now()
		result := s.db.Model(&models.Manufacturer{}).
			Where("id = ? AND approved = ?", manufacturerID, false).
			Updates(map[string]interface{}{
				"approved":    true,
				"approved_at": now,
				"approved_by": adminID,
			})
		if result.Error != nil {
			return nil, apperrors.Internal("failed to approve manufacturer", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperrors.State("manufacturer is already approved")
		}
		manufacturer.Approved = true
		manufacturer.ApprovedAt = &now
		manufacturer.ApprovedBy = &adminID
	} else {
		if manufacturer.Approved {
			return nil, apperrors.State("approved manufacturers cannot be rejected; deactivate the account instead")
		}
		if err := s.db.Model(&models.User{}).Where("id = ?", manufacturer.UserID).
			Update("active", false).Error; err != nil {
			return nil, apperrors.Internal("failed to deactivate manufacturer account", err)
		}
	}

	go s.notificationService.NotifyManufacturerReviewed(&manufacturer, manufacturer.Approved)

	return &manufacturer, nil
}

// Settings

func (s *AdminService) GetSettings(category string) ([]models.AdminSettings, error) {
	query := s.db.Model(&models.AdminSettings{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var settings []models.AdminSettings
	if err := query.Order("category, key").Find(&settings).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch settings", err)
	}
	return settings, nil
}

func (s *AdminService) UpdateSetting(adminID uuid.UUID, category, key string, req *UpdateSettingRequest) (*models.AdminSettings, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	var setting models.AdminSettings
	err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("setting not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	updates := map[string]interface{}{
		"value":      req.Value,
		"updated_by": adminID,
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if err := s.db.Model(&setting).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to update setting", err)
	}

	setting.Value = req.Value
	setting.UpdatedBy = adminID
	if req.Description != "" {
		setting.Description = req.Description
	}
	return &setting, nil
}

// Notifications

func (s *AdminService) ListNotifications(params utils.PaginationParams, unreadOnly bool) ([]models.AdminNotification, int64, error) {
	query := s.db.Model(&models.AdminNotification{})
	if unreadOnly {
		query = query.Where("status = ?", "unread")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count notifications", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "priority"})
	query = utils.ApplyPagination(query, params)

	var notifications []models.AdminNotification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch notifications", err)
	}
	return notifications, total, nil
}

func (s *AdminService) MarkNotificationRead(notificationID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.AdminNotification{}).
		Where("id = ? AND status = ?", notificationID, "unread").
		Updates(map[string]interface{}{
			"status":  "read",
			"read_at": now,
		})
	if result.Error != nil {
		return apperrors.Internal("failed to update notification", result.Error)
	}
	if result.RowsAffected == 0 {
		var notification models.AdminNotification
		if err := s.db.First(&notification, notificationID).Error; err != nil {
			return apperrors.NotFound("notification not found")
		}
	}
	return nil
}

// Audit logs

func (s *AdminService) ListAuditLogs(filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{}).Preload("User")

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count audit logs", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch audit logs", err)
	}
	return logs, total, nil
}
