// internal/services/auth_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/config"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

type AuthService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	notificationService *NotificationService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,strong_password"`
	Role     models.UserRole `json:"role" validate:"required"`

	// Manufacturer profile, required when Role is manufacturer.
	CompanyName        string `json:"company_name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	ContactEmail       string `json:"contact_email,omitempty"`
	ContactPhone       string `json:"contact_phone,omitempty"`
	Address            string `json:"address,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *AuthService {
	return &AuthService{
		db:                  db,
		cfg:                 cfg,
		notificationService: notificationService,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	// Admin accounts are seeded, never self-registered.
	if req.Role != models.UserRoleManufacturer && req.Role != models.UserRoleConsumer {
		return nil, apperrors.Validation("invalid role")
	}

	if req.Role == models.UserRoleManufacturer {
		if req.CompanyName == "" || req.RegistrationNumber == "" {
			return nil, apperrors.Validation("company name and registration number are required for manufacturers")
		}
	}

	var existingUser models.User
	if err := s.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("database error", err)
	}

	user := &models.User{
		Email:  req.Email,
		Role:   req.Role,
		Active: true,
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if req.Role == models.UserRoleManufacturer {
			manufacturer := &models.Manufacturer{
				UserID:             user.ID,
				CompanyName:        req.CompanyName,
				RegistrationNumber: req.RegistrationNumber,
				ContactEmail:       req.ContactEmail,
				ContactPhone:       req.ContactPhone,
				Address:            req.Address,
			}
			if err := tx.Create(manufacturer).Error; err != nil {
				return err
			}
			user.Manufacturer = manufacturer
		}

		return nil
	})
	if err != nil {
		return nil, registerPersistError(err)
	}

	if user.Manufacturer != nil {
		go s.notificationService.NotifyManufacturerRegistered(user, user.Manufacturer)
	}

	return s.issueTokens(user)
}

// registerPersistError maps a failed registration transaction to an API error.
// A duplicate key can come from either the user email or the manufacturer
// registration number unique index, so the message names neither.
func registerPersistError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("account details already in use")
	}
	return apperrors.Internal("failed to create user", err)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed").WithDetails(utils.GetValidationErrors(err))
	}

	var user models.User
	if err := s.db.Preload("Manufacturer").Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authentication("invalid email or password")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if !user.Active {
		return nil, apperrors.Authorization("account is deactivated")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Authentication("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.db.Model(&user).Update("last_login_at", now)

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Authentication("invalid refresh token")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apperrors.Authentication("invalid refresh token subject")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if !user.Active {
		return nil, apperrors.Authorization("account is deactivated")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Manufacturer").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate refresh token", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
