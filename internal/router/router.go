// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/config"
	"github.com/veritrace/veritrace-backend/internal/handlers"
	"github.com/veritrace/veritrace-backend/internal/middleware"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	codeGenerator := services.NewCodeGenerator(cfg.Verification)

	authService := services.NewAuthService(db, cfg, notificationService)
	productService := services.NewProductService(db, notificationService)
	batchService := services.NewBatchService(db, codeGenerator, notificationService)
	verificationService := services.NewVerificationService(services.NewGormVerificationStore(db))
	adminService := services.NewAdminService(db, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	batchHandler := handlers.NewBatchHandler(batchService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	adminHandler := handlers.NewAdminHandler(adminService)
	uploadHandler := handlers.NewUploadHandler(storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Manufacturer routes
		manufacturer := v1.Group("/manufacturer")
		manufacturer.Use(middleware.AuthRequired(), middleware.ManufacturerRequired())
		{
			manufacturer.POST("/products", productHandler.CreateProduct)
			manufacturer.GET("/products", productHandler.ListProducts)
			manufacturer.GET("/products/:id", productHandler.GetProduct)
			manufacturer.POST("/products/:id/batches", batchHandler.CreateBatch)
			manufacturer.GET("/products/:id/batches", batchHandler.ListBatches)

			manufacturer.GET("/batches", batchHandler.ListBatches)
			manufacturer.GET("/batches/:id", batchHandler.GetBatch)
			manufacturer.POST("/batches/:id/codes", batchHandler.BackfillCodes)

			manufacturer.POST("/uploads", middleware.UploadRateLimit(), uploadHandler.UploadDocument)
		}

		// Public verification routes
		verify := v1.Group("/verify")
		{
			verify.POST("", middleware.VerifyRateLimit(), middleware.OptionalAuth(), verificationHandler.Verify)
			verify.GET("/stats", middleware.AuthRequired(), verificationHandler.Stats)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.PATCH("/:id/status", adminHandler.SetUserActive)
			}

			adminManufacturers := admin.Group("/manufacturers")
			{
				adminManufacturers.GET("", adminHandler.ListManufacturers)
				adminManufacturers.PATCH("/:id/review", adminHandler.ReviewManufacturer)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.GET("", productHandler.ListProducts)
				adminProducts.GET("/:id", productHandler.GetProduct)
				adminProducts.PATCH("/:id/review", productHandler.ReviewProduct)
			}

			adminBatches := admin.Group("/batches")
			{
				adminBatches.GET("", batchHandler.ListBatches)
				adminBatches.GET("/:id", batchHandler.GetBatch)
				adminBatches.PATCH("/:id/verify", batchHandler.ReviewBatch)
			}

			adminSettings := admin.Group("/settings")
			{
				adminSettings.GET("", adminHandler.GetSettings)
				adminSettings.PUT("/:category/:key", adminHandler.UpdateSetting)
			}

			adminNotifications := admin.Group("/notifications")
			{
				adminNotifications.GET("", adminHandler.ListNotifications)
				adminNotifications.PATCH("/:id/read", adminHandler.MarkNotificationRead)
			}

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
			admin.GET("/documents/presign", uploadHandler.PresignDocument)
		}
	}

	return r
}
