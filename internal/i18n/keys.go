// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Access control
	KeyAccessDenied           = "access.denied"
	KeyManufacturerOnly       = "access.manufacturer_only"
	KeyManufacturerUnapproved = "access.manufacturer_unapproved"

	// Manufacturers
	KeyManufacturerNotFound = "manufacturer.not_found"
	KeyManufacturerApproved = "manufacturer.approved"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductNotFound = "product.not_found"
	KeyProductReviewed = "product.reviewed"

	// Batches
	KeyBatchCreated  = "batch.created"
	KeyBatchNotFound = "batch.not_found"
	KeyBatchReviewed = "batch.reviewed"

	// Verification
	KeyVerificationValid   = "verification.valid"
	KeyVerificationExpired = "verification.expired"
	KeyVerificationUsed    = "verification.used"
	KeyVerificationFake    = "verification.fake"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"

	// Admin
	KeyAdminActionSuccess   = "admin.action_success"
	KeyAdminSettingsUpdated = "admin.settings_updated"
)
