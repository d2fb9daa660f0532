// internal/handlers/verification.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritrace/veritrace-backend/internal/i18n"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
	"github.com/veritrace/veritrace-backend/internal/utils"
)

// Verifier is the slice of the verification service the handler needs.
type Verifier interface {
	Verify(submitted, ipAddress, userAgent string) (*services.VerificationResult, error)
	Stats(since *time.Time) (*services.VerificationStats, error)
}

type VerificationHandler struct {
	verifier Verifier
}

func NewVerificationHandler(verifier Verifier) *VerificationHandler {
	return &VerificationHandler{
		verifier: verifier,
	}
}

// POST /verify
func (h *VerificationHandler) Verify(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.verifier.Verify(req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"outcome": result.Outcome,
		"message": i18n.T(lang, outcomeMessageKey(result.Outcome)),
		"product": result.Product,
		"used_at": result.UsedAt,
	})
}

// GET /verify/stats
func (h *VerificationHandler) Stats(c *gin.Context) {
	var since *time.Time
	if daysStr := c.Query("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 1 {
			utils.BadRequestResponse(c, "Invalid days parameter", nil)
			return
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		since = &cutoff
	}

	stats, err := h.verifier.Stats(since)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

func outcomeMessageKey(outcome models.VerificationOutcome) string {
	switch outcome {
	case models.VerificationOutcomeValid:
		return i18n.KeyVerificationValid
	case models.VerificationOutcomeExpired:
		return i18n.KeyVerificationExpired
	case models.VerificationOutcomeUsed:
		return i18n.KeyVerificationUsed
	default:
		return i18n.KeyVerificationFake
	}
}
