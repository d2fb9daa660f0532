// internal/handlers/verification_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrace/veritrace-backend/internal/apperrors"
	"github.com/veritrace/veritrace-backend/internal/models"
	"github.com/veritrace/veritrace-backend/internal/services"
)

type mockVerifier struct {
	verifyResult *services.VerificationResult
	verifyErr    error
	statsResult  *services.VerificationStats
	statsErr     error

	gotCode  string
	gotSince *time.Time
}

func (m *mockVerifier) Verify(submitted, ipAddress, userAgent string) (*services.VerificationResult, error) {
	m.gotCode = submitted
	return m.verifyResult, m.verifyErr
}

func (m *mockVerifier) Stats(since *time.Time) (*services.VerificationStats, error) {
	m.gotSince = since
	return m.statsResult, m.statsErr
}

func setupVerificationRouter(verifier Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewVerificationHandler(verifier)
	r.POST("/verify", h.Verify)
	r.GET("/verify/stats", h.Stats)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestVerifyHandler(t *testing.T) {
	tests := []struct {
		name        string
		verifier    *mockVerifier
		body        interface{}
		wantStatus  int
		wantOutcome string
		wantProduct bool
	}{
		{
			name: "valid code",
			verifier: &mockVerifier{
				verifyResult: &services.VerificationResult{
					Outcome: models.VerificationOutcomeValid,
					Product: &services.VerifiedProduct{
						ProductName:  "Paracetamol 500mg",
						Manufacturer: "Acme Pharma Ltd",
						BatchNumber:  "LOT-2026-001",
					},
				},
			},
			body:        map[string]string{"code": "FDA-PROD-A1B2C3D4E5F6"},
			wantStatus:  http.StatusOK,
			wantOutcome: "valid",
			wantProduct: true,
		},
		{
			name: "fake code has no product details",
			verifier: &mockVerifier{
				verifyResult: &services.VerificationResult{
					Outcome: models.VerificationOutcomeFake,
				},
			},
			body:        map[string]string{"code": "FDA-PROD-BOGUS0000000"},
			wantStatus:  http.StatusOK,
			wantOutcome: "fake",
		},
		{
			name: "used code",
			verifier: &mockVerifier{
				verifyResult: &services.VerificationResult{
					Outcome: models.VerificationOutcomeUsed,
					Product: &services.VerifiedProduct{ProductName: "Paracetamol 500mg"},
				},
			},
			body:        map[string]string{"code": "FDA-PROD-A1B2C3D4E5F6"},
			wantStatus:  http.StatusOK,
			wantOutcome: "used",
			wantProduct: true,
		},
		{
			name: "missing code rejected by service",
			verifier: &mockVerifier{
				verifyErr: apperrors.Validation("verification code is required"),
			},
			body:       map[string]string{"code": ""},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			verifier:   &mockVerifier{},
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupVerificationRouter(tt.verifier)

			w := postJSON(t, r, "/verify", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			response := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, false, response["success"])
				return
			}

			assert.Equal(t, true, response["success"])
			data := response["data"].(map[string]interface{})
			assert.Equal(t, tt.wantOutcome, data["outcome"])
			if tt.wantProduct {
				assert.NotNil(t, data["product"])
			} else {
				assert.Nil(t, data["product"])
			}
		})
	}
}

func TestVerifyHandlerInternalErrorHidesCause(t *testing.T) {
	verifier := &mockVerifier{
		verifyErr: apperrors.Internal("failed to look up verification code", assert.AnError),
	}
	r := setupVerificationRouter(verifier)

	w := postJSON(t, r, "/verify", map[string]string{"code": "FDA-PROD-A1B2C3D4E5F6"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestStatsHandler(t *testing.T) {
	verifier := &mockVerifier{
		statsResult: &services.VerificationStats{
			Total: 10, Valid: 4, Expired: 2, Used: 3, Fake: 1,
		},
	}
	r := setupVerificationRouter(verifier)

	req, _ := http.NewRequest(http.MethodGet, "/verify/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, verifier.gotSince)

	response := decodeBody(t, w)
	stats := response["data"].(map[string]interface{})["stats"].(map[string]interface{})
	assert.Equal(t, float64(10), stats["total"])
	assert.Equal(t, float64(4), stats["valid"])
}

func TestStatsHandlerDaysWindow(t *testing.T) {
	verifier := &mockVerifier{statsResult: &services.VerificationStats{}}
	r := setupVerificationRouter(verifier)

	req, _ := http.NewRequest(http.MethodGet, "/verify/stats?days=7", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, verifier.gotSince)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), *verifier.gotSince, time.Minute)
}

func TestStatsHandlerRejectsBadDays(t *testing.T) {
	verifier := &mockVerifier{statsResult: &services.VerificationStats{}}
	r := setupVerificationRouter(verifier)

	for _, days := range []string{"zero", "-3", "0"} {
		req, _ := http.NewRequest(http.MethodGet, "/verify/stats?days="+days, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "days=%s", days)
	}
}
