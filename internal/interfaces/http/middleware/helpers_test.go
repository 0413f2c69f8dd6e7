package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payout/backend/internal/infrastructure/auth"
	"github.com/payout/backend/internal/infrastructure/config"
	"github.com/payout/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTServiceConfigWithSecret(secret string) config.JWTConfig {
	return config.JWTConfig{
		Secret:                secret,
		Issuer:                "payout-test",
		AccessTokenExpiration: 15 * time.Minute,
	}
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(newTestJWTServiceConfigWithSecret("test-secret-key-at-least-32-chars"))
}

func newTestToken(t *testing.T, svc *auth.JWTService, permissions ...string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, _, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:      userID,
		Username:    "ops.admin",
		Permissions: permissions,
	})
	require.NoError(t, err)
	return token, userID
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
