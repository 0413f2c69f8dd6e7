package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payout/backend/internal/infrastructure/auth"
	"github.com/payout/backend/internal/infrastructure/config"
	"github.com/payout/backend/internal/interfaces/http/dto"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSessionTTL = 15 * time.Minute

type revokeFixture struct {
	router *gin.Engine
	svc    *auth.JWTService
}

func newRevokeFixture(revoker TokenRevoker, blacklist auth.TokenBlacklist) *revokeFixture {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-32-characters-long",
		Issuer:                "test-issuer",
		AccessTokenExpiration: testSessionTTL,
	})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     svc,
		TokenBlacklist: blacklist,
	}))
	h := NewAuthHandler(revoker, testSessionTTL)
	router.POST("/auth/revoke", h.Revoke)
	router.POST("/auth/users/:id/revoke", h.RevokeUser)
	router.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })
	return &revokeFixture{router: router, svc: svc}
}

func (f *revokeFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := f.svc.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:      userID,
		Username:    "ops.admin",
		Permissions: []string{auth.PermissionPayoutManage},
	})
	require.NoError(t, err)
	return token
}

func (f *revokeFixture) call(method, path, token string) int {
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := newRecorder()
	f.router.ServeHTTP(w, req)
	return w.Code
}

// ==================== Revoke ====================

func TestAuthHandler_Revoke(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	f := newRevokeFixture(blacklist, blacklist)
	token := f.token(t, uuid.New())

	assert.Equal(t, http.StatusOK, f.call(http.MethodGet, "/whoami", token))
	assert.Equal(t, http.StatusOK, f.call(http.MethodPost, "/auth/revoke", token))
	assert.Equal(t, http.StatusUnauthorized, f.call(http.MethodGet, "/whoami", token))
}

func TestAuthHandler_Revoke_StoreFailure(t *testing.T) {
	revoker := new(MockTokenRevoker)
	revoker.On("RevokeToken", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= testSessionTTL
	})).Return(errors.New("redis unavailable"))
	f := newRevokeFixture(revoker, nil)

	req, _ := http.NewRequest(http.MethodPost, "/auth/revoke", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, uuid.New()))
	w := newRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decodeResponse(t, w).Error.Code)
	revoker.AssertExpectations(t)
}

func TestAuthHandler_Revoke_WithoutClaims(t *testing.T) {
	h := NewAuthHandler(new(MockTokenRevoker), testSessionTTL)
	router := gin.New()
	router.POST("/auth/revoke", h.Revoke)

	w := doRequest(router, http.MethodPost, "/auth/revoke", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==================== RevokeUser ====================

func TestAuthHandler_RevokeUser(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	f := newRevokeFixture(blacklist, blacklist)
	admin := f.token(t, uuid.New())
	approverID := uuid.New()
	approver := f.token(t, approverID)

	require.Equal(t, http.StatusOK, f.call(http.MethodGet, "/whoami", approver))
	assert.Equal(t, http.StatusOK, f.call(http.MethodPost, "/auth/users/"+approverID.String()+"/revoke", admin))

	assert.Equal(t, http.StatusUnauthorized, f.call(http.MethodGet, "/whoami", approver))
	assert.Equal(t, http.StatusOK, f.call(http.MethodGet, "/whoami", admin), "other users keep their sessions")
}

func TestAuthHandler_RevokeUser_Errors(t *testing.T) {
	t.Run("malformed id", func(t *testing.T) {
		revoker := new(MockTokenRevoker)
		f := newRevokeFixture(revoker, nil)

		assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/auth/users/not-a-uuid/revoke", f.token(t, uuid.New())))
		revoker.AssertNotCalled(t, "RevokeUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		target := uuid.New()
		revoker := new(MockTokenRevoker)
		revoker.On("RevokeUser", mock.Anything, target.String(), testSessionTTL).Return(errors.New("redis unavailable"))
		f := newRevokeFixture(revoker, nil)

		assert.Equal(t, http.StatusInternalServerError, f.call(http.MethodPost, "/auth/users/"+target.String()+"/revoke", f.token(t, uuid.New())))
		revoker.AssertExpectations(t)
	})
}
