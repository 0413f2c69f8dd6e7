package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payout/backend/internal/infrastructure/logger"
	"github.com/payout/backend/internal/interfaces/http/dto"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// TokenRevoker is the write side of auth.TokenBlacklist
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
}

// AuthHandler serves the token endpoints. Tokens are issued out of band by
// the admintoken command.
type AuthHandler struct {
	BaseHandler
	revoker    TokenRevoker
	sessionTTL time.Duration
}

// NewAuthHandler creates an AuthHandler. sessionTTL is the access token
// lifetime: a user-wide revocation need not outlive it.
func NewAuthHandler(revoker TokenRevoker, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{revoker: revoker, sessionTTL: sessionTTL}
}

// RevokeResponse reports the revoked token or user
type RevokeResponse struct {
	Revoked bool   `json:"revoked"`
	TokenID string `json:"token_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// Revoke handles POST /auth/revoke: the caller revokes its own token for
// the rest of its lifetime
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil || claims.ID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		h.Success(c, RevokeResponse{Revoked: true, TokenID: claims.ID})
		return
	}
	if err := h.revoker.RevokeToken(c.Request.Context(), claims.ID, ttl); err != nil {
		logger.L(c.Request.Context()).Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
		h.InternalError(c, "Failed to revoke token")
		return
	}

	logger.L(c.Request.Context()).Info("Token revoked", zap.String("jti", claims.ID))
	h.Success(c, RevokeResponse{Revoked: true, TokenID: claims.ID})
}

// RevokeUser handles POST /auth/users/:id/revoke: every token issued to the
// user so far stops working, including the caller's if it revokes itself
func (h *AuthHandler) RevokeUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.Error(c, dto.ErrCodeValidation, "Invalid user ID")
		return
	}

	ctx := c.Request.Context()
	if err := h.revoker.RevokeUser(ctx, userID.String(), h.sessionTTL); err != nil {
		logger.L(ctx).Error("Failed to revoke user tokens", zap.String("target_user_id", userID.String()), zap.Error(err))
		h.InternalError(c, "Failed to revoke user tokens")
		return
	}

	logger.L(ctx).Warn("User tokens revoked",
		zap.String("target_user_id", userID.String()),
		zap.String("revoked_by", middleware.GetJWTUserID(c)),
	)
	h.Success(c, RevokeResponse{Revoked: true, UserID: userID.String()})
}
