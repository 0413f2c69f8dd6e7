package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payout/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string, log *zap.Logger) gin.HandlerFunc {
	return RequireAnyPermission(log, permission)
}

// RequireAnyPermission lets the request through when the caller holds at
// least one of permissions. It must run after JWTAuthMiddleware.
func RequireAnyPermission(log *zap.Logger, permissions ...string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasAnyPermission(permissions...) {
			userID := ""
			if claims != nil {
				userID = claims.UserID
			}
			log.Warn("Permission denied",
				zap.String("user_id", userID),
				zap.Strings("required_any", permissions),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePermissionDenied,
				"You do not have permission to perform this action",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
