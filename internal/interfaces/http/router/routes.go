package router

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/payout/backend/internal/infrastructure/auth"
	"github.com/payout/backend/internal/interfaces/http/handler"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// PayoutRoutes builds the /payouts group. Reads need payout:read, decisions
// payout:approve and due creation payout:manage. Decisions are rate limited
// per caller when limiter is non-nil.
func PayoutRoutes(h *handler.PayoutHandler, limiter *middleware.RateLimiter, log *zap.Logger) *DomainGroup {
	read := middleware.RequirePermission(auth.PermissionPayoutRead, log)
	decide := []gin.HandlerFunc{middleware.RequirePermission(auth.PermissionPayoutApprove, log)}
	if limiter != nil {
		decide = append(decide, middleware.RateLimitByUser(limiter))
	}

	payouts := NewDomainGroup("payouts", "/payouts")
	dues := payouts.Group("dues", "/dues")
	dues.GET("", read, h.ListDues)
	dues.GET("/stats", read, h.GetStats)
	dues.GET("/export", read, h.ExportDues)
	dues.GET("/:id", read, h.GetDue)
	dues.POST("", middleware.RequirePermission(auth.PermissionPayoutManage, log), h.CreateDue)
	dues.POST("/:id/approve", slices.Concat(decide, []gin.HandlerFunc{h.ApproveDue})...)
	dues.POST("/:id/reject", slices.Concat(decide, []gin.HandlerFunc{h.RejectDue})...)
	return payouts
}

// AuthRoutes builds the /auth group. Any caller may revoke its own token;
// revoking another user's sessions needs payout:manage.
func AuthRoutes(h *handler.AuthHandler, log *zap.Logger) *DomainGroup {
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/revoke", h.Revoke)
	authRoutes.POST("/users/:id/revoke", middleware.RequirePermission(auth.PermissionPayoutManage, log), h.RevokeUser)
	return authRoutes
}

// SystemRoutes builds the /system group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	return system
}
