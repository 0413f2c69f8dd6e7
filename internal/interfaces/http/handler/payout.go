package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payoutapp "github.com/payout/backend/internal/application/payout"
	"github.com/payout/backend/internal/infrastructure/logger"
	"github.com/payout/backend/internal/interfaces/http/dto"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// xlsxContentType is the MIME type of exported workbooks
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PayoutService is the slice of the due service the HTTP layer calls
type PayoutService interface {
	ListDues(ctx context.Context, q payoutapp.ListDuesQuery) (*payoutapp.DueListResponse, error)
	GetDue(ctx context.Context, id uuid.UUID) (*payoutapp.DueDetailResponse, error)
	CreateDue(ctx context.Context, req payoutapp.CreateDueRequest) (*payoutapp.DueResponse, error)
	GetStats(ctx context.Context) *payoutapp.StatsResult
	ApproveDue(ctx context.Context, id uuid.UUID, req payoutapp.ApproveDueRequest, by uuid.UUID) (*payoutapp.DecisionResult, error)
	RejectDue(ctx context.Context, id uuid.UUID, req payoutapp.RejectDueRequest, by uuid.UUID) (*payoutapp.DecisionResult, error)
	ExportDues(ctx context.Context, q payoutapp.ListDuesQuery, w io.Writer) (int, error)
}

// PayoutHandler serves the /payouts routes
type PayoutHandler struct {
	BaseHandler
	service PayoutService
	now     func() time.Time
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(service PayoutService) *PayoutHandler {
	return &PayoutHandler{service: service, now: time.Now}
}

// ListDues handles GET /payouts/dues
func (h *PayoutHandler) ListDues(c *gin.Context) {
	var q payoutapp.ListDuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.ListDues(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result, result.Total, result.Page, result.Limit)
}

// GetStats handles GET /payouts/dues/stats. A failed computation still
// answers 200 with zeroed stats and meta.degraded set.
func (h *PayoutHandler) GetStats(c *gin.Context) {
	result := h.service.GetStats(c.Request.Context())
	if result.Degraded {
		c.JSON(http.StatusOK, dto.NewDegradedResponse(result.Stats))
		return
	}
	h.Success(c, result.Stats)
}

// GetDue handles GET /payouts/dues/:id
func (h *PayoutHandler) GetDue(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid due ID format")
		return
	}

	detail, err := h.service.GetDue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// CreateDue handles POST /payouts/dues
func (h *PayoutHandler) CreateDue(c *gin.Context) {
	var req payoutapp.CreateDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	due, err := h.service.CreateDue(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, due)
}

// ApproveDue handles POST /payouts/dues/:id/approve. The body names the
// occurrence being approved.
func (h *PayoutHandler) ApproveDue(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid due ID format")
		return
	}
	approver, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req payoutapp.ApproveDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.ApproveDue(c.Request.Context(), id, req, approver)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RejectDue handles POST /payouts/dues/:id/reject
func (h *PayoutHandler) RejectDue(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid due ID format")
		return
	}
	rejecter, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req payoutapp.RejectDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.RejectDue(c.Request.Context(), id, req, rejecter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportDues handles GET /payouts/dues/export. The workbook is built in
// memory first so a failure can still be reported as a JSON error.
func (h *PayoutHandler) ExportDues(c *gin.Context) {
	var q payoutapp.ListDuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var buf bytes.Buffer
	rows, err := h.service.ExportDues(c.Request.Context(), q, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("payout-dues-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	logger.L(c.Request.Context()).Info("Dues exported",
		zap.Int("rows", rows),
		zap.Int("bytes", buf.Len()),
	)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
