package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of date-only query parameters
const DateLayout = "2006-01-02"

// ListDuesQuery represents filter options for the dues listing
type ListDuesQuery struct {
	Status    string `form:"status" binding:"omitempty,payout_status"`
	Search    string `form:"search" binding:"max=200"`
	StartDate string `form:"startDate" binding:"omitempty,date"`
	EndDate   string `form:"endDate" binding:"omitempty,date"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=next_payout_date amount expected_return payout_amount investor_name created_at"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// DueResponse represents an investment due together with its classification
type DueResponse struct {
	ID                  uuid.UUID               `json:"id"`
	UserID              uuid.UUID               `json:"user_id"`
	InvestorName        string                  `json:"investor_name"`
	InvestorEmail       string                  `json:"investor_email"`
	InvestmentID        uuid.UUID               `json:"investment_id"`
	InvestmentTitle     string                  `json:"investment_title"`
	InvestmentStatus    payout.InvestmentStatus `json:"investment_status,omitempty"`
	Amount              decimal.Decimal         `json:"amount"`
	ExpectedReturn      decimal.Decimal         `json:"expected_return"`
	ActualReturn        decimal.Decimal         `json:"actual_return"`
	TotalPayouts        int                     `json:"total_payouts"`
	CompletedPayouts    int                     `json:"completed_payouts"`
	CurrentPayoutPeriod int                     `json:"current_payout_period"`
	PayoutAmount        decimal.Decimal         `json:"payout_amount"`
	NextPayoutDate      time.Time               `json:"next_payout_date"`
	PayoutFrequency     payout.PayoutFrequency  `json:"payout_frequency"`
	StartDate           time.Time               `json:"start_date"`
	EndDate             time.Time               `json:"end_date"`
	CompletedAt         *time.Time              `json:"completed_at,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
	Version             int                     `json:"version"`
	payout.Classification
}

// ToDueResponse projects a due and its classification into a response
func ToDueResponse(d *payout.InvestmentDue, investmentStatus payout.InvestmentStatus, class payout.Classification) DueResponse {
	return DueResponse{
		ID:                  d.ID,
		UserID:              d.UserID,
		InvestorName:        d.InvestorName,
		InvestorEmail:       d.InvestorEmail,
		InvestmentID:        d.InvestmentID,
		InvestmentTitle:     d.InvestmentTitle,
		InvestmentStatus:    investmentStatus,
		Amount:              d.Amount,
		ExpectedReturn:      d.ExpectedReturn,
		ActualReturn:        d.ActualReturn,
		TotalPayouts:        d.TotalPayouts,
		CompletedPayouts:    d.CompletedPayouts,
		CurrentPayoutPeriod: d.CurrentPayoutPeriod,
		PayoutAmount:        d.PayoutAmount,
		NextPayoutDate:      d.NextPayoutDate,
		PayoutFrequency:     d.Frequency,
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		CompletedAt:         d.CompletedAt,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
		Version:             d.Version,
		Classification:      class,
	}
}

// DueListResponse is one page of the dues listing
type DueListResponse struct {
	Records    []DueResponse `json:"records"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// Occurrence states shown in the schedule view
const (
	OccurrencePaid        = "paid"
	OccurrenceOutstanding = "outstanding"
	OccurrenceUpcoming    = "upcoming"
)

// OccurrenceResponse is one line of a due's payout schedule
type OccurrenceResponse struct {
	Period  int             `json:"period"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	State   string          `json:"state"`
}

// DueDetailResponse adds schedule and history to a due
type DueDetailResponse struct {
	DueResponse
	Schedule   []OccurrenceResponse     `json:"schedule"`
	Payouts    []payout.PayoutRecord    `json:"payouts"`
	Rejections []payout.PayoutRejection `json:"rejections"`
}

// ApproveDueRequest represents a request to approve one occurrence.
// Period names the occurrence the caller saw as outstanding, so a repeated
// request conflicts instead of paying the next one.
type ApproveDueRequest struct {
	Period int    `json:"period" binding:"required,min=1"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// RejectDueRequest represents a request to reject one occurrence.
// The reason is validated by the service after trimming.
type RejectDueRequest struct {
	Period int    `json:"period" binding:"required,min=1"`
	Reason string `json:"reason"`
}

// DecisionResult is returned by approve and reject
type DecisionResult struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Due       *DueResponse            `json:"due,omitempty"`
	Payout    *payout.PayoutRecord    `json:"payout,omitempty"`
	Rejection *payout.PayoutRejection `json:"rejection,omitempty"`
}

// CreateDueRequest opens a due for a confirmed contribution
type CreateDueRequest struct {
	UserID         uuid.UUID        `json:"user_id" binding:"required"`
	InvestorName   string           `json:"investor_name" binding:"required,min=1,max=200"`
	InvestorEmail  string           `json:"investor_email" binding:"required,email,max=254"`
	InvestmentID   uuid.UUID        `json:"investment_id" binding:"required"`
	Amount         decimal.Decimal  `json:"amount" binding:"required"`
	ExpectedReturn *decimal.Decimal `json:"expected_return"`
}

// StatsResult carries dashboard stats. Degraded is set when the stats could
// not be computed and zero values were returned instead.
type StatsResult struct {
	Stats    payout.DueStats
	Degraded bool
}
