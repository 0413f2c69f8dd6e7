package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeInvestmentDueCreated   = "InvestmentDueCreated"
	EventTypePayoutApproved         = "PayoutApproved"
	EventTypePayoutRejected         = "PayoutRejected"
	EventTypeInvestmentDueCompleted = "InvestmentDueCompleted"
	EventTypePayoutsOverdueDetected = "PayoutsOverdueDetected"
)

// InvestmentDueCreatedEvent is raised when a contribution is confirmed and its schedule starts
type InvestmentDueCreatedEvent struct {
	shared.BaseDomainEvent
	DueID          uuid.UUID       `json:"due_id"`
	UserID         uuid.UUID       `json:"user_id"`
	InvestmentID   uuid.UUID       `json:"investment_id"`
	Amount         decimal.Decimal `json:"amount"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	TotalPayouts   int             `json:"total_payouts"`
	FirstPayoutAt  time.Time       `json:"first_payout_at"`
}

func (e *InvestmentDueCreatedEvent) EventType() string {
	return EventTypeInvestmentDueCreated
}

func NewInvestmentDueCreatedEvent(d *InvestmentDue) *InvestmentDueCreatedEvent {
	return &InvestmentDueCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvestmentDueCreated, AggregateTypeInvestmentDue, d.ID),
		DueID:           d.ID,
		UserID:          d.UserID,
		InvestmentID:    d.InvestmentID,
		Amount:          d.Amount,
		ExpectedReturn:  d.ExpectedReturn,
		TotalPayouts:    d.TotalPayouts,
		FirstPayoutAt:   d.NextPayoutDate,
	}
}

// PayoutApprovedEvent is raised when an occurrence is approved and the wallet credited
type PayoutApprovedEvent struct {
	shared.BaseDomainEvent
	DueID            uuid.UUID       `json:"due_id"`
	UserID           uuid.UUID       `json:"user_id"`
	Period           int             `json:"period"`
	Amount           decimal.Decimal `json:"amount"`
	WalletReference  string          `json:"wallet_reference"`
	CompletedPayouts int             `json:"completed_payouts"`
	TotalPayouts     int             `json:"total_payouts"`
	ApprovedBy       uuid.UUID       `json:"approved_by"`
}

func (e *PayoutApprovedEvent) EventType() string {
	return EventTypePayoutApproved
}

func NewPayoutApprovedEvent(d *InvestmentDue, r *PayoutRecord) *PayoutApprovedEvent {
	return &PayoutApprovedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEventAt(EventTypePayoutApproved, AggregateTypeInvestmentDue, d.ID, r.ApprovedAt),
		DueID:            d.ID,
		UserID:           d.UserID,
		Period:           r.Period,
		Amount:           r.Amount,
		WalletReference:  r.WalletReference,
		CompletedPayouts: d.CompletedPayouts,
		TotalPayouts:     d.TotalPayouts,
		ApprovedBy:       r.ApprovedBy,
	}
}

// PayoutRejectedEvent is raised when an admin rejects an occurrence
type PayoutRejectedEvent struct {
	shared.BaseDomainEvent
	DueID      uuid.UUID `json:"due_id"`
	UserID     uuid.UUID `json:"user_id"`
	Period     int       `json:"period"`
	Reason     string    `json:"reason"`
	RejectedBy uuid.UUID `json:"rejected_by"`
}

func (e *PayoutRejectedEvent) EventType() string {
	return EventTypePayoutRejected
}

func NewPayoutRejectedEvent(d *InvestmentDue, r *PayoutRejection) *PayoutRejectedEvent {
	return &PayoutRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypePayoutRejected, AggregateTypeInvestmentDue, d.ID, r.RejectedAt),
		DueID:           d.ID,
		UserID:          d.UserID,
		Period:          r.Period,
		Reason:          r.Reason,
		RejectedBy:      r.RejectedBy,
	}
}

// InvestmentDueCompletedEvent is raised when the final occurrence is approved
type InvestmentDueCompletedEvent struct {
	shared.BaseDomainEvent
	DueID        uuid.UUID       `json:"due_id"`
	UserID       uuid.UUID       `json:"user_id"`
	ActualReturn decimal.Decimal `json:"actual_return"`
}

func (e *InvestmentDueCompletedEvent) EventType() string {
	return EventTypeInvestmentDueCompleted
}

func NewInvestmentDueCompletedEvent(d *InvestmentDue) *InvestmentDueCompletedEvent {
	at := d.UpdatedAt
	if d.CompletedAt != nil {
		at = *d.CompletedAt
	}
	return &InvestmentDueCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeInvestmentDueCompleted, AggregateTypeInvestmentDue, d.ID, at),
		DueID:           d.ID,
		UserID:          d.UserID,
		ActualReturn:    d.ActualReturn,
	}
}

// PayoutsOverdueDetectedEvent summarizes an overdue sweep that found outstanding payouts
type PayoutsOverdueDetectedEvent struct {
	shared.BaseDomainEvent
	OverdueCount  int             `json:"overdue_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

func (e *PayoutsOverdueDetectedEvent) EventType() string {
	return EventTypePayoutsOverdueDetected
}

func NewPayoutsOverdueDetectedEvent(stats DueStats, at time.Time) *PayoutsOverdueDetectedEvent {
	return &PayoutsOverdueDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypePayoutsOverdueDetected, "PayoutSweep", uuid.Nil, at),
		OverdueCount:    stats.OverduePayouts,
		OverdueAmount:   stats.OverduePayoutAmount,
	}
}
