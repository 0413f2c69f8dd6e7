package payout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvestmentDue is the aggregate type name used in events
const AggregateTypeInvestmentDue = "InvestmentDue"

// InvestmentDue tracks the payout lifecycle of one investor in one investment.
// It is mutated only by approving occurrences; status is always derived.
type InvestmentDue struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID
	InvestorName    string
	InvestorEmail   string
	InvestmentID    uuid.UUID
	InvestmentTitle string

	Amount         decimal.Decimal // principal
	ExpectedReturn decimal.Decimal
	ActualReturn   decimal.Decimal

	TotalPayouts        int
	CompletedPayouts    int
	CurrentPayoutPeriod int
	PayoutAmount        decimal.Decimal
	NextPayoutDate      time.Time

	// Schedule terms frozen when the due is created
	Frequency    PayoutFrequency
	PeriodMonths int
	StartDate    time.Time
	EndDate      time.Time

	CompletedAt *time.Time
}

// NewInvestmentDue creates a due for a confirmed contribution and schedules its
// first occurrence. A zero expectedReturn is derived from the investment's rate.
func NewInvestmentDue(investor Investor, inv *Investment, principal, expectedReturn decimal.Decimal) (*InvestmentDue, error) {
	if investor.UserID == uuid.Nil {
		return nil, shared.NewDomainError(CodeValidation, "Investor ID is required")
	}
	if inv == nil || inv.ID == uuid.Nil {
		return nil, shared.NewDomainError(CodeValidation, "Investment is required")
	}
	if expectedReturn.IsZero() {
		expectedReturn = ExpectedReturnFor(principal, inv.ReturnRate)
	}

	schedule, err := NewSchedule(ScheduleTerms{
		Principal:      principal,
		ExpectedReturn: expectedReturn,
		PeriodMonths:   inv.PeriodMonths,
		Frequency:      inv.Frequency,
		StartDate:      inv.StartDate,
		EndDate:        inv.EndDate,
	})
	if err != nil {
		return nil, err
	}
	first, err := schedule.Occurrence(1)
	if err != nil {
		return nil, err
	}

	due := &InvestmentDue{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		UserID:              investor.UserID,
		InvestorName:        investor.Name,
		InvestorEmail:       investor.Email,
		InvestmentID:        inv.ID,
		InvestmentTitle:     inv.Title,
		Amount:              principal,
		ExpectedReturn:      expectedReturn,
		ActualReturn:        decimal.Zero,
		TotalPayouts:        schedule.TotalPayouts(),
		CompletedPayouts:    0,
		CurrentPayoutPeriod: 1,
		PayoutAmount:        first.Amount,
		NextPayoutDate:      first.DueDate,
		Frequency:           inv.Frequency,
		PeriodMonths:        inv.PeriodMonths,
		StartDate:           inv.StartDate,
		EndDate:             schedule.Terms().EndDate,
	}
	due.AddDomainEvent(NewInvestmentDueCreatedEvent(due))
	return due, nil
}

// Schedule rebuilds the payout schedule from the frozen terms
func (d *InvestmentDue) Schedule() (*Schedule, error) {
	return NewSchedule(ScheduleTerms{
		Principal:      d.Amount,
		ExpectedReturn: d.ExpectedReturn,
		PeriodMonths:   d.PeriodMonths,
		Frequency:      d.Frequency,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
	})
}

// IsCompleted returns true once every occurrence has been approved
func (d *InvestmentDue) IsCompleted() bool {
	return d.CompletedPayouts >= d.TotalPayouts
}

// RemainingPayouts returns the number of occurrences not yet approved
func (d *InvestmentDue) RemainingPayouts() int {
	if d.IsCompleted() {
		return 0
	}
	return d.TotalPayouts - d.CompletedPayouts
}

// OccurrenceReference returns the idempotency reference of the current occurrence
func (d *InvestmentDue) OccurrenceReference() string {
	return OccurrenceReference(d.ID, d.CurrentPayoutPeriod)
}

// EnsureActionable checks that period is the outstanding occurrence and that
// the classification allows an admin decision on it.
func (d *InvestmentDue) EnsureActionable(period int, class Classification) error {
	if d.IsCompleted() {
		return ErrAlreadyCompleted
	}
	if period < d.CurrentPayoutPeriod {
		return ErrOccurrenceSettled
	}
	if period > d.CurrentPayoutPeriod {
		return shared.NewDomainError(CodeNotDue,
			fmt.Sprintf("Payout period %d is not due yet; period %d is outstanding", period, d.CurrentPayoutPeriod))
	}
	if !class.CanApprove {
		if class.Status.IsActionable() {
			return shared.NewDomainError(CodeNotDue, "Payout cannot be released while the investment is not active")
		}
		return shared.NewDomainError(CodeNotDue,
			fmt.Sprintf("Payout is %s and cannot be actioned", class.Status))
	}
	return nil
}

// ApprovalInput carries the result of a successful wallet credit into the aggregate
type ApprovalInput struct {
	Period              int
	ApprovedBy          uuid.UUID
	Notes               string
	WalletTransactionID string
}

// ApprovePayout settles the current occurrence and advances the schedule.
// The wallet must already have been credited for the occurrence.
func (d *InvestmentDue) ApprovePayout(in ApprovalInput, class Classification, now time.Time) (*PayoutRecord, error) {
	if in.ApprovedBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	if err := d.EnsureActionable(in.Period, class); err != nil {
		return nil, err
	}

	record := &PayoutRecord{
		ID:                  uuid.New(),
		DueID:               d.ID,
		Period:              d.CurrentPayoutPeriod,
		Amount:              d.PayoutAmount,
		WalletReference:     d.OccurrenceReference(),
		WalletTransactionID: in.WalletTransactionID,
		Notes:               in.Notes,
		ApprovedBy:          in.ApprovedBy,
		ApprovedAt:          now,
	}

	d.CompletedPayouts++
	d.ActualReturn = d.ActualReturn.Add(record.Amount)

	if d.CompletedPayouts < d.TotalPayouts {
		schedule, err := d.Schedule()
		if err != nil {
			return nil, err
		}
		next, err := schedule.Occurrence(d.CompletedPayouts + 1)
		if err != nil {
			return nil, err
		}
		d.CurrentPayoutPeriod = next.Period
		d.NextPayoutDate = next.DueDate
		d.PayoutAmount = next.Amount
	} else {
		d.CompletedAt = &now
	}

	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewPayoutApprovedEvent(d, record))
	if d.IsCompleted() {
		d.AddDomainEvent(NewInvestmentDueCompletedEvent(d))
	}
	return record, nil
}

// RejectPayout records a rejection of the current occurrence. The due itself
// is left untouched so the occurrence can be resubmitted.
func (d *InvestmentDue) RejectPayout(period int, reason string, rejectedBy uuid.UUID, class Classification, now time.Time) (*PayoutRejection, error) {
	reason, err := NormalizeRejectionReason(reason)
	if err != nil {
		return nil, err
	}
	if rejectedBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	if err := d.EnsureActionable(period, class); err != nil {
		return nil, err
	}

	rejection := &PayoutRejection{
		ID:         uuid.New(),
		DueID:      d.ID,
		Period:     d.CurrentPayoutPeriod,
		Reason:     reason,
		RejectedBy: rejectedBy,
		RejectedAt: now,
	}
	d.AddDomainEvent(NewPayoutRejectedEvent(d, rejection))
	return rejection, nil
}
