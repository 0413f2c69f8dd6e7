package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassifierPolicy holds the tunables of status classification
type ClassifierPolicy struct {
	// GracePeriod is how long a due may sit past its date before it counts as overdue
	GracePeriod time.Duration
}

// DefaultClassifierPolicy treats a due as overdue the instant its date passes
func DefaultClassifierPolicy() ClassifierPolicy {
	return ClassifierPolicy{}
}

// StatusBounds are the nextPayoutDate boundaries separating statuses at one instant.
//
//	not_due:  next > Now
//	pending:  OverdueCutoff <= next <= Now
//	overdue:  next < OverdueCutoff
//
// Completion is decided by the payout counters, not by dates.
type StatusBounds struct {
	Now           time.Time
	OverdueCutoff time.Time
}

// Bounds returns the date boundaries used by classification at now
func (p ClassifierPolicy) Bounds(now time.Time) StatusBounds {
	return StatusBounds{Now: now, OverdueCutoff: now.Add(-p.GracePeriod)}
}

// Classification is the projected view of a due at a point in time
type Classification struct {
	Status             PayoutStatus `json:"payout_status"`
	IsDue              bool         `json:"is_due"`
	IsOverdue          bool         `json:"is_overdue"`
	DaysOverdue        *int         `json:"days_overdue,omitempty"`
	CanApprove         bool         `json:"can_approve"`
	ProgressPercentage int          `json:"progress_percentage"`
	RemainingPayouts   int          `json:"remaining_payouts"`
}

// Classify derives the status of a due's current occurrence.
// investmentStatus is the linked investment's status; an empty value means it
// could not be resolved and blocks approval.
func Classify(due *InvestmentDue, investmentStatus InvestmentStatus, now time.Time, policy ClassifierPolicy) Classification {
	c := Classification{
		ProgressPercentage: ProgressPercentage(due.ActualReturn, due.ExpectedReturn, due.IsCompleted()),
		RemainingPayouts:   due.RemainingPayouts(),
	}

	// a fully paid due has no outstanding occurrence to be due or overdue
	if due.IsCompleted() {
		c.Status = PayoutStatusCompleted
		return c
	}

	bounds := policy.Bounds(now)
	c.IsDue = !now.Before(due.NextPayoutDate)
	c.IsOverdue = c.IsDue && due.NextPayoutDate.Before(bounds.OverdueCutoff)
	if c.IsOverdue {
		days := int(now.Sub(due.NextPayoutDate) / (24 * time.Hour))
		c.DaysOverdue = &days
	}

	switch {
	case !c.IsDue:
		c.Status = PayoutStatusNotDue
	case c.IsOverdue:
		c.Status = PayoutStatusOverdue
	default:
		c.Status = PayoutStatusPending
	}

	c.CanApprove = c.Status.IsActionable() && investmentStatus == InvestmentStatusActive
	return c
}

// ProgressPercentage is round(actual / expected * 100) clamped to [0, 100].
// A zero expected return reports 100 once completed and 0 before.
func ProgressPercentage(actual, expected decimal.Decimal, completed bool) int {
	if !expected.IsPositive() {
		if completed {
			return 100
		}
		return 0
	}
	pct := actual.Div(expected).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}
