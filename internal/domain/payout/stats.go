package payout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueStats is the dashboard rollup over investment dues
type DueStats struct {
	TotalInvestments     int             `json:"total_investments"`
	PendingPayouts       int             `json:"pending_payouts"`
	OverduePayouts       int             `json:"overdue_payouts"`
	NotDuePayouts        int             `json:"not_due_payouts"`
	CompletedInvestments int             `json:"completed_investments"`
	TotalExpectedReturns decimal.Decimal `json:"total_expected_returns"`
	TotalActualReturns   decimal.Decimal `json:"total_actual_returns"`
	PendingPayoutAmount  decimal.Decimal `json:"pending_payout_amount"`
	OverduePayoutAmount  decimal.Decimal `json:"overdue_payout_amount"`
	ActiveInvestorsCount int             `json:"active_investors_count"`
	InvestmentTypesCount int             `json:"investment_types_count"`
	CompletionRate       decimal.Decimal `json:"completion_rate"`
}

// ZeroStats is the degraded result returned when stats cannot be computed
func ZeroStats() DueStats {
	return DueStats{
		TotalExpectedReturns: decimal.Zero,
		TotalActualReturns:   decimal.Zero,
		PendingPayoutAmount:  decimal.Zero,
		OverduePayoutAmount:  decimal.Zero,
		CompletionRate:       decimal.Zero,
	}
}

// StatsAccumulator folds classified dues into DueStats one record at a time
type StatsAccumulator struct {
	stats           DueStats
	activeInvestors map[uuid.UUID]struct{}
	investments     map[uuid.UUID]struct{}
}

func NewStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{
		stats:           ZeroStats(),
		activeInvestors: make(map[uuid.UUID]struct{}),
		investments:     make(map[uuid.UUID]struct{}),
	}
}

// Add folds one due with its classification into the totals
func (a *StatsAccumulator) Add(due *InvestmentDue, class Classification) {
	s := &a.stats
	s.TotalInvestments++
	s.TotalExpectedReturns = s.TotalExpectedReturns.Add(due.ExpectedReturn)
	s.TotalActualReturns = s.TotalActualReturns.Add(due.ActualReturn)
	a.investments[due.InvestmentID] = struct{}{}

	switch class.Status {
	case PayoutStatusCompleted:
		s.CompletedInvestments++
		return
	case PayoutStatusPending:
		s.PendingPayouts++
		s.PendingPayoutAmount = s.PendingPayoutAmount.Add(due.PayoutAmount)
	case PayoutStatusOverdue:
		s.OverduePayouts++
		s.OverduePayoutAmount = s.OverduePayoutAmount.Add(due.PayoutAmount)
	case PayoutStatusNotDue:
		s.NotDuePayouts++
	}
	a.activeInvestors[due.UserID] = struct{}{}
}

// Result returns the accumulated stats with distinct counts and completion rate filled in
func (a *StatsAccumulator) Result() DueStats {
	out := a.stats
	out.ActiveInvestorsCount = len(a.activeInvestors)
	out.InvestmentTypesCount = len(a.investments)
	if out.TotalInvestments > 0 {
		out.CompletionRate = decimal.NewFromInt(int64(out.CompletedInvestments)).
			Div(decimal.NewFromInt(int64(out.TotalInvestments))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return out
}
