package payout

import (
	"fmt"
	"time"

	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// amountScale is the number of decimal places payouts are split to
const amountScale = 2

// ScheduleTerms are the investment terms a payout schedule is derived from
type ScheduleTerms struct {
	Principal      decimal.Decimal
	ExpectedReturn decimal.Decimal
	PeriodMonths   int
	Frequency      PayoutFrequency
	StartDate      time.Time
	// EndDate caps the final due date. Zero means StartDate + PeriodMonths.
	EndDate time.Time
}

// Occurrence is one scheduled payout
type Occurrence struct {
	Period  int             `json:"period"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Schedule is an immutable payout plan for one investment due
type Schedule struct {
	terms          ScheduleTerms
	intervalMonths int
	totalPayouts   int
	baseAmount     decimal.Decimal
	finalAmount    decimal.Decimal
}

// NewSchedule validates the terms and computes the occurrence layout
func NewSchedule(terms ScheduleTerms) (*Schedule, error) {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(CodeValidation, "Principal must be positive")
	}
	if !terms.ExpectedReturn.IsPositive() {
		return nil, shared.NewDomainError(CodeValidation, "Expected return must be positive")
	}
	if terms.PeriodMonths < 1 {
		return nil, shared.NewDomainError(CodeValidation, "Investment period must be at least one month")
	}
	if !terms.Frequency.IsValid() {
		return nil, shared.NewDomainError(CodeValidation, fmt.Sprintf("Unknown payout frequency %q", terms.Frequency))
	}
	if terms.StartDate.IsZero() {
		return nil, shared.NewDomainError(CodeValidation, "Start date is required")
	}
	if terms.EndDate.IsZero() {
		terms.EndDate = addMonths(terms.StartDate, terms.PeriodMonths)
	}
	if !terms.EndDate.After(terms.StartDate) {
		return nil, shared.NewDomainError(CodeValidation, "End date must be after start date")
	}

	interval := terms.Frequency.IntervalMonths(terms.PeriodMonths)
	total := (terms.PeriodMonths + interval - 1) / interval
	if total < 1 {
		total = 1
	}

	base := terms.ExpectedReturn.Div(decimal.NewFromInt(int64(total))).Truncate(amountScale)
	if !base.IsPositive() {
		// every occurrence credits the wallet, so none may round down to nothing
		return nil, shared.NewDomainError(CodeValidation, fmt.Sprintf(
			"Expected return %s is too small to split into %d payouts", terms.ExpectedReturn.StringFixed(amountScale), total))
	}
	final := terms.ExpectedReturn.Sub(base.Mul(decimal.NewFromInt(int64(total - 1))))

	return &Schedule{
		terms:          terms,
		intervalMonths: interval,
		totalPayouts:   total,
		baseAmount:     base,
		finalAmount:    final,
	}, nil
}

// Terms returns the terms with EndDate resolved
func (s *Schedule) Terms() ScheduleTerms { return s.terms }

func (s *Schedule) TotalPayouts() int   { return s.totalPayouts }
func (s *Schedule) IntervalMonths() int { return s.intervalMonths }

// DueDate returns when occurrence k (1-based) becomes due
func (s *Schedule) DueDate(k int) (time.Time, error) {
	if err := s.checkPeriod(k); err != nil {
		return time.Time{}, err
	}
	due := addMonths(s.terms.StartDate, k*s.intervalMonths)
	if due.After(s.terms.EndDate) {
		due = s.terms.EndDate
	}
	return due, nil
}

// Amount returns the payout for occurrence k. The final occurrence absorbs
// the rounding remainder so the amounts sum to the expected return.
func (s *Schedule) Amount(k int) (decimal.Decimal, error) {
	if err := s.checkPeriod(k); err != nil {
		return decimal.Zero, err
	}
	if k == s.totalPayouts {
		return s.finalAmount, nil
	}
	return s.baseAmount, nil
}

// Occurrence returns due date and amount for occurrence k
func (s *Schedule) Occurrence(k int) (Occurrence, error) {
	due, err := s.DueDate(k)
	if err != nil {
		return Occurrence{}, err
	}
	amount, _ := s.Amount(k)
	return Occurrence{Period: k, DueDate: due, Amount: amount}, nil
}

// Occurrences returns the full schedule in period order
func (s *Schedule) Occurrences() []Occurrence {
	out := make([]Occurrence, 0, s.totalPayouts)
	for k := 1; k <= s.totalPayouts; k++ {
		occ, _ := s.Occurrence(k)
		out = append(out, occ)
	}
	return out
}

func (s *Schedule) checkPeriod(k int) error {
	if k < 1 || k > s.totalPayouts {
		return shared.NewDomainError(CodeValidation,
			fmt.Sprintf("Payout period %d is outside 1..%d", k, s.totalPayouts))
	}
	return nil
}

// ExpectedReturnFor computes the total return for a principal at a percentage rate
func ExpectedReturnFor(principal, returnRatePercent decimal.Decimal) decimal.Decimal {
	return principal.Mul(returnRatePercent).Div(decimal.NewFromInt(100)).Round(amountScale)
}

// addMonths adds n calendar months, clamping the day to the end of the target month
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
