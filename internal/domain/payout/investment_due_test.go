package payout

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvable(t *testing.T, due *InvestmentDue, now time.Time) Classification {
	t.Helper()
	c := Classify(due, InvestmentStatusActive, now, DefaultClassifierPolicy())
	require.True(t, c.CanApprove)
	return c
}

// ============================================
// NewInvestmentDue Tests
// ============================================

func TestNewInvestmentDue(t *testing.T) {
	t.Run("schedules first occurrence", func(t *testing.T) {
		due := newTestDue(t)

		assert.NotEqual(t, uuid.Nil, due.ID)
		assert.Equal(t, 12, due.TotalPayouts)
		assert.Equal(t, 0, due.CompletedPayouts)
		assert.Equal(t, 1, due.CurrentPayoutPeriod)
		assert.True(t, decimal.NewFromInt(10_000).Equal(due.PayoutAmount))
		assert.Equal(t, date(2025, time.April, 15), due.NextPayoutDate)
		assert.Equal(t, date(2026, time.March, 15), due.EndDate)
		assert.True(t, due.ActualReturn.IsZero())
		assert.Equal(t, "Lekki Gardens Phase II", due.InvestmentTitle)
		assert.Equal(t, 1, due.GetVersion())

		events := due.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInvestmentDueCreated, events[0].EventType())
	})

	t.Run("derives expected return from rate", func(t *testing.T) {
		due, err := NewInvestmentDue(Investor{UserID: uuid.New()}, testInvestment(), decimal.NewFromInt(500_000), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "60000.00", due.ExpectedReturn.StringFixed(2))
		assert.Equal(t, "5000.00", due.PayoutAmount.StringFixed(2))
	})

	t.Run("end of term pays once at maturity", func(t *testing.T) {
		inv := testInvestment()
		inv.PeriodMonths = 6
		inv.Frequency = FrequencyEndOfTerm

		due, err := NewInvestmentDue(Investor{UserID: uuid.New()}, inv, decimal.NewFromInt(200_000), decimal.NewFromInt(18_000))
		require.NoError(t, err)
		assert.Equal(t, 1, due.TotalPayouts)
		assert.Equal(t, date(2025, time.September, 15), due.NextPayoutDate)
		assert.True(t, decimal.NewFromInt(18_000).Equal(due.PayoutAmount))
	})

	t.Run("rejects missing investor", func(t *testing.T) {
		_, err := NewInvestmentDue(Investor{}, testInvestment(), decimal.NewFromInt(1), decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Equal(t, CodeValidation, shared.ErrorCode(err))
	})

	t.Run("rejects invalid terms", func(t *testing.T) {
		inv := testInvestment()
		inv.Frequency = "weekly"
		_, err := NewInvestmentDue(Investor{UserID: uuid.New()}, inv, decimal.NewFromInt(1), decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Equal(t, CodeValidation, shared.ErrorCode(err))
	})

	t.Run("rejects a zero rate that leaves nothing to pay", func(t *testing.T) {
		inv := testInvestment()
		inv.ReturnRate = decimal.Zero
		_, err := NewInvestmentDue(Investor{UserID: uuid.New()}, inv, decimal.NewFromInt(50_000), decimal.Zero)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expected return must be positive")
	})
}

// ============================================
// ApprovePayout Tests
// ============================================

func TestInvestmentDue_ApprovePayout(t *testing.T) {
	due := newTestDue(t)
	due.ClearDomainEvents()
	now := date(2025, time.April, 15)
	admin := uuid.New()

	record, err := due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: admin, Notes: "ok", WalletTransactionID: "wtx-1"}, approvable(t, due, now), now)
	require.NoError(t, err)

	assert.Equal(t, 1, record.Period)
	assert.True(t, decimal.NewFromInt(10_000).Equal(record.Amount))
	assert.Equal(t, OccurrenceReference(due.ID, 1), record.WalletReference)
	assert.Equal(t, "ok", record.Notes)
	assert.Equal(t, admin, record.ApprovedBy)

	assert.Equal(t, 1, due.CompletedPayouts)
	assert.True(t, decimal.NewFromInt(10_000).Equal(due.ActualReturn))
	assert.Equal(t, 2, due.CurrentPayoutPeriod)
	assert.Equal(t, date(2025, time.May, 15), due.NextPayoutDate)
	assert.Equal(t, 2, due.GetVersion())
	assert.Nil(t, due.CompletedAt)
	assert.Equal(t, due.TotalPayouts, due.CompletedPayouts+due.RemainingPayouts())

	events := due.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypePayoutApproved, events[0].EventType())
}

func TestInvestmentDue_ApproveSameOccurrenceTwice(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.April, 15)
	_, err := due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: uuid.New()}, approvable(t, due, now), now)
	require.NoError(t, err)

	class := Classify(due, InvestmentStatusActive, now, DefaultClassifierPolicy())
	_, err = due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: uuid.New()}, class, now)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOccurrenceSettled))
	assert.Equal(t, CodeStateConflict, shared.ErrorCode(err))
	assert.True(t, decimal.NewFromInt(10_000).Equal(due.ActualReturn))
	assert.Equal(t, 1, due.CompletedPayouts)
}

func TestInvestmentDue_ApproveNotDue(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.April, 1)
	class := Classify(due, InvestmentStatusActive, now, DefaultClassifierPolicy())

	_, err := due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: uuid.New()}, class, now)
	require.Error(t, err)
	assert.Equal(t, CodeNotDue, shared.ErrorCode(err))
	assert.Equal(t, 0, due.CompletedPayouts)
	assert.Equal(t, 1, due.GetVersion())
}

func TestInvestmentDue_ApproveFuturePeriod(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.June, 1)

	_, err := due.ApprovePayout(ApprovalInput{Period: 2, ApprovedBy: uuid.New()}, approvable(t, due, now), now)
	require.Error(t, err)
	assert.Equal(t, CodeNotDue, shared.ErrorCode(err))
}

func TestInvestmentDue_ApproveRequiresActor(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.April, 15)

	_, err := due.ApprovePayout(ApprovalInput{Period: 1}, approvable(t, due, now), now)
	require.Error(t, err)
	assert.Equal(t, CodePermissionDenied, shared.ErrorCode(err))
}

func TestInvestmentDue_ApproveInactiveInvestment(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.April, 20)
	class := Classify(due, InvestmentStatusCancelled, now, DefaultClassifierPolicy())

	_, err := due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: uuid.New()}, class, now)
	require.Error(t, err)
	assert.Equal(t, CodeNotDue, shared.ErrorCode(err))
	assert.Contains(t, err.Error(), "not active")
}

func TestInvestmentDue_ApproveAllOccurrences(t *testing.T) {
	due := newTestDue(t)
	admin := uuid.New()

	for k := 1; k <= due.TotalPayouts; k++ {
		now := due.NextPayoutDate
		_, err := due.ApprovePayout(ApprovalInput{Period: k, ApprovedBy: admin}, approvable(t, due, now), now)
		require.NoError(t, err, "period %d", k)
		assert.Equal(t, due.TotalPayouts, due.CompletedPayouts+due.RemainingPayouts())
	}

	assert.True(t, due.IsCompleted())
	assert.True(t, due.ExpectedReturn.Equal(due.ActualReturn))
	assert.Equal(t, due.TotalPayouts, due.CurrentPayoutPeriod)
	require.NotNil(t, due.CompletedAt)

	last := due.GetDomainEvents()[len(due.GetDomainEvents())-1]
	assert.Equal(t, EventTypeInvestmentDueCompleted, last.EventType())

	class := Classify(due, InvestmentStatusActive, date(2027, time.January, 1), DefaultClassifierPolicy())
	assert.Equal(t, PayoutStatusCompleted, class.Status)
	assert.Equal(t, 100, class.ProgressPercentage)

	_, err := due.ApprovePayout(ApprovalInput{Period: due.CurrentPayoutPeriod, ApprovedBy: admin}, class, date(2027, time.January, 1))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

// ============================================
// RejectPayout Tests
// ============================================

func TestInvestmentDue_RejectPayout(t *testing.T) {
	due := newTestDue(t)
	due.ClearDomainEvents()
	now := date(2025, time.May, 15)
	admin := uuid.New()

	rejection, err := due.RejectPayout(1, "  bank details pending ", admin, approvable(t, due, now), now)
	require.NoError(t, err)

	assert.Equal(t, "bank details pending", rejection.Reason)
	assert.Equal(t, 1, rejection.Period)
	assert.Equal(t, admin, rejection.RejectedBy)
	assert.Equal(t, 0, due.CompletedPayouts)
	assert.True(t, due.ActualReturn.IsZero())
	assert.Equal(t, 1, due.GetVersion())

	// still outstanding, so it can be rejected or approved again
	class := Classify(due, InvestmentStatusActive, now, DefaultClassifierPolicy())
	assert.Equal(t, PayoutStatusOverdue, class.Status)
	_, err = due.RejectPayout(1, "still pending", admin, class, now)
	require.NoError(t, err)
	_, err = due.ApprovePayout(ApprovalInput{Period: 1, ApprovedBy: admin}, class, now)
	require.NoError(t, err)
}

func TestInvestmentDue_RejectValidation(t *testing.T) {
	due := newTestDue(t)
	now := date(2025, time.May, 15)
	class := approvable(t, due, now)

	for _, reason := range []string{"", "   ", "\n\t"} {
		_, err := due.RejectPayout(1, reason, uuid.New(), class, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyReason)
		assert.Equal(t, CodeValidation, shared.ErrorCode(err))
	}

	_, err := due.RejectPayout(1, strings.Repeat("x", MaxRejectionReasonLength+1), uuid.New(), class, now)
	assert.ErrorIs(t, err, ErrReasonTooLong)

	_, err = due.RejectPayout(1, strings.Repeat("é", MaxRejectionReasonLength), uuid.New(), class, now)
	assert.NoError(t, err)

	assert.Equal(t, 0, due.CompletedPayouts)
	assert.True(t, due.ActualReturn.IsZero())
}

func TestInvestmentDue_RejectCompleted(t *testing.T) {
	due := newTestDue(t)
	due.CompletedPayouts = due.TotalPayouts
	now := date(2027, time.January, 1)
	class := Classify(due, InvestmentStatusActive, now, DefaultClassifierPolicy())

	_, err := due.RejectPayout(due.CurrentPayoutPeriod, "late", uuid.New(), class, now)
	require.Error(t, err)
	assert.Equal(t, CodeStateConflict, shared.ErrorCode(err))
}
