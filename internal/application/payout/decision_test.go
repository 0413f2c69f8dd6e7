package payout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// amountOf matches a decimal argument by value rather than representation
func amountOf(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

// expectDecisionLoad wires the lookups every decision makes before acting
func (e *testEnv) expectDecisionLoad(due *payout.InvestmentDue, inv *payout.Investment) {
	e.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	e.dues.On("FindByIDForUpdate", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	e.records.On("ExistsForPeriod", mock.Anything, due.ID, due.CurrentPayoutPeriod).Return(false, nil).Once()
	e.catalog.On("GetByID", mock.Anything, inv.ID).Return(inv, nil).Once()
}

// ==================== ApproveDue ====================

func TestApproveDue_CreditsWalletAndAdvancesSchedule(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.expectDecisionLoad(due, inv)

	reference := payout.OccurrenceReference(due.ID, 1)
	env.wallet.On("Credit", mock.Anything, due.UserID, amountOf(100), reference).
		Return(&payout.WalletReceipt{TransactionID: "wtx-1", Reference: reference, Amount: decimal.NewFromInt(100)}, nil).Once()
	env.dues.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(d *payout.InvestmentDue) bool {
		return d.CompletedPayouts == 1 && d.CurrentPayoutPeriod == 2 && d.Version == due.Version+1
	})).Return(nil).Once()
	env.records.On("Create", mock.Anything, mock.MatchedBy(func(r *payout.PayoutRecord) bool {
		return r.Period == 1 && r.WalletReference == reference && r.WalletTransactionID == "wtx-1" && r.ApprovedBy == adminID
	})).Return(nil).Once()

	result, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1, Notes: "February payout"}, adminID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Monthly payout 1 of 12 (100.00) approved for Adaeze Okafor; next payout due 2025-03-10", result.Message)
	require.NotNil(t, result.Due)
	assert.Equal(t, 1, result.Due.CompletedPayouts)
	assert.Equal(t, payout.PayoutStatusNotDue, result.Due.Status)
	assert.Equal(t, "February payout", result.Payout.Notes)
	assert.Equal(t, []string{payout.EventTypePayoutApproved}, env.publisher.Types())
	assert.Empty(t, env.locker.held, "lock must be released")
	assert.Equal(t, []string{reference}, env.locker.released)
	env.assertExpectations(t)
}

func TestApproveDue_FinalOccurrenceCompletesDue(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyEndOfTerm)
	inv.StartDate = inv.StartDate.AddDate(-1, 0, 0)
	inv.EndDate = inv.EndDate.AddDate(-1, 0, 0)
	due := newDue(inv)
	require.Equal(t, 1, due.TotalPayouts)
	env.expectDecisionLoad(due, inv)

	env.wallet.On("Credit", mock.Anything, due.UserID, amountOf(1200), mock.Anything).
		Return(&payout.WalletReceipt{TransactionID: "wtx-final"}, nil).Once()
	env.dues.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Once()
	env.records.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	require.NoError(t, err)
	assert.Equal(t, "Final payout of 1,200.00 approved for Adaeze Okafor; all 1 payouts are complete", result.Message)
	assert.Equal(t, payout.PayoutStatusCompleted, result.Due.Status)
	assert.Equal(t, 100, result.Due.ProgressPercentage)
	assert.Equal(t, []string{payout.EventTypePayoutApproved, payout.EventTypeInvestmentDueCompleted}, env.publisher.Types())
}

func TestApproveDue_RequiresActor(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ApproveDue(context.Background(), uuid.New(), ApproveDueRequest{Period: 1}, uuid.Nil)

	assert.ErrorIs(t, err, payout.ErrActorRequired)
	assert.Equal(t, payout.CodePermissionDenied, shared.ErrorCode(err))
	assert.Zero(t, env.scope.calls)
	env.assertExpectations(t)
}

func TestDecisions_RequireOccurrencePeriod(t *testing.T) {
	for _, period := range []int{0, -2} {
		env := newTestEnv()
		id := uuid.New()

		_, err := env.svc.ApproveDue(context.Background(), id, ApproveDueRequest{Period: period, Notes: "ok"}, adminID)
		assert.ErrorIs(t, err, payout.ErrPeriodRequired)
		assert.Equal(t, payout.CodeValidation, shared.ErrorCode(err))

		_, err = env.svc.RejectDue(context.Background(), id, RejectDueRequest{Period: period, Reason: "duplicate"}, adminID)
		assert.ErrorIs(t, err, payout.ErrPeriodRequired)

		env.dues.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		assert.Empty(t, env.locker.acquired)
	}
}

func TestApproveDue_NotFound(t *testing.T) {
	env := newTestEnv()
	id := uuid.New()
	env.dues.On("FindByID", mock.Anything, id).Return(nil, payout.ErrDueNotFound).Once()

	_, err := env.svc.ApproveDue(context.Background(), id, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeNotFound, shared.ErrorCode(err))
	assert.Empty(t, env.locker.acquired)
}

func TestApproveDue_NotYetDue(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyQuarterly)
	due := newDue(inv) // first payout 2025-04-10, after fixedNow
	env.expectDecisionLoad(due, inv)

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeNotDue, shared.ErrorCode(err))
	env.wallet.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.dues.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	assert.Empty(t, env.publisher.Types())
	assert.Empty(t, env.locker.held)
}

func TestApproveDue_InactiveInvestment(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	suspended := *inv
	suspended.Status = payout.InvestmentStatusCancelled
	env.expectDecisionLoad(due, &suspended)

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeNotDue, shared.ErrorCode(err))
	env.wallet.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveDue_AlreadySettledOccurrence(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.dues.On("FindByIDForUpdate", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.records.On("ExistsForPeriod", mock.Anything, due.ID, 1).Return(true, nil).Once()

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.ErrorIs(t, err, payout.ErrOccurrenceSettled)
	assert.Equal(t, payout.CodeStateConflict, shared.ErrorCode(err))
	env.catalog.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestApproveDue_PeriodMismatch(t *testing.T) {
	tests := []struct {
		name   string
		period int
		code   string
	}{
		{"stale period", 1, payout.CodeStateConflict},
		{"future period", 3, payout.CodeNotDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			inv := testInvestment(payout.FrequencyMonthly)
			due := newDue(inv)
			due.CompletedPayouts = 1
			due.CurrentPayoutPeriod = 2
			env.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
			env.dues.On("FindByIDForUpdate", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
			env.records.On("ExistsForPeriod", mock.Anything, due.ID, tt.period).Return(false, nil).Once()
			env.catalog.On("GetByID", mock.Anything, inv.ID).Return(inv, nil).Once()

			_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: tt.period}, adminID)

			assert.Equal(t, tt.code, shared.ErrorCode(err))
			assert.Equal(t, []string{payout.OccurrenceReference(due.ID, tt.period)}, env.locker.acquired)
		})
	}
}

func TestApproveDue_CompletedDue(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	done := copyDue(due)
	done.CompletedPayouts = done.TotalPayouts
	env.dues.On("FindByID", mock.Anything, due.ID).Return(done, nil).Once()
	env.dues.On("FindByIDForUpdate", mock.Anything, due.ID).Return(copyDue(done), nil).Once()

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.ErrorIs(t, err, payout.ErrAlreadyCompleted)
}

func TestApproveDue_OccurrenceLockHeld(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.locker.held[due.OccurrenceReference()] = "someone-else"

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.ErrorIs(t, err, payout.ErrOccurrenceBusy)
	assert.Equal(t, payout.CodeStateConflict, shared.ErrorCode(err))
	assert.Zero(t, env.scope.calls)
	assert.Equal(t, "someone-else", env.locker.held[due.OccurrenceReference()])
}

func TestApproveDue_LockBackendFailure(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.locker.err = errors.New("redis: connection refused")

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeDependencyFailure, shared.ErrorCode(err))
	assert.Zero(t, env.scope.calls)
}

func TestApproveDue_WalletFailureChangesNothing(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.expectDecisionLoad(due, inv)
	env.wallet.On("Credit", mock.Anything, due.UserID, mock.Anything, mock.Anything).
		Return(nil, errors.New("wallet service timeout")).Once()

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.ErrorIs(t, err, payout.ErrWalletCredit)
	assert.Equal(t, payout.CodeDependencyFailure, shared.ErrorCode(err))
	assert.Contains(t, err.Error(), "wallet service timeout")
	env.dues.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	env.records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, env.publisher.Types())
	assert.Empty(t, env.locker.held)
}

func TestApproveDue_VersionConflict(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.expectDecisionLoad(due, inv)
	env.wallet.On("Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&payout.WalletReceipt{TransactionID: "wtx"}, nil).Once()
	env.dues.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeStateConflict, shared.ErrorCode(err))
	env.records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, env.publisher.Types())
}

func TestApproveDue_SecondApprovalOfSameOccurrenceConflicts(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)

	env.expectDecisionLoad(due, inv)
	env.wallet.On("Credit", mock.Anything, due.UserID, mock.Anything, mock.Anything).
		Return(&payout.WalletReceipt{TransactionID: "wtx"}, nil).Once()
	env.dues.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Once()
	env.records.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)
	require.NoError(t, err)

	// the second request races in with the same period and finds it settled
	env.dues.On("FindByID", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.dues.On("FindByIDForUpdate", mock.Anything, due.ID).Return(copyDue(due), nil).Once()
	env.records.On("ExistsForPeriod", mock.Anything, due.ID, 1).Return(true, nil).Once()

	_, err = env.svc.ApproveDue(context.Background(), due.ID, ApproveDueRequest{Period: 1}, adminID)

	assert.Equal(t, payout.CodeStateConflict, shared.ErrorCode(err))
	env.wallet.AssertNumberOfCalls(t, "Credit", 1)
}

// ==================== RejectDue ====================

func TestRejectDue_RecordsRejectionWithoutTouchingDue(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.expectDecisionLoad(due, inv)
	env.rejects.On("Create", mock.Anything, mock.MatchedBy(func(r *payout.PayoutRejection) bool {
		return r.Period == 1 && r.Reason == "Bank details unverified" && r.RejectedBy == adminID
	})).Return(nil).Once()

	result, err := env.svc.RejectDue(context.Background(), due.ID, RejectDueRequest{Period: 1, Reason: "  Bank details unverified  "}, adminID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Payout 1 of 12 for Adaeze Okafor was rejected: Bank details unverified", result.Message)
	assert.Equal(t, 0, result.Due.CompletedPayouts)
	assert.Equal(t, payout.PayoutStatusOverdue, result.Due.Status)
	assert.Equal(t, []string{payout.EventTypePayoutRejected}, env.publisher.Types())
	env.dues.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	env.wallet.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestRejectDue_ReasonValidatedBeforeLookup(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   error
	}{
		{"empty", "", payout.ErrEmptyReason},
		{"whitespace", " \t\n ", payout.ErrEmptyReason},
		{"too long", strings.Repeat("x", 501), payout.ErrReasonTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()

			_, err := env.svc.RejectDue(context.Background(), uuid.New(), RejectDueRequest{Period: 1, Reason: tt.reason}, adminID)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, payout.CodeValidation, shared.ErrorCode(err))
			env.dues.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
			assert.Empty(t, env.locker.acquired)
		})
	}
}

func TestRejectDue_RequiresActor(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.RejectDue(context.Background(), uuid.New(), RejectDueRequest{Period: 1, Reason: "duplicate"}, uuid.Nil)

	assert.ErrorIs(t, err, payout.ErrActorRequired)
}

func TestRejectDue_NotDue(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyAnnually)
	due := newDue(inv)
	env.expectDecisionLoad(due, inv)

	_, err := env.svc.RejectDue(context.Background(), due.ID, RejectDueRequest{Period: 1, Reason: "early"}, adminID)

	assert.Equal(t, payout.CodeNotDue, shared.ErrorCode(err))
	env.rejects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRejectDue_ResubmissionAllowed(t *testing.T) {
	env := newTestEnv()
	inv := testInvestment(payout.FrequencyMonthly)
	due := newDue(inv)
	env.rejects.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

	for range 2 {
		env.expectDecisionLoad(due, inv)
		_, err := env.svc.RejectDue(context.Background(), due.ID, RejectDueRequest{Period: 1, Reason: "needs review"}, adminID)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{payout.EventTypePayoutRejected, payout.EventTypePayoutRejected}, env.publisher.Types())
	env.assertExpectations(t)
}
