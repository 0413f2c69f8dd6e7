package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/payout/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

var errOccurrenceModified = shared.NewDomainError(payout.CodeStateConflict,
	"Investment due was modified by another request; reload and try again")

// occurrence is the state loaded under lock for one decision
type occurrence struct {
	due    *payout.InvestmentDue
	status payout.InvestmentStatus
	class  payout.Classification
	now    time.Time
}

// ApproveDue credits the investor's wallet for occurrence req.Period and
// advances the due's schedule. It either fully applies or changes nothing.
// A period that is already settled fails with STATE_CONFLICT.
func (s *DueService) ApproveDue(ctx context.Context, dueID uuid.UUID, req ApproveDueRequest, approvedBy uuid.UUID) (result *DecisionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", actionApprove)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrDueID, dueID.String())
	started := time.Now()
	defer func() { s.recordOutcome(ctx, span, actionApprove, err) }()

	if approvedBy == uuid.Nil {
		return nil, payout.ErrActorRequired
	}
	if req.Period < 1 {
		return nil, payout.ErrPeriodRequired
	}
	period := req.Period
	telemetry.SetAttributes(span, telemetry.SpanAttrPeriod, period)

	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, err
	}

	var (
		occ    *occurrence
		record *payout.PayoutRecord
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PayoutOperationLabels(telemetry.OperationApprovePayout, due.Frequency.String()), func(c context.Context) {
		err = s.withOccurrenceLock(c, dueID, period, func() error {
			return s.scope.Execute(c, func(repos TransactionalRepositories) error {
				var err error
				occ, err = s.loadForDecision(c, repos, dueID, period)
				if err != nil {
					return err
				}

				reference := payout.OccurrenceReference(dueID, period)
				receipt, err := repos.Wallet().Credit(c, occ.due.UserID, occ.due.PayoutAmount, reference)
				if err != nil {
					s.metrics.RecordWalletFailure(c, s.cfg.WalletAdapter)
					s.logger.Warn("wallet credit failed",
						zap.String("due_id", dueID.String()),
						zap.String("reference", reference),
						zap.Error(err),
					)
					return payout.ErrWalletCredit.WithCause(err)
				}
				if receipt.Replayed {
					s.logger.Info("wallet credit replayed for reference",
						zap.String("reference", reference),
						zap.String("transaction_id", receipt.TransactionID),
					)
				}

				record, err = occ.due.ApprovePayout(payout.ApprovalInput{
					Period:              period,
					ApprovedBy:          approvedBy,
					Notes:               req.Notes,
					WalletTransactionID: receipt.TransactionID,
				}, occ.class, occ.now)
				if err != nil {
					return err
				}

				if err := repos.DueRepo().SaveWithLock(c, occ.due); err != nil {
					if errors.Is(err, shared.ErrConcurrencyConflict) {
						return errOccurrenceModified
					}
					return fmt.Errorf("failed to save investment due: %w", err)
				}
				if err := repos.RecordRepo().Create(c, record); err != nil {
					return err
				}
				return nil
			})
		})
		if err == nil {
			s.publishDomainEvents(c, occ.due)
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordApproval(ctx, occ.due.Frequency.String(), record.Amount, time.Since(started))
	s.logger.Info("payout approved",
		zap.String("due_id", dueID.String()),
		zap.Int("period", record.Period),
		zap.String("amount", record.Amount.StringFixed(2)),
		zap.String("approved_by", approvedBy.String()),
	)

	view := ToDueResponse(occ.due, occ.status, payout.Classify(occ.due, occ.status, occ.now, s.cfg.Policy))
	return &DecisionResult{
		Success: true,
		Message: approvalMessage(occ.due, record),
		Due:     &view,
		Payout:  record,
	}, nil
}

// RejectDue records a rejection of occurrence req.Period. The due is not
// modified and the occurrence may be resubmitted.
func (s *DueService) RejectDue(ctx context.Context, dueID uuid.UUID, req RejectDueRequest, rejectedBy uuid.UUID) (result *DecisionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", actionReject)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrDueID, dueID.String())
	defer func() { s.recordOutcome(ctx, span, actionReject, err) }()

	reason, err := payout.NormalizeRejectionReason(req.Reason)
	if err != nil {
		return nil, err
	}
	if rejectedBy == uuid.Nil {
		return nil, payout.ErrActorRequired
	}
	if req.Period < 1 {
		return nil, payout.ErrPeriodRequired
	}
	period := req.Period
	telemetry.SetAttributes(span, telemetry.SpanAttrPeriod, period)

	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, err
	}

	var (
		occ       *occurrence
		rejection *payout.PayoutRejection
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PayoutOperationLabels(telemetry.OperationRejectPayout, due.Frequency.String()), func(c context.Context) {
		err = s.withOccurrenceLock(c, dueID, period, func() error {
			return s.scope.Execute(c, func(repos TransactionalRepositories) error {
				var err error
				occ, err = s.loadForDecision(c, repos, dueID, period)
				if err != nil {
					return err
				}
				rejection, err = occ.due.RejectPayout(period, reason, rejectedBy, occ.class, occ.now)
				if err != nil {
					return err
				}
				return repos.RejectionRepo().Create(c, rejection)
			})
		})
		if err == nil {
			s.publishDomainEvents(c, occ.due)
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRejection(ctx, occ.due.Frequency.String())
	s.logger.Info("payout rejected",
		zap.String("due_id", dueID.String()),
		zap.Int("period", rejection.Period),
		zap.String("rejected_by", rejectedBy.String()),
	)

	view := ToDueResponse(occ.due, occ.status, occ.class)
	return &DecisionResult{
		Success:   true,
		Message:   fmt.Sprintf("Payout %d of %d for %s was rejected: %s", rejection.Period, occ.due.TotalPayouts, occ.due.InvestorName, rejection.Reason),
		Due:       &view,
		Rejection: rejection,
	}, nil
}

// loadForDecision re-reads the due under a row lock and checks that period
// is the outstanding, actionable occurrence.
func (s *DueService) loadForDecision(ctx context.Context, repos TransactionalRepositories, dueID uuid.UUID, period int) (*occurrence, error) {
	due, err := repos.DueRepo().FindByIDForUpdate(ctx, dueID)
	if err != nil {
		return nil, err
	}
	if due.IsCompleted() {
		return nil, payout.ErrAlreadyCompleted
	}
	settled, err := repos.RecordRepo().ExistsForPeriod(ctx, dueID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check payout record: %w", err)
	}
	if settled {
		return nil, payout.ErrOccurrenceSettled
	}

	status, err := investmentStatus(ctx, repos.Catalog(), due.InvestmentID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	class := payout.Classify(due, status, now, s.cfg.Policy)
	if err := due.EnsureActionable(period, class); err != nil {
		return nil, err
	}
	return &occurrence{due: due, status: status, class: class, now: now}, nil
}

// withOccurrenceLock runs fn while holding the lock of one occurrence
func (s *DueService) withOccurrenceLock(ctx context.Context, dueID uuid.UUID, period int, fn func() error) error {
	key := payout.OccurrenceReference(dueID, period)
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return shared.WrapDomainError(payout.CodeDependencyFailure, "Occurrence lock is unavailable", err)
	}
	if !ok {
		return payout.ErrOccurrenceBusy
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("failed to release occurrence lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}

// recordOutcome marks a failed decision on the span and in metrics
func (s *DueService) recordOutcome(ctx context.Context, span trace.Span, action string, err error) {
	if err == nil {
		return
	}
	telemetry.RecordError(span, err)
	code := shared.ErrorCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	s.metrics.RecordFailure(ctx, action, code)
}
