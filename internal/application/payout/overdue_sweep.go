package payout

import (
	"context"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OverdueSweeper periodically reclassifies every due, refreshes the backlog
// gauges and announces outstanding overdue payouts.
type OverdueSweeper struct {
	service *DueService
	logger  *zap.Logger
}

func NewOverdueSweeper(service *DueService, logger *zap.Logger) *OverdueSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweeper{service: service, logger: logger.Named("overdue_sweep")}
}

// Sweep runs one pass and returns the stats it computed
func (w *OverdueSweeper) Sweep(ctx context.Context) (payout.DueStats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "overdue_sweep")
	defer span.End()

	now := w.service.clock()
	var (
		stats payout.DueStats
		err   error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PayoutOperationLabels(telemetry.OperationOverdueSweep, ""), func(c context.Context) {
		stats, err = w.service.ComputeStats(c, now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		w.logger.Error("overdue sweep failed", zap.Error(err))
		return stats, err
	}

	w.service.metrics.RecordBacklog(ctx, stats.PendingPayouts, stats.OverduePayouts, stats.OverduePayoutAmount)
	telemetry.SetAttributes(span,
		"pending", stats.PendingPayouts,
		"overdue", stats.OverduePayouts,
	)

	if stats.OverduePayouts == 0 {
		w.logger.Info("overdue sweep finished",
			zap.Int("pending", stats.PendingPayouts),
			zap.Int("total", stats.TotalInvestments),
		)
		return stats, nil
	}

	w.logger.Warn("overdue payouts outstanding",
		zap.Int("overdue", stats.OverduePayouts),
		zap.String("overdue_amount", stats.OverduePayoutAmount.StringFixed(2)),
		zap.Int("pending", stats.PendingPayouts),
	)
	if w.service.eventPublisher != nil {
		_ = w.service.eventPublisher.Publish(ctx, payout.NewPayoutsOverdueDetectedEvent(stats, now))
	}
	return stats, nil
}

// Run satisfies the scheduler's job signature
func (w *OverdueSweeper) Run(ctx context.Context) error {
	_, err := w.Sweep(ctx)
	return err
}
