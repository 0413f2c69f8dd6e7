package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ComputeStats streams every due through the classifier at now and folds
// the results into dashboard stats.
func (s *DueService) ComputeStats(ctx context.Context, now time.Time) (payout.DueStats, error) {
	acc := payout.NewStatsAccumulator()
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.PayoutOperationLabels(telemetry.OperationComputeStats, ""), func(c context.Context) {
		err = s.dueRepo.StreamAll(c, s.cfg.StatsBatchSize, func(batch []payout.InvestmentDue) error {
			for i := range batch {
				// investment status only affects CanApprove, which stats ignore
				acc.Add(&batch[i], payout.Classify(&batch[i], "", now, s.cfg.Policy))
			}
			return nil
		})
	})
	if err != nil {
		return payout.ZeroStats(), fmt.Errorf("failed to stream dues: %w", err)
	}
	return acc.Result(), nil
}

// GetStats returns dashboard stats. Failures degrade to zero values with
// Degraded set instead of returning an error.
func (s *DueService) GetStats(ctx context.Context) *StatsResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "stats")
	defer span.End()

	stats, err := s.ComputeStats(ctx, s.clock())
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("payout stats unavailable, returning zero values", zap.Error(err))
		return &StatsResult{Stats: payout.ZeroStats(), Degraded: true}
	}
	return &StatsResult{Stats: stats}
}
