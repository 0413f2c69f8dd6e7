package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PayoutMetrics records business metrics of the payout workflow.
// A nil *PayoutMetrics is valid and records nothing.
type PayoutMetrics struct {
	approvals       *Counter
	rejections      *Counter
	failures        *Counter
	walletFailures  *Counter
	approvedAmount  *Histogram
	approveDuration *Histogram
	overdueCount    *Gauge
	overdueAmount   *FloatGauge
	pendingCount    *Gauge
}

// NewPayoutMetrics registers the payout instruments on meter.
func NewPayoutMetrics(meter metric.Meter) (*PayoutMetrics, error) {
	var (
		m   PayoutMetrics
		err error
	)
	if m.approvals, err = NewCounter(meter, "payout_approvals_total", "Approved payout occurrences", "{payouts}"); err != nil {
		return nil, err
	}
	if m.rejections, err = NewCounter(meter, "payout_rejections_total", "Rejected payout occurrences", "{payouts}"); err != nil {
		return nil, err
	}
	if m.failures, err = NewCounter(meter, "payout_action_failures_total", "Approve or reject calls that failed", "{calls}"); err != nil {
		return nil, err
	}
	if m.walletFailures, err = NewCounter(meter, "payout_wallet_credit_failures_total", "Wallet credits that failed", "{calls}"); err != nil {
		return nil, err
	}
	if m.approvedAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "payout_approved_amount",
		Description: "Amount released per approved occurrence",
		Unit:        "{currency}",
		Boundaries:  []float64{100, 1_000, 10_000, 50_000, 100_000, 500_000, 1_000_000},
	}); err != nil {
		return nil, err
	}
	if m.approveDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "payout_approve_duration_seconds",
		Description: "Latency of the approve workflow including the wallet credit",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.overdueCount, err = NewGauge(meter, "payout_overdue_count", "Dues whose current occurrence is overdue", "{dues}"); err != nil {
		return nil, err
	}
	if m.overdueAmount, err = NewFloatGauge(meter, "payout_overdue_amount", "Sum of overdue occurrence amounts", "{currency}"); err != nil {
		return nil, err
	}
	if m.pendingCount, err = NewGauge(meter, "payout_pending_count", "Dues whose current occurrence awaits approval", "{dues}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordApproval records one approved occurrence.
func (m *PayoutMetrics) RecordApproval(ctx context.Context, frequency string, amount decimal.Decimal, took time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrFrequency.String(frequency)}
	m.approvals.Inc(ctx, attrs...)
	m.approvedAmount.Record(ctx, amount.InexactFloat64(), attrs...)
	m.approveDuration.RecordDuration(ctx, took, AttrOutcome.String("success"))
}

// RecordRejection records one rejected occurrence.
func (m *PayoutMetrics) RecordRejection(ctx context.Context, frequency string) {
	if m == nil {
		return
	}
	m.rejections.Inc(ctx, AttrFrequency.String(frequency))
}

// RecordFailure records an approve or reject that returned errorCode.
func (m *PayoutMetrics) RecordFailure(ctx context.Context, action, errorCode string) {
	if m == nil {
		return
	}
	m.failures.Inc(ctx, attribute.String("action", action), AttrErrorCode.String(errorCode))
}

// RecordWalletFailure records a failed wallet credit.
func (m *PayoutMetrics) RecordWalletFailure(ctx context.Context, adapter string) {
	if m == nil {
		return
	}
	m.walletFailures.Inc(ctx, AttrWalletAdapter.String(adapter))
}

// RecordBacklog records the outcome of an overdue sweep.
func (m *PayoutMetrics) RecordBacklog(ctx context.Context, pending, overdue int, overdueAmount decimal.Decimal) {
	if m == nil {
		return
	}
	m.pendingCount.Record(ctx, int64(pending))
	m.overdueCount.Record(ctx, int64(overdue))
	m.overdueAmount.Record(ctx, overdueAmount.InexactFloat64())
}
