package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestPayoutMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	m, err := NewPayoutMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordApproval(ctx, "monthly", decimal.NewFromInt(10_000), 40*time.Millisecond)
	m.RecordApproval(ctx, "monthly", decimal.NewFromInt(10_000), 20*time.Millisecond)
	m.RecordRejection(ctx, "quarterly")
	m.RecordWalletFailure(ctx, "http")
	m.RecordBacklog(ctx, 3, 2, decimal.NewFromInt(25_000))

	data := collect(t, reader)

	approvals, ok := data["payout_approvals_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, approvals.DataPoints, 1)
	assert.Equal(t, int64(2), approvals.DataPoints[0].Value)

	overdue, ok := data["payout_overdue_count"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), overdue.DataPoints[0].Value)

	amount, ok := data["payout_overdue_amount"].(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 25_000.0, amount.DataPoints[0].Value)

	assert.Contains(t, data, "payout_rejections_total")
	assert.Contains(t, data, "payout_wallet_credit_failures_total")
}

func TestPayoutMetrics_NilSafe(t *testing.T) {
	var m *PayoutMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordApproval(ctx, "monthly", decimal.NewFromInt(1), time.Second)
		m.RecordRejection(ctx, "monthly")
		m.RecordFailure(ctx, "approve", "STATE_CONFLICT")
		m.RecordWalletFailure(ctx, "ledger")
		m.RecordBacklog(ctx, 0, 0, decimal.Zero)
	})
}
