package telemetry

import (
	"context"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelFrequency = "payout_frequency"
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
)

// maxLabelValueLength caps label values to keep cardinality bounded
const maxLabelValueLength = 128

// Payout operations used as profiling labels
const (
	OperationApprovePayout = "approve_payout"
	OperationRejectPayout  = "reject_payout"
	OperationListDues      = "list_dues"
	OperationComputeStats  = "compute_stats"
	OperationOverdueSweep  = "overdue_sweep"
)

// WithProfilingLabels runs fn with pprof labels attached so CPU samples can be
// sliced by label in Pyroscope. Empty keys and values are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// PayoutOperationLabels returns labels for a payout operation.
func PayoutOperationLabels(operation, frequency string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if frequency != "" {
		labels[ProfilingLabelFrequency] = frequency
	}
	return labels
}
