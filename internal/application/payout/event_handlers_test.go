package payout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type jsonEncoder struct{ err error }

func (e jsonEncoder) Serialize(event shared.DomainEvent) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return json.Marshal(event)
}

func TestAuditLogHandler_LogsPayload(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewAuditLogHandler(zap.New(core), jsonEncoder{})
	due := newDue(testInvestment(payout.FrequencyMonthly))
	event := payout.NewInvestmentDueCreatedEvent(due)

	require.NoError(t, h.Handle(context.Background(), event))

	entries := logs.FilterMessage("payout event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, payout.EventTypeInvestmentDueCreated, fields["event_type"])
	assert.Equal(t, due.ID.String(), fields["aggregate_id"])
	assert.Contains(t, fields["payload"], `"total_payouts":12`)
	assert.Len(t, h.EventTypes(), 5)
}

func TestAuditLogHandler_SerializeFailure(t *testing.T) {
	h := NewAuditLogHandler(nil, jsonEncoder{err: errors.New("unsupported")})
	event := payout.NewPayoutsOverdueDetectedEvent(payout.ZeroStats(), fixedNow)

	err := h.Handle(context.Background(), event)

	assert.ErrorContains(t, err, "failed to serialize PayoutsOverdueDetected")
}

func TestCompletionHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewCompletionHandler(zap.New(core))

	due := newDue(testInvestment(payout.FrequencyMonthly))
	due.ActualReturn = decimal.NewFromInt(1200)
	completed := fixedNow
	due.CompletedAt = &completed

	require.NoError(t, h.Handle(context.Background(), payout.NewInvestmentDueCompletedEvent(due)))
	entries := logs.FilterMessage("investment due completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1,200.00", entries[0].ContextMap()["actual_return"])

	err := h.Handle(context.Background(), payout.NewPayoutsOverdueDetectedEvent(payout.ZeroStats(), fixedNow))
	assert.ErrorContains(t, err, "unexpected event type")
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Semi Annually", FrequencyLabel(payout.FrequencySemiAnnually))
	assert.Equal(t, "End Of Term", FrequencyLabel(payout.FrequencyEndOfTerm))
	assert.Equal(t, "Not Due", StatusLabel(payout.PayoutStatusNotDue))
	assert.Equal(t, "1,234,567.89", FormatAmount(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "0.50", FormatAmount(decimal.RequireFromString("0.5")))
}
