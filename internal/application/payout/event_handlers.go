package payout

import (
	"context"
	"fmt"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventEncoder serializes domain events for the audit log
type EventEncoder interface {
	Serialize(event shared.DomainEvent) ([]byte, error)
}

// AuditLogHandler writes every payout event to the audit logger with its
// serialized payload.
type AuditLogHandler struct {
	logger  *zap.Logger
	encoder EventEncoder
}

func NewAuditLogHandler(logger *zap.Logger, encoder EventEncoder) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger.Named("audit"), encoder: encoder}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		payout.EventTypeInvestmentDueCreated,
		payout.EventTypePayoutApproved,
		payout.EventTypePayoutRejected,
		payout.EventTypeInvestmentDueCompleted,
		payout.EventTypePayoutsOverdueDetected,
	}
}

func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.encoder.Serialize(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}
	h.logger.Info("payout event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// CompletionHandler logs investments whose payout schedule has finished
type CompletionHandler struct {
	logger *zap.Logger
}

func NewCompletionHandler(logger *zap.Logger) *CompletionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionHandler{logger: logger}
}

func (h *CompletionHandler) EventTypes() []string {
	return []string{payout.EventTypeInvestmentDueCompleted}
}

func (h *CompletionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*payout.InvestmentDueCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			payout.EventTypeInvestmentDueCompleted, event.EventType())
	}
	h.logger.Info("investment due completed",
		zap.String("due_id", completed.DueID.String()),
		zap.String("user_id", completed.UserID.String()),
		zap.String("actual_return", FormatAmount(completed.ActualReturn)),
	)
	return nil
}
