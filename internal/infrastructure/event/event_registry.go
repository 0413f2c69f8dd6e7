package event

import "github.com/payout/backend/internal/domain/payout"

// RegisterPayoutEvents registers every payout domain event with the serializer
func RegisterPayoutEvents(s *EventSerializer) {
	s.Register(payout.EventTypeInvestmentDueCreated, &payout.InvestmentDueCreatedEvent{})
	s.Register(payout.EventTypePayoutApproved, &payout.PayoutApprovedEvent{})
	s.Register(payout.EventTypePayoutRejected, &payout.PayoutRejectedEvent{})
	s.Register(payout.EventTypeInvestmentDueCompleted, &payout.InvestmentDueCompletedEvent{})
	s.Register(payout.EventTypePayoutsOverdueDetected, &payout.PayoutsOverdueDetectedEvent{})
}
