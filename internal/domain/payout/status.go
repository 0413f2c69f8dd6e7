package payout

import (
	"fmt"
	"strings"

	"github.com/payout/backend/internal/domain/shared"
)

// PayoutStatus is the derived state of a due's current occurrence
type PayoutStatus string

const (
	PayoutStatusNotDue    PayoutStatus = "not_due"
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusOverdue   PayoutStatus = "overdue"
	PayoutStatusCompleted PayoutStatus = "completed"
)

// StatusFilterAll selects every status in list queries
const StatusFilterAll = "all"

// IsValid checks if the status is one of the four known values
func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusNotDue, PayoutStatusPending, PayoutStatusOverdue, PayoutStatusCompleted:
		return true
	}
	return false
}

func (s PayoutStatus) String() string {
	return string(s)
}

// IsActionable returns true if an admin may approve or reject in this status
func (s PayoutStatus) IsActionable() bool {
	return s == PayoutStatusPending || s == PayoutStatusOverdue
}

// ParseStatusFilter parses a list filter value. Empty and "all" yield nil.
func ParseStatusFilter(s string) (*PayoutStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == StatusFilterAll {
		return nil, nil
	}
	status := PayoutStatus(s)
	if !status.IsValid() {
		return nil, shared.NewDomainError(CodeValidation, fmt.Sprintf("Unknown payout status %q", s))
	}
	return &status, nil
}
