package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment offering
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusPending   InvestmentStatus = "pending"
	InvestmentStatusCompleted InvestmentStatus = "completed"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
)

func (s InvestmentStatus) IsValid() bool {
	switch s {
	case InvestmentStatusActive, InvestmentStatusPending, InvestmentStatusCompleted, InvestmentStatusCancelled:
		return true
	}
	return false
}

// Investment is the read model of an investment offering owned by the catalog
type Investment struct {
	ID           uuid.UUID
	Title        string
	ReturnRate   decimal.Decimal // percent over the whole period
	PeriodMonths int
	Frequency    PayoutFrequency
	StartDate    time.Time
	EndDate      time.Time
	Status       InvestmentStatus
}

// IsActive returns true if payouts may be released for this investment
func (i *Investment) IsActive() bool {
	return i != nil && i.Status == InvestmentStatusActive
}

// Investor identifies the owner of a due, with display fields used by search
type Investor struct {
	UserID uuid.UUID
	Name   string
	Email  string
}
