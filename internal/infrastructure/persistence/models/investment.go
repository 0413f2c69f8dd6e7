package models

import (
	"time"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/shopspring/decimal"
)

// InvestmentModel is the catalog row for an investment offering. The payout
// engine only reads it.
type InvestmentModel struct {
	BaseModel
	Title        string          `gorm:"type:varchar(255);not null"`
	ReturnRate   decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	PeriodMonths int             `gorm:"not null"`
	Frequency    string          `gorm:"type:varchar(20);not null"`
	StartDate    time.Time       `gorm:"not null"`
	EndDate      time.Time       `gorm:"not null"`
	Status       string          `gorm:"type:varchar(20);not null;index"`
}

func (InvestmentModel) TableName() string {
	return "investments"
}

func (m *InvestmentModel) ToDomain() *payout.Investment {
	return &payout.Investment{
		ID:           m.ID,
		Title:        m.Title,
		ReturnRate:   m.ReturnRate,
		PeriodMonths: m.PeriodMonths,
		Frequency:    payout.PayoutFrequency(m.Frequency),
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		Status:       payout.InvestmentStatus(m.Status),
	}
}

// InvestmentModelFromDomain is used by seeding and tests
func InvestmentModelFromDomain(i *payout.Investment) *InvestmentModel {
	now := time.Now()
	return &InvestmentModel{
		BaseModel:    BaseModel{ID: i.ID, CreatedAt: now, UpdatedAt: now},
		Title:        i.Title,
		ReturnRate:   i.ReturnRate,
		PeriodMonths: i.PeriodMonths,
		Frequency:    string(i.Frequency),
		StartDate:    i.StartDate,
		EndDate:      i.EndDate,
		Status:       string(i.Status),
	}
}

// AllModels lists every model owned by the payout engine, in migration order
func AllModels() []any {
	return []any{
		&InvestmentModel{},
		&InvestmentDueModel{},
		&PayoutRecordModel{},
		&PayoutRejectionModel{},
		&WalletCreditModel{},
	}
}
