package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/shopspring/decimal"
)

// InvestmentDueModel is the persistence model for the InvestmentDue aggregate
type InvestmentDueModel struct {
	AggregateModel
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_investment_dues_user_investment,priority:1"`
	InvestorName    string    `gorm:"type:varchar(200);not null;default:''"`
	InvestorEmail   string    `gorm:"type:varchar(200);not null;default:''"`
	InvestmentID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_investment_dues_user_investment,priority:2"`
	InvestmentTitle string    `gorm:"type:varchar(255);not null;default:''"`

	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ExpectedReturn decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ActualReturn   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	TotalPayouts        int             `gorm:"not null"`
	CompletedPayouts    int             `gorm:"not null;default:0"`
	CurrentPayoutPeriod int             `gorm:"not null;default:1"`
	PayoutAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NextPayoutDate      time.Time       `gorm:"not null;index"`

	Frequency    string    `gorm:"type:varchar(20);not null"`
	PeriodMonths int       `gorm:"not null"`
	StartDate    time.Time `gorm:"not null"`
	EndDate      time.Time `gorm:"not null"`

	CompletedAt *time.Time
}

func (InvestmentDueModel) TableName() string {
	return "investment_dues"
}

// ToDomain converts the model to a domain InvestmentDue
func (m *InvestmentDueModel) ToDomain() *payout.InvestmentDue {
	return &payout.InvestmentDue{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		UserID:              m.UserID,
		InvestorName:        m.InvestorName,
		InvestorEmail:       m.InvestorEmail,
		InvestmentID:        m.InvestmentID,
		InvestmentTitle:     m.InvestmentTitle,
		Amount:              m.Amount,
		ExpectedReturn:      m.ExpectedReturn,
		ActualReturn:        m.ActualReturn,
		TotalPayouts:        m.TotalPayouts,
		CompletedPayouts:    m.CompletedPayouts,
		CurrentPayoutPeriod: m.CurrentPayoutPeriod,
		PayoutAmount:        m.PayoutAmount,
		NextPayoutDate:      m.NextPayoutDate,
		Frequency:           payout.PayoutFrequency(m.Frequency),
		PeriodMonths:        m.PeriodMonths,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		CompletedAt:         m.CompletedAt,
	}
}

// InvestmentDueModelFromDomain converts a domain InvestmentDue to its model
func InvestmentDueModelFromDomain(d *payout.InvestmentDue) *InvestmentDueModel {
	m := &InvestmentDueModel{
		UserID:              d.UserID,
		InvestorName:        d.InvestorName,
		InvestorEmail:       d.InvestorEmail,
		InvestmentID:        d.InvestmentID,
		InvestmentTitle:     d.InvestmentTitle,
		Amount:              d.Amount,
		ExpectedReturn:      d.ExpectedReturn,
		ActualReturn:        d.ActualReturn,
		TotalPayouts:        d.TotalPayouts,
		CompletedPayouts:    d.CompletedPayouts,
		CurrentPayoutPeriod: d.CurrentPayoutPeriod,
		PayoutAmount:        d.PayoutAmount,
		NextPayoutDate:      d.NextPayoutDate,
		Frequency:           string(d.Frequency),
		PeriodMonths:        d.PeriodMonths,
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		CompletedAt:         d.CompletedAt,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// PayoutRecordModel stores one approved occurrence. The unique (due_id, period)
// index makes a second approval of the same occurrence fail at the database.
type PayoutRecordModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DueID               uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payout_records_due_period,priority:1"`
	Period              int             `gorm:"not null;uniqueIndex:idx_payout_records_due_period,priority:2"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	WalletReference     string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	WalletTransactionID string          `gorm:"type:varchar(100)"`
	Notes               string          `gorm:"type:text"`
	ApprovedBy          uuid.UUID       `gorm:"type:uuid;not null"`
	ApprovedAt          time.Time       `gorm:"not null"`
}

func (PayoutRecordModel) TableName() string {
	return "payout_records"
}

func (m *PayoutRecordModel) ToDomain() *payout.PayoutRecord {
	return &payout.PayoutRecord{
		ID:                  m.ID,
		DueID:               m.DueID,
		Period:              m.Period,
		Amount:              m.Amount,
		WalletReference:     m.WalletReference,
		WalletTransactionID: m.WalletTransactionID,
		Notes:               m.Notes,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
	}
}

func PayoutRecordModelFromDomain(r *payout.PayoutRecord) *PayoutRecordModel {
	return &PayoutRecordModel{
		ID:                  r.ID,
		DueID:               r.DueID,
		Period:              r.Period,
		Amount:              r.Amount,
		WalletReference:     r.WalletReference,
		WalletTransactionID: r.WalletTransactionID,
		Notes:               r.Notes,
		ApprovedBy:          r.ApprovedBy,
		ApprovedAt:          r.ApprovedAt,
	}
}

// PayoutRejectionModel stores an admin rejection of an occurrence
type PayoutRejectionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DueID      uuid.UUID `gorm:"type:uuid;not null;index:idx_payout_rejections_due_period,priority:1"`
	Period     int       `gorm:"not null;index:idx_payout_rejections_due_period,priority:2"`
	Reason     string    `gorm:"type:varchar(500);not null"`
	RejectedBy uuid.UUID `gorm:"type:uuid;not null"`
	RejectedAt time.Time `gorm:"not null"`
}

func (PayoutRejectionModel) TableName() string {
	return "payout_rejections"
}

func (m *PayoutRejectionModel) ToDomain() *payout.PayoutRejection {
	return &payout.PayoutRejection{
		ID:         m.ID,
		DueID:      m.DueID,
		Period:     m.Period,
		Reason:     m.Reason,
		RejectedBy: m.RejectedBy,
		RejectedAt: m.RejectedAt,
	}
}

func PayoutRejectionModelFromDomain(r *payout.PayoutRejection) *PayoutRejectionModel {
	return &PayoutRejectionModel{
		ID:         r.ID,
		DueID:      r.DueID,
		Period:     r.Period,
		Reason:     r.Reason,
		RejectedBy: r.RejectedBy,
		RejectedAt: r.RejectedAt,
	}
}
