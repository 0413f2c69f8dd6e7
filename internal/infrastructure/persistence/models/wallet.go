package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletCreditModel is one entry in the built-in wallet ledger. Reference is
// unique so a replayed credit cannot insert a second row.
type WalletCreditModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reference string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time       `gorm:"not null"`
}

func (WalletCreditModel) TableName() string {
	return "wallet_credits"
}
