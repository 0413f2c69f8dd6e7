package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletReceipt confirms a credit to an investor wallet
type WalletReceipt struct {
	TransactionID string
	Reference     string
	Amount        decimal.Decimal
	// Replayed is set when the reference had already been credited and the
	// original transaction was returned instead of crediting again
	Replayed bool
}

// Wallet credits investor wallets. Credit is idempotent by reference: a
// repeated reference never moves money twice.
type Wallet interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*WalletReceipt, error)
}
