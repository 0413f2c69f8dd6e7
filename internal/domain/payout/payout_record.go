package payout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRecord is the receipt of one approved occurrence
type PayoutRecord struct {
	ID                  uuid.UUID       `json:"id"`
	DueID               uuid.UUID       `json:"due_id"`
	Period              int             `json:"period"`
	Amount              decimal.Decimal `json:"amount"`
	WalletReference     string          `json:"wallet_reference"`
	WalletTransactionID string          `json:"wallet_transaction_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	ApprovedBy          uuid.UUID       `json:"approved_by"`
	ApprovedAt          time.Time       `json:"approved_at"`
}

// OccurrenceReference is the idempotency reference of one occurrence,
// shared by the wallet credit and the occurrence lock.
func OccurrenceReference(dueID uuid.UUID, period int) string {
	return fmt.Sprintf("payout:%s:%d", dueID, period)
}
