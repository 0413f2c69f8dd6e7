package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWalletLedger is the built-in wallet: credits are rows in wallet_credits,
// written in the caller's transaction so they commit or roll back with the
// payout itself.
type GormWalletLedger struct {
	db *gorm.DB
}

func NewGormWalletLedger(db *gorm.DB) *GormWalletLedger {
	return &GormWalletLedger{db: db}
}

// Credit records a credit under reference. A reference that was already
// credited returns the original entry with Replayed set.
func (l *GormWalletLedger) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*payout.WalletReceipt, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("wallet credit amount must be positive, got %s", amount)
	}
	if reference == "" {
		return nil, fmt.Errorf("wallet credit reference is required")
	}

	existing, err := l.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != userID || !existing.Amount.Equal(amount) {
			return nil, fmt.Errorf("wallet reference %s was already used for a different credit", reference)
		}
		return receiptFor(existing, true), nil
	}

	entry := &models.WalletCreditModel{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
		CreatedAt: time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record wallet credit: %w", err)
	}
	return receiptFor(entry, false), nil
}

// BalanceOf sums the credits of userID
func (l *GormWalletLedger) BalanceOf(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var credits []models.WalletCreditModel
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Find(&credits).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range credits {
		total = total.Add(c.Amount)
	}
	return total, nil
}

// findByReference returns nil, nil when reference has not been credited yet
func (l *GormWalletLedger) findByReference(ctx context.Context, reference string) (*models.WalletCreditModel, error) {
	var entry models.WalletCreditModel
	result := l.db.WithContext(ctx).Where("reference = ?", reference).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to look up wallet reference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

func receiptFor(m *models.WalletCreditModel, replayed bool) *payout.WalletReceipt {
	return &payout.WalletReceipt{
		TransactionID: m.ID.String(),
		Reference:     m.Reference,
		Amount:        m.Amount,
		Replayed:      replayed,
	}
}

var _ payout.Wallet = (*GormWalletLedger)(nil)
