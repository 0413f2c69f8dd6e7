package persistence

import (
	"context"

	apppayout "github.com/payout/backend/internal/application/payout"
	"github.com/payout/backend/internal/domain/payout"
	"gorm.io/gorm"
)

// GormTransactionScope implements apppayout.TransactionScope using GORM transactions
type GormTransactionScope struct {
	db     *gorm.DB
	wallet payout.Wallet
}

// NewGormTransactionScope creates a scope whose wallet is the in-transaction
// ledger. Use WithExternalWallet to credit through another service instead.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// WithExternalWallet makes every transaction use w instead of the ledger
func (s *GormTransactionScope) WithExternalWallet(w payout.Wallet) *GormTransactionScope {
	return &GormTransactionScope{db: s.db, wallet: w}
}

// Execute runs fn in one database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apppayout.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, wallet: s.wallet})
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	wallet payout.Wallet
}

func (r *gormTransactionalRepositories) DueRepo() payout.InvestmentDueRepository {
	return NewGormInvestmentDueRepository(r.tx)
}

func (r *gormTransactionalRepositories) RecordRepo() payout.PayoutRecordRepository {
	return NewGormPayoutRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) RejectionRepo() payout.PayoutRejectionRepository {
	return NewGormPayoutRejectionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Catalog() payout.InvestmentCatalog {
	return NewGormInvestmentCatalog(r.tx)
}

func (r *gormTransactionalRepositories) Wallet() payout.Wallet {
	if r.wallet != nil {
		return r.wallet
	}
	return NewGormWalletLedger(r.tx)
}

var (
	_ apppayout.TransactionScope          = (*GormTransactionScope)(nil)
	_ apppayout.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
