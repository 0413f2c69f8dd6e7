package payout

import (
	"context"
	"time"

	"github.com/payout/backend/internal/domain/payout"
)

// TransactionScope runs approve and reject decisions atomically. Every
// repository handed to fn shares one database transaction; an error from fn
// rolls all of it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to one transaction
type TransactionalRepositories interface {
	DueRepo() payout.InvestmentDueRepository
	RecordRepo() payout.PayoutRecordRepository
	RejectionRepo() payout.PayoutRejectionRepository
	// Catalog reads investments on the transaction's connection
	Catalog() payout.InvestmentCatalog
	// Wallet is the ledger bound to the transaction, or the external wallet
	// client when credits are made by another service
	Wallet() payout.Wallet
}

// OccurrenceLocker serializes decisions on one payout occurrence across
// instances. TryLock reports ok=false when another holder owns key.
type OccurrenceLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Clock returns the current time; tests substitute a fixed one
type Clock func() time.Time
