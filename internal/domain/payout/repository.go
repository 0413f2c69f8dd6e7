package payout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/shared"
)

// InvestmentDueFilter defines listing options for investment dues
type InvestmentDueFilter struct {
	shared.Filter
	Status    *PayoutStatus // nil lists every status
	StartDate *time.Time    // inclusive lower bound on next_payout_date
	EndDate   *time.Time    // inclusive upper bound on next_payout_date
	// Bounds translate Status into date ranges; required when Status is set
	Bounds StatusBounds
}

// InvestmentDueRepository persists InvestmentDue aggregates
type InvestmentDueRepository interface {
	// FindByID finds a due by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InvestmentDue, error)

	// FindByIDForUpdate finds a due by ID and locks its row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*InvestmentDue, error)

	// FindAll lists dues ordered by next payout date ascending
	FindAll(ctx context.Context, filter InvestmentDueFilter) ([]InvestmentDue, error)

	// Count counts dues matching the filter, ignoring pagination
	Count(ctx context.Context, filter InvestmentDueFilter) (int64, error)

	// ExistsForInvestor reports whether the investor already holds a due in the investment
	ExistsForInvestor(ctx context.Context, userID, investmentID uuid.UUID) (bool, error)

	// Create inserts a new due
	Create(ctx context.Context, due *InvestmentDue) error

	// SaveWithLock updates a due with an optimistic version check
	SaveWithLock(ctx context.Context, due *InvestmentDue) error

	// StreamAll visits every due in batches of batchSize
	StreamAll(ctx context.Context, batchSize int, fn func(batch []InvestmentDue) error) error
}

// PayoutRecordRepository persists approved occurrences
type PayoutRecordRepository interface {
	Create(ctx context.Context, record *PayoutRecord) error
	ExistsForPeriod(ctx context.Context, dueID uuid.UUID, period int) (bool, error)
	FindByDueID(ctx context.Context, dueID uuid.UUID) ([]PayoutRecord, error)
}

// PayoutRejectionRepository persists rejection records
type PayoutRejectionRepository interface {
	Create(ctx context.Context, rejection *PayoutRejection) error
	FindByDueID(ctx context.Context, dueID uuid.UUID) ([]PayoutRejection, error)
}

// InvestmentCatalog is the read-only view of investment offerings
type InvestmentCatalog interface {
	// GetByID returns ErrInvestmentNotFound when the investment does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Investment, error)

	// FindByIDs returns the investments found, keyed by ID; missing IDs are omitted
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Investment, error)
}
