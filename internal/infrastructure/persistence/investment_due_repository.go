package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/payout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultStreamBatchSize is the batch size used by StreamAll when none is given
const DefaultStreamBatchSize = 500

// GormInvestmentDueRepository implements payout.InvestmentDueRepository using GORM
type GormInvestmentDueRepository struct {
	db *gorm.DB
}

func NewGormInvestmentDueRepository(db *gorm.DB) *GormInvestmentDueRepository {
	return &GormInvestmentDueRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormInvestmentDueRepository) WithTx(tx *gorm.DB) *GormInvestmentDueRepository {
	return &GormInvestmentDueRepository{db: tx}
}

// FindByID finds a due by its ID
func (r *GormInvestmentDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.InvestmentDue, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate reads the due with SELECT ... FOR UPDATE. It must run
// inside a transaction for the lock to outlive the statement.
func (r *GormInvestmentDueRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payout.InvestmentDue, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *GormInvestmentDueRepository) findByID(db *gorm.DB, id uuid.UUID) (*payout.InvestmentDue, error) {
	var model models.InvestmentDueModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payout.ErrDueNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists dues matching the filter, ordered by next payout date then ID
func (r *GormInvestmentDueRepository) FindAll(ctx context.Context, filter payout.InvestmentDueFilter) ([]payout.InvestmentDue, error) {
	var dueModels []models.InvestmentDueModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvestmentDueModel{}), filter)
	query = r.applyOrder(query, filter.Filter)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&dueModels).Error; err != nil {
		return nil, err
	}

	dues := make([]payout.InvestmentDue, len(dueModels))
	for i := range dueModels {
		dues[i] = *dueModels[i].ToDomain()
	}
	return dues, nil
}

// Count counts dues matching the filter
func (r *GormInvestmentDueRepository) Count(ctx context.Context, filter payout.InvestmentDueFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvestmentDueModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsForInvestor reports whether userID already holds a due in investmentID
func (r *GormInvestmentDueRepository) ExistsForInvestor(ctx context.Context, userID, investmentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvestmentDueModel{}).
		Where("user_id = ? AND investment_id = ?", userID, investmentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new due
func (r *GormInvestmentDueRepository) Create(ctx context.Context, due *payout.InvestmentDue) error {
	model := models.InvestmentDueModelFromDomain(due)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Investor already has a due for this investment")
		}
		return err
	}
	return nil
}

// SaveWithLock saves a due with optimistic locking. The aggregate has already
// incremented its version, so the stored row must still carry Version-1.
func (r *GormInvestmentDueRepository) SaveWithLock(ctx context.Context, due *payout.InvestmentDue) error {
	model := models.InvestmentDueModelFromDomain(due)
	result := r.db.WithContext(ctx).
		Model(&models.InvestmentDueModel{}).
		Where("id = ? AND version = ?", due.ID, due.Version-1).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// StreamAll visits every due ordered by ID in batches of batchSize
func (r *GormInvestmentDueRepository) StreamAll(ctx context.Context, batchSize int, fn func(batch []payout.InvestmentDue) error) error {
	if batchSize <= 0 {
		batchSize = DefaultStreamBatchSize
	}
	var batch []models.InvestmentDueModel
	result := r.db.WithContext(ctx).Model(&models.InvestmentDueModel{}).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			dues := make([]payout.InvestmentDue, len(batch))
			for i := range batch {
				dues[i] = *batch[i].ToDomain()
			}
			return fn(dues)
		})
	if result.Error != nil {
		return fmt.Errorf("stream investment dues: %w", result.Error)
	}
	return nil
}

func (r *GormInvestmentDueRepository) applyFilter(query *gorm.DB, filter payout.InvestmentDueFilter) *gorm.DB {
	if filter.Status != nil {
		query = applyStatusBounds(query, *filter.Status, filter.Bounds)
	}
	if filter.StartDate != nil {
		query = query.Where("next_payout_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("next_payout_date <= ?", *filter.EndDate)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(investor_name) LIKE ? ESCAPE '\\' OR LOWER(investor_email) LIKE ? ESCAPE '\\' OR LOWER(investment_title) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}
	return query
}

// applyStatusBounds translates a derived status into SQL. The boundaries come
// from the same ClassifierPolicy that classifies single records.
func applyStatusBounds(query *gorm.DB, status payout.PayoutStatus, b payout.StatusBounds) *gorm.DB {
	if status == payout.PayoutStatusCompleted {
		return query.Where("completed_payouts >= total_payouts")
	}
	query = query.Where("completed_payouts < total_payouts")
	switch status {
	case payout.PayoutStatusNotDue:
		return query.Where("next_payout_date > ?", b.Now)
	case payout.PayoutStatusPending:
		return query.Where("next_payout_date >= ? AND next_payout_date <= ?", b.OverdueCutoff, b.Now)
	case payout.PayoutStatusOverdue:
		return query.Where("next_payout_date < ?", b.OverdueCutoff)
	}
	return query
}

func (r *GormInvestmentDueRepository) applyOrder(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return query.Order(InvestmentDueSortColumns.Clause(filter)).Order("id ASC")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ payout.InvestmentDueRepository = (*GormInvestmentDueRepository)(nil)
