package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPayoutRecordRepository implements payout.PayoutRecordRepository using GORM
type GormPayoutRecordRepository struct {
	db *gorm.DB
}

func NewGormPayoutRecordRepository(db *gorm.DB) *GormPayoutRecordRepository {
	return &GormPayoutRecordRepository{db: db}
}

// Create inserts a payout record. A second record for the same occurrence
// violates idx_payout_records_due_period and is reported as ErrOccurrenceSettled.
func (r *GormPayoutRecordRepository) Create(ctx context.Context, record *payout.PayoutRecord) error {
	if err := r.db.WithContext(ctx).Create(models.PayoutRecordModelFromDomain(record)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return payout.ErrOccurrenceSettled
		}
		return err
	}
	return nil
}

func (r *GormPayoutRecordRepository) ExistsForPeriod(ctx context.Context, dueID uuid.UUID, period int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PayoutRecordModel{}).
		Where("due_id = ? AND period = ?", dueID, period).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByDueID returns the payout history of a due, oldest period first
func (r *GormPayoutRecordRepository) FindByDueID(ctx context.Context, dueID uuid.UUID) ([]payout.PayoutRecord, error) {
	var rows []models.PayoutRecordModel
	if err := r.db.WithContext(ctx).
		Where("due_id = ?", dueID).
		Order("period ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]payout.PayoutRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// GormPayoutRejectionRepository implements payout.PayoutRejectionRepository using GORM
type GormPayoutRejectionRepository struct {
	db *gorm.DB
}

func NewGormPayoutRejectionRepository(db *gorm.DB) *GormPayoutRejectionRepository {
	return &GormPayoutRejectionRepository{db: db}
}

func (r *GormPayoutRejectionRepository) Create(ctx context.Context, rejection *payout.PayoutRejection) error {
	return r.db.WithContext(ctx).Create(models.PayoutRejectionModelFromDomain(rejection)).Error
}

// FindByDueID returns the rejections of a due, newest first
func (r *GormPayoutRejectionRepository) FindByDueID(ctx context.Context, dueID uuid.UUID) ([]payout.PayoutRejection, error) {
	var rows []models.PayoutRejectionModel
	if err := r.db.WithContext(ctx).
		Where("due_id = ?", dueID).
		Order("rejected_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	rejections := make([]payout.PayoutRejection, len(rows))
	for i := range rows {
		rejections[i] = *rows[i].ToDomain()
	}
	return rejections, nil
}

var (
	_ payout.PayoutRecordRepository    = (*GormPayoutRecordRepository)(nil)
	_ payout.PayoutRejectionRepository = (*GormPayoutRejectionRepository)(nil)
)
