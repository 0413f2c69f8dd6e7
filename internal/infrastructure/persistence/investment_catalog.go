package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvestmentCatalog reads investment offerings from the investments table
type GormInvestmentCatalog struct {
	db *gorm.DB
}

func NewGormInvestmentCatalog(db *gorm.DB) *GormInvestmentCatalog {
	return &GormInvestmentCatalog{db: db}
}

func (c *GormInvestmentCatalog) GetByID(ctx context.Context, id uuid.UUID) (*payout.Investment, error) {
	var model models.InvestmentModel
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payout.ErrInvestmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads investments in one query; unknown IDs are left out of the map
func (c *GormInvestmentCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*payout.Investment, error) {
	result := make(map[uuid.UUID]*payout.Investment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.InvestmentModel
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// Save upserts an investment. The engine never edits the catalog; seeding
// and tests use it.
func (c *GormInvestmentCatalog) Save(ctx context.Context, inv *payout.Investment) error {
	return c.db.WithContext(ctx).Save(models.InvestmentModelFromDomain(inv)).Error
}

var _ payout.InvestmentCatalog = (*GormInvestmentCatalog)(nil)
