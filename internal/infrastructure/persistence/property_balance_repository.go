package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/ledger"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormPropertyBalanceRepository implements ledger.PropertyBalanceRepository
// using GORM
type GormPropertyBalanceRepository struct {
	db *gorm.DB
}

// NewGormPropertyBalanceRepository creates a new GORM property balance repository
func NewGormPropertyBalanceRepository(db *gorm.DB) *GormPropertyBalanceRepository {
	return &GormPropertyBalanceRepository{db: db}
}

// FindByProperty finds the balance aggregate for a property
func (r *GormPropertyBalanceRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID) (*ledger.PropertyBalance, error) {
	var model models.PropertyBalanceModel
	if err := r.db.WithContext(ctx).First(&model, "property_id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a balance aggregate
func (r *GormPropertyBalanceRepository) Save(ctx context.Context, balance *ledger.PropertyBalance) error {
	model := models.PropertyBalanceModelFromDomain(balance)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a balance with optimistic locking (version check)
func (r *GormPropertyBalanceRepository) SaveWithLock(ctx context.Context, balance *ledger.PropertyBalance) error {
	return saveBalanceWithLock(r.db.WithContext(ctx), balance)
}

// saveBalanceWithLock updates the balance row with a version check, creating
// it when the property has never had one. Shared with the ledger entry
// repository, which commits balances alongside entry rows.
func saveBalanceWithLock(db *gorm.DB, balance *ledger.PropertyBalance) error {
	model := models.PropertyBalanceModelFromDomain(balance)
	result := db.Model(model).
		Where("id = ? AND version = ?", balance.ID, balance.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// No row matched: either a fresh balance or a stale version. The unique
	// index on property_id catches concurrent first writes.
	var count int64
	if err := db.Model(&models.PropertyBalanceModel{}).Where("id = ?", balance.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	return db.Create(model).Error
}
