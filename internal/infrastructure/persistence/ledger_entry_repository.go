package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/ledger"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormLedgerEntryRepository implements ledger.LedgerEntryRepository using
// GORM. Entry rows are append-only and always commit together with the
// cached balance they affect.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GORM ledger entry repository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append persists the entry and the updated balance atomically
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *ledger.LedgerEntry, balance *ledger.PropertyBalance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.LedgerEntryModelFromDomain(entry)).Error; err != nil {
			return err
		}
		return saveBalanceWithLock(tx, balance)
	})
}

// AppendTransferPair persists both transfer entries and both updated
// balances atomically: all four writes commit together or none do
func (r *GormLedgerEntryRepository) AppendTransferPair(ctx context.Context, out, in *ledger.LedgerEntry, from, to *ledger.PropertyBalance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.LedgerEntryModelFromDomain(out)).Error; err != nil {
			return err
		}
		if err := tx.Create(models.LedgerEntryModelFromDomain(in)).Error; err != nil {
			return err
		}
		if err := saveBalanceWithLock(tx, from); err != nil {
			return err
		}
		return saveBalanceWithLock(tx, to)
	})
}

// FindByProperty finds a property's entries, most recent first
func (r *GormLedgerEntryRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("property_id = ?", propertyID)
	if filter.EntryType != nil {
		query = query.Where("entry_type = ?", *filter.EntryType)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	query = r.applyFilter(query, filter.Filter)

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// LatestForProperty returns the most recent entry for a property
func (r *GormLedgerEntryRepository) LatestForProperty(ctx context.Context, propertyID uuid.UUID) (*ledger.LedgerEntry, error) {
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("entry_date DESC, created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LatestAsOf returns the most recent entry dated on or before the given date
func (r *GormLedgerEntryRepository) LatestAsOf(ctx context.Context, propertyID uuid.UUID, date time.Time) (*ledger.LedgerEntry, error) {
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND entry_date <= ?", propertyID, date).
		Order("entry_date DESC, created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountForProperty counts a property's entries
func (r *GormLedgerEntryRepository) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("property_id = ?", propertyID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindByBatch finds entries linked to a payment batch
func (r *GormLedgerEntryRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]ledger.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("payment_batch_id = ?", batchID).
		Order("entry_date ASC, created_at ASC").
		Find(&entryModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, LedgerEntrySortFields, "entry_date")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("created_at " + ValidateSortOrder(filter.OrderDir))
}

func toDomainEntries(entryModels []models.LedgerEntryModel) []ledger.LedgerEntry {
	entries := make([]ledger.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries
}
