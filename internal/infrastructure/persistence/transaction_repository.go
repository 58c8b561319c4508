package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements payments.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM transaction repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds transactions with filtering
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter payments.TransactionFilter) ([]payments.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", payments.NormalizeCategory(*filter.Category))
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	query = r.applyFilter(query, filter.Filter)

	var transactionModels []models.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(transactionModels), nil
}

// FindMissingNetToOwner finds transactions whose net-to-owner amount has
// never been computed, oldest first
func (r *GormTransactionRepository) FindMissingNetToOwner(ctx context.Context, limit int) ([]payments.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("net_to_owner_amount IS NULL").
		Order("transaction_date ASC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var transactionModels []models.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(transactionModels), nil
}

// FindPotentialDuplicates finds transactions sharing date, amount,
// description, category and property with the given one
func (r *GormTransactionRepository) FindPotentialDuplicates(ctx context.Context, t *payments.Transaction) ([]payments.Transaction, error) {
	var transactionModels []models.TransactionModel
	err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("id <> ?", t.ID).
		Where("property_id = ?", t.PropertyID).
		Where("category = ?", t.Category).
		Where("amount = ?", t.Amount).
		Where("description = ?", t.Description).
		Where("transaction_date = ?", t.TransactionDate).
		Find(&transactionModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(transactionModels), nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, t *payments.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a transaction with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the stored version has moved on.
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, t *payments.Transaction) error {
	return saveTransactionWithLock(r.db.WithContext(ctx), t)
}

// saveTransactionWithLock is shared with the allocation repository, which
// updates transactions inside its own store transactions
func saveTransactionWithLock(db *gorm.DB, t *payments.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	result := db.Model(model).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, TransactionSortFields, "transaction_date")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func toDomainTransactions(transactionModels []models.TransactionModel) []payments.Transaction {
	transactions := make([]payments.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = *transactionModels[i].ToDomain()
	}
	return transactions
}
