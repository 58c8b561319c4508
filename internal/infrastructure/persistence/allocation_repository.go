package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormAllocationRepository implements payments.AllocationRepository using GORM.
// Allocation writes always travel with their owning transactions' allocated
// totals in a single store transaction, with a version check on each
// transaction row.
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GORM allocation repository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by ID
func (r *GormAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.Allocation, error) {
	var model models.AllocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds allocations by ID; missing ids are simply absent
func (r *GormAllocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]payments.Allocation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var allocationModels []models.AllocationModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByTransaction finds a transaction's allocations, oldest first
func (r *GormAllocationRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]payments.Allocation, error) {
	var allocationModels []models.AllocationModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&allocationModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByBatchReference finds a batch's allocations, oldest first
func (r *GormAllocationRepository) FindByBatchReference(ctx context.Context, reference string) ([]payments.Allocation, error) {
	var allocationModels []models.AllocationModel
	err := r.db.WithContext(ctx).
		Where("batch_reference = ?", reference).
		Order("created_at ASC").
		Find(&allocationModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// SumForBatch returns the signed sum of a batch's allocation amounts
func (r *GormAllocationRepository) SumForBatch(ctx context.Context, reference string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.AllocationModel{}).
		Where("batch_reference = ?", reference).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Create persists the allocation and the updated transaction atomically
func (r *GormAllocationRepository) Create(ctx context.Context, allocation *payments.Allocation, transaction *payments.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.AllocationModelFromDomain(allocation)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return saveTransactionWithLock(tx, transaction)
	})
}

// Delete hard deletes the allocations and persists the updated transactions
// atomically, returning the number of rows removed
func (r *GormAllocationRepository) Delete(ctx context.Context, allocations []payments.Allocation, transactions []*payments.Transaction) (int64, error) {
	if len(allocations) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, len(allocations))
	for i := range allocations {
		ids[i] = allocations[i].ID
	}

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id IN ?", ids).Delete(&models.AllocationModel{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		for _, transaction := range transactions {
			if err := saveTransactionWithLock(tx, transaction); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// MaxBatchSequence returns the highest reference sequence number among
// allocations whose batch reference starts with datePrefix, 0 when none
func (r *GormAllocationRepository) MaxBatchSequence(ctx context.Context, datePrefix string) (int, error) {
	var references []string
	err := r.db.WithContext(ctx).Model(&models.AllocationModel{}).
		Where("batch_reference LIKE ?", datePrefix+"%").
		Distinct().
		Pluck("batch_reference", &references).Error
	if err != nil {
		return 0, err
	}

	max := 0
	for _, reference := range references {
		if seq := payments.ReferenceSequence(reference); seq > max {
			max = seq
		}
	}
	return max, nil
}

func toDomainAllocations(allocationModels []models.AllocationModel) []payments.Allocation {
	allocations := make([]payments.Allocation, len(allocationModels))
	for i := range allocationModels {
		allocations[i] = *allocationModels[i].ToDomain()
	}
	return allocations
}
