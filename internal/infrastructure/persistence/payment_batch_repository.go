package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// GormPaymentBatchRepository implements payments.PaymentBatchRepository using GORM
type GormPaymentBatchRepository struct {
	db *gorm.DB
}

// NewGormPaymentBatchRepository creates a new GORM payment batch repository
func NewGormPaymentBatchRepository(db *gorm.DB) *GormPaymentBatchRepository {
	return &GormPaymentBatchRepository{db: db}
}

// FindByID finds a batch by ID
func (r *GormPaymentBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.PaymentBatch, error) {
	var model models.PaymentBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds a batch by its reference
func (r *GormPaymentBatchRepository) FindByReference(ctx context.Context, reference string) (*payments.PaymentBatch, error) {
	var model models.PaymentBatchModel
	if err := r.db.WithContext(ctx).First(&model, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create persists a new batch and assigns the given allocations to its
// reference in a single store transaction
func (r *GormPaymentBatchRepository) Create(ctx context.Context, batch *payments.PaymentBatch, allocationIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PaymentBatchModelFromDomain(batch)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(allocationIDs) == 0 {
			return nil
		}
		return tx.Model(&models.AllocationModel{}).
			Where("id IN ?", allocationIDs).
			Update("batch_reference", batch.Reference).Error
	})
}

// Save updates a batch
func (r *GormPaymentBatchRepository) Save(ctx context.Context, batch *payments.PaymentBatch) error {
	model := models.PaymentBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a batch with optimistic locking (version check)
func (r *GormPaymentBatchRepository) SaveWithLock(ctx context.Context, batch *payments.PaymentBatch) error {
	return saveBatchWithLock(r.db.WithContext(ctx), batch)
}

func saveBatchWithLock(db *gorm.DB, batch *payments.PaymentBatch) error {
	model := models.PaymentBatchModelFromDomain(batch)
	result := db.Model(model).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// MarkPaid persists a paid batch and cascades the paid status and date to
// every allocation referencing it, atomically
func (r *GormPaymentBatchRepository) MarkPaid(ctx context.Context, batch *payments.PaymentBatch, paidAt time.Time) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveBatchWithLock(tx, batch); err != nil {
			return err
		}
		result := tx.Model(&models.AllocationModel{}).
			Where("batch_reference = ? AND status = ?", batch.Reference, payments.AllocationStatusPending).
			Updates(map[string]interface{}{
				"status":  payments.AllocationStatusPaid,
				"paid_at": paidAt,
			})
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// FindNeedingPayment finds DRAFT and PENDING batches ordered by payment date
func (r *GormPaymentBatchRepository) FindNeedingPayment(ctx context.Context) ([]payments.PaymentBatch, error) {
	var batchModels []models.PaymentBatchModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", []payments.BatchStatus{payments.BatchStatusDraft, payments.BatchStatusPending}).
		Order("payment_date ASC").
		Find(&batchModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainBatches(batchModels), nil
}

// FindPendingOwnerPayments finds PENDING owner-payment batches
func (r *GormPaymentBatchRepository) FindPendingOwnerPayments(ctx context.Context) ([]payments.PaymentBatch, error) {
	var batchModels []models.PaymentBatchModel
	err := r.db.WithContext(ctx).
		Where("batch_type = ? AND status = ?", payments.BatchTypeOwnerPayment, payments.BatchStatusPending).
		Order("payment_date ASC").
		Find(&batchModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainBatches(batchModels), nil
}

// FindForBeneficiary finds batches for a beneficiary with filtering
func (r *GormPaymentBatchRepository) FindForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter payments.BatchFilter) ([]payments.PaymentBatch, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentBatchModel{}).
		Where("beneficiary_id = ?", beneficiaryID)
	if filter.BatchType != nil {
		query = query.Where("batch_type = ?", *filter.BatchType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeSource != "" {
		query = query.Where("source <> ?", filter.ExcludeSource)
	}
	query = r.applyFilter(query, filter.Filter)

	var batchModels []models.PaymentBatchModel
	if err := query.Find(&batchModels).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(batchModels), nil
}

// SumPaidForBeneficiary returns the total paid amount for a beneficiary
func (r *GormPaymentBatchRepository) SumPaidForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.PaymentBatchModel{}).
		Where("beneficiary_id = ? AND status = ?", beneficiaryID, payments.BatchStatusPaid).
		Select("COALESCE(SUM(total_payment), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// MaxReferenceSequence returns the highest reference sequence number among
// batches whose reference starts with datePrefix, 0 when none
func (r *GormPaymentBatchRepository) MaxReferenceSequence(ctx context.Context, datePrefix string) (int, error) {
	var references []string
	err := r.db.WithContext(ctx).Model(&models.PaymentBatchModel{}).
		Where("reference LIKE ?", datePrefix+"%").
		Pluck("reference", &references).Error
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

func (r *GormPaymentBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PaymentBatchSortFields, "payment_date")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func toDomainBatches(batchModels []models.PaymentBatchModel) []payments.PaymentBatch {
	batches := make([]payments.PaymentBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = *batchModels[i].ToDomain()
	}
	return batches
}
