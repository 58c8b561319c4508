package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
)

// PaymentBatchService groups pending allocations into payment batches and
// drives the batch lifecycle: DRAFT -> PENDING -> PAID, with an optional
// manual balance adjustment before settlement. Marking a batch paid cascades
// to its allocations in one store transaction.
type PaymentBatchService struct {
	batches     payments.PaymentBatchRepository
	allocations payments.AllocationRepository
	owners      property.OwnerDirectory
	settings    shared.SettingsProvider
	logger      *zap.Logger
}

// NewPaymentBatchService creates a new PaymentBatchService
func NewPaymentBatchService(
	batches payments.PaymentBatchRepository,
	allocations payments.AllocationRepository,
	owners property.OwnerDirectory,
	settings shared.SettingsProvider,
	logger *zap.Logger,
) *PaymentBatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentBatchService{
		batches:     batches,
		allocations: allocations,
		owners:      owners,
		settings:    settings,
		logger:      logger,
	}
}

// CreateBatch groups the selected allocations into a new DRAFT batch for one
// beneficiary. Every selected allocation must exist, be pending and not yet
// belong to a batch; for owner-payment batches each allocation's property
// must resolve to the named beneficiary. The batch reference is generated and
// assigned to all allocations atomically. TotalAllocations is the signed sum
// of the selection, so a selection mixing payments and reversals nets out.
func (s *PaymentBatchService) CreateBatch(
	ctx context.Context,
	batchType payments.BatchType,
	beneficiaryID uuid.UUID,
	beneficiaryName string,
	allocationIDs []uuid.UUID,
	paymentDate time.Time,
	actor uuid.UUID,
) (*payments.PaymentBatch, error) {
	if len(allocationIDs) == 0 {
		return nil, shared.NewDomainError(payments.CodeEmptySelection, "At least one allocation must be selected")
	}

	allocations, err := s.allocations.FindByIDs(ctx, allocationIDs)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, shared.NewDomainError(payments.CodeEmptySelection, "None of the selected allocations exist")
	}
	if len(allocations) != len(allocationIDs) {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("%d of %d selected allocations do not exist", len(allocationIDs)-len(allocations), len(allocationIDs)))
	}

	total := decimal.Zero
	seenRefs := make(map[string]bool)
	seenProps := make(map[uuid.UUID]bool)
	for i := range allocations {
		allocation := &allocations[i]
		if !allocation.IsPending() {
			return nil, shared.NewDomainError(payments.CodeNotPending, fmt.Sprintf("Allocation %s is %s, only pending allocations can be batched", allocation.ID, allocation.Status))
		}
		if !seenRefs[allocation.BatchReference] {
			seenRefs[allocation.BatchReference] = true
			if err := s.ensureUnbatched(ctx, allocation.BatchReference); err != nil {
				return nil, err
			}
		}
		if batchType == payments.BatchTypeOwnerPayment && !seenProps[allocation.PropertyID] {
			seenProps[allocation.PropertyID] = true
			owner, err := s.owners.OwnerOf(ctx, allocation.PropertyID)
			if err != nil {
				return nil, err
			}
			if owner.ID != beneficiaryID {
				return nil, shared.NewDomainError("BENEFICIARY_MISMATCH", fmt.Sprintf("Property %s belongs to a different owner than the batch beneficiary", allocation.PropertyID))
			}
		}
		total = total.Add(allocation.Amount)
	}

	reference, err := s.GenerateReference(ctx, paymentDate)
	if err != nil {
		return nil, err
	}

	batch, err := payments.NewPaymentBatch(reference, batchType, beneficiaryID, beneficiaryName, total, paymentDate, actor)
	if err != nil {
		return nil, err
	}
	if err := s.batches.Create(ctx, batch, allocationIDs); err != nil {
		return nil, err
	}

	s.logger.Info("payment batch created",
		zap.String("reference", batch.Reference),
		zap.String("batch_type", string(batch.BatchType)),
		zap.Int("allocations", len(allocationIDs)),
		zap.String("total", total.StringFixed(2)),
	)
	return batch, nil
}

// ensureUnbatched fails when the reference already names an existing batch
func (s *PaymentBatchService) ensureUnbatched(ctx context.Context, reference string) error {
	_, err := s.batches.FindByReference(ctx, reference)
	if err == nil {
		return shared.NewDomainError(payments.CodeNotPending, fmt.Sprintf("Allocations under %s already belong to a batch", reference))
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// AddBalanceAdjustment records a manual signed adjustment on a batch. The
// adjusted total is persisted under a version check so two concurrent edits
// cannot both land.
func (s *PaymentBatchService) AddBalanceAdjustment(
	ctx context.Context,
	batchID uuid.UUID,
	amount decimal.Decimal,
	source payments.AdjustmentSource,
	notes string,
) (*payments.PaymentBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.AddBalanceAdjustment(amount, source, notes); err != nil {
		return nil, err
	}
	if err := s.batches.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkPending approves a DRAFT batch for payment
func (s *PaymentBatchService) MarkPending(ctx context.Context, batchID uuid.UUID) (*payments.PaymentBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.MarkPending(); err != nil {
		return nil, err
	}
	if err := s.batches.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkPaid settles a batch: the batch and every allocation referencing it
// move to PAID with the given date in a single store transaction. Paying an
// already-paid batch fails without touching anything.
func (s *PaymentBatchService) MarkPaid(
	ctx context.Context,
	batchID uuid.UUID,
	paidDate time.Time,
	paymentReference string,
) (*payments.PaymentBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.MarkPaid(paidDate, paymentReference); err != nil {
		return nil, err
	}

	updated, err := s.batches.MarkPaid(ctx, batch, paidDate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment batch paid",
		zap.String("reference", batch.Reference),
		zap.Time("paid_date", paidDate),
		zap.Int64("allocations_settled", updated),
	)
	return batch, nil
}

// GenerateReference builds the next batch reference for the given date:
// {PREFIX}-{YYYYMMDD}-{seq:04d}, where the sequence continues from the
// highest one already used on that date. Allocations can be staged under a
// reference before any batch row exists, so the sequence is taken over both
// batch references and allocation batch references; a generator reading only
// one side could mint a reference already staged on the other and silently
// sweep foreign allocations into the new batch.
func (s *PaymentBatchService) GenerateReference(ctx context.Context, date time.Time) (string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	datePrefix := payments.ReferenceDatePrefix(settings.BatchPrefix, date)
	maxSeq, err := s.batches.MaxReferenceSequence(ctx, datePrefix)
	if err != nil {
		return "", err
	}
	staged, err := s.allocations.MaxBatchSequence(ctx, datePrefix)
	if err != nil {
		return "", err
	}
	if staged > maxSeq {
		maxSeq = staged
	}
	return payments.FormatReference(settings.BatchPrefix, date, maxSeq+1), nil
}

// Batch finds a batch by ID
func (s *PaymentBatchService) Batch(ctx context.Context, batchID uuid.UUID) (*payments.PaymentBatch, error) {
	return s.batches.FindByID(ctx, batchID)
}

// BatchByReference finds a batch by reference
func (s *PaymentBatchService) BatchByReference(ctx context.Context, reference string) (*payments.PaymentBatch, error) {
	return s.batches.FindByReference(ctx, reference)
}

// NeedingPayment lists DRAFT and PENDING batches, earliest payment date first
func (s *PaymentBatchService) NeedingPayment(ctx context.Context) ([]payments.PaymentBatch, error) {
	return s.batches.FindNeedingPayment(ctx)
}

// PendingOwnerPayments lists owner-payment batches awaiting settlement
func (s *PaymentBatchService) PendingOwnerPayments(ctx context.Context) ([]payments.PaymentBatch, error) {
	return s.batches.FindPendingOwnerPayments(ctx)
}

// ForBeneficiary lists a beneficiary's batches. Callers that only want runs
// this engine is responsible for set filter.ExcludeSource to
// payments.BatchSourceExternalSync; an empty exclusion returns everything.
func (s *PaymentBatchService) ForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter payments.BatchFilter) ([]payments.PaymentBatch, error) {
	return s.batches.FindForBeneficiary(ctx, beneficiaryID, filter)
}

// TotalPaidForBeneficiary sums the settled payment totals for a beneficiary
func (s *PaymentBatchService) TotalPaidForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (decimal.Decimal, error) {
	return s.batches.SumPaidForBeneficiary(ctx, beneficiaryID)
}
