package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/shared"
)

// TransactionFilter defines filtering options for transaction queries
type TransactionFilter struct {
	shared.Filter
	PropertyID *uuid.UUID
	Category   *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	// FindByID finds a transaction by ID, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindAll finds transactions with filtering
	FindAll(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// FindMissingNetToOwner finds transactions whose net-to-owner amount has
	// never been computed, oldest first. Used by backfill runs.
	FindMissingNetToOwner(ctx context.Context, limit int) ([]Transaction, error)

	// FindPotentialDuplicates finds transactions sharing date, amount,
	// description, category and property with the given one. Advisory only.
	FindPotentialDuplicates(ctx context.Context, t *Transaction) ([]Transaction, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, t *Transaction) error

	// SaveWithLock saves with optimistic locking (version check); returns
	// shared.ErrConcurrencyConflict when the stored version has moved on
	SaveWithLock(ctx context.Context, t *Transaction) error
}

// AllocationRepository defines the interface for allocation persistence.
//
// Allocations are only ever written together with their owning transaction's
// allocated total: Create and Delete commit both sides in a single store
// transaction, with a version check on each Transaction, so the conservation
// invariant holds even under concurrent allocation attempts.
type AllocationRepository interface {
	// FindByID finds an allocation by ID, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Allocation, error)

	// FindByIDs finds allocations by ID; missing ids are simply absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Allocation, error)

	// FindByTransaction finds a transaction's allocations, oldest first
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]Allocation, error)

	// FindByBatchReference finds a batch's allocations, oldest first
	FindByBatchReference(ctx context.Context, reference string) ([]Allocation, error)

	// SumForBatch returns the signed sum of a batch's allocation amounts
	SumForBatch(ctx context.Context, reference string) (decimal.Decimal, error)

	// Create persists the allocation and the updated transaction atomically
	Create(ctx context.Context, allocation *Allocation, transaction *Transaction) error

	// Delete hard deletes the allocations and persists the updated
	// transactions atomically, returning the number of rows removed
	Delete(ctx context.Context, allocations []Allocation, transactions []*Transaction) (int64, error)

	// MaxBatchSequence returns the highest reference sequence number among
	// allocations whose batch reference starts with datePrefix, 0 when none
	MaxBatchSequence(ctx context.Context, datePrefix string) (int, error)
}

// BatchFilter defines filtering options for payment batch queries
type BatchFilter struct {
	shared.Filter
	BatchType     *BatchType
	Status        *BatchStatus
	ExcludeSource string // skip batches with this origin tag, e.g. external_sync
}

// PaymentBatchRepository defines the interface for payment batch persistence
type PaymentBatchRepository interface {
	// FindByID finds a batch by ID, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentBatch, error)

	// FindByReference finds a batch by its reference, or shared.ErrNotFound
	FindByReference(ctx context.Context, reference string) (*PaymentBatch, error)

	// Create persists a new batch and assigns the given allocations to its
	// reference in a single store transaction
	Create(ctx context.Context, batch *PaymentBatch, allocationIDs []uuid.UUID) error

	// Save updates a batch
	Save(ctx context.Context, batch *PaymentBatch) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, batch *PaymentBatch) error

	// MarkPaid persists a paid batch and cascades the paid status and date
	// to every allocation referencing it, atomically. Returns the number of
	// allocations updated.
	MarkPaid(ctx context.Context, batch *PaymentBatch, paidAt time.Time) (int64, error)

	// FindNeedingPayment finds DRAFT and PENDING batches ordered by payment
	// date ascending
	FindNeedingPayment(ctx context.Context) ([]PaymentBatch, error)

	// FindPendingOwnerPayments finds PENDING owner-payment batches
	FindPendingOwnerPayments(ctx context.Context) ([]PaymentBatch, error)

	// FindForBeneficiary finds batches for a beneficiary with filtering
	FindForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter BatchFilter) ([]PaymentBatch, error)

	// SumPaidForBeneficiary returns the total paid amount for a beneficiary
	SumPaidForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (decimal.Decimal, error)

	// MaxReferenceSequence returns the highest reference sequence number
	// among batches whose reference starts with datePrefix, 0 when none
	MaxReferenceSequence(ctx context.Context, datePrefix string) (int, error)
}
