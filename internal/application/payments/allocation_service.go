package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/shared"
)

// AllocationService tracks how each transaction's net-to-owner amount is
// distributed across payment batches. It is the only writer of allocation
// rows; the conservation invariant (signed allocation sum never exceeds the
// net-to-owner amount, signs always match) is enforced on the Transaction
// aggregate before anything is persisted, and concurrent allocation attempts
// against the same transaction are serialized by the aggregate's optimistic
// lock; the loser receives shared.ErrConcurrencyConflict and may retry.
type AllocationService struct {
	transactions payments.TransactionRepository
	allocations  payments.AllocationRepository
	logger       *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	transactions payments.TransactionRepository,
	allocations payments.AllocationRepository,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		transactions: transactions,
		allocations:  allocations,
		logger:       logger,
	}
}

// RemainingUnallocated returns the signed amount of the transaction's
// net-to-owner value not yet assigned to any batch. Zero when the
// net-to-owner amount has not been computed.
func (s *AllocationService) RemainingUnallocated(ctx context.Context, transactionID uuid.UUID) (decimal.Decimal, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	return transaction.RemainingUnallocated(), nil
}

// AllocateFull assigns the transaction's entire net-to-owner amount to the
// given batch reference. Fails when the transaction already has allocations.
func (s *AllocationService) AllocateFull(ctx context.Context, transactionID uuid.UUID, batchReference string, actor uuid.UUID) (*payments.Allocation, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !transaction.HasNetToOwner() {
		return nil, shared.NewDomainError(payments.CodeMissingNetToOwner,
			fmt.Sprintf("Transaction %s has no net-to-owner amount computed", transactionID))
	}
	if transaction.HasAllocations() {
		return nil, shared.NewDomainError(payments.CodeAlreadyAllocated,
			fmt.Sprintf("Transaction %s is already partially allocated; allocate the remainder instead", transactionID))
	}
	return s.allocate(ctx, transaction, batchReference, transaction.NetToOwner(), actor)
}

// AllocatePartial assigns part of the transaction's net-to-owner amount to
// the given batch reference. The amount's sign must match the net-to-owner
// sign and its magnitude must not exceed the remaining unallocated amount.
func (s *AllocationService) AllocatePartial(ctx context.Context, transactionID uuid.UUID, batchReference string, amount decimal.Decimal, actor uuid.UUID) (*payments.Allocation, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.allocate(ctx, transaction, batchReference, amount, actor)
}

// AllocateRemaining assigns whatever is still unallocated to the given
// batch reference
func (s *AllocationService) AllocateRemaining(ctx context.Context, transactionID uuid.UUID, batchReference string, actor uuid.UUID) (*payments.Allocation, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	remaining := transaction.RemainingUnallocated()
	if remaining.IsZero() {
		return nil, shared.NewDomainError(payments.CodeNothingToAllocate,
			fmt.Sprintf("Transaction %s has nothing left to allocate", transactionID))
	}
	return s.allocate(ctx, transaction, batchReference, remaining, actor)
}

// AllocateBulk attempts a full allocation for every transaction and skips
// the ones that fail, logging each skip. Best-effort: the caller detects
// skipped transactions by comparing input and output counts.
func (s *AllocationService) AllocateBulk(ctx context.Context, transactionIDs []uuid.UUID, batchReference string, actor uuid.UUID) ([]payments.Allocation, error) {
	allocated := make([]payments.Allocation, 0, len(transactionIDs))
	for _, id := range transactionIDs {
		allocation, err := s.AllocateFull(ctx, id, batchReference, actor)
		if err != nil {
			s.logger.Warn("skipping transaction in bulk allocation",
				zap.String("transaction_id", id.String()),
				zap.String("batch_reference", batchReference),
				zap.Error(err),
			)
			continue
		}
		allocated = append(allocated, *allocation)
	}
	return allocated, nil
}

// RecordExternal records a transaction that arrived from the external
// payments platform already tagged with a batch id: its full net-to-owner
// amount is allocated against that reference and immediately marked paid.
func (s *AllocationService) RecordExternal(ctx context.Context, transactionID uuid.UUID, paidAt time.Time, actor uuid.UUID) (*payments.Allocation, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !transaction.IsExternallyPaid() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Transaction %s carries no external batch reference", transactionID))
	}
	if !transaction.HasNetToOwner() {
		return nil, shared.NewDomainError(payments.CodeMissingNetToOwner,
			fmt.Sprintf("Transaction %s has no net-to-owner amount computed", transactionID))
	}
	if transaction.HasAllocations() {
		return nil, shared.NewDomainError(payments.CodeAlreadyAllocated,
			fmt.Sprintf("Transaction %s is already allocated", transactionID))
	}

	amount := transaction.NetToOwner()
	if err := transaction.Allocate(amount); err != nil {
		return nil, err
	}
	allocation, err := payments.NewAllocation(transaction.ID, transaction.PropertyID, transaction.ExternalBatchRef, amount, actor)
	if err != nil {
		return nil, err
	}
	allocation.MarkPaid(paidAt)

	if err := s.allocations.Create(ctx, allocation, transaction); err != nil {
		return nil, err
	}
	return allocation, nil
}

func (s *AllocationService) allocate(ctx context.Context, transaction *payments.Transaction, batchReference string, amount decimal.Decimal, actor uuid.UUID) (*payments.Allocation, error) {
	if err := transaction.Allocate(amount); err != nil {
		return nil, err
	}
	allocation, err := payments.NewAllocation(transaction.ID, transaction.PropertyID, batchReference, amount, actor)
	if err != nil {
		return nil, err
	}
	if err := s.allocations.Create(ctx, allocation, transaction); err != nil {
		return nil, err
	}
	return allocation, nil
}

// RemoveForBatch hard deletes every allocation referencing the batch and
// releases the allocated amounts on their transactions. Returns the number
// of allocations removed.
func (s *AllocationService) RemoveForBatch(ctx context.Context, batchReference string) (int64, error) {
	allocations, err := s.allocations.FindByBatchReference(ctx, batchReference)
	if err != nil {
		return 0, err
	}
	return s.remove(ctx, allocations)
}

// RemoveForTransaction hard deletes every allocation of the transaction,
// returning its full net-to-owner amount to the unallocated pool
func (s *AllocationService) RemoveForTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	allocations, err := s.allocations.FindByTransaction(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	return s.remove(ctx, allocations)
}

// RemoveOne hard deletes a single allocation. Returns false when the
// allocation does not exist.
func (s *AllocationService) RemoveOne(ctx context.Context, allocationID uuid.UUID) (bool, error) {
	allocation, err := s.allocations.FindByID(ctx, allocationID)
	if err != nil {
		if shared.ErrorCode(err) == "NOT_FOUND" {
			return false, nil
		}
		return false, err
	}
	count, err := s.remove(ctx, []payments.Allocation{*allocation})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *AllocationService) remove(ctx context.Context, allocations []payments.Allocation) (int64, error) {
	if len(allocations) == 0 {
		return 0, nil
	}

	released := make(map[uuid.UUID]decimal.Decimal, len(allocations))
	for _, allocation := range allocations {
		released[allocation.TransactionID] = released[allocation.TransactionID].Add(allocation.Amount)
	}

	transactions := make([]*payments.Transaction, 0, len(released))
	for transactionID, amount := range released {
		transaction, err := s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return 0, err
		}
		if err := transaction.Release(amount); err != nil {
			return 0, err
		}
		transactions = append(transactions, transaction)
	}

	return s.allocations.Delete(ctx, allocations, transactions)
}

// BatchTotal returns the signed sum of a batch's allocation amounts
func (s *AllocationService) BatchTotal(ctx context.Context, batchReference string) (decimal.Decimal, error) {
	return s.allocations.SumForBatch(ctx, batchReference)
}

// AllocationsForBatch returns a batch's allocations, oldest first
func (s *AllocationService) AllocationsForBatch(ctx context.Context, batchReference string) ([]payments.Allocation, error) {
	return s.allocations.FindByBatchReference(ctx, batchReference)
}

// AllocationsForTransaction returns a transaction's allocations, oldest first
func (s *AllocationService) AllocationsForTransaction(ctx context.Context, transactionID uuid.UUID) ([]payments.Allocation, error) {
	return s.allocations.FindByTransaction(ctx, transactionID)
}

// GenerateReference produces the next batch reference for today:
// {PREFIX}-{YYYYMMDD}-{seq:04d}, where seq is one past the highest sequence
// already present among allocations sharing today's date prefix
func (s *AllocationService) GenerateReference(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Reference prefix cannot be empty")
	}
	now := time.Now()
	maxSeq, err := s.allocations.MaxBatchSequence(ctx, payments.ReferenceDatePrefix(prefix, now))
	if err != nil {
		return "", err
	}
	return payments.FormatReference(prefix, now, maxSeq+1), nil
}
