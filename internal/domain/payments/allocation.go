package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/shared"
)

// AllocationStatus represents the payment status of an allocation
type AllocationStatus string

const (
	AllocationStatusPending AllocationStatus = "PENDING" // awaiting a paid batch
	AllocationStatusPaid    AllocationStatus = "PAID"    // settled by a paid batch
)

// IsValid checks if the status is a valid AllocationStatus
func (s AllocationStatus) IsValid() bool {
	return s == AllocationStatusPending || s == AllocationStatusPaid
}

// String returns the string representation of AllocationStatus
func (s AllocationStatus) String() string {
	return string(s)
}

// Allocation assigns some or all of a transaction's net-to-owner amount to a
// payment batch. The batch reference is a string identifier and need not
// resolve to a batch row at creation time (allocations may be staged before
// the batch exists, or reference an external platform's batch id).
//
// An allocation is created once and is otherwise immutable apart from the
// paid cascade; removal is a hard delete. Amount sign always matches the
// owning transaction's net-to-owner sign; that invariant is enforced by
// Transaction.Allocate before the allocation is persisted.
type Allocation struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	PropertyID     uuid.UUID
	BatchReference string
	Amount         decimal.Decimal
	Status         AllocationStatus
	PaidAt         *time.Time
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
}

// NewAllocation creates a new pending allocation
func NewAllocation(transactionID, propertyID uuid.UUID, batchReference string, amount decimal.Decimal, actor uuid.UUID) (*Allocation, error) {
	if transactionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if batchReference == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_REFERENCE", "Batch reference cannot be empty")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError(CodeInvalidAllocationAmount, "Allocation amount cannot be zero")
	}

	allocation := &Allocation{
		ID:             uuid.New(),
		TransactionID:  transactionID,
		PropertyID:     propertyID,
		BatchReference: batchReference,
		Amount:         amount,
		Status:         AllocationStatusPending,
		CreatedAt:      time.Now(),
	}
	if actor != uuid.Nil {
		allocation.CreatedBy = &actor
	}
	return allocation, nil
}

// IsPending reports whether the allocation is still awaiting a paid batch
func (a *Allocation) IsPending() bool {
	return a.Status == AllocationStatusPending
}

// IsPaid reports whether the allocation has been settled
func (a *Allocation) IsPaid() bool {
	return a.Status == AllocationStatusPaid
}

// MarkPaid records settlement by a paid batch
func (a *Allocation) MarkPaid(paidAt time.Time) {
	a.Status = AllocationStatusPaid
	a.PaidAt = &paidAt
}
