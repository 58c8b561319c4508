package payments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/shared"
)

// Transaction represents a single income or expense record against a
// property. Amounts are signed: positive for income, negative for expenses.
//
// The commission breakdown (rate, commission, net-to-owner) is tri-state:
// nil means "not yet computed", which is distinct from a computed zero. Only
// transactions with a computed net-to-owner amount can be allocated to
// payment batches. AllocatedAmount is the denormalized signed sum of the
// transaction's live allocations; it is maintained here so the
// non-exceedance invariant can be enforced under optimistic locking.
type Transaction struct {
	shared.AuditedAggregateRoot
	PropertyID       uuid.UUID
	Category         string
	Description      string
	Amount           decimal.Decimal
	CommissionRate   *decimal.Decimal
	CommissionAmount *decimal.Decimal
	NetToOwnerAmount *decimal.Decimal
	AllocatedAmount  decimal.Decimal
	TransactionDate  time.Time
	// ExternalBatchRef carries the batch id supplied by an external sync
	// source. When present the transaction arrives already paid out.
	ExternalBatchRef string
}

// NewTransaction creates a new transaction record
func NewTransaction(
	propertyID uuid.UUID,
	category string,
	description string,
	amount decimal.Decimal,
	transactionDate time.Time,
	actor uuid.UUID,
) (*Transaction, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if NormalizeCategory(category) == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category cannot be empty")
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}

	return &Transaction{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(actor),
		PropertyID:           propertyID,
		Category:             NormalizeCategory(category),
		Description:          description,
		Amount:               amount,
		AllocatedAmount:      decimal.Zero,
		TransactionDate:      transactionDate,
	}, nil
}

// HasNetToOwner reports whether the net-to-owner amount has been computed
func (t *Transaction) HasNetToOwner() bool {
	return t.NetToOwnerAmount != nil
}

// NetToOwner returns the computed net-to-owner amount, or zero when unset
func (t *Transaction) NetToOwner() decimal.Decimal {
	if t.NetToOwnerAmount == nil {
		return decimal.Zero
	}
	return *t.NetToOwnerAmount
}

// RemainingUnallocated returns the signed amount still available for
// allocation: net-to-owner minus the sum of live allocations. Zero when the
// net-to-owner amount has not been computed.
func (t *Transaction) RemainingUnallocated() decimal.Decimal {
	if t.NetToOwnerAmount == nil {
		return decimal.Zero
	}
	return t.NetToOwnerAmount.Sub(t.AllocatedAmount)
}

// HasAllocations reports whether any allocation is currently recorded.
// Allocations can never carry a zero amount, so a zero allocated total means
// no live allocations.
func (t *Transaction) HasAllocations() bool {
	return !t.AllocatedAmount.IsZero()
}

// IsFullyAllocated reports whether the full net-to-owner amount has been
// distributed across batches
func (t *Transaction) IsFullyAllocated() bool {
	return t.HasNetToOwner() && t.RemainingUnallocated().IsZero()
}

// ApplyCommission records a computed commission breakdown. Fails when the
// net-to-owner amount is already set: the value is immutable once computed
// unless explicitly recalculated.
func (t *Transaction) ApplyCommission(breakdown *CommissionBreakdown) error {
	if breakdown == nil {
		return shared.NewDomainError("INVALID_INPUT", "Commission breakdown cannot be nil")
	}
	if t.NetToOwnerAmount != nil {
		return shared.NewDomainError(CodeNetAlreadyComputed, fmt.Sprintf("Net-to-owner amount already computed for transaction %s", t.ID))
	}
	t.setCommission(breakdown)
	return nil
}

// RecalculateCommission overwrites the commission breakdown. Only sanctioned
// for explicit recalculation flows; rejected once allocations exist because
// they were validated against the previous net amount.
func (t *Transaction) RecalculateCommission(breakdown *CommissionBreakdown) error {
	if breakdown == nil {
		return shared.NewDomainError("INVALID_INPUT", "Commission breakdown cannot be nil")
	}
	if t.HasAllocations() {
		return shared.NewDomainError(CodeAlreadyAllocated, fmt.Sprintf("Cannot recalculate commission for transaction %s with live allocations", t.ID))
	}
	t.setCommission(breakdown)
	return nil
}

func (t *Transaction) setCommission(breakdown *CommissionBreakdown) {
	rate := breakdown.CommissionRate
	commission := breakdown.CommissionAmount
	net := breakdown.NetToOwner
	t.CommissionRate = &rate
	t.CommissionAmount = &commission
	t.NetToOwnerAmount = &net
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// Allocate reserves part of the net-to-owner amount for a payment batch.
// The amount's sign must match the net-to-owner sign and the signed sum of
// allocations must never exceed the net-to-owner amount in absolute value.
func (t *Transaction) Allocate(amount decimal.Decimal) error {
	if t.NetToOwnerAmount == nil {
		return shared.NewDomainError(CodeMissingNetToOwner, fmt.Sprintf("Transaction %s has no net-to-owner amount computed", t.ID))
	}
	if amount.IsZero() {
		return shared.NewDomainError(CodeInvalidAllocationAmount, "Allocation amount cannot be zero")
	}
	if amount.Sign() != t.NetToOwnerAmount.Sign() {
		return shared.NewDomainError(CodeInvalidAllocationAmount, fmt.Sprintf("Allocation amount %s does not match the sign of net-to-owner amount %s", amount, t.NetToOwnerAmount))
	}
	next := t.AllocatedAmount.Add(amount)
	if next.Abs().GreaterThan(t.NetToOwnerAmount.Abs()) {
		return shared.NewDomainError(CodeInvalidAllocationAmount, fmt.Sprintf("Allocation amount %s exceeds remaining unallocated amount %s", amount, t.RemainingUnallocated()))
	}

	t.AllocatedAmount = next
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Release frees a previously allocated amount after its allocation has been
// hard deleted. The freed capacity is immediately available for
// re-allocation.
func (t *Transaction) Release(amount decimal.Decimal) error {
	next := t.AllocatedAmount.Sub(amount)
	if !next.IsZero() && next.Sign() != t.AllocatedAmount.Sign() {
		return shared.NewDomainError(CodeInvalidAllocationAmount, fmt.Sprintf("Cannot release %s: only %s is allocated", amount, t.AllocatedAmount))
	}
	t.AllocatedAmount = next
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// IsExternallyPaid reports whether the transaction arrived from an external
// sync source already tagged with a batch id
func (t *Transaction) IsExternallyPaid() bool {
	return t.ExternalBatchRef != ""
}

// WithExternalBatchRef tags the transaction with the batch id assigned by an
// external payments platform
func (t *Transaction) WithExternalBatchRef(ref string) *Transaction {
	t.ExternalBatchRef = ref
	return t
}
