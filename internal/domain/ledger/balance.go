package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/shared"
)

// Error codes specific to the balance ledger
const (
	CodeAlreadyInitialized = "ALREADY_INITIALIZED"
)

// PropertyBalance is the aggregate holding a property's cached current
// balance. All movements go through its methods, which produce the matching
// ledger entry with the running balance already computed; entry and cached
// balance are then committed together by the repository.
type PropertyBalance struct {
	shared.BaseAggregateRoot
	PropertyID     uuid.UUID
	CurrentBalance decimal.Decimal
	// MinimumBalance is retained when paying out: withdrawals may only
	// draw down to this floor, never below it.
	MinimumBalance decimal.Decimal
}

// NewPropertyBalance creates a zero balance for a property
func NewPropertyBalance(propertyID uuid.UUID, minimumBalance decimal.Decimal) (*PropertyBalance, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if minimumBalance.IsNegative() {
		return nil, shared.NewDomainError("INVALID_MINIMUM", "Minimum balance cannot be negative")
	}
	return &PropertyBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PropertyID:        propertyID,
		CurrentBalance:    decimal.Zero,
		MinimumBalance:    minimumBalance,
	}, nil
}

// Available returns the balance available for withdrawal:
// max(0, current - minimum)
func (b *PropertyBalance) Available() decimal.Decimal {
	available := b.CurrentBalance.Sub(b.MinimumBalance)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// Deposit credits the balance and returns the DEPOSIT entry
func (b *PropertyBalance) Deposit(amount decimal.Decimal, batchID *uuid.UUID, description string, actor uuid.UUID) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}

	b.CurrentBalance = b.CurrentBalance.Add(amount)
	b.touch()

	entry := newEntry(b.PropertyID, EntryTypeDeposit, amount, b.CurrentBalance, time.Now(), description, actor)
	entry.PaymentBatchID = batchID
	return entry, nil
}

// Withdraw debits the balance and returns the WITHDRAWAL entry. Fails when
// the available balance (current minus the retained minimum) is short.
func (b *PropertyBalance) Withdraw(amount decimal.Decimal, batchID *uuid.UUID, description string, actor uuid.UUID) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if b.Available().LessThan(amount) {
		return nil, shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Insufficient balance for property %s: available %s, requested %s", b.PropertyID, b.Available(), amount))
	}

	b.CurrentBalance = b.CurrentBalance.Sub(amount)
	b.touch()

	entry := newEntry(b.PropertyID, EntryTypeWithdrawal, amount, b.CurrentBalance, time.Now(), description, actor)
	entry.PaymentBatchID = batchID
	return entry, nil
}

// Adjust applies a signed correction and returns the ADJUSTMENT entry
func (b *PropertyBalance) Adjust(amount decimal.Decimal, description, notes string, actor uuid.UUID) (*LedgerEntry, error) {
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}

	b.CurrentBalance = b.CurrentBalance.Add(amount)
	b.touch()

	entry := newEntry(b.PropertyID, EntryTypeAdjustment, amount, b.CurrentBalance, time.Now(), description, actor)
	entry.Notes = notes
	return entry, nil
}

// OpenWith seeds the balance with an opening amount as of a given date and
// returns the OPENING_BALANCE entry. The service rejects this once any
// ledger entry exists for the property; adjustments are the correction path
// after that.
func (b *PropertyBalance) OpenWith(amount decimal.Decimal, asOf time.Time, notes string, actor uuid.UUID) (*LedgerEntry, error) {
	if asOf.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Opening balance date is required")
	}

	b.CurrentBalance = amount
	b.touch()

	entry := newEntry(b.PropertyID, EntryTypeOpeningBalance, amount, b.CurrentBalance, asOf, "Opening balance", actor)
	entry.Notes = notes
	return entry, nil
}

// Transfer moves an amount between two property balances and returns the
// entry pair: TRANSFER_OUT on the source, TRANSFER_IN on the destination,
// cross-referencing each other. Both entries and both balances must be
// committed in the same store transaction.
func Transfer(from, to *PropertyBalance, amount decimal.Decimal, description string, actor uuid.UUID) (*LedgerEntry, *LedgerEntry, error) {
	if from == nil || to == nil {
		return nil, nil, shared.NewDomainError("INVALID_PROPERTY", "Both transfer properties are required")
	}
	if from.PropertyID == to.PropertyID {
		return nil, nil, shared.NewDomainError("INVALID_TRANSFER", "Cannot transfer a balance to the same property")
	}
	if !amount.IsPositive() {
		return nil, nil, shared.NewDomainError("INVALID_AMOUNT", "Transfer amount must be positive")
	}
	if from.Available().LessThan(amount) {
		return nil, nil, shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Insufficient balance for property %s: available %s, requested %s", from.PropertyID, from.Available(), amount))
	}

	now := time.Now()

	from.CurrentBalance = from.CurrentBalance.Sub(amount)
	from.touch()
	out := newEntry(from.PropertyID, EntryTypeTransferOut, amount, from.CurrentBalance, now, description, actor)
	out.RelatedPropertyID = &to.PropertyID

	to.CurrentBalance = to.CurrentBalance.Add(amount)
	to.touch()
	in := newEntry(to.PropertyID, EntryTypeTransferIn, amount, to.CurrentBalance, now, description, actor)
	in.RelatedPropertyID = &from.PropertyID

	return out, in, nil
}

func (b *PropertyBalance) touch() {
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}
