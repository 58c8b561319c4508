package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType tags a ledger entry with the kind of movement it records. For
// the directed types the entry amount is always a positive magnitude and the
// type determines the sign; adjustments and opening balances carry a signed
// amount. Keeping the sign in the type rather than the number prevents
// sign-convention bugs between transactions (signed) and ledger rows.
type EntryType string

const (
	EntryTypeDeposit        EntryType = "DEPOSIT"
	EntryTypeWithdrawal     EntryType = "WITHDRAWAL"
	EntryTypeTransferIn     EntryType = "TRANSFER_IN"
	EntryTypeTransferOut    EntryType = "TRANSFER_OUT"
	EntryTypeAdjustment     EntryType = "ADJUSTMENT"
	EntryTypeOpeningBalance EntryType = "OPENING_BALANCE"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeTransferIn,
		EntryTypeTransferOut, EntryTypeAdjustment, EntryTypeOpeningBalance:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// Direction returns +1 for credits, -1 for debits and 0 for types whose
// amount is stored signed
func (t EntryType) Direction() int {
	switch t {
	case EntryTypeDeposit, EntryTypeTransferIn:
		return 1
	case EntryTypeWithdrawal, EntryTypeTransferOut:
		return -1
	default:
		return 0
	}
}

// LedgerEntry is one append-only row in a property's balance history. Every
// entry records the running balance after it was applied; the most recent
// entry's running balance (ordered by entry date, then creation time) always
// equals the property's cached current balance.
type LedgerEntry struct {
	ID                uuid.UUID
	PropertyID        uuid.UUID
	EntryType         EntryType
	Amount            decimal.Decimal
	RunningBalance    decimal.Decimal
	PaymentBatchID    *uuid.UUID
	RelatedPropertyID *uuid.UUID // the other side of a transfer
	EntryDate         time.Time
	Description       string
	Notes             string
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
}

// SignedAmount returns the balance effect of the entry
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	switch e.EntryType.Direction() {
	case 1:
		return e.Amount
	case -1:
		return e.Amount.Neg()
	default:
		return e.Amount
	}
}

// IsTransfer reports whether the entry is one side of a transfer pair
func (e *LedgerEntry) IsTransfer() bool {
	return e.EntryType == EntryTypeTransferIn || e.EntryType == EntryTypeTransferOut
}

func newEntry(propertyID uuid.UUID, entryType EntryType, amount, runningBalance decimal.Decimal, entryDate time.Time, description string, actor uuid.UUID) *LedgerEntry {
	entry := &LedgerEntry{
		ID:             uuid.New(),
		PropertyID:     propertyID,
		EntryType:      entryType,
		Amount:         amount,
		RunningBalance: runningBalance,
		EntryDate:      entryDate,
		Description:    description,
		CreatedAt:      time.Now(),
	}
	if actor != uuid.Nil {
		entry.CreatedBy = &actor
	}
	return entry
}
