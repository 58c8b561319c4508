package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/backend/internal/domain/shared"
)

// PropertyBalanceRepository defines the interface for cached-balance
// persistence
type PropertyBalanceRepository interface {
	// FindByProperty finds the balance aggregate for a property, or
	// shared.ErrNotFound when the property has never had a balance
	FindByProperty(ctx context.Context, propertyID uuid.UUID) (*PropertyBalance, error)

	// Save creates or updates a balance aggregate
	Save(ctx context.Context, balance *PropertyBalance) error

	// SaveWithLock saves with optimistic locking (version check); returns
	// shared.ErrConcurrencyConflict when the stored version has moved on
	SaveWithLock(ctx context.Context, balance *PropertyBalance) error
}

// EntryFilter defines filtering options for ledger entry queries
type EntryFilter struct {
	shared.Filter
	EntryType *EntryType
	FromDate  *time.Time
	ToDate    *time.Time
}

// LedgerEntryRepository defines the interface for the append-only entry
// history. Entries are only ever written together with the cached balance
// they affect: Append and AppendTransferPair commit entry rows and balance
// aggregates in a single store transaction, with a version check on each
// balance, so the running-balance invariant holds under concurrent writes.
type LedgerEntryRepository interface {
	// Append persists the entry and the updated balance atomically
	Append(ctx context.Context, entry *LedgerEntry, balance *PropertyBalance) error

	// AppendTransferPair persists both transfer entries and both updated
	// balances atomically: all four writes commit together or none do
	AppendTransferPair(ctx context.Context, out, in *LedgerEntry, from, to *PropertyBalance) error

	// FindByProperty finds a property's entries ordered by entry date then
	// creation time, most recent first
	FindByProperty(ctx context.Context, propertyID uuid.UUID, filter EntryFilter) ([]LedgerEntry, error)

	// LatestForProperty returns the most recent entry for a property
	// (by entry date, then creation time), or shared.ErrNotFound
	LatestForProperty(ctx context.Context, propertyID uuid.UUID) (*LedgerEntry, error)

	// LatestAsOf returns the most recent entry dated on or before the given
	// date, or shared.ErrNotFound
	LatestAsOf(ctx context.Context, propertyID uuid.UUID, date time.Time) (*LedgerEntry, error)

	// CountForProperty counts a property's entries
	CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error)

	// FindByBatch finds entries linked to a payment batch
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]LedgerEntry, error)
}
