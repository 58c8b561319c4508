package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propflow/backend/internal/domain/ledger"
	"github.com/propflow/backend/internal/domain/shared"
)

// PropertyBalanceService maintains per-property retained balances and their
// append-only entry history. Every movement writes a ledger entry carrying
// the running balance and updates the cached balance aggregate in the same
// store transaction.
type PropertyBalanceService struct {
	balances ledger.PropertyBalanceRepository
	entries  ledger.LedgerEntryRepository
	settings shared.SettingsProvider
	logger   *zap.Logger
}

// NewPropertyBalanceService creates a new PropertyBalanceService
func NewPropertyBalanceService(
	balances ledger.PropertyBalanceRepository,
	entries ledger.LedgerEntryRepository,
	settings shared.SettingsProvider,
	logger *zap.Logger,
) *PropertyBalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyBalanceService{
		balances: balances,
		entries:  entries,
		settings: settings,
		logger:   logger,
	}
}

// CurrentBalance returns a property's cached balance, zero when the property
// has never had a movement
func (s *PropertyBalanceService) CurrentBalance(ctx context.Context, propertyID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.balances.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.CurrentBalance, nil
}

// AvailableBalance returns the amount a property can pay out: the current
// balance less the retained minimum, floored at zero
func (s *PropertyBalanceService) AvailableBalance(ctx context.Context, propertyID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.balances.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.Available(), nil
}

// Deposit credits a property's balance. The batch ID, when given, links the
// entry back to the payment batch that funded it.
func (s *PropertyBalanceService) Deposit(
	ctx context.Context,
	propertyID uuid.UUID,
	amount decimal.Decimal,
	batchID *uuid.UUID,
	description string,
	actor uuid.UUID,
) (*ledger.LedgerEntry, error) {
	balance, err := s.loadOrCreate(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	entry, err := balance.Deposit(amount, batchID, description, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Append(ctx, entry, balance); err != nil {
		return nil, err
	}
	return entry, nil
}

// Withdraw debits a property's balance, failing when the available balance
// is short
func (s *PropertyBalanceService) Withdraw(
	ctx context.Context,
	propertyID uuid.UUID,
	amount decimal.Decimal,
	batchID *uuid.UUID,
	description string,
	actor uuid.UUID,
) (*ledger.LedgerEntry, error) {
	balance, err := s.balances.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSUFFICIENT_BALANCE", "Property has no balance to withdraw from")
		}
		return nil, err
	}
	entry, err := balance.Withdraw(amount, batchID, description, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Append(ctx, entry, balance); err != nil {
		return nil, err
	}
	return entry, nil
}

// TransferBetween moves an amount from one property's balance to another's.
// Both entries and both balances commit together; the result is the
// TRANSFER_OUT entry followed by the TRANSFER_IN entry.
func (s *PropertyBalanceService) TransferBetween(
	ctx context.Context,
	fromPropertyID, toPropertyID uuid.UUID,
	amount decimal.Decimal,
	description string,
	actor uuid.UUID,
) (*ledger.LedgerEntry, *ledger.LedgerEntry, error) {
	from, err := s.balances.FindByProperty(ctx, fromPropertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError("INSUFFICIENT_BALANCE", "Source property has no balance to transfer from")
		}
		return nil, nil, err
	}
	to, err := s.loadOrCreate(ctx, toPropertyID)
	if err != nil {
		return nil, nil, err
	}

	out, in, err := ledger.Transfer(from, to, amount, description, actor)
	if err != nil {
		return nil, nil, err
	}
	if err := s.entries.AppendTransferPair(ctx, out, in, from, to); err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// Adjust applies a signed manual correction to a property's balance
func (s *PropertyBalanceService) Adjust(
	ctx context.Context,
	propertyID uuid.UUID,
	amount decimal.Decimal,
	description, notes string,
	actor uuid.UUID,
) (*ledger.LedgerEntry, error) {
	balance, err := s.loadOrCreate(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	entry, err := balance.Adjust(amount, description, notes, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Append(ctx, entry, balance); err != nil {
		return nil, err
	}
	return entry, nil
}

// SetOpeningBalance seeds a property's balance as of a given date. Allowed
// only before any other entry exists for the property; corrections after
// that go through Adjust.
func (s *PropertyBalanceService) SetOpeningBalance(
	ctx context.Context,
	propertyID uuid.UUID,
	amount decimal.Decimal,
	asOf time.Time,
	notes string,
	actor uuid.UUID,
) (*ledger.LedgerEntry, error) {
	count, err := s.entries.CountForProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, shared.NewDomainError(ledger.CodeAlreadyInitialized, "Property already has ledger entries, use an adjustment instead")
	}

	balance, err := s.loadOrCreate(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	entry, err := balance.OpenWith(amount, asOf, notes, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Append(ctx, entry, balance); err != nil {
		return nil, err
	}
	return entry, nil
}

// BalanceAsOf returns the property's balance at the end of the given date,
// read off the running balance of the latest entry dated on or before it.
// Zero when no entry that old exists.
func (s *PropertyBalanceService) BalanceAsOf(ctx context.Context, propertyID uuid.UUID, date time.Time) (decimal.Decimal, error) {
	entry, err := s.entries.LatestAsOf(ctx, propertyID, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return entry.RunningBalance, nil
}

// Recalculate repairs the cached balance from the running balance of the
// property's latest ledger entry, the same value BalanceAsOf reads. The full
// history is also replayed as a consistency check; when the replayed total
// disagrees with the latest running balance the entries themselves are
// inconsistent, which is logged but the cache still follows the latest entry.
// A clean ledger is a no-op, so the operation is idempotent.
func (s *PropertyBalanceService) Recalculate(ctx context.Context, propertyID uuid.UUID) (decimal.Decimal, error) {
	recomputed := decimal.Zero
	latest, err := s.entries.LatestForProperty(ctx, propertyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, err
	}
	if latest != nil {
		recomputed = latest.RunningBalance
	}

	entries, err := s.entries.FindByProperty(ctx, propertyID, ledger.EntryFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	replayed := decimal.Zero
	for i := range entries {
		replayed = replayed.Add(entries[i].SignedAmount())
	}
	if !replayed.Equal(recomputed) {
		s.logger.Warn("ledger running balances disagree with replayed history",
			zap.String("property_id", propertyID.String()),
			zap.String("latest_running_balance", recomputed.StringFixed(2)),
			zap.String("replayed", replayed.StringFixed(2)),
		)
	}

	balance, err := s.loadOrCreate(ctx, propertyID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance.CurrentBalance.Equal(recomputed) {
		return recomputed, nil
	}

	s.logger.Warn("cached balance drifted from ledger history",
		zap.String("property_id", propertyID.String()),
		zap.String("cached", balance.CurrentBalance.StringFixed(2)),
		zap.String("recomputed", recomputed.StringFixed(2)),
	)

	balance.CurrentBalance = recomputed
	balance.UpdatedAt = time.Now()
	balance.IncrementVersion()
	if err := s.balances.SaveWithLock(ctx, balance); err != nil {
		return decimal.Zero, err
	}
	return recomputed, nil
}

// History lists a property's ledger entries, most recent first
func (s *PropertyBalanceService) History(ctx context.Context, propertyID uuid.UUID, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	return s.entries.FindByProperty(ctx, propertyID, filter)
}

// EntriesForBatch lists the ledger entries a payment batch produced
func (s *PropertyBalanceService) EntriesForBatch(ctx context.Context, batchID uuid.UUID) ([]ledger.LedgerEntry, error) {
	return s.entries.FindByBatch(ctx, batchID)
}

// loadOrCreate returns the property's balance aggregate, creating a zero one
// with the agency's minimum-balance threshold when the property has never
// had a movement. The new aggregate is only persisted once its first entry
// is appended.
func (s *PropertyBalanceService) loadOrCreate(ctx context.Context, propertyID uuid.UUID) (*ledger.PropertyBalance, error) {
	balance, err := s.balances.FindByProperty(ctx, propertyID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.NewPropertyBalance(propertyID, settings.MinimumBalanceThreshold)
}
