package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
)

// CommissionService computes and persists net-to-owner amounts. The
// computation itself is the pure payments.ComputeNetToOwner; this service
// adds the property commission-rate lookup, the only-write-when-unset
// idempotency rule, and the re-runnable backfill over unresolved rows.
type CommissionService struct {
	transactions payments.TransactionRepository
	properties   property.Directory
	settings     shared.SettingsProvider
	logger       *zap.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(
	transactions payments.TransactionRepository,
	properties property.Directory,
	settings shared.SettingsProvider,
	logger *zap.Logger,
) *CommissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionService{
		transactions: transactions,
		properties:   properties,
		settings:     settings,
		logger:       logger,
	}
}

// ComputeForTransaction computes and persists the commission breakdown for
// one transaction. A transaction whose net-to-owner amount is already set is
// left untouched; a transaction whose category/amount combination does not
// resolve stays unset so a later backfill can retry it. Returns true when a
// value was written.
func (s *CommissionService) ComputeForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return false, err
	}
	return s.compute(ctx, transaction)
}

// BackfillResult summarises a backfill run
type BackfillResult struct {
	Examined int
	Computed int
	Skipped  int
}

// Backfill re-runs the net-to-owner computation over transactions that have
// never resolved, oldest first, up to limit rows (0 means no limit).
// Re-runnable: already-computed rows are never revisited because the query
// only selects unset ones, and unresolved rows stay unset for the next run.
func (s *CommissionService) Backfill(ctx context.Context, limit int) (BackfillResult, error) {
	var result BackfillResult

	transactions, err := s.transactions.FindMissingNetToOwner(ctx, limit)
	if err != nil {
		return result, err
	}

	for i := range transactions {
		transaction := &transactions[i]
		result.Examined++
		written, err := s.compute(ctx, transaction)
		if err != nil {
			s.logger.Warn("backfill skipping transaction",
				zap.String("transaction_id", transaction.ID.String()),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		if written {
			result.Computed++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("net-to-owner backfill finished",
		zap.Int("examined", result.Examined),
		zap.Int("computed", result.Computed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *CommissionService) compute(ctx context.Context, transaction *payments.Transaction) (bool, error) {
	if transaction.HasNetToOwner() {
		return false, nil
	}

	rate, err := s.commissionRate(ctx, transaction.PropertyID)
	if err != nil {
		return false, err
	}

	breakdown := payments.ComputeNetToOwner(transaction.Category, transaction.Amount, rate)
	if breakdown == nil {
		return false, nil
	}
	if err := transaction.ApplyCommission(breakdown); err != nil {
		return false, err
	}
	if err := s.transactions.Save(ctx, transaction); err != nil {
		return false, err
	}
	return true, nil
}

// commissionRate resolves the rate for a property, falling back to the
// agency default when the property has none set
func (s *CommissionService) commissionRate(ctx context.Context, propertyID uuid.UUID) (decimal.Decimal, error) {
	info, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.NewDomainError("NOT_FOUND", "Property not found for commission lookup")
		}
		return decimal.Zero, err
	}
	if info.CommissionRate != nil {
		return *info.CommissionRate, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return settings.DefaultCommissionRate, nil
}

// CheckDuplicate reports transactions that look like duplicates of the
// given one (same date, amount, description, category and property).
// Advisory only: import flows surface the matches as warnings, insertion is
// never blocked here.
func (s *CommissionService) CheckDuplicate(ctx context.Context, transaction *payments.Transaction) ([]payments.Transaction, error) {
	return s.transactions.FindPotentialDuplicates(ctx, transaction)
}
