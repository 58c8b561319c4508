package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/shared"
)

func TestGormTransactionRepository_SaveAndFindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	transaction := newRentTransaction(t, uuid.New(), 1000, 10)
	require.NoError(t, repo.Save(ctx, transaction))

	found, err := repo.FindByID(ctx, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.ID, found.ID)
	assert.Equal(t, "rent", found.Category)
	assert.Equal(t, "1000", found.Amount.String())
	require.True(t, found.HasNetToOwner())
	assert.Equal(t, "900", found.NetToOwner().String())
	assert.Equal(t, "100", found.CommissionAmount.String())
	assert.Equal(t, transaction.Version, found.Version)
}

func TestGormTransactionRepository_FindByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)

	found, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, found)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionRepository_FindAll_Filters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	propertyA := uuid.New()
	propertyB := uuid.New()
	require.NoError(t, repo.Save(ctx, newRentTransaction(t, propertyA, 1000, 10)))
	require.NoError(t, repo.Save(ctx, newRentTransaction(t, propertyA, 1200, 10)))
	require.NoError(t, repo.Save(ctx, newRentTransaction(t, propertyB, 800, 10)))

	maintenance, err := payments.NewTransaction(propertyA, "maintenance", "Plumber call-out",
		decimal.NewFromInt(-150), time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, maintenance))

	t.Run("by property", func(t *testing.T) {
		found, err := repo.FindAll(ctx, payments.TransactionFilter{PropertyID: &propertyA})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("by category", func(t *testing.T) {
		category := "Rent" // normalized before matching
		found, err := repo.FindAll(ctx, payments.TransactionFilter{Category: &category})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("by date range", func(t *testing.T) {
		from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		found, err := repo.FindAll(ctx, payments.TransactionFilter{FromDate: &from})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "maintenance", found[0].Category)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := payments.TransactionFilter{Filter: shared.Filter{Page: 1, PageSize: 2}}
		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, found, 2)

		filter.Page = 2
		found, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})
}

func TestGormTransactionRepository_FindMissingNetToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	propertyID := uuid.New()
	computed := newRentTransaction(t, propertyID, 1000, 10)
	require.NoError(t, repo.Save(ctx, computed))

	older, err := payments.NewTransaction(propertyID, "rent", "February rent",
		decimal.NewFromInt(950), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, older))

	newer, err := payments.NewTransaction(propertyID, "rent", "April rent",
		decimal.NewFromInt(950), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, newer))

	t.Run("only unset rows, oldest first", func(t *testing.T) {
		found, err := repo.FindMissingNetToOwner(ctx, 0)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, older.ID, found[0].ID)
		assert.Equal(t, newer.ID, found[1].ID)
		for _, transaction := range found {
			assert.False(t, transaction.HasNetToOwner())
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		found, err := repo.FindMissingNetToOwner(ctx, 1)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, older.ID, found[0].ID)
	})
}

func TestGormTransactionRepository_FindPotentialDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	propertyID := uuid.New()
	original := newRentTransaction(t, propertyID, 1000, 10)
	require.NoError(t, repo.Save(ctx, original))

	duplicate, err := payments.NewTransaction(propertyID, "rent", "Monthly rent",
		decimal.NewFromInt(1000), original.TransactionDate, uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, duplicate))

	different, err := payments.NewTransaction(propertyID, "rent", "Monthly rent",
		decimal.NewFromInt(1050), original.TransactionDate, uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, different))

	found, err := repo.FindPotentialDuplicates(ctx, original)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, duplicate.ID, found[0].ID)
}

func TestGormTransactionRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	transaction := newRentTransaction(t, uuid.New(), 1000, 10)
	require.NoError(t, repo.Save(ctx, transaction))

	t.Run("succeeds with current version", func(t *testing.T) {
		require.NoError(t, transaction.Allocate(decimal.NewFromInt(500)))
		require.NoError(t, repo.SaveWithLock(ctx, transaction))

		found, err := repo.FindByID(ctx, transaction.ID)
		require.NoError(t, err)
		assert.Equal(t, "500", found.AllocatedAmount.String())
		assert.Equal(t, transaction.Version, found.Version)
	})

	t.Run("conflicts on stale version", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, transaction.ID)
		require.NoError(t, err)

		require.NoError(t, transaction.Allocate(decimal.NewFromInt(100)))
		require.NoError(t, repo.SaveWithLock(ctx, transaction))

		require.NoError(t, stale.Allocate(decimal.NewFromInt(100)))
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
