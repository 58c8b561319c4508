package persistence

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/infrastructure/persistence/models"
)

// newTestDB opens an in-memory SQLite database with the full schema. Each
// test gets its own database, named after the test so parallel tests never
// share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.PropertyModel{},
		&models.TransactionModel{},
		&models.AllocationModel{},
		&models.PaymentBatchModel{},
		&models.PropertyBalanceModel{},
		&models.LedgerEntryModel{},
	))
	return db
}

// newRentTransaction builds a rent transaction with its commission already
// computed, ready for allocation
func newRentTransaction(t *testing.T, propertyID uuid.UUID, gross int64, ratePercent int64) *payments.Transaction {
	t.Helper()

	transaction, err := payments.NewTransaction(
		propertyID,
		"rent",
		"Monthly rent",
		decimal.NewFromInt(gross),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		uuid.Nil,
	)
	require.NoError(t, err)

	breakdown := payments.ComputeNetToOwner(transaction.Category, transaction.Amount, decimal.NewFromInt(ratePercent))
	require.NotNil(t, breakdown)
	require.NoError(t, transaction.ApplyCommission(breakdown))
	return transaction
}
