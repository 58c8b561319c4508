package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/backend/internal/domain/shared"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func createTestBalance(t *testing.T) *PropertyBalance {
	t.Helper()
	balance, err := NewPropertyBalance(uuid.New(), decimal.Zero)
	require.NoError(t, err)
	return balance
}

func TestEntryType_Direction(t *testing.T) {
	tests := []struct {
		entryType EntryType
		direction int
	}{
		{EntryTypeDeposit, 1},
		{EntryTypeTransferIn, 1},
		{EntryTypeWithdrawal, -1},
		{EntryTypeTransferOut, -1},
		{EntryTypeAdjustment, 0},
		{EntryTypeOpeningBalance, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.entryType), func(t *testing.T) {
			assert.True(t, tt.entryType.IsValid())
			assert.Equal(t, tt.direction, tt.entryType.Direction())
		})
	}

	assert.False(t, EntryType("CHEQUE").IsValid())
}

func TestLedgerEntry_SignedAmount(t *testing.T) {
	balance := createTestBalance(t)

	deposit, err := balance.Deposit(dec(t, "200"), nil, "rent received", uuid.New())
	require.NoError(t, err)
	assert.True(t, deposit.SignedAmount().Equal(dec(t, "200")))

	withdrawal, err := balance.Withdraw(dec(t, "50"), nil, "paid out", uuid.New())
	require.NoError(t, err)
	assert.True(t, withdrawal.SignedAmount().Equal(dec(t, "-50")))
	assert.True(t, withdrawal.Amount.IsPositive(), "directed entries store a positive magnitude")

	adjustment, err := balance.Adjust(dec(t, "-25"), "correction", "", uuid.New())
	require.NoError(t, err)
	assert.True(t, adjustment.SignedAmount().Equal(dec(t, "-25")))
}

func TestPropertyBalance_DepositWithdraw(t *testing.T) {
	balance := createTestBalance(t)
	actor := uuid.New()

	entry, err := balance.Deposit(dec(t, "200"), nil, "rent received", actor)
	require.NoError(t, err)
	assert.True(t, balance.CurrentBalance.Equal(dec(t, "200")))
	assert.True(t, entry.RunningBalance.Equal(dec(t, "200")))
	assert.Equal(t, EntryTypeDeposit, entry.EntryType)
	require.NotNil(t, entry.CreatedBy)
	assert.Equal(t, actor, *entry.CreatedBy)

	// over-withdrawal fails and leaves the balance untouched
	_, err = balance.Withdraw(dec(t, "250"), nil, "owner payment", actor)
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_BALANCE", shared.ErrorCode(err))
	assert.True(t, balance.CurrentBalance.Equal(dec(t, "200")))

	entry, err = balance.Withdraw(dec(t, "200"), nil, "owner payment", actor)
	require.NoError(t, err)
	assert.True(t, balance.CurrentBalance.IsZero())
	assert.True(t, entry.RunningBalance.IsZero())
}

func TestPropertyBalance_MinimumRetained(t *testing.T) {
	balance, err := NewPropertyBalance(uuid.New(), dec(t, "100"))
	require.NoError(t, err)

	_, err = balance.Deposit(dec(t, "150"), nil, "", uuid.Nil)
	require.NoError(t, err)

	assert.True(t, balance.Available().Equal(dec(t, "50")))

	_, err = balance.Withdraw(dec(t, "60"), nil, "", uuid.Nil)
	assert.Equal(t, "INSUFFICIENT_BALANCE", shared.ErrorCode(err))

	_, err = balance.Withdraw(dec(t, "50"), nil, "", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, balance.Available().IsZero())
}

func TestPropertyBalance_Validation(t *testing.T) {
	balance := createTestBalance(t)

	_, err := balance.Deposit(dec(t, "-5"), nil, "", uuid.Nil)
	assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))

	_, err = balance.Withdraw(decimal.Zero, nil, "", uuid.Nil)
	assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))

	_, err = balance.Adjust(decimal.Zero, "", "", uuid.Nil)
	assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))
}

func TestPropertyBalance_OpenWith(t *testing.T) {
	balance := createTestBalance(t)
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	entry, err := balance.OpenWith(dec(t, "320.45"), asOf, "migrated from spreadsheet", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, EntryTypeOpeningBalance, entry.EntryType)
	assert.Equal(t, asOf, entry.EntryDate)
	assert.True(t, balance.CurrentBalance.Equal(dec(t, "320.45")))
	assert.True(t, entry.RunningBalance.Equal(dec(t, "320.45")))
}

func TestTransfer(t *testing.T) {
	flat := createTestBalance(t)
	block := createTestBalance(t)
	actor := uuid.New()

	_, err := flat.Deposit(dec(t, "500"), nil, "", actor)
	require.NoError(t, err)

	out, in, err := Transfer(flat, block, dec(t, "150"), "service charge contribution", actor)
	require.NoError(t, err)

	assert.True(t, flat.CurrentBalance.Equal(dec(t, "350")))
	assert.True(t, block.CurrentBalance.Equal(dec(t, "150")))

	assert.Equal(t, EntryTypeTransferOut, out.EntryType)
	assert.Equal(t, EntryTypeTransferIn, in.EntryType)
	assert.True(t, out.Amount.Equal(in.Amount))
	require.NotNil(t, out.RelatedPropertyID)
	require.NotNil(t, in.RelatedPropertyID)
	assert.Equal(t, block.PropertyID, *out.RelatedPropertyID)
	assert.Equal(t, flat.PropertyID, *in.RelatedPropertyID)
	assert.True(t, out.RunningBalance.Equal(dec(t, "350")))
	assert.True(t, in.RunningBalance.Equal(dec(t, "150")))
}

func TestTransfer_Validation(t *testing.T) {
	flat := createTestBalance(t)
	block := createTestBalance(t)

	_, _, err := Transfer(flat, flat, dec(t, "10"), "", uuid.Nil)
	assert.Equal(t, "INVALID_TRANSFER", shared.ErrorCode(err))

	_, _, err = Transfer(flat, block, dec(t, "10"), "", uuid.Nil)
	assert.Equal(t, "INSUFFICIENT_BALANCE", shared.ErrorCode(err))
	assert.True(t, flat.CurrentBalance.IsZero())
	assert.True(t, block.CurrentBalance.IsZero())
}
