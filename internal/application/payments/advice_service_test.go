package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
)

func newAdviceService(t *testing.T) (*PaymentAdviceService, *MockPaymentBatchRepository, *MockAllocationRepository, *MockTransactionRepository, *MockPropertyDirectory) {
	t.Helper()
	batchRepo := new(MockPaymentBatchRepository)
	allocationRepo := new(MockAllocationRepository)
	transactionRepo := new(MockTransactionRepository)
	directory := new(MockPropertyDirectory)
	service := NewPaymentAdviceService(batchRepo, allocationRepo, transactionRepo, directory, nil)
	return service, batchRepo, allocationRepo, transactionRepo, directory
}

func TestPaymentAdviceService_BuildAdvice_GroupsByProperty(t *testing.T) {
	ctx := context.Background()
	service, batchRepo, allocationRepo, transactionRepo, directory := newAdviceService(t)

	ownerID := uuid.New()
	flat := uuid.New()
	house := uuid.New()

	batch, err := payments.NewPaymentBatch("OWNER-20250301-0001", payments.BatchTypeOwnerPayment, ownerID, "J Patel", decimal.RequireFromString("1230.00"), time.Now(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, batch.AddBalanceAdjustment(decimal.RequireFromString("-30.00"), payments.AdjustmentSourceOwnerBalance, "Retained for works"))

	rentFlat := createRentTransaction(t, "1000.00", "10") // net 900
	rentFlat.PropertyID = flat
	rentHouse := createRentTransaction(t, "500.00", "10") // net 450
	rentHouse.PropertyID = house
	repair, err := payments.NewTransaction(house, "maintenance", "Gutter repair", decimal.RequireFromString("-120.00"), time.Now(), uuid.New())
	require.NoError(t, err)
	repairNet := decimal.RequireFromString("-120.00")
	repair.NetToOwnerAmount = &repairNet

	allocFlat, err := payments.NewAllocation(rentFlat.ID, flat, batch.Reference, decimal.RequireFromString("900.00"), uuid.New())
	require.NoError(t, err)
	allocHouse, err := payments.NewAllocation(rentHouse.ID, house, batch.Reference, decimal.RequireFromString("450.00"), uuid.New())
	require.NoError(t, err)
	allocRepair, err := payments.NewAllocation(repair.ID, house, batch.Reference, decimal.RequireFromString("-120.00"), uuid.New())
	require.NoError(t, err)

	batchRepo.On("FindByID", ctx, batch.ID).Return(batch, nil)
	allocationRepo.On("FindByBatchReference", ctx, batch.Reference).Return([]payments.Allocation{*allocFlat, *allocHouse, *allocRepair}, nil)
	transactionRepo.On("FindByID", ctx, rentFlat.ID).Return(rentFlat, nil)
	transactionRepo.On("FindByID", ctx, rentHouse.ID).Return(rentHouse, nil)
	transactionRepo.On("FindByID", ctx, repair.ID).Return(repair, nil)
	directory.On("FindByID", ctx, flat).Return(&property.Info{ID: flat, Name: "Flat 2, The Maltings"}, nil)
	directory.On("FindByID", ctx, house).Return(&property.Info{ID: house, Name: "9 Orchard Lane"}, nil)

	advice, err := service.BuildAdvice(ctx, batch.ID)

	require.NoError(t, err)
	assert.Equal(t, batch.Reference, advice.BatchReference)
	assert.Equal(t, "J Patel", advice.BeneficiaryName)
	require.Len(t, advice.Properties, 2)

	// properties come out sorted by name
	house9 := advice.Properties[0]
	flat2 := advice.Properties[1]
	assert.Equal(t, "9 Orchard Lane", house9.PropertyName)
	assert.Equal(t, "Flat 2, The Maltings", flat2.PropertyName)

	require.Len(t, flat2.Receipts, 1)
	assert.Equal(t, "900", flat2.Receipts[0].Amount.String())
	assert.Equal(t, "100", flat2.Receipts[0].CommissionAmount.String())
	assert.Equal(t, "900", flat2.Subtotal.String())

	require.Len(t, house9.Receipts, 1)
	require.Len(t, house9.Deductions, 1)
	// deductions carry their magnitude; the subtotal stays signed
	assert.Equal(t, "120", house9.Deductions[0].Amount.String())
	assert.False(t, house9.Deductions[0].IsReversal)
	assert.Equal(t, "330", house9.Subtotal.String())

	assert.Equal(t, "1230", advice.TotalAllocations.String())
	assert.Equal(t, "1200", advice.AmountSettled.String())
	assert.Equal(t, "1200.00 GBP", advice.SettledMoney().String())
	assert.True(t, advice.Variance.IsZero())
}

func TestPaymentAdviceService_BuildAdvice_FlagsReversals(t *testing.T) {
	ctx := context.Background()
	service, batchRepo, allocationRepo, transactionRepo, directory := newAdviceService(t)

	flat := uuid.New()
	batch, err := payments.NewPaymentBatch("OWNER-20250301-0002", payments.BatchTypeOwnerPayment, uuid.New(), "J Patel", decimal.RequireFromString("-900.00"), time.Now(), uuid.New())
	require.NoError(t, err)

	rent := createRentTransaction(t, "1000.00", "10")
	rent.PropertyID = flat
	clawback, err := payments.NewAllocation(rent.ID, flat, batch.Reference, decimal.RequireFromString("-900.00"), uuid.New())
	require.NoError(t, err)

	batchRepo.On("FindByID", ctx, batch.ID).Return(batch, nil)
	allocationRepo.On("FindByBatchReference", ctx, batch.Reference).Return([]payments.Allocation{*clawback}, nil)
	transactionRepo.On("FindByID", ctx, rent.ID).Return(rent, nil)
	directory.On("FindByID", ctx, flat).Return(&property.Info{ID: flat, Name: "Flat 2"}, nil)

	advice, err := service.BuildAdvice(ctx, batch.ID)

	require.NoError(t, err)
	require.Len(t, advice.Properties, 1)
	require.Len(t, advice.Properties[0].Deductions, 1)
	// a negative allocation against an income transaction reads as a reversal
	assert.True(t, advice.Properties[0].Deductions[0].IsReversal)
	assert.Equal(t, "900", advice.Properties[0].Deductions[0].Amount.String())
}

func TestPaymentAdviceService_BuildAdvice_ToleratesMissingTransaction(t *testing.T) {
	ctx := context.Background()
	service, batchRepo, allocationRepo, transactionRepo, directory := newAdviceService(t)

	flat := uuid.New()
	batch, err := payments.NewPaymentBatch("OWNER-20250301-0003", payments.BatchTypeOwnerPayment, uuid.New(), "J Patel", decimal.RequireFromString("450.00"), time.Now(), uuid.New())
	require.NoError(t, err)

	orphan, err := payments.NewAllocation(uuid.New(), flat, batch.Reference, decimal.RequireFromString("450.00"), uuid.New())
	require.NoError(t, err)

	batchRepo.On("FindByID", ctx, batch.ID).Return(batch, nil)
	allocationRepo.On("FindByBatchReference", ctx, batch.Reference).Return([]payments.Allocation{*orphan}, nil)
	transactionRepo.On("FindByID", ctx, orphan.TransactionID).Return(nil, shared.ErrNotFound)
	directory.On("FindByID", ctx, flat).Return(&property.Info{ID: flat, Name: "Flat 2"}, nil)

	advice, err := service.BuildAdvice(ctx, batch.ID)

	require.NoError(t, err)
	require.Len(t, advice.Properties, 1)
	require.Len(t, advice.Properties[0].Receipts, 1)
	line := advice.Properties[0].Receipts[0]
	assert.Equal(t, "450", line.Amount.String())
	assert.Empty(t, line.Description)
	assert.True(t, line.GrossAmount.IsZero())
}

func TestPaymentAdviceService_BuildAdvice_ReportsVariance(t *testing.T) {
	ctx := context.Background()
	service, batchRepo, allocationRepo, transactionRepo, directory := newAdviceService(t)

	flat := uuid.New()
	// batch recorded over 900 but an allocation has since been removed
	batch, err := payments.NewPaymentBatch("OWNER-20250301-0004", payments.BatchTypeOwnerPayment, uuid.New(), "J Patel", decimal.RequireFromString("900.00"), time.Now(), uuid.New())
	require.NoError(t, err)

	rent := createRentTransaction(t, "500.00", "10")
	rent.PropertyID = flat
	allocation, err := payments.NewAllocation(rent.ID, flat, batch.Reference, decimal.RequireFromString("450.00"), uuid.New())
	require.NoError(t, err)

	batchRepo.On("FindByID", ctx, batch.ID).Return(batch, nil)
	allocationRepo.On("FindByBatchReference", ctx, batch.Reference).Return([]payments.Allocation{*allocation}, nil)
	transactionRepo.On("FindByID", ctx, rent.ID).Return(rent, nil)
	directory.On("FindByID", ctx, flat).Return(&property.Info{ID: flat, Name: "Flat 2"}, nil)

	advice, err := service.BuildAdvice(ctx, batch.ID)

	require.NoError(t, err)
	assert.Equal(t, "450", advice.AmountSettled.String())
	assert.Equal(t, "-450", advice.Variance.String())
}
