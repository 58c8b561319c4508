package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories shared by the payment service tests
// =============================================================================

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAll(ctx context.Context, filter payments.TransactionFilter) ([]payments.Transaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payments.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindMissingNetToOwner(ctx context.Context, limit int) ([]payments.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]payments.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindPotentialDuplicates(ctx context.Context, t *payments.Transaction) ([]payments.Transaction, error) {
	args := m.Called(ctx, t)
	return args.Get(0).([]payments.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, t *payments.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveWithLock(ctx context.Context, t *payments.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockAllocationRepository is a mock implementation of AllocationRepository
type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.Allocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]payments.Allocation, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]payments.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]payments.Allocation, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).([]payments.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByBatchReference(ctx context.Context, reference string) ([]payments.Allocation, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).([]payments.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) SumForBatch(ctx context.Context, reference string) (decimal.Decimal, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAllocationRepository) Create(ctx context.Context, allocation *payments.Allocation, transaction *payments.Transaction) error {
	args := m.Called(ctx, allocation, transaction)
	return args.Error(0)
}

func (m *MockAllocationRepository) Delete(ctx context.Context, allocations []payments.Allocation, transactions []*payments.Transaction) (int64, error) {
	args := m.Called(ctx, allocations, transactions)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAllocationRepository) MaxBatchSequence(ctx context.Context, datePrefix string) (int, error) {
	args := m.Called(ctx, datePrefix)
	return args.Get(0).(int), args.Error(1)
}

// MockPaymentBatchRepository is a mock implementation of PaymentBatchRepository
type MockPaymentBatchRepository struct {
	mock.Mock
}

func (m *MockPaymentBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*payments.PaymentBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) FindByReference(ctx context.Context, reference string) (*payments.PaymentBatch, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) Create(ctx context.Context, batch *payments.PaymentBatch, allocationIDs []uuid.UUID) error {
	args := m.Called(ctx, batch, allocationIDs)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) Save(ctx context.Context, batch *payments.PaymentBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) SaveWithLock(ctx context.Context, batch *payments.PaymentBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) MarkPaid(ctx context.Context, batch *payments.PaymentBatch, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, batch, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentBatchRepository) FindNeedingPayment(ctx context.Context) ([]payments.PaymentBatch, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payments.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) FindPendingOwnerPayments(ctx context.Context) ([]payments.PaymentBatch, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payments.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) FindForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, filter payments.BatchFilter) ([]payments.PaymentBatch, error) {
	args := m.Called(ctx, beneficiaryID, filter)
	return args.Get(0).([]payments.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) SumPaidForBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, beneficiaryID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentBatchRepository) MaxReferenceSequence(ctx context.Context, datePrefix string) (int, error) {
	args := m.Called(ctx, datePrefix)
	return args.Get(0).(int), args.Error(1)
}

// MockPropertyDirectory is a mock implementation of property.Directory
type MockPropertyDirectory struct {
	mock.Mock
}

func (m *MockPropertyDirectory) FindByID(ctx context.Context, id uuid.UUID) (*property.Info, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Info), args.Error(1)
}

// MockOwnerDirectory is a mock implementation of property.OwnerDirectory
type MockOwnerDirectory struct {
	mock.Mock
}

func (m *MockOwnerDirectory) OwnerOf(ctx context.Context, propertyID uuid.UUID) (*property.Owner, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Owner), args.Error(1)
}

// MockSettingsProvider is a mock implementation of shared.SettingsProvider
type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) Get(ctx context.Context) (*shared.AgencySettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AgencySettings), args.Error(1)
}
