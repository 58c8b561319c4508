package payments

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propflow/backend/internal/domain/payments"
	"github.com/propflow/backend/internal/domain/property"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/domain/shared/valueobject"
)

// AdviceLine is one allocation on a payment advice, enriched with the
// details of the transaction it settles. Transaction fields are best effort:
// a line whose transaction record has gone missing still renders from the
// allocation alone.
type AdviceLine struct {
	AllocationID     uuid.UUID
	TransactionID    uuid.UUID
	Description      string
	Category         string
	TransactionDate  string
	GrossAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	Amount           decimal.Decimal
	IsReversal       bool
}

// PropertyAdvice groups one property's advice lines. Receipts are amounts
// flowing to the beneficiary, deductions are amounts withheld; the property
// subtotal is receipts minus deductions.
type PropertyAdvice struct {
	PropertyID   uuid.UUID
	PropertyName string
	Receipts     []AdviceLine
	Deductions   []AdviceLine
	Subtotal     decimal.Decimal
}

// PaymentAdvice is the beneficiary-facing statement for one payment batch
type PaymentAdvice struct {
	BatchReference    string
	BatchStatus       payments.BatchStatus
	BeneficiaryID     uuid.UUID
	BeneficiaryName   string
	Properties        []PropertyAdvice
	TotalAllocations  decimal.Decimal
	BalanceAdjustment decimal.Decimal
	AdjustmentNotes   string
	AmountSettled     decimal.Decimal
	Variance          decimal.Decimal // AmountSettled minus the batch's recorded total
}

// SettledMoney returns the settled amount in the agency currency, the form
// statement templates render
func (a *PaymentAdvice) SettledMoney() valueobject.Money {
	return valueobject.NewMoneyGBP(a.AmountSettled)
}

// SubtotalMoney returns the property subtotal in the agency currency
func (p *PropertyAdvice) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyGBP(p.Subtotal)
}

// PaymentAdviceService builds beneficiary payment advices from a batch and
// its allocations
type PaymentAdviceService struct {
	batches      payments.PaymentBatchRepository
	allocations  payments.AllocationRepository
	transactions payments.TransactionRepository
	properties   property.Directory
	logger       *zap.Logger
}

// NewPaymentAdviceService creates a new PaymentAdviceService
func NewPaymentAdviceService(
	batches payments.PaymentBatchRepository,
	allocations payments.AllocationRepository,
	transactions payments.TransactionRepository,
	properties property.Directory,
	logger *zap.Logger,
) *PaymentAdviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentAdviceService{
		batches:      batches,
		allocations:  allocations,
		transactions: transactions,
		properties:   properties,
		logger:       logger,
	}
}

// BuildAdvice assembles the payment advice for a batch. Lines are grouped by
// property and split into receipts and deductions; the settled amount is
// recomputed from the lines and compared against the batch's recorded total,
// with any variance logged and carried on the advice rather than failing the
// build.
func (s *PaymentAdviceService) BuildAdvice(ctx context.Context, batchID uuid.UUID) (*PaymentAdvice, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	allocations, err := s.allocations.FindByBatchReference(ctx, batch.Reference)
	if err != nil {
		return nil, err
	}

	byProperty := make(map[uuid.UUID]*PropertyAdvice)
	var order []uuid.UUID
	settled := decimal.Zero

	for i := range allocations {
		allocation := &allocations[i]
		line := s.buildLine(ctx, allocation)
		settled = settled.Add(allocation.Amount)

		group, ok := byProperty[allocation.PropertyID]
		if !ok {
			group = &PropertyAdvice{
				PropertyID:   allocation.PropertyID,
				PropertyName: s.propertyName(ctx, allocation.PropertyID),
				Subtotal:     decimal.Zero,
			}
			byProperty[allocation.PropertyID] = group
			order = append(order, allocation.PropertyID)
		}

		if allocation.Amount.IsNegative() {
			line.Amount = allocation.Amount.Neg()
			group.Deductions = append(group.Deductions, line)
		} else {
			group.Receipts = append(group.Receipts, line)
		}
		group.Subtotal = group.Subtotal.Add(allocation.Amount)
	}

	properties := make([]PropertyAdvice, 0, len(order))
	for _, id := range order {
		properties = append(properties, *byProperty[id])
	}
	sort.Slice(properties, func(i, j int) bool {
		return properties[i].PropertyName < properties[j].PropertyName
	})

	advice := &PaymentAdvice{
		BatchReference:    batch.Reference,
		BatchStatus:       batch.Status,
		BeneficiaryID:     batch.BeneficiaryID,
		BeneficiaryName:   batch.BeneficiaryName,
		Properties:        properties,
		TotalAllocations:  settled,
		BalanceAdjustment: batch.BalanceAdjustment,
		AdjustmentNotes:   batch.AdjustmentNotes,
		AmountSettled:     settled.Add(batch.BalanceAdjustment),
	}
	advice.Variance = advice.AmountSettled.Sub(batch.TotalPayment)

	if !advice.Variance.IsZero() {
		s.logger.Warn("payment advice total disagrees with batch record",
			zap.String("reference", batch.Reference),
			zap.String("advice_total", advice.AmountSettled.StringFixed(2)),
			zap.String("batch_total", batch.TotalPayment.StringFixed(2)),
		)
	}
	return advice, nil
}

// buildLine enriches an allocation with its transaction's details. A missing
// or unreadable transaction degrades to an allocation-only line.
func (s *PaymentAdviceService) buildLine(ctx context.Context, allocation *payments.Allocation) AdviceLine {
	line := AdviceLine{
		AllocationID:  allocation.ID,
		TransactionID: allocation.TransactionID,
		Amount:        allocation.Amount,
	}

	transaction, err := s.transactions.FindByID(ctx, allocation.TransactionID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("could not load transaction for advice line",
				zap.String("transaction_id", allocation.TransactionID.String()),
				zap.Error(err),
			)
		}
		return line
	}

	line.Description = transaction.Description
	line.Category = transaction.Category
	line.TransactionDate = transaction.TransactionDate.Format("2006-01-02")
	line.GrossAmount = transaction.Amount
	if transaction.CommissionAmount != nil {
		line.CommissionAmount = *transaction.CommissionAmount
	}
	// A negative allocation against an income transaction claws back a
	// previous payment and is flagged so the statement reads as a reversal
	// rather than an ordinary deduction.
	line.IsReversal = allocation.Amount.IsNegative() && transaction.Amount.IsPositive()
	return line
}

func (s *PaymentAdviceService) propertyName(ctx context.Context, propertyID uuid.UUID) string {
	info, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return ""
	}
	return info.Name
}
