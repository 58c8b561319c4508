package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/payments"
)

// TransactionModel is the persistence model for the Transaction aggregate root.
type TransactionModel struct {
	AuditedAggregateModel
	PropertyID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Category         string           `gorm:"type:varchar(50);not null;index"`
	Description      string           `gorm:"type:varchar(500)"`
	Amount           decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	CommissionRate   *decimal.Decimal `gorm:"type:decimal(9,4)"`
	CommissionAmount *decimal.Decimal `gorm:"type:decimal(18,2)"`
	NetToOwnerAmount *decimal.Decimal `gorm:"type:decimal(18,2);index"`
	AllocatedAmount  decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	TransactionDate  time.Time        `gorm:"not null;index"`
	ExternalBatchRef string           `gorm:"type:varchar(100);index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *payments.Transaction {
	t := &payments.Transaction{
		PropertyID:       m.PropertyID,
		Category:         m.Category,
		Description:      m.Description,
		Amount:           m.Amount,
		CommissionRate:   m.CommissionRate,
		CommissionAmount: m.CommissionAmount,
		NetToOwnerAmount: m.NetToOwnerAmount,
		AllocatedAmount:  m.AllocatedAmount,
		TransactionDate:  m.TransactionDate,
		ExternalBatchRef: m.ExternalBatchRef,
	}
	m.PopulateAuditedAggregateRoot(&t.AuditedAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *payments.Transaction) {
	m.FromDomainAuditedAggregateRoot(t.AuditedAggregateRoot)
	m.PropertyID = t.PropertyID
	m.Category = t.Category
	m.Description = t.Description
	m.Amount = t.Amount
	m.CommissionRate = t.CommissionRate
	m.CommissionAmount = t.CommissionAmount
	m.NetToOwnerAmount = t.NetToOwnerAmount
	m.AllocatedAmount = t.AllocatedAmount
	m.TransactionDate = t.TransactionDate
	m.ExternalBatchRef = t.ExternalBatchRef
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *payments.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// AllocationModel is the persistence model for allocations
type AllocationModel struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primary_key"`
	TransactionID  uuid.UUID                  `gorm:"type:uuid;not null;index"`
	PropertyID     uuid.UUID                  `gorm:"type:uuid;not null;index"`
	BatchReference string                     `gorm:"type:varchar(100);not null;index"`
	Amount         decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	Status         payments.AllocationStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt         *time.Time
	CreatedBy      *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "allocations"
}

// ToDomain converts the persistence model to a domain Allocation
func (m *AllocationModel) ToDomain() *payments.Allocation {
	return &payments.Allocation{
		ID:             m.ID,
		TransactionID:  m.TransactionID,
		PropertyID:     m.PropertyID,
		BatchReference: m.BatchReference,
		Amount:         m.Amount,
		Status:         m.Status,
		PaidAt:         m.PaidAt,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// AllocationModelFromDomain creates a new persistence model from a domain Allocation
func AllocationModelFromDomain(a *payments.Allocation) *AllocationModel {
	return &AllocationModel{
		ID:             a.ID,
		TransactionID:  a.TransactionID,
		PropertyID:     a.PropertyID,
		BatchReference: a.BatchReference,
		Amount:         a.Amount,
		Status:         a.Status,
		PaidAt:         a.PaidAt,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
	}
}

// PaymentBatchModel is the persistence model for the PaymentBatch aggregate root.
type PaymentBatchModel struct {
	AuditedAggregateModel
	Reference         string                    `gorm:"type:varchar(100);not null;uniqueIndex"`
	BatchType         payments.BatchType        `gorm:"type:varchar(30);not null;index"`
	Status            payments.BatchStatus      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	BeneficiaryID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	BeneficiaryName   string                    `gorm:"type:varchar(200);not null"`
	TotalAllocations  decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	BalanceAdjustment decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	AdjustmentSource  payments.AdjustmentSource `gorm:"type:varchar(30)"`
	AdjustmentNotes   string                    `gorm:"type:varchar(500)"`
	TotalPayment      decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	PaymentDate       time.Time                 `gorm:"not null;index"`
	PaymentReference  string                    `gorm:"type:varchar(100)"`
	PaidDate          *time.Time
	Source            string `gorm:"type:varchar(30);not null;default:'local';index"`
}

// TableName returns the table name for GORM
func (PaymentBatchModel) TableName() string {
	return "payment_batches"
}

// ToDomain converts the persistence model to a domain PaymentBatch
func (m *PaymentBatchModel) ToDomain() *payments.PaymentBatch {
	b := &payments.PaymentBatch{
		Reference:         m.Reference,
		BatchType:         m.BatchType,
		Status:            m.Status,
		BeneficiaryID:     m.BeneficiaryID,
		BeneficiaryName:   m.BeneficiaryName,
		TotalAllocations:  m.TotalAllocations,
		BalanceAdjustment: m.BalanceAdjustment,
		AdjustmentSource:  m.AdjustmentSource,
		AdjustmentNotes:   m.AdjustmentNotes,
		TotalPayment:      m.TotalPayment,
		PaymentDate:       m.PaymentDate,
		PaymentReference:  m.PaymentReference,
		PaidDate:          m.PaidDate,
		Source:            m.Source,
	}
	m.PopulateAuditedAggregateRoot(&b.AuditedAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain PaymentBatch
func (m *PaymentBatchModel) FromDomain(b *payments.PaymentBatch) {
	m.FromDomainAuditedAggregateRoot(b.AuditedAggregateRoot)
	m.Reference = b.Reference
	m.BatchType = b.BatchType
	m.Status = b.Status
	m.BeneficiaryID = b.BeneficiaryID
	m.BeneficiaryName = b.BeneficiaryName
	m.TotalAllocations = b.TotalAllocations
	m.BalanceAdjustment = b.BalanceAdjustment
	m.AdjustmentSource = b.AdjustmentSource
	m.AdjustmentNotes = b.AdjustmentNotes
	m.TotalPayment = b.TotalPayment
	m.PaymentDate = b.PaymentDate
	m.PaymentReference = b.PaymentReference
	m.PaidDate = b.PaidDate
	m.Source = b.Source
}

// PaymentBatchModelFromDomain creates a new persistence model from a domain PaymentBatch
func PaymentBatchModelFromDomain(b *payments.PaymentBatch) *PaymentBatchModel {
	m := &PaymentBatchModel{}
	m.FromDomain(b)
	return m
}
