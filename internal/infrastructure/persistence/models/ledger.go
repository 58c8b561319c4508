package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/ledger"
)

// PropertyBalanceModel is the persistence model for the PropertyBalance
// aggregate root.
type PropertyBalanceModel struct {
	AggregateModel
	PropertyID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MinimumBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PropertyBalanceModel) TableName() string {
	return "property_balances"
}

// ToDomain converts the persistence model to a domain PropertyBalance
func (m *PropertyBalanceModel) ToDomain() *ledger.PropertyBalance {
	b := &ledger.PropertyBalance{
		PropertyID:     m.PropertyID,
		CurrentBalance: m.CurrentBalance,
		MinimumBalance: m.MinimumBalance,
	}
	m.PopulateAggregateRoot(&b.BaseAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain PropertyBalance
func (m *PropertyBalanceModel) FromDomain(b *ledger.PropertyBalance) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.PropertyID = b.PropertyID
	m.CurrentBalance = b.CurrentBalance
	m.MinimumBalance = b.MinimumBalance
}

// PropertyBalanceModelFromDomain creates a new persistence model from a domain PropertyBalance
func PropertyBalanceModelFromDomain(b *ledger.PropertyBalance) *PropertyBalanceModel {
	m := &PropertyBalanceModel{}
	m.FromDomain(b)
	return m
}

// LedgerEntryModel is the persistence model for ledger entries. Rows are
// append-only; there is no update path.
type LedgerEntryModel struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key"`
	PropertyID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_ledger_property_date,priority:1"`
	EntryType         ledger.EntryType `gorm:"type:varchar(30);not null;index"`
	Amount            decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	RunningBalance    decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PaymentBatchID    *uuid.UUID       `gorm:"type:uuid;index"`
	RelatedPropertyID *uuid.UUID       `gorm:"type:uuid"`
	EntryDate         time.Time        `gorm:"not null;index:idx_ledger_property_date,priority:2"`
	Description       string           `gorm:"type:varchar(500)"`
	Notes             string           `gorm:"type:varchar(500)"`
	CreatedBy         *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt         time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *ledger.LedgerEntry {
	return &ledger.LedgerEntry{
		ID:                m.ID,
		PropertyID:        m.PropertyID,
		EntryType:         m.EntryType,
		Amount:            m.Amount,
		RunningBalance:    m.RunningBalance,
		PaymentBatchID:    m.PaymentBatchID,
		RelatedPropertyID: m.RelatedPropertyID,
		EntryDate:         m.EntryDate,
		Description:       m.Description,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *ledger.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:                e.ID,
		PropertyID:        e.PropertyID,
		EntryType:         e.EntryType,
		Amount:            e.Amount,
		RunningBalance:    e.RunningBalance,
		PaymentBatchID:    e.PaymentBatchID,
		RelatedPropertyID: e.RelatedPropertyID,
		EntryDate:         e.EntryDate,
		Description:       e.Description,
		Notes:             e.Notes,
		CreatedBy:         e.CreatedBy,
		CreatedAt:         e.CreatedAt,
	}
}
