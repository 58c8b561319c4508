package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propflow/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle status of a payment batch
type BatchStatus string

const (
	BatchStatusDraft   BatchStatus = "DRAFT"   // being assembled, fully editable
	BatchStatusPending BatchStatus = "PENDING" // approved for payment
	BatchStatusPaid    BatchStatus = "PAID"    // settled; terminal and immutable
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusDraft, BatchStatusPending, BatchStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the batch is in a terminal state
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusPaid
}

// BatchType represents the kind of payment run a batch settles
type BatchType string

const (
	BatchTypeOwnerPayment   BatchType = "OWNER_PAYMENT"
	BatchTypeExpensePayment BatchType = "EXPENSE_PAYMENT"
	BatchTypeCommission     BatchType = "COMMISSION"
	BatchTypeDisbursement   BatchType = "DISBURSEMENT"
)

// IsValid checks if the batch type is valid
func (t BatchType) IsValid() bool {
	switch t {
	case BatchTypeOwnerPayment, BatchTypeExpensePayment, BatchTypeCommission, BatchTypeDisbursement:
		return true
	}
	return false
}

// AdjustmentSource tags where a manual balance adjustment originates
type AdjustmentSource string

const (
	AdjustmentSourceBlock        AdjustmentSource = "BLOCK"         // block service-charge accounting
	AdjustmentSourceOwnerBalance AdjustmentSource = "OWNER_BALANCE" // owner's retained balance
)

// IsValid checks if the adjustment source is valid
func (s AdjustmentSource) IsValid() bool {
	return s == AdjustmentSourceBlock || s == AdjustmentSourceOwnerBalance
}

// Batch origins. Batches created by this engine are tagged local; batches
// recorded from an external payments platform carry the sync origin so
// beneficiary queries can exclude them.
const (
	BatchSourceLocal        = "local"
	BatchSourceExternalSync = "external_sync"
)

// FormatReference builds a batch reference: {PREFIX}-{YYYYMMDD}-{seq:04d}
func FormatReference(prefix string, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), seq)
}

// ReferenceDatePrefix returns the shared prefix of all references generated
// on the given date, e.g. "OWNER-20250301-"
func ReferenceDatePrefix(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, date.Format("20060102"))
}

// ReferenceSequence extracts the sequence number from a batch reference.
// Parse failures yield 0, never an error: references from external sources
// do not follow the local format and simply don't advance the sequence.
func ReferenceSequence(reference string) int {
	idx := strings.LastIndex(reference, "-")
	if idx < 0 || idx == len(reference)-1 {
		return 0
	}
	seq, err := strconv.Atoi(reference[idx+1:])
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

// PaymentBatch represents a single payment run to a beneficiary: a named
// group of allocations with its own lifecycle and an optional manual balance
// adjustment. TotalPayment = TotalAllocations + BalanceAdjustment.
type PaymentBatch struct {
	shared.AuditedAggregateRoot
	Reference         string
	BatchType         BatchType
	Status            BatchStatus
	BeneficiaryID     uuid.UUID
	BeneficiaryName   string
	TotalAllocations  decimal.Decimal
	BalanceAdjustment decimal.Decimal
	AdjustmentSource  AdjustmentSource // empty when no adjustment recorded
	AdjustmentNotes   string
	TotalPayment      decimal.Decimal
	PaymentDate       time.Time
	PaymentReference  string
	PaidDate          *time.Time
	Source            string
}

// NewPaymentBatch creates a payment batch in DRAFT over the given
// total-allocations amount
func NewPaymentBatch(
	reference string,
	batchType BatchType,
	beneficiaryID uuid.UUID,
	beneficiaryName string,
	totalAllocations decimal.Decimal,
	paymentDate time.Time,
	actor uuid.UUID,
) (*PaymentBatch, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_REFERENCE", "Batch reference cannot be empty")
	}
	if !batchType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BATCH_TYPE", "Batch type is not valid")
	}
	if beneficiaryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BENEFICIARY", "Beneficiary ID cannot be empty")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	return &PaymentBatch{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(actor),
		Reference:            reference,
		BatchType:            batchType,
		Status:               BatchStatusDraft,
		BeneficiaryID:        beneficiaryID,
		BeneficiaryName:      beneficiaryName,
		TotalAllocations:     totalAllocations,
		BalanceAdjustment:    decimal.Zero,
		TotalPayment:         totalAllocations,
		PaymentDate:          paymentDate,
		Source:               BatchSourceLocal,
	}, nil
}

// WithSource tags the batch origin (defaults to local)
func (b *PaymentBatch) WithSource(source string) *PaymentBatch {
	b.Source = source
	return b
}

// IsPaid reports whether the batch has been settled
func (b *PaymentBatch) IsPaid() bool {
	return b.Status == BatchStatusPaid
}

// AddBalanceAdjustment records a manual signed adjustment on top of the
// allocation total and recomputes the total payment. Rejected once paid.
func (b *PaymentBatch) AddBalanceAdjustment(amount decimal.Decimal, source AdjustmentSource, notes string) error {
	if b.IsPaid() {
		return shared.NewDomainError(CodeBatchAlreadyPaid, fmt.Sprintf("Batch %s is paid and can no longer be adjusted", b.Reference))
	}
	if amount.IsZero() {
		return shared.NewDomainError("INVALID_ADJUSTMENT", "Adjustment amount cannot be zero")
	}
	if !source.IsValid() {
		return shared.NewDomainError("INVALID_ADJUSTMENT_SOURCE", "Adjustment source is not valid")
	}

	b.BalanceAdjustment = amount
	b.AdjustmentSource = source
	b.AdjustmentNotes = notes
	b.TotalPayment = b.TotalAllocations.Add(b.BalanceAdjustment)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// MarkPending moves the batch from DRAFT to PENDING. No side effects.
func (b *PaymentBatch) MarkPending() error {
	if b.Status != BatchStatusDraft {
		return shared.NewDomainError(CodeInvalidTransition, fmt.Sprintf("Cannot mark batch %s pending from %s status", b.Reference, b.Status))
	}
	b.Status = BatchStatusPending
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// MarkPaid settles the batch. Terminal; the caller cascades the paid status
// and date to every allocation referencing the batch.
func (b *PaymentBatch) MarkPaid(paidDate time.Time, paymentReference string) error {
	if b.IsPaid() {
		return shared.NewDomainError(CodeBatchAlreadyPaid, fmt.Sprintf("Batch %s is already paid", b.Reference))
	}
	if paidDate.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Paid date is required")
	}

	b.Status = BatchStatusPaid
	b.PaidDate = &paidDate
	b.PaymentReference = paymentReference
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}
