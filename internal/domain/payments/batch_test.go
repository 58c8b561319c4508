package payments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/backend/internal/domain/shared"
)

func createTestBatch(t *testing.T, total string) *PaymentBatch {
	t.Helper()
	batch, err := NewPaymentBatch(
		"OWNER-20250301-0001",
		BatchTypeOwnerPayment,
		uuid.New(),
		"J Smith",
		dec(t, total),
		time.Now(),
		uuid.New(),
	)
	require.NoError(t, err)
	return batch
}

func TestBatchStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  BatchStatus
		isValid bool
	}{
		{BatchStatusDraft, true},
		{BatchStatusPending, true},
		{BatchStatusPaid, true},
		{BatchStatus("INVALID"), false},
		{BatchStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestFormatReference(t *testing.T) {
	date := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "OWNER-20250301-0007", FormatReference("OWNER", date, 7))
	assert.Equal(t, "EXP-20250301-0123", FormatReference("EXP", date, 123))
	assert.Equal(t, "OWNER-20250301-", ReferenceDatePrefix("OWNER", date))
}

func TestReferenceSequence(t *testing.T) {
	tests := []struct {
		reference string
		expected  int
	}{
		{"OWNER-20250301-0001", 1},
		{"OWNER-20250301-0123", 123},
		{"OWNER-20250301-9999", 9999},
		{"PP-REMOTE-abc", 0}, // unparseable tails never throw
		{"no-dash-at-all-", 0},
		{"plainref", 0},
		{"OWNER-20250301--12", 0},
	}

	for _, tt := range tests {
		t.Run(tt.reference, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReferenceSequence(tt.reference))
		})
	}
}

func TestNewPaymentBatch_Validation(t *testing.T) {
	now := time.Now()

	t.Run("requires reference", func(t *testing.T) {
		_, err := NewPaymentBatch("", BatchTypeOwnerPayment, uuid.New(), "x", dec(t, "100"), now, uuid.Nil)
		assert.Equal(t, "INVALID_BATCH_REFERENCE", shared.ErrorCode(err))
	})

	t.Run("requires valid type", func(t *testing.T) {
		_, err := NewPaymentBatch("B-1", BatchType("NOPE"), uuid.New(), "x", dec(t, "100"), now, uuid.Nil)
		assert.Equal(t, "INVALID_BATCH_TYPE", shared.ErrorCode(err))
	})

	t.Run("requires beneficiary", func(t *testing.T) {
		_, err := NewPaymentBatch("B-1", BatchTypeOwnerPayment, uuid.Nil, "x", dec(t, "100"), now, uuid.Nil)
		assert.Equal(t, "INVALID_BENEFICIARY", shared.ErrorCode(err))
	})

	t.Run("starts in draft with total payment matching allocations", func(t *testing.T) {
		batch := createTestBatch(t, "900")
		assert.Equal(t, BatchStatusDraft, batch.Status)
		assert.Equal(t, BatchSourceLocal, batch.Source)
		assert.True(t, batch.TotalPayment.Equal(dec(t, "900")))
	})
}

func TestPaymentBatch_AddBalanceAdjustment(t *testing.T) {
	batch := createTestBatch(t, "900")

	require.NoError(t, batch.AddBalanceAdjustment(dec(t, "-50"), AdjustmentSourceBlock, "service charge held back"))
	assert.True(t, batch.TotalPayment.Equal(dec(t, "850")))
	assert.Equal(t, AdjustmentSourceBlock, batch.AdjustmentSource)

	t.Run("zero amount rejected", func(t *testing.T) {
		err := batch.AddBalanceAdjustment(dec(t, "0"), AdjustmentSourceBlock, "")
		assert.Equal(t, "INVALID_ADJUSTMENT", shared.ErrorCode(err))
	})

	t.Run("invalid source rejected", func(t *testing.T) {
		err := batch.AddBalanceAdjustment(dec(t, "10"), AdjustmentSource("ELSEWHERE"), "")
		assert.Equal(t, "INVALID_ADJUSTMENT_SOURCE", shared.ErrorCode(err))
	})

	t.Run("rejected once paid", func(t *testing.T) {
		require.NoError(t, batch.MarkPaid(time.Now(), "BACS-1"))
		err := batch.AddBalanceAdjustment(dec(t, "25"), AdjustmentSourceOwnerBalance, "")
		assert.Equal(t, CodeBatchAlreadyPaid, shared.ErrorCode(err))
		assert.True(t, batch.TotalPayment.Equal(dec(t, "850")))
	})
}

func TestPaymentBatch_Lifecycle(t *testing.T) {
	t.Run("draft to pending to paid", func(t *testing.T) {
		batch := createTestBatch(t, "900")

		require.NoError(t, batch.MarkPending())
		assert.Equal(t, BatchStatusPending, batch.Status)

		paidDate := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, batch.MarkPaid(paidDate, "BACS-42"))
		assert.Equal(t, BatchStatusPaid, batch.Status)
		require.NotNil(t, batch.PaidDate)
		assert.Equal(t, paidDate, *batch.PaidDate)
		assert.Equal(t, "BACS-42", batch.PaymentReference)
	})

	t.Run("draft can be paid directly", func(t *testing.T) {
		batch := createTestBatch(t, "900")
		require.NoError(t, batch.MarkPaid(time.Now(), ""))
	})

	t.Run("pending only from draft", func(t *testing.T) {
		batch := createTestBatch(t, "900")
		require.NoError(t, batch.MarkPending())
		err := batch.MarkPending()
		assert.Equal(t, CodeInvalidTransition, shared.ErrorCode(err))
	})

	t.Run("paid is terminal", func(t *testing.T) {
		batch := createTestBatch(t, "900")
		require.NoError(t, batch.MarkPaid(time.Now(), ""))

		err := batch.MarkPaid(time.Now(), "")
		assert.Equal(t, CodeBatchAlreadyPaid, shared.ErrorCode(err))
		err = batch.MarkPending()
		assert.Equal(t, CodeInvalidTransition, shared.ErrorCode(err))
	})
}
