package payments

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known transaction categories. Categories are free text on import;
// matching is done on the normalized form.
const (
	CategoryRent         = "rent"
	CategoryOwnerPayment = "owner_payment"
)

// NormalizeCategory canonicalises a category string for matching
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// CommissionBreakdown is the result of computing the owner's share of a
// transaction: the commission retained by the agency and the net amount due
// to the property owner. Net keeps the sign convention of the gross amount.
type CommissionBreakdown struct {
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	NetToOwner       decimal.Decimal
}

// ComputeNetToOwner computes the commission and net-to-owner amounts for a
// transaction. Returns nil when the transaction does not resolve to a
// net-to-owner amount: the caller must leave the field unset, never zero it,
// so that a backfill run can retry only genuinely unresolved rows.
//
// Rules:
//   - category owner_payment is always skipped
//   - positive rent income: commission = gross x rate / 100 rounded half-up
//     to 2 decimal places, net = gross - commission
//   - any negative amount is an expense, passed through with zero commission
//   - anything else (zero amount, unrecognised positive category) is skipped
//
// A negative or missing commission rate is treated as zero.
func ComputeNetToOwner(category string, gross decimal.Decimal, rate decimal.Decimal) *CommissionBreakdown {
	normalized := NormalizeCategory(category)

	if normalized == CategoryOwnerPayment {
		return nil
	}

	if gross.IsNegative() {
		return &CommissionBreakdown{
			CommissionRate:   decimal.Zero,
			CommissionAmount: decimal.Zero,
			NetToOwner:       gross,
		}
	}

	if normalized == CategoryRent && gross.IsPositive() {
		if rate.IsNegative() {
			rate = decimal.Zero
		}
		commission := gross.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
		return &CommissionBreakdown{
			CommissionRate:   rate,
			CommissionAmount: commission,
			NetToOwner:       gross.Sub(commission),
		}
	}

	return nil
}
