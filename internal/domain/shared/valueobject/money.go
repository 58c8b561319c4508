package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// GBP is the only currency the engine settles in
const GBP Currency = "GBP"

// DefaultCurrency is the default currency for the system
const DefaultCurrency = GBP

// Money pairs a monetary amount with its currency for display. The engine
// computes and stores bare decimals; Money is the presentation form used on
// payment advices. Amounts are signed: income and deposits positive,
// expenses negative.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the given amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyGBP creates Money in GBP
func NewMoneyGBP(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: GBP}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// String renders the amount to two decimal places with the currency code,
// e.g. "1200.00 GBP"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed returns the amount as a string with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}
