package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable, currency-safe monetary amount. Amounts are always
// non-negative and rounded to 2 decimal places (half away from zero).
// Arithmetic between two Money values requires identical currencies.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates and rounds the amount.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount.Round(2), currency: cur}, nil
}

// NewMoneyFromFloat is a convenience constructor for literal amounts.
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

func normalizeCurrency(currency string) (string, error) {
	if len(currency) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	out := make([]byte, 3)
	for i := 0; i < 3; i++ {
		c := currency[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out[i] = c
		case c >= 'a' && c <= 'z':
			out[i] = c - ('a' - 'A')
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
		}
	}
	return string(out), nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// Subtract returns m - other. A negative result violates the non-negative
// invariant and fails with ErrInvalidAmount.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency)
}

// Multiply returns m scaled by factor.
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	return NewMoney(m.amount.Mul(factor), m.currency)
}

// MultiplyInt scales by an integer quantity.
func (m Money) MultiplyInt(factor int) (Money, error) {
	return m.Multiply(decimal.NewFromInt(int64(factor)))
}

// Divide returns m divided by factor.
func (m Money) Divide(factor decimal.Decimal) (Money, error) {
	if factor.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return NewMoney(m.amount.Div(factor), m.currency)
}

// Equals reports value equality; currencies must match.
func (m Money) Equals(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.Equal(other.amount), nil
}

// GreaterThan reports m > other; currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// LessThan reports m < other; currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
