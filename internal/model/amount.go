package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value carried on the HMRC wire protocol. It
// marshals as a bare JSON number rather than decimal's default quoted
// string, which is what the VAT API expects.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal as a wire amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d}
}

// AmountFromString parses a decimal string into an Amount.
func AmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Amount{d}, nil
}

// AmountFromFloat converts a float into an Amount.
func AmountFromFloat(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// MarshalJSON renders the amount as an unquoted number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts both bare numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", s, err)
	}
	a.Decimal = d
	return nil
}

// Equal reports whether two amounts have the same numeric value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}
