package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var half = decimal.New(5, -1)

// Days is an exact quantity of days. Allowances and usage only ever move in
// half-day steps, so decimal arithmetic keeps sums exact over any number of
// additions.
type Days struct {
	decimal.Decimal
}

// ZeroDays is 0 days.
var ZeroDays = Days{decimal.Zero}

// NewDays converts a float such as 20 or 0.5.
func NewDays(v float64) Days { return Days{decimal.NewFromFloat(v)} }

// NewDaysFromInt returns n whole days.
func NewDaysFromInt(n int64) Days { return Days{decimal.NewFromInt(n)} }

// ParseDays parses a decimal string such as "20.5".
func ParseDays(s string) (Days, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroDays, fmt.Errorf("%w: %q is not a number", ErrValidation, s)
	}
	return Days{d}, nil
}

func (d Days) Add(o Days) Days { return Days{d.Decimal.Add(o.Decimal)} }
func (d Days) Sub(o Days) Days { return Days{d.Decimal.Sub(o.Decimal)} }
func (d Days) Equal(o Days) bool { return d.Decimal.Equal(o.Decimal) }
func (d Days) IsNegative() bool { return d.Decimal.IsNegative() }
func (d Days) Float64() float64 { return d.Decimal.InexactFloat64() }
func (d Days) String() string { return d.Decimal.String() }
func (d Days) GreaterThan(o Days) bool { return d.Decimal.GreaterThan(o.Decimal) }

// IsHalfStep reports whether d is a multiple of 0.5.
func (d Days) IsHalfStep() bool {
	return d.Decimal.Mod(half).IsZero()
}

// ValidateAllowance checks that d is a non-negative half-step amount.
func (d Days) ValidateAllowance(field string) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	if !d.IsHalfStep() {
		return fmt.Errorf("%w: %s must be a multiple of 0.5", ErrValidation, field)
	}
	return nil
}

// MarshalJSON writes a bare JSON number.
func (d Days) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.String()), nil
}

// UnmarshalJSON accepts a JSON number (quoted numbers are accepted as well).
// d is left untouched on error.
func (d *Days) UnmarshalJSON(b []byte) error {
	var v decimal.Decimal
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	d.Decimal = v
	return nil
}

// MarshalYAML keeps config files readable.
func (d Days) MarshalYAML() (any, error) {
	return d.Float64(), nil
}

// UnmarshalYAML reads a plain number.
func (d *Days) UnmarshalYAML(unmarshal func(any) error) error {
	var f float64
	if err := unmarshal(&f); err != nil {
		return err
	}
	*d = NewDays(f)
	return nil
}
