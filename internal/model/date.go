package model

import (
	"fmt"
	"time"
)

// DateLayout is the textual form of a calendar date.
const DateLayout = "2006-01-02"

// Date is a local calendar date in YYYY-MM-DD form. Dates compare
// chronologically with the ordinary string operators.
type Date string

// ParseDate accepts only the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return "", fmt.Errorf("%w: malformed date %q", ErrValidation, s)
	}
	return Date(s), nil
}

// DateOf builds a Date from its parts. Out-of-range parts are normalized
// the way time.Date normalizes them.
func DateOf(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(DateLayout))
}

// Valid reports whether d is a well-formed date.
func (d Date) Valid() bool {
	_, err := ParseDate(string(d))
	return err == nil
}

// Time returns midnight UTC of d. Invalid dates yield the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Date) Year() int { return d.Time().Year() }
func (d Date) Month() time.Month { return d.Time().Month() }
func (d Date) Day() int { return d.Time().Day() }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) String() string { return string(d) }
func (d Date) InYear(year int) bool { return d.Valid() && d.Year() == year }
func (d Date) Before(other Date) bool { return d < other }

// IsWeekend reports Saturday and Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
