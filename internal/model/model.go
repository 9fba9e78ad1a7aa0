package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// VacationTypeID is the reserved event type counted against the allowance.
// Every other type is informational only.
const VacationTypeID = "vacation"

// IsVacation is the single place where the accounting rule is decided.
func IsVacation(typeID string) bool {
	return typeID == VacationTypeID
}

// Duration is the length of an event: a full or a half day.
type Duration int8

const (
	// DurationUnset is the zero value; it is never stored.
	DurationUnset Duration = iota
	Half
	Full
)

// Days returns the exact day quantity of the duration.
func (d Duration) Days() Days {
	switch d {
	case Full:
		return NewDaysFromInt(1)
	case Half:
		return Days{half}
	default:
		return ZeroDays
	}
}

func (d Duration) Valid() bool { return d == Full || d == Half }

// Label is the Slovak label used on reports.
func (d Duration) Label() string {
	if d == Half {
		return "Pol dňa"
	}
	return "Celý deň"
}

func (d Duration) String() string {
	switch d {
	case Full:
		return "1"
	case Half:
		return "0.5"
	default:
		return "unset"
	}
}

// MarshalJSON writes 1 or 0.5.
func (d Duration) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: duration is unset", ErrValidation)
	}
	return []byte(d.String()), nil
}

// UnmarshalJSON reads 1 or 0.5. A 0 or null value decodes to DurationUnset
// so that callers can apply their own default.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = DurationUnset
		return nil
	}
	v, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: duration %s is not a number", ErrValidation, b)
	}
	switch {
	case v.IsZero():
		*d = DurationUnset
	case v.Equal(decimal.NewFromInt(1)):
		*d = Full
	case v.Equal(half):
		*d = Half
	default:
		return fmt.Errorf("%w: duration must be 1 or 0.5, got %s", ErrValidation, b)
	}
	return nil
}

// EventRecord is what is attached to a single calendar date.
type EventRecord struct {
	TypeID   string   `json:"typeId" validate:"required"`
	Duration Duration `json:"duration"`
	Note     string   `json:"note,omitempty"`
}

// Validate checks the record on its own, without consulting the catalog.
func (r EventRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !r.Duration.Valid() {
		return fmt.Errorf("%w: duration must be 1 or 0.5", ErrValidation)
	}
	return nil
}

// EventType is a user-visible category attached to events.
type EventType struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Color       string `json:"color" yaml:"color"`
	TextColor   string `json:"textColor" yaml:"text_color"`
	Icon        string `json:"icon" yaml:"icon"`
	IsDeletable bool   `json:"isDeletable" yaml:"is_deletable"`
}

// Validate checks the id and name are present.
func (t EventType) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

var validate = validator.New()
