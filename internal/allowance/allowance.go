// Package allowance derives used and remaining vacation days.
package allowance

import (
	"iter"
	"time"

	"workcal/internal/model"
)

// Events is the read side of the event store.
type Events interface {
	EntriesForYear(year int) iter.Seq2[model.Date, model.EventRecord]
}

// Config holds the yearly entitlement.
type Config struct {
	Base      model.Days `json:"baseAllowance" yaml:"base"`
	CarryOver model.Days `json:"carryOverDays" yaml:"carry_over"`
}

// Total is Base + CarryOver.
func (c Config) Total() model.Days {
	return c.Base.Add(c.CarryOver)
}

// Validate checks both amounts are non-negative half-day steps.
func (c Config) Validate() error {
	if err := c.Base.ValidateAllowance("base allowance"); err != nil {
		return err
	}
	return c.CarryOver.ValidateAllowance("carry-over days")
}

// Summary is the five figures shown on screen and in the report.
type Summary struct {
	Base      model.Days `json:"base"`
	CarryOver model.Days `json:"carryOver"`
	Total     model.Days `json:"total"`
	Used      model.Days `json:"used"`
	Remaining model.Days `json:"remaining"`
}

// UsedDays sums the durations of vacation-type records in year. Other event
// types never count.
func UsedDays(events Events, year int) model.Days {
	return sum(events, year, func(model.Date) bool { return true })
}

// MonthUsedDays is UsedDays restricted to one month.
func MonthUsedDays(events Events, year int, month time.Month) model.Days {
	return sum(events, year, func(d model.Date) bool { return d.Month() == month })
}

func sum(events Events, year int, keep func(model.Date) bool) model.Days {
	total := model.ZeroDays
	for d, r := range events.EntriesForYear(year) {
		if !model.IsVacation(r.TypeID) || !keep(d) {
			continue
		}
		total = total.Add(r.Duration.Days())
	}
	return total
}

// RemainingDays is Total minus UsedDays. The result is not clamped and
// goes negative when the allowance is overdrawn.
func RemainingDays(cfg Config, events Events, year int) model.Days {
	return cfg.Total().Sub(UsedDays(events, year))
}

// Summarize computes every figure at once.
func Summarize(cfg Config, events Events, year int) Summary {
	used := UsedDays(events, year)
	total := cfg.Total()
	return Summary{
		Base:      cfg.Base,
		CarryOver: cfg.CarryOver,
		Total:     total,
		Used:      used,
		Remaining: total.Sub(used),
	}
}
