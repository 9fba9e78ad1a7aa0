// Package holiday provides the year-scoped public holiday table.
package holiday

import (
	"iter"
	"maps"
	"slices"
	"time"

	"workcal/internal/model"
)

// Table maps dates of one year to holiday names. It is never mutated after
// construction.
type Table struct {
	year  int
	names map[model.Date]string
}

// NewTable wraps names for year. Entries outside year are ignored.
func NewTable(year int, names map[model.Date]string) Table {
	t := Table{year: year, names: make(map[model.Date]string, len(names))}
	for d, n := range names {
		if d.InYear(year) {
			t.names[d] = n
		}
	}
	return t
}

func (t Table) Year() int { return t.year }

// Name returns the holiday name for d.
func (t Table) Name(d model.Date) (string, bool) {
	n, ok := t.names[d]
	return n, ok
}

// Has reports whether d is a holiday.
func (t Table) Has(d model.Date) bool {
	_, ok := t.names[d]
	return ok
}

func (t Table) Len() int { return len(t.names) }

// All yields holidays in date order.
func (t Table) All() iter.Seq2[model.Date, string] {
	return func(yield func(model.Date, string) bool) {
		for _, d := range slices.Sorted(maps.Keys(t.names)) {
			if !yield(d, t.names[d]) {
				return
			}
		}
	}
}

// Provider returns the holiday table for a year.
type Provider interface {
	ForYear(year int) Table
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(year int) Table

func (f ProviderFunc) ForYear(year int) Table { return f(year) }

// Slovak is the Provider of Slovak public holidays (days off work).
var Slovak Provider = ProviderFunc(SlovakHolidays)

// SlovakHolidays returns the public holidays in Slovakia for year.
func SlovakHolidays(year int) Table {
	h := make(map[model.Date]string)

	// Fixed holidays
	h[model.DateOf(year, time.January, 1)] = "Deň vzniku Slovenskej republiky"
	h[model.DateOf(year, time.January, 6)] = "Zjavenie Pána"
	h[model.DateOf(year, time.May, 1)] = "Sviatok práce"
	h[model.DateOf(year, time.May, 8)] = "Deň víťazstva nad fašizmom"
	h[model.DateOf(year, time.July, 5)] = "Sviatok svätého Cyrila a Metoda"
	h[model.DateOf(year, time.August, 29)] = "Výročie Slovenského národného povstania"
	if year < 2024 {
		h[model.DateOf(year, time.September, 1)] = "Deň Ústavy Slovenskej republiky"
	}
	h[model.DateOf(year, time.September, 15)] = "Sedembolestná Panna Mária"
	h[model.DateOf(year, time.November, 1)] = "Sviatok Všetkých svätých"
	h[model.DateOf(year, time.November, 17)] = "Deň boja za slobodu a demokraciu"
	h[model.DateOf(year, time.December, 24)] = "Štedrý deň"
	h[model.DateOf(year, time.December, 25)] = "Prvý sviatok vianočný"
	h[model.DateOf(year, time.December, 26)] = "Druhý sviatok vianočný"

	// Easter-based holidays (movable)
	easter := Easter(year)
	h[dateFromTime(easter.AddDate(0, 0, -2))] = "Veľký piatok"
	h[dateFromTime(easter.AddDate(0, 0, 1))] = "Veľkonočný pondelok"

	return NewTable(year, h)
}

// Easter calculates Easter Sunday using the Meeus/Jones/Butcher algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func dateFromTime(t time.Time) model.Date {
	return model.Date(t.Format(model.DateLayout))
}
