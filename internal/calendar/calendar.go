// Package calendar projects the event store and holiday table into
// per-month grids of day cells for rendering.
package calendar

import (
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"workcal/internal/allowance"
	"workcal/internal/holiday"
	"workcal/internal/locale"
	appLog "workcal/internal/log"
	"workcal/internal/model"
)

// Events is the read side of the event store.
type Events interface {
	Get(date model.Date) (model.EventRecord, bool)
	EntriesForYear(year int) iter.Seq2[model.Date, model.EventRecord]
}

// Types resolves event type ids.
type Types interface {
	Resolve(id string) (model.EventType, bool)
}

// Source bundles everything a projection reads. NameDays is optional and
// keyed by "MM-DD".
type Source struct {
	Events   Events
	Types    Types
	Holidays holiday.Table
	NameDays map[string]string
}

// Cell is one slot of the month grid. Empty cells pad the first and last
// week rows and carry no date.
type Cell struct {
	Empty       bool               `json:"empty"`
	Date        model.Date         `json:"date,omitempty"`
	Day         int                `json:"day,omitempty"`
	Weekday     time.Weekday       `json:"weekday"`
	Weekend     bool               `json:"weekend"`
	Holiday     bool               `json:"holiday"`
	HolidayName string             `json:"holidayName,omitempty"`
	NameDay     string             `json:"nameDay,omitempty"`
	Selectable  bool               `json:"selectable"`
	Record      *model.EventRecord `json:"record,omitempty"`
	Type        *model.EventType   `json:"type,omitempty"`
}

// Month is the projection of one calendar month.
type Month struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	Name          string     `json:"name"`
	Offset        int        `json:"offset"`
	DaysInMonth   int        `json:"daysInMonth"`
	Cells         []Cell     `json:"cells"`
	Vacation      model.Days `json:"vacation"`
	VacationLabel string     `json:"vacationLabel"`
	Workdays      int        `json:"workdays"`
}

// Trailing returns the number of empty cells after the last day.
func (m Month) Trailing() int {
	return len(m.Cells) - m.Offset - m.DaysInMonth
}

// Weeks splits the cells into rows of seven.
func (m Month) Weeks() [][]Cell {
	var rows [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		rows = append(rows, m.Cells[i:i+7])
	}
	return rows
}

// IsLeap applies the Gregorian rule.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the length of month in year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// MondayOffset is the column of wd in a Monday-first week.
func MondayOffset(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// ProjectMonth builds the grid for month0 (0 = January) of year.
func ProjectMonth(src Source, year, month0 int) (Month, error) {
	if month0 < 0 || month0 > 11 {
		return Month{}, fmt.Errorf("%w: month %d out of range 0-11", model.ErrValidation, month0)
	}
	month := time.Month(month0 + 1)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := MondayOffset(first.Weekday())
	days := DaysInMonth(year, month)
	total := (offset + days + 6) / 7 * 7

	m := Month{
		Year:        year,
		Month:       month,
		Name:        locale.MonthName(month),
		Offset:      offset,
		DaysInMonth: days,
		Cells:       make([]Cell, 0, total),
	}

	for i := 0; i < offset; i++ {
		m.Cells = append(m.Cells, Cell{Empty: true})
	}
	for day := 1; day <= days; day++ {
		m.Cells = append(m.Cells, projectDay(src, model.DateOf(year, month, day)))
	}
	for len(m.Cells) < total {
		m.Cells = append(m.Cells, Cell{Empty: true})
	}

	if src.Events != nil {
		m.Vacation = allowance.MonthUsedDays(src.Events, year, month)
	} else {
		m.Vacation = model.ZeroDays
	}
	m.VacationLabel = locale.DaysWord(m.Vacation)
	m.Workdays = countWorkdays(year, month, days, src.Holidays)

	return m, nil
}

// ProjectYear builds all twelve months.
func ProjectYear(src Source, year int) []Month {
	months := make([]Month, 0, 12)
	for i := 0; i < 12; i++ {
		m, _ := ProjectMonth(src, year, i)
		months = append(months, m)
	}
	return months
}

func projectDay(src Source, d model.Date) Cell {
	c := Cell{
		Date:    d,
		Day:     d.Day(),
		Weekday: d.Weekday(),
		Weekend: d.IsWeekend(),
	}
	if name, ok := src.Holidays.Name(d); ok {
		c.Holiday = true
		c.HolidayName = name
	}
	if src.NameDays != nil {
		c.NameDay = src.NameDays[string(d)[5:]]
	}
	c.Selectable = !c.Weekend && !c.Holiday

	if src.Events == nil {
		return c
	}
	if rec, ok := src.Events.Get(d); ok {
		c.Record = &rec
		if src.Types != nil {
			if t, ok := src.Types.Resolve(rec.TypeID); ok {
				c.Type = &t
			}
		}
	}
	return c
}

// countWorkdays enumerates Monday-Friday with an rrule and removes the
// holidays as exdates.
func countWorkdays(year int, month time.Month, days int, holidays holiday.Table) int {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(year, month, days, 0, 0, 0, 0, time.UTC)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Until:     until,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
	})
	if err != nil {
		appLog.Error("calendar: failed to build workday rule", err, "year", year, "month", int(month))
		return 0
	}

	var set rrule.Set
	set.RRule(r)
	for d := range holidays.All() {
		if d.Month() == month {
			set.ExDate(d.Time())
		}
	}
	return len(set.All())
}
