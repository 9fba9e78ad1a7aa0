package report

import (
	"io"

	"github.com/gocarina/gocsv"

	"workcal/internal/locale"
)

// LedgerRow is one line of the CSV export handed to payroll.
type LedgerRow struct {
	Date     string `csv:"datum"`
	Weekday  string `csv:"den"`
	Type     string `csv:"typ"`
	Duration string `csv:"trvanie"`
	Days     string `csv:"dni"`
	Note     string `csv:"poznamka"`
}

// LedgerRows flattens the vacation and other-event ledgers into one list
// in ascending date order.
func LedgerRows(r Report) []*LedgerRow {
	rows := make([]*LedgerRow, 0, len(r.Vacations))
	vi := 0
	flushVacations := func(before string) {
		for ; vi < len(r.Vacations); vi++ {
			v := r.Vacations[vi]
			if before != "" && string(v.Date) >= before {
				return
			}
			rows = append(rows, &LedgerRow{
				Date:     v.Date.String(),
				Weekday:  locale.WeekdayName(v.Date.Weekday()),
				Type:     "Dovolenka",
				Duration: v.Duration.Label(),
				Days:     v.Duration.Days().String(),
				Note:     v.Note,
			})
		}
	}
	for _, g := range r.Other {
		for _, e := range g.Events {
			flushVacations(string(e.Date))
			rows = append(rows, &LedgerRow{
				Date:     e.Date.String(),
				Weekday:  locale.WeekdayName(e.Date.Weekday()),
				Type:     e.TypeName,
				Duration: e.Duration.Label(),
				Days:     e.Duration.Days().String(),
				Note:     e.Note,
			})
		}
	}
	flushVacations("")
	return rows
}

// WriteCSV writes the ledger of r as CSV with a header row.
func WriteCSV(w io.Writer, r Report) error {
	return gocsv.Marshal(LedgerRows(r), w)
}
