// Package report composes the yearly attendance/vacation summary and lays
// it out as HTML for preview and for printing.
package report

import (
	"fmt"
	"time"

	"workcal/internal/allowance"
	"workcal/internal/locale"
	"workcal/internal/model"
	"workcal/internal/state"
)

// Report is the structured content of one year's summary. Both layouts
// render exactly these sections.
type Report struct {
	Year             int
	Title            string
	VacationOnly     bool
	Name             string
	OrganizationName string

	Allowance allowance.Summary
	Summary   []SummaryRow

	Vacations     []VacationLine
	VacationTotal model.Days

	// Other is grouped by month in calendar order; months without
	// non-vacation events are left out.
	Other []MonthGroup
}

// SummaryRow is one line of the five-row allowance table.
type SummaryRow struct {
	Label    string
	Value    model.Days
	Emphasis bool
	Tone     string
}

// VacationLine is one vacation day in the payroll ledger.
type VacationLine struct {
	Date     model.Date
	Label    string
	Duration model.Duration
	Note     string
}

// MonthGroup holds the non-vacation events of one month.
type MonthGroup struct {
	Month  time.Month
	Label  string
	Events []OtherLine
}

// OtherLine is one non-vacation event.
type OtherLine struct {
	Date     model.Date
	Label    string
	TypeID   string
	TypeName string
	Color    string
	Icon     string
	Duration model.Duration
	Note     string
}

// HasOther reports whether any month has a non-vacation event.
func (r Report) HasOther() bool { return len(r.Other) > 0 }

// Title returns the headline for year.
func Title(year int, vacationOnly bool) string {
	if vacationOnly {
		return fmt.Sprintf("Prehľad dovolenky za rok %d", year)
	}
	return fmt.Sprintf("Prehľad dochádzky za rok %d", year)
}

// Compose builds the report for year from snap.
func Compose(snap state.Snapshot, year int) Report {
	sum := allowance.Summarize(snap.Allowance, snap.Events, year)
	r := Report{
		Year:             year,
		Name:             snap.Name,
		OrganizationName: snap.OrganizationName,
		Allowance:        sum,
		Summary: []SummaryRow{
			{Label: "Základný nárok:", Value: sum.Base},
			{Label: "Prenos z min. roka:", Value: sum.CarryOver},
			{Label: "Spolu nárok:", Value: sum.Total, Emphasis: true},
			{Label: "Vyčerpané:", Value: sum.Used, Tone: "used"},
			{Label: "Zostatok:", Value: sum.Remaining, Emphasis: true, Tone: "remaining"},
		},
		VacationTotal: sum.Used,
	}

	count := 0
	allVacation := true
	var group *MonthGroup
	for d, rec := range snap.Events.EntriesForYear(year) {
		count++
		if model.IsVacation(rec.TypeID) {
			r.Vacations = append(r.Vacations, VacationLine{
				Date:     d,
				Label:    locale.NumericDate(d),
				Duration: rec.Duration,
				Note:     rec.Note,
			})
			continue
		}
		allVacation = false

		t, ok := snap.Types.Resolve(rec.TypeID)
		if !ok {
			continue
		}
		if group == nil || group.Month != d.Month() {
			r.Other = append(r.Other, MonthGroup{
				Month: d.Month(),
				Label: fmt.Sprintf("%s %d", locale.MonthName(d.Month()), year),
			})
			group = &r.Other[len(r.Other)-1]
		}
		group.Events = append(group.Events, OtherLine{
			Date:     d,
			Label:    locale.LongDate(d),
			TypeID:   t.ID,
			TypeName: t.Name,
			Color:    t.Color,
			Icon:     t.Icon,
			Duration: rec.Duration,
			Note:     rec.Note,
		})
	}

	r.VacationOnly = count > 0 && allVacation
	r.Title = Title(year, r.VacationOnly)
	return r
}
