// Package ics writes the event store as an iCalendar file and reads
// iCalendar feeds (name days, extra days off) subscribed from the web.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"workcal/internal/holiday"
	"workcal/internal/model"
	"workcal/internal/state"
	"workcal/internal/store"
)

const prodID = "-//workcal//Pracovny Kalendar//SK"

// ExportOptions tunes Encode.
type ExportOptions struct {
	// Now stamps every VEVENT. Zero uses time.Now.
	Now time.Time
	// Holidays, when non-empty, are written as additional all-day events.
	Holidays holiday.Table
}

// Encode writes the events of year in snap as all-day VEVENTs. Each event
// carries its type id and duration so Entries can read the file back.
func Encode(w io.Writer, snap state.Snapshot, year int, opts ExportOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName(fmt.Sprintf("%s %d", snap.Name, year))

	for d, rec := range snap.Events.EntriesForYear(year) {
		name := rec.TypeID
		if t, ok := snap.Types.Resolve(rec.TypeID); ok {
			name = t.Name
		}
		summary := name
		if rec.Duration == model.Half {
			summary += " (" + rec.Duration.Label() + ")"
		}

		ev := cal.AddEvent(fmt.Sprintf("%s-%s@workcal", d, rec.TypeID))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(d.Time())
		ev.SetAllDayEndAt(d.Time().AddDate(0, 0, 1))
		ev.SetSummary(summary)
		if rec.Note != "" {
			ev.SetDescription(rec.Note)
		}
		ev.AddProperty(ical.ComponentPropertyCategories, rec.TypeID)
		ev.AddProperty(PropType, rec.TypeID)
		ev.AddProperty(PropDuration, rec.Duration.String())
	}

	for d, name := range opts.Holidays.All() {
		if d.Year() != year {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-holiday@workcal", d))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(d.Time())
		ev.SetAllDayEndAt(d.Time().AddDate(0, 0, 1))
		ev.SetSummary(name)
		ev.AddProperty(ical.ComponentPropertyCategories, "holiday")
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// Entries reads events written by Encode back into store entries. Events
// without the workcal type property are ignored; the second result counts
// events that carried it but could not be read.
func Entries(events []ParsedEvent) ([]store.Entry, int) {
	out := make([]store.Entry, 0, len(events))
	bad := 0
	for _, ev := range events {
		if ev.TypeID == "" {
			continue
		}
		var dur model.Duration
		if err := dur.UnmarshalJSON([]byte(ev.Duration)); err != nil || !dur.Valid() {
			bad++
			continue
		}
		rec := model.EventRecord{TypeID: ev.TypeID, Duration: dur, Note: ev.Description}
		if err := rec.Validate(); err != nil {
			bad++
			continue
		}
		d := dayOf(ev.Start)
		out = append(out, store.Entry{Date: model.DateOf(d.Year(), d.Month(), d.Day()), Record: rec})
	}
	return out, bad
}
