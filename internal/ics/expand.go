package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "workcal/internal/log"
	"workcal/internal/model"
)

const (
	defaultMaxDaysPerEvent = 400
)

// Day is one calendar date covered by a feed event.
type Day struct {
	Date  model.Date
	Event ParsedEvent
}

// ExpandDays turns events into the dates of year they cover:
//
//   - Single events cover every date from Start up to, not including, End
//     (all-day) or just the start date (timed).
//   - RRULE events are expanded with EXDATE removal, each occurrence
//     covering as many dates as the first one.
//
// Days come back grouped per event in date order. An event covering more
// than a year's worth of dates is truncated.
func ExpandDays(events []ParsedEvent, year int) []Day {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(1, 0, 0)

	out := make([]Day, 0)
	for _, ev := range events {
		var starts []time.Time
		if ev.RawRRule == "" {
			starts = []time.Time{ev.Start}
		} else {
			var err error
			starts, err = occurrences(ev, from.AddDate(0, 0, -span(ev)), to)
			if err != nil {
				appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
				continue
			}
		}

		n := 0
	occ:
		for _, s := range starts {
			d := dayOf(s)
			for i := 0; i < span(ev); i++ {
				day := d.AddDate(0, 0, i)
				if day.Before(from) || !day.Before(to) {
					continue
				}
				if n >= defaultMaxDaysPerEvent {
					appLog.Error("expand: truncated days for UID due to cap",
						errors.New("max days reached"), "uid", ev.UID, "cap", defaultMaxDaysPerEvent)
					break occ
				}
				out = append(out, Day{Date: model.DateOf(day.Year(), day.Month(), day.Day()), Event: ev})
				n++
			}
		}
	}
	return out
}

func occurrences(ev ParsedEvent, from, to time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}
	// Ensure Dtstart is set to the event's DTSTART.
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}
	return set.Between(from.In(ev.Start.Location()), to.In(ev.Start.Location()), true), nil
}

// span is the number of dates one occurrence of ev covers.
func span(ev ParsedEvent) int {
	if !ev.AllDay {
		return 1
	}
	days := int(dayOf(ev.End).Sub(dayOf(ev.Start)).Hours()/24 + 0.5)
	return max(days, 1)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
