package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/holiday"
	"workcal/internal/model"
	"workcal/internal/state"
)

func snapshot(t *testing.T) state.Snapshot {
	t.Helper()
	a, err := state.Load(state.NewMemoryStorage())
	require.NoError(t, err)
	require.NoError(t, a.SetEvent("2026-07-01", model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Full}))
	require.NoError(t, a.SetEvent("2026-07-02", model.EventRecord{TypeID: "doctor", Duration: model.Half, Note: "kontrola"}))
	require.NoError(t, a.SetEvent("2025-12-30", model.EventRecord{TypeID: "sick", Duration: model.Full}))
	return a.Snapshot()
}

func TestEncodeAndReadBack(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	require.NoError(t, Encode(&buf, snapshot(t), 2026, ExportOptions{Now: now, Holidays: holiday.Slovak.ForYear(2026)}))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20260701")
	assert.Contains(t, out, "SUMMARY:Dovolenka")
	assert.Contains(t, out, "SUMMARY:Lekár (Pol dňa)")
	assert.NotContains(t, out, "20251230")

	events, err := ParseICS(Feed{ID: "export"}, buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, events, 2+14)

	entries, bad := Entries(events)
	assert.Zero(t, bad)
	require.Len(t, entries, 2)
	byDate := map[model.Date]model.EventRecord{}
	for _, e := range entries {
		byDate[e.Date] = e.Record
	}
	assert.Equal(t, model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Full}, byDate["2026-07-01"])
	assert.Equal(t, model.EventRecord{TypeID: "doctor", Duration: model.Half, Note: "kontrola"}, byDate["2026-07-02"])
}

const nameDaysFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:nd-0701
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20000701
DTEND;VALUE=DATE:20000702
RRULE:FREQ=YEARLY
SUMMARY:Radoslav
END:VEVENT
BEGIN:VEVENT
UID:nd-0702
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20000702
RRULE:FREQ=YEARLY
EXDATE;VALUE=DATE:20260702
SUMMARY:Stanislava
END:VEVENT
BEGIN:VEVENT
UID:company
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20261228
DTEND;VALUE=DATE:20270102
SUMMARY:Celozávodná dovolenka
END:VEVENT
END:VCALENDAR
`

func TestExpandDays(t *testing.T) {
	events, err := ParseICS(Feed{ID: "nd"}, []byte(nameDaysFeed))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "FREQ=YEARLY", events[0].RawRRule)

	days := ExpandDays(events, 2026)
	var dates []string
	for _, d := range days {
		dates = append(dates, string(d.Date))
	}
	assert.Equal(t, []string{"2026-07-01", "2026-12-28", "2026-12-29", "2026-12-30", "2026-12-31"}, dates)

	days = ExpandDays(events, 2027)
	dates = dates[:0]
	for _, d := range days {
		dates = append(dates, string(d.Date))
	}
	assert.Equal(t, []string{"2027-07-01", "2027-07-02", "2027-01-01"}, dates)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseICS(Feed{}, nil)
	assert.Error(t, err)
}

func TestFetcherCachesWithETag(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(nameDaysFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	feed := Feed{ID: "nd", URL: srv.URL + "/private/token.ics", Kind: KindNameDays}

	res, err := f.FetchOne(context.Background(), feed)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, nameDaysFeed, string(res.Body))

	res, err = f.FetchOne(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, nameDaysFeed, string(res.Body))
	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, notModified.Load())

	// Network failure falls back to the cached body.
	srv.Close()
	res, err = f.FetchOne(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, res.FromCache)

	_, err = f.FetchOne(context.Background(), Feed{ID: "empty"})
	assert.Error(t, err)
}

func TestSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nameDaysFeed))
	}))
	defer srv.Close()

	subs := NewSubscriptions(NewFetcher(t.TempDir()), []Feed{
		{ID: "nd", URL: srv.URL + "/nd.ics", Kind: KindNameDays},
		{ID: "off", URL: srv.URL + "/off.ics", Kind: KindHolidays},
	})
	assert.Empty(t, subs.NameDays(2026))
	require.NoError(t, subs.Refresh(context.Background()))

	nd := subs.NameDays(2027)
	assert.Equal(t, "Radoslav", nd["07-01"])
	assert.Equal(t, "Stanislava", nd["07-02"])

	table := subs.Holidays(holiday.Slovak).ForYear(2026)
	name, ok := table.Name("2026-12-29")
	require.True(t, ok)
	assert.Equal(t, "Celozávodná dovolenka", name)
	name, _ = table.Name("2026-12-25")
	assert.Equal(t, "Prvý sviatok vianočný", name, "public holidays are kept")
	assert.Equal(t, 2026, table.Year())
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/path/private.ics?token=abcd"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
