package ics

import (
	"context"
	"fmt"
	"sync"

	"workcal/internal/holiday"
	appLog "workcal/internal/log"
	"workcal/internal/model"
)

// Subscriptions keeps the parsed contents of the configured feeds and
// refreshes them on demand.
type Subscriptions struct {
	fetcher *Fetcher
	feeds   []Feed

	mu     sync.RWMutex
	events map[string][]ParsedEvent // by feed kind
}

// NewSubscriptions returns subscriptions for feeds; nothing is fetched
// until Refresh.
func NewSubscriptions(fetcher *Fetcher, feeds []Feed) *Subscriptions {
	return &Subscriptions{fetcher: fetcher, feeds: feeds, events: make(map[string][]ParsedEvent)}
}

// Len returns the number of configured feeds.
func (s *Subscriptions) Len() int { return len(s.feeds) }

// Refresh fetches and parses every feed. A kind none of whose feeds could
// be read keeps its previous contents; the first error is returned.
func (s *Subscriptions) Refresh(ctx context.Context) error {
	results, errs := s.fetcher.FetchAll(ctx, s.feeds)

	byKind := make(map[string][]ParsedEvent)
	for _, res := range results {
		evs, err := ParseICS(res.Feed, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", res.Feed.ID, err))
			continue
		}
		byKind[res.Feed.Kind] = append(byKind[res.Feed.Kind], evs...)
	}

	s.mu.Lock()
	for kind, evs := range byKind {
		s.events[kind] = evs
	}
	s.mu.Unlock()

	appLog.Info("feeds refreshed", "feeds", len(s.feeds), "ok", len(results), "errors", len(errs))
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// NameDays returns the "MM-DD" keyed name-day table for year.
func (s *Subscriptions) NameDays(year int) map[string]string {
	s.mu.RLock()
	evs := s.events[KindNameDays]
	s.mu.RUnlock()

	out := make(map[string]string)
	for _, d := range ExpandDays(evs, year) {
		key := string(d.Date)[5:]
		if prev, ok := out[key]; ok && prev != d.Event.Summary {
			out[key] = prev + ", " + d.Event.Summary
			continue
		}
		out[key] = d.Event.Summary
	}
	return out
}

// Holidays wraps base so that days from holiday feeds are added to its
// tables. Public holidays keep their own names.
func (s *Subscriptions) Holidays(base holiday.Provider) holiday.Provider {
	return holiday.ProviderFunc(func(year int) holiday.Table {
		s.mu.RLock()
		evs := s.events[KindHolidays]
		s.mu.RUnlock()

		names := make(map[model.Date]string)
		for _, d := range ExpandDays(evs, year) {
			names[d.Date] = d.Event.Summary
		}
		for d, name := range base.ForYear(year).All() {
			names[d] = name
		}
		return holiday.NewTable(year, names)
	})
}
