// Package store holds the date-indexed event store: at most one event
// record per calendar date.
package store

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"workcal/internal/model"
)

// TypeResolver reports whether an event type id exists. The catalog
// satisfies it.
type TypeResolver interface {
	Has(id string) bool
}

// Entry is a (date, record) pair.
type Entry struct {
	Date   model.Date
	Record model.EventRecord
}

// Store maps calendar dates to event records. Insertion order is not
// tracked; every iteration is in ascending date order.
//
// Store is not safe for concurrent use; state.App serializes access.
type Store struct {
	events map[model.Date]model.EventRecord
	types  TypeResolver
}

// New returns an empty store validating type ids against types.
func New(types TypeResolver) *Store {
	return &Store{
		events: make(map[model.Date]model.EventRecord),
		types:  types,
	}
}

// SetResolver swaps the catalog used to validate type ids.
func (s *Store) SetResolver(types TypeResolver) {
	s.types = types
}

// Set attaches record to date, replacing any previous record.
func (s *Store) Set(date model.Date, record model.EventRecord) error {
	if _, err := model.ParseDate(string(date)); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("event on %s: %w", date, err)
	}
	if s.types != nil && !s.types.Has(record.TypeID) {
		return fmt.Errorf("event on %s: %w: %q", date, model.ErrReference, record.TypeID)
	}
	s.events[date] = record
	return nil
}

// Delete removes the record for date. Deleting an absent date is a no-op.
func (s *Store) Delete(date model.Date) {
	delete(s.events, date)
}

// Get returns the record for date.
func (s *Store) Get(date model.Date) (model.EventRecord, bool) {
	r, ok := s.events[date]
	return r, ok
}

// Len returns the number of dates with an event.
func (s *Store) Len() int {
	return len(s.events)
}

// All yields every entry in ascending date order.
func (s *Store) All() iter.Seq2[model.Date, model.EventRecord] {
	return s.filtered(func(model.Date) bool { return true })
}

// EntriesForYear yields the entries of one year in ascending date order.
// The sequence is recomputed from the current contents on every range.
func (s *Store) EntriesForYear(year int) iter.Seq2[model.Date, model.EventRecord] {
	return s.filtered(func(d model.Date) bool { return d.InYear(year) })
}

func (s *Store) filtered(keep func(model.Date) bool) iter.Seq2[model.Date, model.EventRecord] {
	return func(yield func(model.Date, model.EventRecord) bool) {
		for _, d := range slices.Sorted(maps.Keys(s.events)) {
			if !keep(d) {
				continue
			}
			r, ok := s.events[d]
			if !ok {
				continue
			}
			if !yield(d, r) {
				return
			}
		}
	}
}

// Entries returns a slice copy of All.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.events))
	for d, r := range s.All() {
		out = append(out, Entry{Date: d, Record: r})
	}
	return out
}

// UsedTypeIDs returns the set of type ids referenced by at least one record.
func (s *Store) UsedTypeIDs() map[string]struct{} {
	used := make(map[string]struct{})
	for _, r := range s.events {
		used[r.TypeID] = struct{}{}
	}
	return used
}

// Replace swaps the whole contents for entries. Either every entry is valid
// and the store is replaced, or the store is left untouched.
func (s *Store) Replace(entries []Entry) error {
	next := New(s.types)
	for _, e := range entries {
		if err := next.Set(e.Date, e.Record); err != nil {
			return err
		}
	}
	s.events = next.events
	return nil
}

// Clone returns an independent copy sharing the resolver.
func (s *Store) Clone() *Store {
	return &Store{
		events: maps.Clone(s.events),
		types:  s.types,
	}
}
