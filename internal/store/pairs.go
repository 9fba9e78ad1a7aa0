package store

import (
	"encoding/json"
	"fmt"

	"workcal/internal/model"
)

// Pairs is the portable form of the store: a JSON array of
// [date, record] pairs in ascending date order. An array is used instead
// of an object so that order is explicit and duplicate keys cannot occur.
type Pairs []Entry

// MarshalJSON writes [[date, record], ...].
func (p Pairs) MarshalJSON() ([]byte, error) {
	out := make([][2]any, 0, len(p))
	for _, e := range p {
		out = append(out, [2]any{e.Date, e.Record})
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the strict decoder: any malformed pair fails the whole
// array.
func (p *Pairs) UnmarshalJSON(b []byte) error {
	entries, dropped, err := DecodePairs(b)
	if err != nil {
		return err
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d malformed event entries", model.ErrValidation, dropped)
	}
	*p = entries
	return nil
}

// DecodePairs reads [[date, record], ...] leniently. It fails only when b
// is not an array; pairs with a malformed date or record are dropped and
// counted. A missing or zero duration is read as a full day.
func DecodePairs(b []byte) (Pairs, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: event data must be an array: %v", model.ErrValidation, err)
	}

	out := make(Pairs, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		e, err := decodePair(item)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, e)
	}
	return out, dropped, nil
}

func decodePair(item json.RawMessage) (Entry, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(item, &pair); err != nil {
		return Entry{}, err
	}
	if len(pair) != 2 {
		return Entry{}, fmt.Errorf("%w: pair has %d elements", model.ErrValidation, len(pair))
	}

	var ds string
	if err := json.Unmarshal(pair[0], &ds); err != nil {
		return Entry{}, err
	}
	date, err := model.ParseDate(ds)
	if err != nil {
		return Entry{}, err
	}

	var rec model.EventRecord
	if err := json.Unmarshal(pair[1], &rec); err != nil {
		return Entry{}, err
	}
	if rec.Duration == model.DurationUnset {
		rec.Duration = model.Full
	}
	if err := rec.Validate(); err != nil {
		return Entry{}, err
	}
	return Entry{Date: date, Record: rec}, nil
}
