// Package transfer converts the application state to and from the portable
// JSON document used for export and import.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"workcal/internal/catalog"
	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/state"
	"workcal/internal/store"
)

// Document is the export file schema.
type Document struct {
	Name             string            `json:"name"`
	OrganizationName string            `json:"organizationName"`
	BaseAllowance    model.Days        `json:"baseAllowance"`
	CarryOverDays    model.Days        `json:"carryOverDays"`
	EventData        store.Pairs       `json:"eventData"`
	EventTypes       []model.EventType `json:"eventTypes"`
	ShowNameDays     bool              `json:"showNameDays"`
	ShowHolidays     bool              `json:"showHolidays"`
}

// Export builds the document for snap.
func Export(snap state.Snapshot) Document {
	types := snap.Types.List()
	if types == nil {
		types = []model.EventType{}
	}
	return Document{
		Name:             snap.Name,
		OrganizationName: snap.OrganizationName,
		BaseAllowance:    snap.Allowance.Base,
		CarryOverDays:    snap.Allowance.CarryOver,
		EventData:        store.Pairs(snap.Events.Entries()),
		EventTypes:       types,
		ShowNameDays:     snap.ShowNameDays,
		ShowHolidays:     snap.ShowHolidays,
	}
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Committer is the part of state.App that Import needs.
type Committer interface {
	Snapshot() state.Snapshot
	Commit(next state.Snapshot) error
}

// Skip names an import field that was not applied.
type Skip struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result reports what an import did.
type Result struct {
	Applied        []string `json:"applied"`
	Skipped        []Skip   `json:"skipped,omitempty"`
	DroppedEntries int      `json:"droppedEntries"`
	Events         int      `json:"events"`
}

type kind int

const (
	kindString kind = iota
	kindNumber
	kindArray
	kindBool
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindArray:
		return "array"
	default:
		return "boolean"
	}
}

// fields lists the document keys in the order they are applied. Event
// types go before event data so imported events resolve against the
// imported catalog.
var fields = []struct {
	name string
	kind kind
}{
	{"name", kindString},
	{"organizationName", kindString},
	{"baseAllowance", kindNumber},
	{"carryOverDays", kindNumber},
	{"showNameDays", kindBool},
	{"showHolidays", kindBool},
	{"eventTypes", kindArray},
	{"eventData", kindArray},
}

// Import merges data into app field by field. Data that is not a JSON
// object fails with ErrImportFormat and nothing is applied. Missing fields
// and fields of the wrong JSON kind are skipped; the rest is committed
// together.
func Import(app Committer, data []byte) (Result, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		if err == nil {
			err = fmt.Errorf("document is null")
		}
		return Result{}, fmt.Errorf("%w: %v", model.ErrImportFormat, err)
	}

	next := app.Snapshot()
	var res Result
	typesReplaced := false

	for _, f := range fields {
		raw, ok := doc[f.name]
		if !ok {
			continue
		}
		if kindOf(raw) != f.kind {
			res.skip(f.name, "expected "+f.kind.String())
			continue
		}
		if err := apply(&next, f.name, raw, &res); err != nil {
			res.skip(f.name, err.Error())
			continue
		}
		if f.name == "eventTypes" {
			typesReplaced = true
		}
		res.Applied = append(res.Applied, f.name)
	}

	// Events kept from before the import must still resolve when the
	// catalog was replaced but eventData was not.
	if typesReplaced && !res.applied("eventData") {
		res.DroppedEntries += revalidate(&next)
	}

	if err := app.Commit(next); err != nil {
		return res, err
	}
	res.Events = next.Events.Len()
	appLog.Info("import applied",
		"applied", strings.Join(res.Applied, ","),
		"skipped", len(res.Skipped),
		"dropped_entries", res.DroppedEntries,
		"events", res.Events,
	)
	return res, nil
}

func apply(next *state.Snapshot, field string, raw json.RawMessage, res *Result) error {
	switch field {
	case "name":
		return json.Unmarshal(raw, &next.Name)
	case "organizationName":
		return json.Unmarshal(raw, &next.OrganizationName)
	case "baseAllowance", "carryOverDays":
		var d model.Days
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		if err := d.ValidateAllowance(field); err != nil {
			return err
		}
		if field == "baseAllowance" {
			next.Allowance.Base = d
		} else {
			next.Allowance.CarryOver = d
		}
		return nil
	case "showNameDays":
		return json.Unmarshal(raw, &next.ShowNameDays)
	case "showHolidays":
		return json.Unmarshal(raw, &next.ShowHolidays)
	case "eventTypes":
		var types []model.EventType
		if err := json.Unmarshal(raw, &types); err != nil {
			return err
		}
		c, err := catalog.New(types...)
		if err != nil {
			return err
		}
		c.EnsureBuiltins()
		next.Types = c
		next.Events.SetResolver(c)
		return nil
	case "eventData":
		entries, dropped, err := store.DecodePairs(raw)
		if err != nil {
			return err
		}
		events := store.New(next.Types)
		for _, e := range entries {
			if err := events.Set(e.Date, e.Record); err != nil {
				appLog.Debug("import: dropping event", "date", e.Date, "err", err)
				dropped++
			}
		}
		next.Events = events
		res.DroppedEntries += dropped
		return nil
	}
	return fmt.Errorf("unknown field %q", field)
}

func revalidate(next *state.Snapshot) int {
	events := store.New(next.Types)
	dropped := 0
	for d, r := range next.Events.All() {
		if err := events.Set(d, r); err != nil {
			dropped++
		}
	}
	next.Events = events
	return dropped
}

func kindOf(raw json.RawMessage) kind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return -1
	}
	switch b[0] {
	case '"':
		return kindString
	case '[':
		return kindArray
	case 't', 'f':
		return kindBool
	case '{', 'n':
		return -1
	default:
		return kindNumber
	}
}

func (r *Result) skip(field, reason string) {
	r.Skipped = append(r.Skipped, Skip{Field: field, Reason: reason})
	appLog.Warn("import: field skipped", "field", field, "reason", reason)
}

func (r *Result) applied(field string) bool {
	return slices.Contains(r.Applied, field)
}

var whitespace = regexp.MustCompile(`\s+`)

// Sanitize collapses every whitespace run in name to one underscore.
func Sanitize(name string) string {
	return whitespace.ReplaceAllString(name, "_")
}

// ExportFilename is <prefix>_<name>_<YYYY-MM-DD>.json.
func ExportFilename(prefix, name string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s.json", prefix, Sanitize(name), now.Format(model.DateLayout))
}

// ReportFilename is <prefix>_<name>_<year>.pdf.
func ReportFilename(prefix, name string, year int) string {
	return fmt.Sprintf("%s_%s_%d.pdf", prefix, Sanitize(name), year)
}
