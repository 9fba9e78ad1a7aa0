// Package state owns the application state (settings, event store, event
// type catalog) and persists it through an injected Storage after every
// successful mutation.
package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"workcal/internal/allowance"
	"workcal/internal/catalog"
	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/store"
)

// Storage keys, one per persisted value.
const (
	KeyName          = "vacationCalendarName"
	KeyOrganization  = "vacationCalendarOrg"
	KeyBaseAllowance = "vacationCalendarBaseAllowance"
	KeyCarryOver     = "vacationCalendarCarryOver"
	KeyEventData     = "vacationCalendarEventData"
	KeyEventTypes    = "vacationCalendarEventTypes"
	KeyShowNameDays  = "vacationCalendarShowNameDays"
	KeyShowHolidays  = "vacationCalendarShowHolidays"
)

// AllKeys lists every persisted key.
var AllKeys = []string{
	KeyName, KeyOrganization, KeyBaseAllowance, KeyCarryOver,
	KeyEventData, KeyEventTypes, KeyShowNameDays, KeyShowHolidays,
}

// Settings are the scalar values persisted next to the store.
type Settings struct {
	Name             string           `json:"name"`
	OrganizationName string           `json:"organizationName"`
	Allowance        allowance.Config `json:"allowance"`
	ShowNameDays     bool             `json:"showNameDays"`
	ShowHolidays     bool             `json:"showHolidays"`
}

// DefaultSettings are used for every key missing from storage.
func DefaultSettings() Settings {
	return Settings{
		Name:             "Meno a Priezvisko",
		OrganizationName: "Názov organizácie",
		Allowance: allowance.Config{
			Base:      model.NewDaysFromInt(30),
			CarryOver: model.ZeroDays,
		},
	}
}

// SettingsPatch changes only the non-nil fields.
type SettingsPatch struct {
	Name             *string     `json:"name,omitempty"`
	OrganizationName *string     `json:"organizationName,omitempty"`
	BaseAllowance    *model.Days `json:"baseAllowance,omitempty"`
	CarryOverDays    *model.Days `json:"carryOverDays,omitempty"`
	ShowNameDays     *bool       `json:"showNameDays,omitempty"`
	ShowHolidays     *bool       `json:"showHolidays,omitempty"`
}

// Snapshot is an independent copy of the whole state.
type Snapshot struct {
	Settings
	Events *store.Store
	Types  *catalog.Catalog
}

// Clone deep-copies the snapshot; the copy's store validates against the
// copy's catalog.
func (s Snapshot) Clone() Snapshot {
	types := s.Types.Clone()
	events := s.Events.Clone()
	events.SetResolver(types)
	return Snapshot{Settings: s.Settings, Events: events, Types: types}
}

// App is the process-wide state. All methods are safe for concurrent use;
// mutations are serialized by one mutex so that every operation sees and
// leaves the "one record per date" and "no dangling type id" invariants.
type App struct {
	mu       sync.RWMutex
	storage  Storage
	settings Settings
	events   *store.Store
	types    *catalog.Catalog
}

// Load reads every key from storage, falling back to defaults for missing
// or unreadable values.
func Load(storage Storage) (*App, error) {
	a := &App{storage: storage, settings: DefaultSettings()}

	loadValue(storage, KeyName, &a.settings.Name)
	loadValue(storage, KeyOrganization, &a.settings.OrganizationName)
	loadValue(storage, KeyBaseAllowance, &a.settings.Allowance.Base)
	loadValue(storage, KeyCarryOver, &a.settings.Allowance.CarryOver)
	loadValue(storage, KeyShowNameDays, &a.settings.ShowNameDays)
	loadValue(storage, KeyShowHolidays, &a.settings.ShowHolidays)
	defaults := DefaultSettings().Allowance
	if err := a.settings.Allowance.Base.ValidateAllowance("base allowance"); err != nil {
		appLog.Warn("state: stored base allowance is invalid; using default", "err", err)
		a.settings.Allowance.Base = defaults.Base
	}
	if err := a.settings.Allowance.CarryOver.ValidateAllowance("carry-over days"); err != nil {
		appLog.Warn("state: stored carry-over is invalid; using default", "err", err)
		a.settings.Allowance.CarryOver = defaults.CarryOver
	}

	var types []model.EventType
	if loadValue(storage, KeyEventTypes, &types) {
		c, err := catalog.New(types...)
		if err != nil {
			appLog.Warn("state: stored event types are invalid; using defaults", "err", err)
			c = catalog.Default()
		}
		a.types = c
	} else {
		a.types = catalog.Default()
	}
	a.types.EnsureBuiltins()

	a.events = store.New(a.types)
	if raw, ok, err := storage.Get(KeyEventData); err != nil {
		return nil, fmt.Errorf("state: read %s: %w", KeyEventData, err)
	} else if ok {
		entries, dropped, err := store.DecodePairs(raw)
		if err != nil {
			appLog.Warn("state: stored event data is unreadable; starting empty", "err", err)
		}
		for _, e := range entries {
			if err := a.events.Set(e.Date, e.Record); err != nil {
				dropped++
				appLog.Warn("state: dropping stored event", "date", e.Date, "err", err)
			}
		}
		if dropped > 0 {
			appLog.Warn("state: dropped malformed stored events", "count", dropped)
		}
	}

	appLog.Info("state loaded",
		"events", a.events.Len(),
		"event_types", a.types.Len(),
		"name", a.settings.Name,
	)
	return a, nil
}

func loadValue(storage Storage, key string, dst any) bool {
	raw, ok, err := storage.Get(key)
	if err != nil {
		appLog.Error("state: read failed", err, "key", key)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		appLog.Warn("state: ignoring unreadable value", "key", key, "err", err)
		return false
	}
	return true
}

// Snapshot returns a copy of the current state.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{Settings: a.settings, Events: a.events, Types: a.types}.Clone()
}

// Settings returns the current settings.
func (a *App) Settings() Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Event returns the record on date.
func (a *App) Event(date model.Date) (model.EventRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events.Get(date)
}

// SetEvent creates or replaces the event on date.
func (a *App) SetEvent(date model.Date, rec model.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.currentLocked()
	next.events = a.events.Clone()
	if err := next.events.Set(date, rec); err != nil {
		return err
	}
	if err := a.applyLocked(next, KeyEventData); err != nil {
		return err
	}
	appLog.Info("event set", "date", date, "type", rec.TypeID, "duration", rec.Duration)
	return nil
}

// DeleteEvent removes the event on date; absent dates are a no-op.
func (a *App) DeleteEvent(date model.Date) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.events.Get(date); !ok {
		return nil
	}
	next := a.currentLocked()
	next.events = a.events.Clone()
	next.events.Delete(date)
	if err := a.applyLocked(next, KeyEventData); err != nil {
		return err
	}
	appLog.Info("event deleted", "date", date)
	return nil
}

// AddEventType appends a user type. An empty id is replaced by a fresh one.
func (a *App) AddEventType(t model.EventType) (model.EventType, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t.ID == "" {
		t.ID = catalog.NewID()
	}
	next := a.currentLocked()
	next.types = a.types.Clone()
	if err := next.types.Add(t); err != nil {
		return model.EventType{}, err
	}
	if err := a.applyLocked(next, KeyEventTypes); err != nil {
		return model.EventType{}, err
	}
	added, _ := next.types.Resolve(t.ID)
	appLog.Info("event type added", "id", added.ID, "name", added.Name)
	return added, nil
}

// UpdateEventType merges p into the type.
func (a *App) UpdateEventType(id string, p catalog.Patch) (model.EventType, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.currentLocked()
	next.types = a.types.Clone()
	t, err := next.types.Update(id, p)
	if err != nil {
		return model.EventType{}, err
	}
	if err := a.applyLocked(next, KeyEventTypes); err != nil {
		return model.EventType{}, err
	}
	appLog.Info("event type updated", "id", id)
	return t, nil
}

// RemoveEventType deletes the type unless it is protected or in use.
func (a *App) RemoveEventType(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.currentLocked()
	next.types = a.types.Clone()
	if err := next.types.Remove(id, a.events.UsedTypeIDs()); err != nil {
		return err
	}
	if err := a.applyLocked(next, KeyEventTypes); err != nil {
		return err
	}
	appLog.Info("event type removed", "id", id)
	return nil
}

// InUseTypeIDs is the reverse lookup of type ids referenced by events.
func (a *App) InUseTypeIDs() map[string]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events.UsedTypeIDs()
}

// UpdateSettings applies p after validating the allowance amounts.
func (a *App) UpdateSettings(p SettingsPatch) (Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.currentLocked()
	var keys []string
	if p.Name != nil {
		next.settings.Name = *p.Name
		keys = append(keys, KeyName)
	}
	if p.OrganizationName != nil {
		next.settings.OrganizationName = *p.OrganizationName
		keys = append(keys, KeyOrganization)
	}
	if p.BaseAllowance != nil {
		next.settings.Allowance.Base = *p.BaseAllowance
		keys = append(keys, KeyBaseAllowance)
	}
	if p.CarryOverDays != nil {
		next.settings.Allowance.CarryOver = *p.CarryOverDays
		keys = append(keys, KeyCarryOver)
	}
	if p.ShowNameDays != nil {
		next.settings.ShowNameDays = *p.ShowNameDays
		keys = append(keys, KeyShowNameDays)
	}
	if p.ShowHolidays != nil {
		next.settings.ShowHolidays = *p.ShowHolidays
		keys = append(keys, KeyShowHolidays)
	}
	if err := next.settings.Allowance.Validate(); err != nil {
		return a.settings, err
	}
	if err := a.applyLocked(next, keys...); err != nil {
		return a.settings, err
	}
	return a.settings, nil
}

// Commit replaces the whole state with next (typically a modified
// Snapshot) and persists every key. When storage fails nothing changes,
// neither in memory nor in storage.
func (a *App) Commit(next Snapshot) error {
	next = next.Clone()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyLocked(view{settings: next.Settings, events: next.Events, types: next.Types}, AllKeys...)
}

// view is one candidate state. Mutations build a view, persist it and only
// then install it.
type view struct {
	settings Settings
	events   *store.Store
	types    *catalog.Catalog
}

func (a *App) currentLocked() view {
	return view{settings: a.settings, events: a.events, types: a.types}
}

// applyLocked persists keys of next and installs next on success.
func (a *App) applyLocked(next view, keys ...string) error {
	if err := a.persistLocked(next, keys...); err != nil {
		return err
	}
	a.settings = next.settings
	a.types = next.types
	a.events = next.events
	a.events.SetResolver(a.types)
	return nil
}

func (a *App) persistLocked(next view, keys ...string) error {
	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		v, err := encodeKey(next, key)
		if err != nil {
			return fmt.Errorf("state: encode %s: %w", key, err)
		}
		values[key] = v
	}

	if batch, ok := a.storage.(BatchStorage); ok {
		if err := batch.SetMany(values); err != nil {
			appLog.Error("state: persist failed", err, "keys", keys)
			return fmt.Errorf("state: persist %v: %w", keys, err)
		}
		return nil
	}

	written := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := a.storage.Set(key, values[key]); err != nil {
			appLog.Error("state: persist failed", err, "key", key)
			a.rollbackLocked(written)
			return fmt.Errorf("state: persist %s: %w", key, err)
		}
		written = append(written, key)
	}
	return nil
}

// rollbackLocked rewrites keys from the installed state after a partial
// write. Failures are only logged.
func (a *App) rollbackLocked(keys []string) {
	cur := a.currentLocked()
	for _, key := range keys {
		v, err := encodeKey(cur, key)
		if err == nil {
			err = a.storage.Set(key, v)
		}
		if err != nil {
			appLog.Error("state: rollback failed", err, "key", key)
		}
	}
}

func encodeKey(v view, key string) ([]byte, error) {
	switch key {
	case KeyName:
		return json.Marshal(v.settings.Name)
	case KeyOrganization:
		return json.Marshal(v.settings.OrganizationName)
	case KeyBaseAllowance:
		return json.Marshal(v.settings.Allowance.Base)
	case KeyCarryOver:
		return json.Marshal(v.settings.Allowance.CarryOver)
	case KeyShowNameDays:
		return json.Marshal(v.settings.ShowNameDays)
	case KeyShowHolidays:
		return json.Marshal(v.settings.ShowHolidays)
	case KeyEventTypes:
		return json.Marshal(v.types.List())
	case KeyEventData:
		return json.Marshal(store.Pairs(v.events.Entries()))
	default:
		return nil, fmt.Errorf("unknown key %q", key)
	}
}
