package web

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"workcal/internal/allowance"
	"workcal/internal/calendar"
	"workcal/internal/catalog"
	"workcal/internal/model"
	"workcal/internal/state"
)

// stateResponse is the JSON shape of /api/state.
type stateResponse struct {
	state.Settings
	Year       int                          `json:"year"`
	Events     map[string]model.EventRecord `json:"events"`
	EventTypes []model.EventType            `json:"eventTypes"`
	Summary    allowance.Summary            `json:"summary"`
	InUse      []string                     `json:"inUseTypeIds"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api state", err)
		return
	}
	snap := s.deps.App.Snapshot()

	events := make(map[string]model.EventRecord, snap.Events.Len())
	for d, rec := range snap.Events.All() {
		events[d.String()] = rec
	}
	inUse := slices.Sorted(maps.Keys(snap.Events.UsedTypeIDs()))

	writeJSON(w, http.StatusOK, stateResponse{
		Settings:   snap.Settings,
		Year:       year,
		Events:     events,
		EventTypes: snap.Types.List(),
		Summary:    allowance.Summarize(snap.Allowance, snap.Events, year),
		InUse:      inUse,
	})
}

func (s *Server) handlePutEvent(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		fail(w, "api put event", err)
		return
	}
	var rec model.EventRecord
	if err := decodeBody(w, r, &rec); err != nil {
		fail(w, "api put event", err)
		return
	}
	if err := s.deps.App.SetEvent(date, rec); err != nil {
		fail(w, "api put event", err)
		return
	}
	stored, _ := s.deps.App.Event(date)
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		fail(w, "api delete event", err)
		return
	}
	if err := s.deps.App.DeleteEvent(date); err != nil {
		fail(w, "api delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEventTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.App.Snapshot().Types.List())
}

func (s *Server) handleAddEventType(w http.ResponseWriter, r *http.Request) {
	var t model.EventType
	if err := decodeBody(w, r, &t); err != nil {
		fail(w, "api add event type", err)
		return
	}
	added, err := s.deps.App.AddEventType(t)
	if err != nil {
		fail(w, "api add event type", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateEventType(w http.ResponseWriter, r *http.Request) {
	var p catalog.Patch
	if err := decodeBody(w, r, &p); err != nil {
		fail(w, "api update event type", err)
		return
	}
	t, err := s.deps.App.UpdateEventType(r.PathValue("id"), p)
	if err != nil {
		fail(w, "api update event type", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRemoveEventType(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.App.RemoveEventType(r.PathValue("id")); err != nil {
		fail(w, "api remove event type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var p state.SettingsPatch
	if err := decodeBody(w, r, &p); err != nil {
		fail(w, "api settings", err)
		return
	}
	settings, err := s.deps.App.UpdateSettings(p)
	if err != nil {
		fail(w, "api settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api allowance", err)
		return
	}
	snap := s.deps.App.Snapshot()
	writeJSON(w, http.StatusOK, allowance.Summarize(snap.Allowance, snap.Events, year))
}

// handleCalendar returns the month grid for ?month= (0 = January), or all
// twelve months when month is omitted.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api calendar", err)
		return
	}
	src := s.calendarSource(year)

	mv := r.URL.Query().Get("month")
	if mv == "" {
		writeJSON(w, http.StatusOK, calendar.ProjectYear(src, year))
		return
	}
	month0, err := strconv.Atoi(mv)
	if err != nil {
		fail(w, "api calendar", fmt.Errorf("%w: bad month %q", model.ErrValidation, mv))
		return
	}
	m, err := calendar.ProjectMonth(src, year, month0)
	if err != nil {
		fail(w, "api calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) calendarSource(year int) calendar.Source {
	snap := s.deps.App.Snapshot()
	src := calendar.Source{
		Events:   snap.Events,
		Types:    snap.Types,
		Holidays: s.holidays().ForYear(year),
	}
	if snap.ShowNameDays && s.deps.Feeds != nil {
		src.NameDays = s.deps.Feeds.NameDays(year)
	}
	return src
}
