package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"workcal/internal/holiday"
	"workcal/internal/ics"
	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/report"
	"workcal/internal/transfer"
)

func (s *Server) holidays() holiday.Provider {
	if s.deps.Feeds != nil && s.deps.Feeds.Len() > 0 {
		return s.deps.Feeds.Holidays(s.deps.Holidays)
	}
	return s.deps.Holidays
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: request body: %v", model.ErrValidation, err)
	}
	return data, nil
}

// handleIndex serves the on-screen report preview for the display year.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.handleReport(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.App.Snapshot()
	var buf bytes.Buffer
	if err := transfer.Encode(&buf, transfer.Export(snap)); err != nil {
		fail(w, "api export", err)
		return
	}
	attachment(w, "application/json; charset=utf-8", transfer.ExportFilename(s.cfg.ExportPrefix, snap.Name, s.now()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		fail(w, "api import", err)
		return
	}
	res, err := transfer.Import(s.deps.App, data)
	if err != nil {
		fail(w, "api import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReport renders the report as HTML. ?layout=print selects the A4
// document variant.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api report", err)
		return
	}
	layout, err := report.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		fail(w, "api report", err)
		return
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, report.Compose(s.deps.App.Snapshot(), year), layout); err != nil {
		fail(w, "api report", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleReportPDF starts a background PDF export. Progress is polled via
// /api/report/status.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api report pdf", err)
		return
	}
	if s.deps.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf export is not configured")
		return
	}
	if _, err := s.deps.Exporter.Start(s.baseCtx, year); err != nil {
		fail(w, "api report pdf", err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Exporter.Status())
}

func (s *Server) handleReportStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf export is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Exporter.Status())
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api ics", err)
		return
	}
	snap := s.deps.App.Snapshot()
	opts := ics.ExportOptions{Now: s.now()}
	if snap.ShowHolidays {
		opts.Holidays = s.holidays().ForYear(year)
	}
	var buf bytes.Buffer
	if err := ics.Encode(&buf, snap, year, opts); err != nil {
		fail(w, "api ics", err)
		return
	}
	name := transfer.Sanitize(snap.Name) + "_" + strconv.Itoa(year) + ".ics"
	attachment(w, "text/calendar; charset=utf-8", name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// icsImportResponse counts what an ICS import did.
type icsImportResponse struct {
	Imported int `json:"imported"`
	Rejected int `json:"rejected"`
}

// handleImportICS merges events from an ICS file previously produced by
// /api/calendar.ics. Entries whose type is unknown are rejected one by one;
// the rest are applied in a single commit.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		fail(w, "api import ics", err)
		return
	}
	parsed, err := ics.ParseICS(ics.Feed{ID: "upload"}, data)
	if err != nil {
		fail(w, "api import ics", fmt.Errorf("%w: %v", model.ErrImportFormat, err))
		return
	}
	entries, bad := ics.Entries(parsed)

	next := s.deps.App.Snapshot()
	resp := icsImportResponse{Rejected: bad}
	for _, e := range entries {
		if err := next.Events.Set(e.Date, e.Record); err != nil {
			resp.Rejected++
			continue
		}
		resp.Imported++
	}
	if resp.Imported > 0 {
		if err := s.deps.App.Commit(next); err != nil {
			fail(w, "api import ics", err)
			return
		}
	}
	appLog.Info("ics import finished", "imported", resp.Imported, "rejected", resp.Rejected)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		fail(w, "api ledger", err)
		return
	}
	snap := s.deps.App.Snapshot()
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, report.Compose(snap, year)); err != nil {
		fail(w, "api ledger", err)
		return
	}
	name := transfer.Sanitize(snap.Name) + "_" + strconv.Itoa(year) + ".csv"
	attachment(w, "text/csv; charset=utf-8", name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
