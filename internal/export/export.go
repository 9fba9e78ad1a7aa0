// Package export runs the one-shot background PDF export of a year's
// report.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"workcal/internal/fsutil"
	appLog "workcal/internal/log"
	"workcal/internal/model"
	"workcal/internal/report"
	"workcal/internal/state"
	"workcal/internal/transfer"
)

// ErrBusy is returned by Start while another export is in flight.
var ErrBusy = errors.New("export already in progress")

// Renderer turns report HTML into PDF bytes. capture.Chromium implements it.
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Source provides the state snapshot taken when an export starts.
type Source interface {
	Snapshot() state.Snapshot
}

// Result is what one export resolved with. Err wraps
// model.ErrExportRendering when rendering or saving failed.
type Result struct {
	Year     int
	Path     string
	Bytes    int
	Finished time.Time
	Err      error
}

// Status is reported to clients polling the export.
type Status struct {
	Busy bool    `json:"busy"`
	Last *Report `json:"last,omitempty"`
}

// Report summarises the most recent finished export.
type Report struct {
	Year     int       `json:"year"`
	Path     string    `json:"path,omitempty"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
}

// Exporter renders at most one report at a time.
type Exporter struct {
	src      Source
	renderer Renderer
	dir      string
	prefix   string

	busy atomic.Bool

	mu   sync.Mutex
	last *Report
}

// New returns an exporter writing <prefix>_<name>_<year>.pdf files into dir.
func New(src Source, renderer Renderer, dir, prefix string) *Exporter {
	return &Exporter{src: src, renderer: renderer, dir: dir, prefix: prefix}
}

// Busy reports whether an export is in flight.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Status returns the busy flag and the last outcome.
func (e *Exporter) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{Busy: e.Busy()}
	if e.last != nil {
		last := *e.last
		st.Last = &last
	}
	return st
}

// Start snapshots the state and renders the report for year in the
// background. The returned channel receives exactly one Result and is then
// closed. The export reflects state as of the call; later mutations are
// not seen. There is no internal timeout and no cancellation beyond ctx
// being handed to the renderer.
func (e *Exporter) Start(ctx context.Context, year int) (<-chan Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	snap := e.src.Snapshot()
	out := make(chan Result, 1)

	appLog.Info("export started", "year", year, "events", snap.Events.Len())
	go func() {
		defer close(out)
		out <- e.finish(e.run(ctx, snap, year))
	}()
	return out, nil
}

// Run is Start followed by waiting for the result.
func (e *Exporter) Run(ctx context.Context, year int) (Result, error) {
	ch, err := e.Start(ctx, year)
	if err != nil {
		return Result{}, err
	}
	res := <-ch
	return res, res.Err
}

func (e *Exporter) run(ctx context.Context, snap state.Snapshot, year int) Result {
	res := Result{Year: year}

	rep := report.Compose(snap, year)
	var html bytes.Buffer
	if err := report.Render(&html, rep, report.LayoutPrint); err != nil {
		res.Err = fmt.Errorf("%w: %v", model.ErrExportRendering, err)
		return res
	}

	pdf, err := e.renderer.RenderPDF(ctx, html.Bytes())
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", model.ErrExportRendering, err)
		return res
	}
	if len(pdf) == 0 {
		res.Err = fmt.Errorf("%w: renderer returned an empty document", model.ErrExportRendering)
		return res
	}

	path := filepath.Join(e.dir, transfer.ReportFilename(e.prefix, snap.Name, year))
	if err := fsutil.WriteFileAtomic(path, pdf, 0o644); err != nil {
		res.Err = fmt.Errorf("%w: save %s: %v", model.ErrExportRendering, path, err)
		return res
	}
	res.Path = path
	res.Bytes = len(pdf)
	return res
}

func (e *Exporter) finish(res Result) Result {
	res.Finished = time.Now()
	last := &Report{Year: res.Year, Path: res.Path, Finished: res.Finished}
	if res.Err != nil {
		last.Error = res.Err.Error()
		appLog.Error("export failed", res.Err, "year", res.Year)
	} else {
		appLog.Info("export finished", "year", res.Year, "path", res.Path, "bytes", res.Bytes)
	}

	e.mu.Lock()
	e.last = last
	e.mu.Unlock()
	e.busy.Store(false)
	return res
}
