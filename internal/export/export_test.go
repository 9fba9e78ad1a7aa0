package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/model"
	"workcal/internal/state"
)

type fakeRenderer struct {
	release chan struct{}
	got     chan []byte
	err     error
}

func (f *fakeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if f.got != nil {
		f.got <- html
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func newApp(t *testing.T) *state.App {
	t.Helper()
	a, err := state.Load(state.NewMemoryStorage())
	require.NoError(t, err)
	name := "Jana Nováková"
	_, err = a.UpdateSettings(state.SettingsPatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, a.SetEvent("2026-07-01", model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Full}))
	return a
}

func TestExportWritesPDF(t *testing.T) {
	dir := t.TempDir()
	e := New(newApp(t), &fakeRenderer{}, dir, "Prehlad")

	res, err := e.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Prehlad_Jana_Nováková_2026.pdf"), res.Path)
	assert.False(t, res.Finished.IsZero())

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	st := e.Status()
	assert.False(t, st.Busy)
	require.NotNil(t, st.Last)
	assert.Equal(t, res.Path, st.Last.Path)
	assert.Empty(t, st.Last.Error)
}

func TestExportIsSingleFlightAndUsesStartSnapshot(t *testing.T) {
	app := newApp(t)
	r := &fakeRenderer{release: make(chan struct{}), got: make(chan []byte, 1)}
	e := New(app, r, t.TempDir(), "Prehlad")

	ch, err := e.Start(context.Background(), 2026)
	require.NoError(t, err)
	assert.True(t, e.Busy())

	// Mutations after start do not reach the export.
	require.NoError(t, app.SetEvent("2026-07-02", model.EventRecord{TypeID: "sick", Duration: model.Full}))

	html := string(<-r.got)
	assert.Contains(t, html, "Prehľad dovolenky za rok 2026")
	assert.False(t, strings.Contains(html, "PN / OČR"))

	_, err = e.Start(context.Background(), 2026)
	assert.ErrorIs(t, err, ErrBusy)

	close(r.release)
	res := <-ch
	require.NoError(t, res.Err)
	assert.False(t, e.Busy())

	_, ok := <-ch
	assert.False(t, ok, "channel is closed after the result")
}

func TestExportRenderingFailure(t *testing.T) {
	dir := t.TempDir()
	e := New(newApp(t), &fakeRenderer{err: errors.New("chromium crashed")}, dir, "Prehlad")

	res, err := e.Run(context.Background(), 2026)
	assert.ErrorIs(t, err, model.ErrExportRendering)
	assert.Empty(t, res.Path)
	assert.False(t, e.Busy())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial artifact is left behind")

	st := e.Status()
	require.NotNil(t, st.Last)
	assert.Contains(t, st.Last.Error, "chromium crashed")

	// The flag is cleared, so a retry may start.
	ch, err := e.Start(context.Background(), 2026)
	require.NoError(t, err)
	<-ch
}
