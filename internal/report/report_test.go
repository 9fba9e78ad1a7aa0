package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/model"
	"workcal/internal/state"
)

func snapshot(t *testing.T, events map[model.Date]model.EventRecord) state.Snapshot {
	t.Helper()
	a, err := state.Load(state.NewMemoryStorage())
	require.NoError(t, err)
	base, carry := model.NewDays(20), model.NewDays(2)
	name, org := "Jana Nováková", "ACME s.r.o."
	_, err = a.UpdateSettings(state.SettingsPatch{Name: &name, OrganizationName: &org, BaseAllowance: &base, CarryOverDays: &carry})
	require.NoError(t, err)
	for d, r := range events {
		require.NoError(t, a.SetEvent(d, r))
	}
	return a.Snapshot()
}

func vac(d model.Duration) model.EventRecord {
	return model.EventRecord{TypeID: model.VacationTypeID, Duration: d}
}

func TestComposeVacationOnly(t *testing.T) {
	snap := snapshot(t, map[model.Date]model.EventRecord{
		"2026-07-02": vac(model.Half),
		"2026-07-01": vac(model.Full),
		"2025-12-31": {TypeID: "sick", Duration: model.Full},
	})
	r := Compose(snap, 2026)

	assert.True(t, r.VacationOnly)
	assert.Equal(t, "Prehľad dovolenky za rok 2026", r.Title)
	require.Len(t, r.Summary, 5)
	assert.Equal(t, "Základný nárok:", r.Summary[0].Label)
	assert.Equal(t, "22", r.Summary[2].Value.String())
	assert.Equal(t, "1.5", r.Summary[3].Value.String())
	assert.Equal(t, "20.5", r.Summary[4].Value.String())

	require.Len(t, r.Vacations, 2)
	assert.Equal(t, model.Date("2026-07-01"), r.Vacations[0].Date)
	assert.Equal(t, "Streda, 01. 07. 2026", r.Vacations[0].Label)
	assert.Equal(t, "Pol dňa", r.Vacations[1].Duration.Label())
	assert.False(t, r.HasOther())
}

func TestComposeGroupsOtherEventsByMonth(t *testing.T) {
	snap := snapshot(t, map[model.Date]model.EventRecord{
		"2026-03-20": {TypeID: "doctor", Duration: model.Half, Note: "kontrola"},
		"2026-03-02": {TypeID: "sick", Duration: model.Full},
		"2026-01-07": {TypeID: "home-office", Duration: model.Full},
		"2026-02-10": vac(model.Full),
	})
	r := Compose(snap, 2026)

	assert.False(t, r.VacationOnly)
	assert.Equal(t, "Prehľad dochádzky za rok 2026", r.Title)
	require.Len(t, r.Other, 2, "February has only vacation and is left out")
	assert.Equal(t, time.January, r.Other[0].Month)
	assert.Equal(t, "Január 2026", r.Other[0].Label)
	require.Len(t, r.Other[1].Events, 2)
	assert.Equal(t, model.Date("2026-03-02"), r.Other[1].Events[0].Date)
	assert.Equal(t, "Piatok, 20. marca", r.Other[1].Events[1].Label)
	assert.Equal(t, "Lekár", r.Other[1].Events[1].TypeName)
	assert.Equal(t, "kontrola", r.Other[1].Events[1].Note)
}

func TestComposeEmptyYear(t *testing.T) {
	r := Compose(snapshot(t, nil), 2026)
	assert.False(t, r.VacationOnly, "a year without events is not vacation-only")
	assert.Equal(t, "Prehľad dochádzky za rok 2026", r.Title)
	assert.Empty(t, r.Vacations)
	assert.False(t, r.HasOther())
}

func TestRenderBothLayouts(t *testing.T) {
	snap := snapshot(t, map[model.Date]model.EventRecord{
		"2026-07-01": vac(model.Full),
		"2026-07-02": vac(model.Half),
		"2026-09-09": {TypeID: "doctor", Duration: model.Full, Note: "<zubár>"},
	})
	rep := Compose(snap, 2026)

	for _, layout := range []Layout{LayoutPreview, LayoutPrint} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, rep, layout))
		html := buf.String()
		assert.Contains(t, html, `data-ready="true"`)
		assert.Contains(t, html, `class="report `+layout.String()+`"`)
		assert.Contains(t, html, "Prehľad dochádzky za rok 2026")
		assert.Contains(t, html, "Jana Nováková / ACME s.r.o.")
		assert.Contains(t, html, "Streda, 01. 07. 2026:</b> Celý deň")
		assert.Contains(t, html, "Spolu čerpané:")
		assert.Contains(t, html, "22 dní")
		assert.Contains(t, html, "September 2026")
		assert.Contains(t, html, "#14b8a6")
		assert.Contains(t, html, "&lt;zubár&gt;")
		assert.NotContains(t, html, "Žiadne iné udalosti")
		assert.Contains(t, html, "Podpis nadriadeného")
	}
}

func TestRenderPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Compose(snapshot(t, nil), 2026), LayoutPrint))
	assert.Contains(t, buf.String(), "V tomto roku nebola čerpaná žiadna dovolenka.")
	assert.Contains(t, buf.String(), "Žiadne iné udalosti neboli zaznamenané.")
	assert.NotContains(t, buf.String(), "Spolu čerpané:")
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("print")
	require.NoError(t, err)
	assert.Equal(t, LayoutPrint, l)
	l, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutPreview, l)
	_, err = ParseLayout("poster")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#3b82f6", ColorHex("bg-blue-500"))
	assert.Equal(t, "#facc15", ColorHex("bg-yellow-400"))
	assert.Equal(t, "#6b7280", ColorHex("bg-lime-300"))
	assert.Equal(t, "#6b7280", ColorHex(""))
}

func TestPaginate(t *testing.T) {
	pageH := PageHeight(PrintWidth)
	assert.Equal(t, 1123, pageH)

	tests := []struct {
		height int
		pages  int
	}{
		{0, 1},
		{1, 1},
		{pageH, 1},
		{pageH + 1, 2},
		{2 * pageH, 2},
		{5*pageH - 3, 5},
	}
	for _, tt := range tests {
		bands, err := Paginate(PrintWidth, tt.height)
		require.NoError(t, err)
		require.Len(t, bands, tt.pages, "height %d", tt.height)
		for i, b := range bands {
			assert.Equal(t, i+1, b.Page)
			assert.Equal(t, i*pageH, b.Top)
			assert.Equal(t, pageH, b.Height)
		}
	}

	_, err := Paginate(0, 100)
	assert.Error(t, err)
	_, err = Paginate(100, -1)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	snap := snapshot(t, map[model.Date]model.EventRecord{
		"2026-03-02": {TypeID: "sick", Duration: model.Full},
		"2026-01-05": vac(model.Half),
		"2026-05-04": vac(model.Full),
	})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Compose(snap, 2026)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "datum,den,typ,trvanie,dni,poznamka", lines[0])
	assert.Equal(t, "2026-01-05,Pondelok,Dovolenka,Pol dňa,0.5,", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2026-03-02,Pondelok,PN / OČR,"))
	assert.True(t, strings.HasPrefix(lines[3], "2026-05-04,"))
}
