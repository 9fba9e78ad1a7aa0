package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/model"
)

func TestPairsMarshal(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set("2026-07-02", model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Half}))
	require.NoError(t, s.Set("2026-07-01", model.EventRecord{TypeID: "sick", Duration: model.Full, Note: "x"}))

	b, err := json.Marshal(Pairs(s.Entries()))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		["2026-07-01", {"typeId":"sick","duration":1,"note":"x"}],
		["2026-07-02", {"typeId":"vacation","duration":0.5}]
	]`, string(b))
}

func TestDecodePairsIsLenient(t *testing.T) {
	in := `[
		["2026-07-01", {"typeId":"sick","duration":1}],
		["2026-07-02", {"typeId":"vacation"}],
		["2026-7-3", {"typeId":"sick","duration":1}],
		["2026-07-04", {"typeId":"sick","duration":3}],
		["2026-07-05"],
		"garbage",
		["2026-07-06", null]
	]`
	entries, dropped, err := DecodePairs([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, 5, dropped)
	require.Len(t, entries, 2)
	assert.Equal(t, model.Full, entries[1].Record.Duration, "missing duration reads as a full day")

	_, _, err = DecodePairs([]byte(`{"2026-07-01": {}}`))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestPairsUnmarshalIsStrict(t *testing.T) {
	var p Pairs
	require.NoError(t, json.Unmarshal([]byte(`[["2026-01-05",{"typeId":"sick","duration":0.5}]]`), &p))
	require.Len(t, p, 1)
	assert.Equal(t, model.Half, p[0].Record.Duration)

	err := json.Unmarshal([]byte(`[["bad",{"typeId":"sick","duration":1}]]`), &p)
	assert.ErrorIs(t, err, model.ErrValidation)
}
