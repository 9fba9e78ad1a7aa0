package allowance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/catalog"
	"workcal/internal/model"
	"workcal/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(catalog.Default())
}

func set(t *testing.T, s *store.Store, date model.Date, typeID string, d model.Duration) {
	t.Helper()
	require.NoError(t, s.Set(date, model.EventRecord{TypeID: typeID, Duration: d}))
}

func TestSummaryExample(t *testing.T) {
	s := newStore(t)
	set(t, s, "2026-07-01", model.VacationTypeID, model.Full)
	set(t, s, "2026-07-02", model.VacationTypeID, model.Half)

	cfg := Config{Base: model.NewDays(20), CarryOver: model.NewDays(2)}
	assert.Equal(t, "22", cfg.Total().String())
	assert.Equal(t, "1.5", UsedDays(s, 2026).String())
	assert.Equal(t, "20.5", RemainingDays(cfg, s, 2026).String())

	sum := Summarize(cfg, s, 2026)
	assert.Equal(t, "20", sum.Base.String())
	assert.Equal(t, "2", sum.CarryOver.String())
	assert.Equal(t, "22", sum.Total.String())
	assert.Equal(t, "1.5", sum.Used.String())
	assert.Equal(t, "20.5", sum.Remaining.String())
}

func TestOnlyVacationCounts(t *testing.T) {
	s := newStore(t)
	set(t, s, "2026-02-02", model.VacationTypeID, model.Full)
	set(t, s, "2026-02-03", "sick", model.Full)
	before := UsedDays(s, 2026)

	set(t, s, "2026-02-03", "sick", model.Half)
	set(t, s, "2026-02-04", "doctor", model.Full)
	assert.True(t, before.Equal(UsedDays(s, 2026)))
	assert.Equal(t, "1", UsedDays(s, 2026).String())
}

func TestYearScoping(t *testing.T) {
	s := newStore(t)
	set(t, s, "2025-12-31", model.VacationTypeID, model.Full)
	set(t, s, "2026-01-01", model.VacationTypeID, model.Half)
	set(t, s, "2027-01-01", model.VacationTypeID, model.Full)
	assert.Equal(t, "0.5", UsedDays(s, 2026).String())
	assert.Equal(t, "1", UsedDays(s, 2025).String())
	assert.Equal(t, "0", UsedDays(s, 2024).String())
}

func TestRemainingGoesNegative(t *testing.T) {
	s := newStore(t)
	set(t, s, "2026-03-02", model.VacationTypeID, model.Full)
	set(t, s, "2026-03-03", model.VacationTypeID, model.Full)
	set(t, s, "2026-03-04", model.VacationTypeID, model.Half)
	cfg := Config{Base: model.NewDays(1), CarryOver: model.ZeroDays}
	got := RemainingDays(cfg, s, 2026)
	assert.True(t, got.IsNegative())
	assert.Equal(t, "-1.5", got.String())
}

func TestManyHalfDaysStayExact(t *testing.T) {
	s := newStore(t)
	day := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		set(t, s, model.Date(day.AddDate(0, 0, i).Format(model.DateLayout)), model.VacationTypeID, model.Half)
	}
	assert.Equal(t, "182.5", UsedDays(s, 2026).String())
}

func TestMonthUsedDays(t *testing.T) {
	s := newStore(t)
	set(t, s, "2026-07-01", model.VacationTypeID, model.Full)
	set(t, s, "2026-07-31", model.VacationTypeID, model.Half)
	set(t, s, "2026-08-03", model.VacationTypeID, model.Full)
	set(t, s, "2026-07-15", "sick", model.Full)
	assert.Equal(t, "1.5", MonthUsedDays(s, 2026, time.July).String())
	assert.Equal(t, "1", MonthUsedDays(s, 2026, time.August).String())
	assert.Equal(t, "0", MonthUsedDays(s, 2026, time.June).String())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Base: model.NewDays(25), CarryOver: model.NewDays(3.5)}.Validate())
	assert.ErrorIs(t, Config{Base: model.NewDays(-1)}.Validate(), model.ErrValidation)
	assert.ErrorIs(t, Config{Base: model.NewDays(2), CarryOver: model.NewDays(0.3)}.Validate(), model.ErrValidation)
}
