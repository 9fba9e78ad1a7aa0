package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workcal/internal/catalog"
	"workcal/internal/holiday"
	"workcal/internal/model"
	"workcal/internal/store"
)

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2028, time.February))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 28, DaysInMonth(1900, time.February))
	assert.Equal(t, 29, DaysInMonth(2000, time.February))
	assert.Equal(t, 30, DaysInMonth(2026, time.April))
	assert.Equal(t, 31, DaysInMonth(2026, time.December))
}

func TestMondayOffset(t *testing.T) {
	assert.Equal(t, 6, MondayOffset(time.Sunday))
	assert.Equal(t, 0, MondayOffset(time.Monday))
	assert.Equal(t, 5, MondayOffset(time.Saturday))
}

func TestGridShapeForManyMonths(t *testing.T) {
	for year := 2024; year <= 2030; year++ {
		for m := 0; m < 12; m++ {
			month, err := ProjectMonth(Source{}, year, m)
			require.NoError(t, err)
			assert.Zero(t, len(month.Cells)%7, "%d-%d", year, m)
			assert.Equal(t, len(month.Cells), month.Offset+month.DaysInMonth+month.Trailing())
			assert.Less(t, month.Trailing(), 7)
			for i, c := range month.Cells {
				inMonth := i >= month.Offset && i < month.Offset+month.DaysInMonth
				assert.Equal(t, !inMonth, c.Empty)
			}
		}
	}
}

func TestFebruaryLeapYears(t *testing.T) {
	feb28, err := ProjectMonth(Source{}, 2028, 1)
	require.NoError(t, err)
	assert.Equal(t, 29, feb28.DaysInMonth)
	// 1 February 2028 is a Tuesday.
	assert.Equal(t, 1, feb28.Offset)
	assert.Len(t, feb28.Cells, 35)

	feb25, err := ProjectMonth(Source{}, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 28, feb25.DaysInMonth)
	// 1 February 2025 is a Saturday.
	assert.Equal(t, 5, feb25.Offset)
	assert.Len(t, feb25.Cells, 35)
}

func TestSundayStartUsesLastColumn(t *testing.T) {
	// 1 March 2026 is a Sunday.
	m, err := ProjectMonth(Source{}, 2026, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Offset)
	assert.Len(t, m.Cells, 42)
	assert.Equal(t, model.Date("2026-03-01"), m.Cells[6].Date)
	assert.Len(t, m.Weeks(), 6)
}

func TestMonthRangeIsValidated(t *testing.T) {
	_, err := ProjectMonth(Source{}, 2026, 12)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = ProjectMonth(Source{}, 2026, -1)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCellsCarryEventsAndHolidays(t *testing.T) {
	cat := catalog.Default()
	s := store.New(cat)
	require.NoError(t, s.Set("2026-07-01", model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Full}))
	require.NoError(t, s.Set("2026-07-02", model.EventRecord{TypeID: model.VacationTypeID, Duration: model.Half}))
	require.NoError(t, s.Set("2026-07-03", model.EventRecord{TypeID: "doctor", Duration: model.Full, Note: "zubár"}))

	src := Source{
		Events:   s,
		Types:    cat,
		Holidays: holiday.SlovakHolidays(2026),
		NameDays: map[string]string{"07-01": "Dušan"},
	}
	m, err := ProjectMonth(src, 2026, 6)
	require.NoError(t, err)

	assert.Equal(t, "Júl", m.Name)
	assert.Equal(t, "1.5", m.Vacation.String())
	assert.Equal(t, "dni", m.VacationLabel)

	first := m.Cells[m.Offset]
	assert.Equal(t, model.Date("2026-07-01"), first.Date)
	assert.Equal(t, time.Wednesday, first.Weekday)
	assert.True(t, first.Selectable)
	assert.Equal(t, "Dušan", first.NameDay)
	require.NotNil(t, first.Record)
	require.NotNil(t, first.Type)
	assert.Equal(t, "Dovolenka", first.Type.Name)

	third := m.Cells[m.Offset+2]
	require.NotNil(t, third.Type)
	assert.Equal(t, "doctor", third.Type.ID)

	// 5 July is both a Sunday and a holiday.
	fifth := m.Cells[m.Offset+4]
	assert.True(t, fifth.Holiday)
	assert.True(t, fifth.Weekend)
	assert.False(t, fifth.Selectable)
	assert.Equal(t, "Sviatok svätého Cyrila a Metoda", fifth.HolidayName)
	assert.Equal(t, 23, m.Workdays)
}

func TestHolidayOnWeekdayIsNotSelectable(t *testing.T) {
	src := Source{Holidays: holiday.SlovakHolidays(2026)}
	m, err := ProjectMonth(src, 2026, 0)
	require.NoError(t, err)
	newYear := m.Cells[m.Offset]
	assert.Equal(t, time.Thursday, newYear.Weekday)
	assert.False(t, newYear.Weekend)
	assert.True(t, newYear.Holiday)
	assert.False(t, newYear.Selectable)
}

func TestWorkdaysMatchSelectableCells(t *testing.T) {
	src := Source{Holidays: holiday.SlovakHolidays(2026)}
	months := ProjectYear(src, 2026)
	require.Len(t, months, 12)
	for _, m := range months {
		selectable := 0
		for _, c := range m.Cells {
			if !c.Empty && c.Selectable {
				selectable++
			}
		}
		assert.Equal(t, selectable, m.Workdays, m.Name)
	}
}

func TestMonthSubtotalIgnoresOtherTypes(t *testing.T) {
	cat := catalog.Default()
	s := store.New(cat)
	require.NoError(t, s.Set("2026-09-07", model.EventRecord{TypeID: "sick", Duration: model.Full}))
	m, err := ProjectMonth(Source{Events: s, Types: cat}, 2026, 8)
	require.NoError(t, err)
	assert.Equal(t, "0", m.Vacation.String())
}
