// Package locale holds the Slovak names and number formatting used by the
// calendar and the report.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"workcal/internal/model"
)

// Tag is the language everything is rendered in.
var Tag = language.Slovak

// MonthNames in the nominative, January first.
var MonthNames = [12]string{
	"Január", "Február", "Marec", "Apríl", "Máj", "Jún",
	"Júl", "August", "September", "Október", "November", "December",
}

// monthGenitive is the form used after a day number ("7. júla").
var monthGenitive = [12]string{
	"januára", "februára", "marca", "apríla", "mája", "júna",
	"júla", "augusta", "septembra", "októbra", "novembra", "decembra",
}

// DayNamesShort are the Monday-first column headings of a month grid.
var DayNamesShort = [7]string{"Po", "Ut", "St", "Št", "Pi", "So", "Ne"}

var weekdayNames = [7]string{"nedeľa", "pondelok", "utorok", "streda", "štvrtok", "piatok", "sobota"}

// MonthName returns the nominative name of month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return MonthNames[m-1]
}

// WeekdayName returns the capitalised weekday ("Pondelok").
func WeekdayName(wd time.Weekday) string {
	return cases.Title(Tag).String(weekdayNames[wd%7])
}

// NumericDate renders "Pondelok, 06. 07. 2026".
func NumericDate(d model.Date) string {
	t := d.Time()
	return fmt.Sprintf("%s, %02d. %02d. %d", WeekdayName(t.Weekday()), t.Day(), int(t.Month()), t.Year())
}

// LongDate renders "Pondelok, 6. júla".
func LongDate(d model.Date) string {
	t := d.Time()
	return fmt.Sprintf("%s, %d. %s", WeekdayName(t.Weekday()), t.Day(), monthGenitive[t.Month()-1])
}

// FormatDays renders a day amount with a decimal comma ("20,5").
func FormatDays(d model.Days) string {
	p := message.NewPrinter(Tag)
	return p.Sprint(number.Decimal(d.Float64()))
}

// DaysWord picks the Slovak plural of "day" for amount.
func DaysWord(d model.Days) string {
	one := model.NewDaysFromInt(1)
	five := model.NewDaysFromInt(5)
	switch {
	case d.Equal(one) || d.Equal(model.Half.Days()):
		return "deň"
	case d.GreaterThan(one) && five.GreaterThan(d):
		return "dni"
	default:
		return "dní"
	}
}
