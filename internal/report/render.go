package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"workcal/internal/locale"
	"workcal/internal/model"
)

// Layout selects the visual density of the rendered report.
type Layout int

const (
	// LayoutPreview is the compact single-page on-screen variant.
	LayoutPreview Layout = iota
	// LayoutPrint is the A4 document variant that is captured to PDF.
	LayoutPrint
)

func (l Layout) String() string {
	if l == LayoutPrint {
		return "print"
	}
	return "preview"
}

// ParseLayout accepts "preview" or "print".
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "preview":
		return LayoutPreview, nil
	case "print":
		return LayoutPrint, nil
	}
	return LayoutPreview, fmt.Errorf("%w: unknown layout %q", model.ErrValidation, s)
}

// PrintWidth is the CSS pixel width of the print layout (210mm at 96dpi).
const PrintWidth = 794

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"days":     func(d model.Days) string { return locale.FormatDays(d) + " dní" },
	"colorHex": ColorHex,
}).ParseFS(templateFS, "templates/report.html"))

type view struct {
	Report
	Layout     string
	PrintWidth int
}

// Render writes r as a standalone HTML document in the given layout. The
// root element carries data-ready="true" so a headless browser can wait
// for it.
func Render(w io.Writer, r Report, layout Layout) error {
	if err := reportTmpl.Execute(w, view{Report: r, Layout: layout.String(), PrintWidth: PrintWidth}); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}
