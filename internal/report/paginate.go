package report

import "fmt"

// A4 portrait in millimetres.
const (
	A4WidthMM  = 210.0
	A4HeightMM = 297.0
)

// Band is the vertical slice [Top, Top+Height) of the rendered report that
// goes on one page. The last band may extend past the content; the rest of
// that page is blank.
type Band struct {
	Page   int
	Top    int
	Height int
}

// PageHeight returns the page height in pixels for content rendered width
// pixels wide, keeping the A4 aspect ratio.
func PageHeight(width int) int {
	return int(float64(width)*A4HeightMM/A4WidthMM + 0.5)
}

// Paginate splits content of width x height pixels into A4 page bands.
// The result always has at least one band, and exactly
// ceil(height/pageHeight) bands when height is positive.
func Paginate(width, height int) ([]Band, error) {
	if width <= 0 {
		return nil, fmt.Errorf("report: paginate: width must be positive, got %d", width)
	}
	if height < 0 {
		return nil, fmt.Errorf("report: paginate: negative height %d", height)
	}
	pageH := PageHeight(width)

	bands := []Band{{Page: 1, Top: 0, Height: pageH}}
	for left := height - pageH; left > 0; left -= pageH {
		last := bands[len(bands)-1]
		bands = append(bands, Band{Page: last.Page + 1, Top: last.Top + pageH, Height: pageH})
	}
	return bands, nil
}
