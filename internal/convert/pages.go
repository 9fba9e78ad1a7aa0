// Package convert turns a full-page screenshot of the print layout into
// page-sized images.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"workcal/internal/report"
)

// Pages cuts src into one image per band. Each page is src's width by the
// band height; whatever lies past the bottom of src stays white.
//
// Transparent pixels are flattened onto white so the pages print the same
// as the on-screen preview.
func Pages(src image.Image, bands []report.Band) ([]*image.NRGBA, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("convert: empty image %dx%d", b.Dx(), b.Dy())
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("convert: no page bands")
	}

	pages := make([]*image.NRGBA, 0, len(bands))
	for _, band := range bands {
		if band.Height <= 0 {
			return nil, fmt.Errorf("convert: page %d has height %d", band.Page, band.Height)
		}
		page := imaging.New(b.Dx(), band.Height, color.White)

		top := b.Min.Y + band.Top
		if top < b.Max.Y {
			bottom := min(top+band.Height, b.Max.Y)
			slice := imaging.Crop(src, image.Rect(b.Min.X, top, b.Max.X, bottom))
			page = imaging.Overlay(page, slice, image.Pt(0, 0), 1.0)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// PagesFromPNG decodes a screenshot, plans A4 pages for its size and cuts
// it. The bands are returned alongside the pages.
func PagesFromPNG(data []byte) ([]*image.NRGBA, []report.Band, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("convert: decode screenshot: %w", err)
	}
	b := src.Bounds()
	bands, err := report.Paginate(b.Dx(), b.Dy())
	if err != nil {
		return nil, nil, err
	}
	pages, err := Pages(src, bands)
	if err != nil {
		return nil, nil, err
	}
	return pages, bands, nil
}

// EncodePNG encodes one page.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("convert: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
