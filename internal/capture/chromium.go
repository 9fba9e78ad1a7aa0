package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"workcal/internal/convert"
	appLog "workcal/internal/log"
	"workcal/internal/report"
)

// Default capture parameters. Width must match the print layout.
const (
	DefaultWidth      = report.PrintWidth
	DefaultHeight     = 1123
	DefaultTimeoutSec = 60
)

// A4 in inches, as expected by Page.printToPDF.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// Options configures the Chromium renderer.
type Options struct {
	// Width is the viewport width in CSS pixels. If zero, DefaultWidth.
	Width int

	// Timeout bounds one whole render. If zero, DefaultTimeoutSec.
	Timeout time.Duration

	// ExecPath points at a Chromium binary. Empty uses chromedp's lookup.
	ExecPath string
}

// Chromium renders report HTML into a paginated PDF with headless Chromium:
// the print layout is captured as one tall screenshot, cut into A4 bands
// and printed one band per page.
type Chromium struct {
	opts Options
}

// NewChromium fills in defaults for zero fields.
func NewChromium(opts Options) *Chromium {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return &Chromium{opts: opts}
}

func (c *Chromium) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(ctx, c.opts.Timeout)
	return ctx, func() {
		timeoutCancel()
		cancel()
		allocCancel()
	}
}

// setContent replaces the current document with html.
func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}

// Screenshot renders html at the configured width and returns a PNG of the
// whole document.
//
// Rendering-complete condition: the report root carries data-ready="true".
func (c *Chromium) Screenshot(parentCtx context.Context, html []byte) ([]byte, error) {
	ctx, cancel := c.newContext(parentCtx)
	defer cancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(c.opts.Width), DefaultHeight),
		chromedp.Navigate("about:blank"),
		setContent(string(html)),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// RenderPDF renders html into an A4 PDF.
func (c *Chromium) RenderPDF(parentCtx context.Context, html []byte) ([]byte, error) {
	start := time.Now()
	png, err := c.Screenshot(parentCtx, html)
	if err != nil {
		return nil, err
	}

	pages, bands, err := convert.PagesFromPNG(png)
	if err != nil {
		return nil, err
	}
	doc, err := pagesDocument(pages)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.newContext(parentCtx)
	defer cancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		setContent(doc),
		chromedp.WaitReady("img", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: print to pdf failed: %w", err)
	}

	appLog.Info("report rendered",
		"pages", len(bands),
		"bytes", len(pdf),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return pdf, nil
}

// pagesDocument lays the page images out one per printed A4 sheet.
func pagesDocument(pages []*image.NRGBA) (string, error) {
	var b strings.Builder
	b.WriteString(`<!doctype html><html><head><meta charset="utf-8"><style>
@page { size: A4 portrait; margin: 0; }
html, body { margin: 0; padding: 0; }
img { display: block; width: 210mm; height: 297mm; page-break-after: always; }
img:last-child { page-break-after: auto; }
</style></head><body>`)
	for i, p := range pages {
		data, err := convert.EncodePNG(p)
		if err != nil {
			return "", fmt.Errorf("capture: page %d: %w", i+1, err)
		}
		b.WriteString(`<img src="data:image/png;base64,`)
		b.WriteString(base64.StdEncoding.EncodeToString(data))
		b.WriteString(`">`)
	}
	b.WriteString(`</body></html>`)
	return b.String(), nil
}
