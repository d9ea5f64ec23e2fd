package plot

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/components"

	"blmne/pkg/errs"
)

// ImageResult is a rendered PNG ready to be embedded in a report.
type ImageResult struct {
	Bytes  []byte `json:"-"`
	Base64 string `json:"base64"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DataURI returns the image as an inline data URI.
func (r *ImageResult) DataURI() string {
	if r == nil {
		return ""
	}
	if r.Base64 == "" && len(r.Bytes) > 0 {
		r.Base64 = EncodeBase64(r.Bytes)
	}
	if r.Base64 == "" {
		return ""
	}
	return "data:image/png;base64," + r.Base64
}

// RenderChartHTML renders one or more interactive charts as a standalone page.
func RenderChartHTML(title string, charts ...components.Charter) ([]byte, error) {
	if len(charts) == 0 {
		return nil, errs.Validation("no charts to render")
	}
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(charts...)
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, errs.IO("rendering chart page %q: %v", title, err)
	}
	return buf.Bytes(), nil
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable checks once per process that a headless browser can
// be started.
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		parent, cancel := chromedp.NewContext(ctx)
		defer cancel()
		headlessErr = chromedp.Run(parent)
	})
	return headlessErr
}

// ScreenshotTimeout bounds a single headless capture.
var ScreenshotTimeout = 20 * time.Second

// ScreenshotChart renders charts to a page and captures it as a PNG of the
// given viewport size.
func ScreenshotChart(ctx context.Context, width, height int, charts ...components.Charter) (ImageResult, error) {
	if width <= 0 || height <= 0 {
		return ImageResult{}, errs.Validation("screenshot size must be positive, got %dx%d", width, height)
	}
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		return ImageResult{}, errs.IO("headless browser unavailable: %v", err)
	}
	html, err := RenderChartHTML("", charts...)
	if err != nil {
		return ImageResult{}, err
	}
	png, err := renderHTMLToPNG(ctx, html, width, height)
	if err != nil {
		return ImageResult{}, errs.IO("capturing chart: %v", err)
	}
	return ImageResult{
		Bytes:  png,
		Base64: EncodeBase64(png),
		Width:  width,
		Height: height,
	}, nil
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, ScreenshotTimeout)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + EncodeBase64(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// echarts animates the first paint
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 100),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
