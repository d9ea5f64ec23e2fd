// Package plot renders report figures without a display.
//
// Static figures are go-chart charts rasterized to PNG by the backend chosen with
// SetupBackend; interactive charts are go-echarts pages, optionally captured to
// PNG through a headless browser (see ScreenshotChart).
package plot

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"blmne/pkg/errs"
	"blmne/pkg/logger"
)

// Backend turns a chart into image bytes.
type Backend struct {
	name     string
	provider chart.RendererProvider
}

func (b *Backend) Name() string { return b.name }

var (
	backendMu      sync.Mutex
	defaultBackend *Backend
)

// SetupBackend selects the non-interactive PNG renderer as the process default
// and returns it. Call it before creating figures: a Figure keeps the backend
// it was created with.
func SetupBackend() *Backend {
	b := &Backend{name: "png", provider: chart.PNG}
	backendMu.Lock()
	defaultBackend = b
	backendMu.Unlock()
	logger.Debugf("plot backend set to %s", b.name)
	return b
}

// DefaultBackend returns the process backend, setting up the PNG renderer on
// first use.
func DefaultBackend() *Backend {
	backendMu.Lock()
	b := defaultBackend
	backendMu.Unlock()
	if b != nil {
		return b
	}
	return SetupBackend()
}

// Size is a figure size in inches; pixel dimensions are size * dpi.
type Size struct {
	Width  float64
	Height float64
}

// DefaultSize matches the usual single-panel report figure.
var DefaultSize = Size{Width: 10, Height: 6}

// Figure is a chart plus the physical size it is rendered at.
type Figure struct {
	backend *Backend
	size    Size
	chart   chart.Chart
	closed  bool
}

// StandardLayout creates a labeled figure on the default backend.
func StandardLayout(title, xlabel, ylabel string, size Size) *Figure {
	return DefaultBackend().StandardLayout(title, xlabel, ylabel, size)
}

// StandardLayout creates a figure with title and axis labels set. A zero size
// falls back to DefaultSize.
func (b *Backend) StandardLayout(title, xlabel, ylabel string, size Size) *Figure {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	return &Figure{
		backend: b,
		size:    size,
		chart: chart.Chart{
			Title: title,
			Background: chart.Style{
				Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			},
			XAxis: chart.XAxis{Name: xlabel},
			YAxis: chart.YAxis{Name: ylabel},
		},
	}
}

// Chart exposes the underlying chart for drawing calls the helpers do not wrap.
func (f *Figure) Chart() *chart.Chart { return &f.chart }

func (f *Figure) Size() Size { return f.size }

// AddLine draws a named line series.
func (f *Figure) AddLine(name string, xs, ys []float64) error {
	if f.closed {
		return errs.Validation("figure is closed")
	}
	if len(xs) == 0 || len(xs) != len(ys) {
		return errs.Validation("series %q needs matching non-empty x and y values (got %d and %d)", name, len(xs), len(ys))
	}
	f.chart.Series = append(f.chart.Series, chart.ContinuousSeries{
		Name:    name,
		XValues: append([]float64(nil), xs...),
		YValues: append([]float64(nil), ys...),
	})
	return nil
}

// Close drops the figure's series; a closed figure can no longer be rendered.
func (f *Figure) Close() {
	f.chart.Series = nil
	f.chart.Elements = nil
	f.closed = true
}

func (f *Figure) Closed() bool { return f.closed }

// Render writes the figure as PNG at dpi.
func (f *Figure) Render(w io.Writer, dpi float64) error {
	if f.closed {
		return errs.Validation("figure is closed")
	}
	if dpi <= 0 {
		return errs.Validation("dpi must be > 0, got %g", dpi)
	}
	c := f.chart
	c.DPI = dpi
	c.Width = int(f.size.Width*dpi + 0.5)
	c.Height = int(f.size.Height*dpi + 0.5)
	if len(c.Series) == 0 {
		c.Series = []chart.Series{emptyAxes()}
	}
	if named(c.Series) && len(c.Elements) == 0 {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	backend := f.backend
	if backend == nil {
		backend = DefaultBackend()
	}
	if err := c.Render(backend.provider, w); err != nil {
		return errs.Validation("rendering figure %q: %v", f.chart.Title, err)
	}
	return nil
}

// PNG renders the figure into memory.
func (f *Figure) PNG(dpi float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf, dpi); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToBase64 renders fig at dpi and returns the base64 text of the PNG. With
// closeFigure set the figure is closed whether or not rendering succeeds.
func SaveToBase64(fig *Figure, closeFigure bool, dpi float64) (string, error) {
	if fig == nil {
		return "", errs.Validation("figure is nil")
	}
	if closeFigure {
		defer fig.Close()
	}
	png, err := fig.PNG(dpi)
	if err != nil {
		return "", err
	}
	return EncodeBase64(png), nil
}

// SaveWithBase64 writes fig to path at dpiFile and returns a base64 PNG of the
// same figure rendered at dpiBase64. Missing parent directories are created.
func SaveWithBase64(fig *Figure, path string, dpiFile, dpiBase64 float64, closeFigure bool) (string, error) {
	if fig == nil {
		return "", errs.Validation("figure is nil")
	}
	if closeFigure {
		defer fig.Close()
	}
	if strings.TrimSpace(path) == "" {
		return "", errs.Validation("figure path cannot be empty")
	}
	png, err := fig.PNG(dpiFile)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errs.FromOS(err, "creating figure directory %s", dir)
		}
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", errs.FromOS(err, "writing figure %s", path)
	}
	logger.Debugf("saved figure %s at %g dpi", path, dpiFile)
	return SaveToBase64(fig, false, dpiBase64)
}

// emptyAxes is an invisible series spanning the unit square. go-chart refuses
// to render a chart without series, so bare labeled axes render with it.
func emptyAxes() chart.Series {
	return chart.ContinuousSeries{
		XValues: []float64{0, 1},
		YValues: []float64{0, 1},
		Style: chart.Style{
			// fully transparent; a zero Color would be replaced by the default
			StrokeColor: drawing.Color{R: 255, G: 255, B: 255, A: 0},
		},
	}
}

func named(series []chart.Series) bool {
	for _, s := range series {
		if s.GetName() != "" {
			return true
		}
	}
	return false
}
