package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"blmne/pkg/errs"
	"blmne/pkg/inspect"
	"blmne/pkg/meg"
	"blmne/pkg/plot"
)

// HeadPointsTitle names the head-point figure in reports.
const HeadPointsTitle = "Digitized head points"

// Digitized is anything carrying digitization points in head coordinates.
type Digitized interface {
	Digitization() []meg.DigPoint
}

var digKinds = []meg.DigKind{meg.DigCardinal, meg.DigHPI, meg.DigEEG, meg.DigExtra}

var digColors = map[meg.DigKind]string{
	meg.DigCardinal: "#d62728",
	meg.DigHPI:      "#2ca02c",
	meg.DigEEG:      "#1f77b4",
	meg.DigExtra:    "#7f7f7f",
}

// groupDigPoints splits points by kind in a stable order, converting meters to
// millimeters. Unknown kinds are grouped as extra.
func groupDigPoints(raw Digitized) (map[meg.DigKind][][3]float64, error) {
	if inspect.IsNil(raw) {
		return nil, errs.Validation("no data to plot")
	}
	points := raw.Digitization()
	if len(points) == 0 {
		return nil, errs.Validation("recording has no digitization points")
	}
	groups := make(map[meg.DigKind][][3]float64, len(digKinds))
	for _, p := range points {
		kind := p.Kind
		if _, ok := digColors[kind]; !ok {
			kind = meg.DigExtra
		}
		groups[kind] = append(groups[kind], [3]float64{p.R[0] * 1000, p.R[1] * 1000, p.R[2] * 1000})
	}
	return groups, nil
}

// PlotDigitizedHeadPoints3D builds a 3D scatter of the recording's
// digitization points, one series per point kind. When display is non-nil the
// chart page is rendered to it; with a nil display the chart is only returned.
func PlotDigitizedHeadPoints3D(raw Digitized, display io.Writer) (*charts.Scatter3D, error) {
	groups, err := groupDigPoints(raw)
	if err != nil {
		return nil, err
	}
	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: HeadPointsTitle}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x (mm)"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "y (mm)"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z (mm)"}),
	)
	for _, kind := range digKinds {
		pts := groups[kind]
		if len(pts) == 0 {
			continue
		}
		data := make([]opts.Chart3DData, 0, len(pts))
		for _, r := range pts {
			data = append(data, opts.Chart3DData{Value: []interface{}{r[0], r[1], r[2]}})
		}
		scatter.AddSeries(string(kind), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: digColors[kind]}))
	}
	if display != nil {
		html, err := plot.RenderChartHTML(HeadPointsTitle, scatter)
		if err != nil {
			return nil, err
		}
		if _, err := display.Write(html); err != nil {
			return nil, errs.IO("displaying head points: %v", err)
		}
	}
	return scatter, nil
}

// DigitizationPlotly returns the same points as a plotly scatter3d payload
// suitable for AddPlotly.
func DigitizationPlotly(raw Digitized) (map[string]any, error) {
	groups, err := groupDigPoints(raw)
	if err != nil {
		return nil, err
	}
	traces := make([]any, 0, len(digKinds))
	for _, kind := range digKinds {
		pts := groups[kind]
		if len(pts) == 0 {
			continue
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		zs := make([]float64, len(pts))
		for i, r := range pts {
			xs[i], ys[i], zs[i] = round(r[0], 2), round(r[1], 2), round(r[2], 2)
		}
		traces = append(traces, map[string]any{
			"type":   "scatter3d",
			"mode":   "markers",
			"name":   string(kind),
			"x":      xs,
			"y":      ys,
			"z":      zs,
			"marker": map[string]any{"size": 4, "color": digColors[kind]},
		})
	}
	return map[string]any{
		"data": traces,
		"layout": map[string]any{
			"title": HeadPointsTitle,
			"scene": map[string]any{
				"xaxis":      map[string]any{"title": "x (mm)"},
				"yaxis":      map[string]any{"title": "y (mm)"},
				"zaxis":      map[string]any{"title": "z (mm)"},
				"aspectmode": "data",
			},
		},
	}, nil
}
