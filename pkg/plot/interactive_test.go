package plot

import (
	"context"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blmne/pkg/errs"
)

func barChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Channel types"}))
	bar.SetXAxis([]string{"eeg", "meg"})
	bar.AddSeries("count", []opts.BarData{{Value: 60}, {Value: 306}})
	return bar
}

func TestRenderChartHTML(t *testing.T) {
	html, err := RenderChartHTML("channels", barChart())
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
	assert.Contains(t, string(html), "Channel types")

	_, err = RenderChartHTML("empty")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestScreenshotChartRejectsBadSize(t *testing.T) {
	_, err := ScreenshotChart(context.Background(), 0, 100, barChart())
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestScreenshotChart(t *testing.T) {
	if testing.Short() {
		t.Skip("headless browser capture skipped in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		t.Skipf("no headless browser: %v", err)
	}

	img, err := ScreenshotChart(ctx, 640, 400, barChart())
	require.NoError(t, err)
	assert.True(t, IsPNG(img.Bytes))
	assert.NotEmpty(t, img.DataURI())
}
