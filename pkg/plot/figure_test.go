package plot

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blmne/pkg/errs"
)

func psdFigure(t *testing.T) *Figure {
	t.Helper()
	fig := SetupBackend().StandardLayout("PSD", "Frequency (Hz)", "Power (dB)", Size{Width: 4, Height: 3})
	require.NoError(t, fig.AddLine("MEG", []float64{1, 2, 4, 8, 16}, []float64{-10, -12, -15, -14, -20}))
	require.NoError(t, fig.AddLine("EEG", []float64{1, 2, 4, 8, 16}, []float64{-8, -9, -13, -16, -18}))
	return fig
}

func TestStandardLayoutLabels(t *testing.T) {
	fig := StandardLayout("Title", "x", "y", Size{})
	assert.Equal(t, "Title", fig.Chart().Title)
	assert.Equal(t, "x", fig.Chart().XAxis.Name)
	assert.Equal(t, "y", fig.Chart().YAxis.Name)
	assert.Equal(t, DefaultSize, fig.Size())
	assert.Empty(t, fig.Chart().Series)
}

func TestAddLineValidates(t *testing.T) {
	fig := StandardLayout("t", "x", "y", DefaultSize)
	assert.ErrorIs(t, fig.AddLine("bad", []float64{1, 2}, []float64{1}), errs.ErrValidation)
	assert.ErrorIs(t, fig.AddLine("empty", nil, nil), errs.ErrValidation)
}

func TestSaveToBase64(t *testing.T) {
	fig := psdFigure(t)

	encoded, err := SaveToBase64(fig, false, 50)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.True(t, IsPNG(raw))

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
	assert.False(t, fig.Closed())
}

func TestEmptyStandardLayoutRenders(t *testing.T) {
	fig := StandardLayout("Empty", "Time (s)", "Amplitude", Size{Width: 4, Height: 3})

	encoded, err := SaveToBase64(fig, false, 50)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
	assert.Empty(t, fig.Chart().Series, "rendering does not add series to the figure")

	path := filepath.Join(t.TempDir(), "empty.png")
	_, err = SaveWithBase64(fig, path, 100, 50, true)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.True(t, fig.Closed())
}

func TestSaveToBase64ClosesFigure(t *testing.T) {
	fig := psdFigure(t)
	_, err := SaveToBase64(fig, true, 50)
	require.NoError(t, err)
	assert.True(t, fig.Closed())

	_, err = SaveToBase64(fig, false, 50)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSaveToBase64ClosesOnFailure(t *testing.T) {
	fig := psdFigure(t)
	_, err := SaveToBase64(fig, true, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.True(t, fig.Closed())
}

func TestSaveWithBase64RoundTrip(t *testing.T) {
	fig := psdFigure(t)
	path := filepath.Join(t.TempDir(), "out_figs", "psd.png")

	encoded, err := SaveWithBase64(fig, path, 100, 50, true)
	require.NoError(t, err)
	assert.True(t, fig.Closed())

	fileBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	fileImg, err := png.Decode(bytes.NewReader(fileBytes))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	embedImg, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, 400, fileImg.Bounds().Dx())
	assert.Equal(t, 300, fileImg.Bounds().Dy())
	assert.Equal(t, 200, embedImg.Bounds().Dx())
	assert.Equal(t, 150, embedImg.Bounds().Dy())
}

func TestFileToBase64(t *testing.T) {
	dir := t.TempDir()
	fig := psdFigure(t)
	b, err := fig.PNG(50)
	require.NoError(t, err)
	path := filepath.Join(dir, "fig.png")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	encoded, err := FileToBase64(path)
	require.NoError(t, err)
	assert.Equal(t, EncodeBase64(b), encoded)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = FileToBase64(txt)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = FileToBase64(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestImageResultDataURI(t *testing.T) {
	r := &ImageResult{Bytes: []byte{1, 2, 3}}
	assert.Equal(t, "data:image/png;base64,AQID", r.DataURI())

	var nilResult *ImageResult
	assert.Empty(t, nilResult.DataURI())
	assert.Empty(t, (&ImageResult{}).DataURI())
}
