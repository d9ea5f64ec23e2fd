package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"blmne/pkg/errs"
	"blmne/pkg/report"
)

type workspace struct {
	dir     string
	product string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BLMNE_OUT_DIR", filepath.Join(dir, "out_dir"))
	t.Setenv("BLMNE_FIGS_DIR", filepath.Join(dir, "out_figs"))
	t.Setenv("BLMNE_REPORT_DIR", filepath.Join(dir, "out_report"))
	t.Setenv("BLMNE_PRODUCT", filepath.Join(dir, "product.json"))
	t.Setenv("BLMNE_LOG_LEVEL", "error")
	return workspace{dir: dir, product: filepath.Join(dir, "product.json")}
}

func (w workspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const infoJSON = `{
  "kind": "raw",
  "n_times": 5000,
  "info": {
    "chs": [
      {"ch_name": "MEG 0111", "kind": "mag"},
      {"ch_name": "MEG 0112", "kind": "grad"},
      {"ch_name": "EEG 001", "kind": "eeg"}
    ],
    "bads": [],
    "sfreq": 1000,
    "dig": [
      {"kind": "cardinal", "ident": 1, "r": [-0.07, 0, 0]},
      {"kind": "hpi", "ident": 1, "r": [0.03, 0.05, 0.06]}
    ]
  }
}`

func TestPrepare(t *testing.T) {
	w := newWorkspace(t)
	cal := w.write(t, "sss_cal.dat", "calibration")
	channels := w.write(t, "chan.tsv", "name\ttype\tstatus\nMEG 0111\tMAG\tgood\nEEG 001\tEEG\tbad\n")
	info := w.write(t, "info.json", infoJSON)
	cfgPath := w.write(t, "config.json", `{
  "_app": "app-maxwell",
  "_inputs": [{"id": "meg", "datatype_tags": ["raw"]}],
  "calibration": "`+cal+`",
  "channels": "`+channels+`",
  "crosstalk": "",
  "events": "`+filepath.Join(w.dir, "missing.tsv")+`"
}`)

	out, err := run(t, "prepare", "--config", cfgPath, "--info", info)
	require.NoError(t, err)

	var messages map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &messages))
	assert.Equal(t, "Calibration file provided", messages["report_calibration_file"])
	assert.Equal(t, "No cross-talk file provided", messages["report_cross_talk_file"])
	assert.Equal(t, "No events file provided", messages["report_events_file"])

	copied, err := os.ReadFile(filepath.Join(w.dir, "out_dir", "calibration_meg.dat"))
	require.NoError(t, err)
	assert.Equal(t, "calibration", string(copied))
	assert.FileExists(t, filepath.Join(w.dir, "out_dir", "channels.tsv"))
	assert.DirExists(t, filepath.Join(w.dir, "out_figs"))
	assert.FileExists(t, filepath.Join(w.dir, "out_report", ReportFile))

	entries, err := report.NewProduct(w.product).Entries()
	require.NoError(t, err)
	var warnings, data int
	for _, e := range entries {
		if e.MsgType == report.SeverityWarning {
			warnings++
		}
		if e.Type == report.TypeData {
			data++
		}
	}
	// missing events file + bads changed from channels.tsv
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 1, data)
}

func TestPrepareMissingConfig(t *testing.T) {
	w := newWorkspace(t)
	_, err := run(t, "prepare", "--config", filepath.Join(w.dir, "nope.json"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, 3, exitCode(err))
}

func TestProductCommands(t *testing.T) {
	w := newWorkspace(t)

	_, err := run(t, "product", "info", "too early")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = run(t, "product", "init", "--field", "app=maxwell")
	require.NoError(t, err)
	_, err = run(t, "product", "info", "done", "--severity", "success")
	require.NoError(t, err)
	_, err = run(t, "product", "info", "x", "--severity", "bogus")
	assert.ErrorIs(t, err, errs.ErrValidation)

	plotly := w.write(t, "plot.json", `{"data": [{"x": [1, 2], "y": [3, 4]}], "layout": {"title": "t"}}`)
	_, err = run(t, "product", "plotly", plotly, "--title", "line")
	require.NoError(t, err)
	bad := w.write(t, "bad.json", `{"layout": {}}`)
	_, err = run(t, "product", "plotly", bad)
	assert.ErrorIs(t, err, errs.ErrValidation)

	info := w.write(t, "info.json", infoJSON)
	_, err = run(t, "product", "headpoints", info, "--html", filepath.Join(w.dir, "head.html"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(w.dir, "head.html"))

	out, err := run(t, "product", "show", "--format", "yaml")
	require.NoError(t, err)
	var shown []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	require.Len(t, shown, 3)
	assert.Equal(t, "success", shown[0]["msg_type"])
	assert.Equal(t, "plotly", shown[1]["type"])
	assert.Equal(t, report.HeadPointsTitle, shown[2]["name"])

	raw, ok, err := report.NewProduct(w.product).Field("app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"maxwell"`, string(raw))
}

func TestValidateInput(t *testing.T) {
	w := newWorkspace(t)
	epo := w.write(t, "sub-01_task-rest_epo.fif", "x")

	_, err := run(t, "validate-input", epo, "--kind", "epochs")
	require.NoError(t, err)

	_, err = run(t, "validate-input", epo, "--kind", "raw")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 5, exitCode(err))

	_, err = run(t, "validate-input", filepath.Join(w.dir, "absent_raw.fif"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestChannels(t *testing.T) {
	w := newWorkspace(t)
	info := w.write(t, "info.json", infoJSON)

	out, err := run(t, "channels", info)
	require.NoError(t, err)
	var summary report.RawSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.NChannels)
	assert.Equal(t, 5.0, summary.DurationS)

	tsv := w.write(t, "channels.tsv", "name\tstatus\nMEG 0112\tbad\n")
	out, err = run(t, "channels", info, "--format", "yaml", "--channels-file", tsv)
	require.NoError(t, err)
	var fromYAML report.RawSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, []string{"MEG 0112"}, fromYAML.BadChannels)

	_, err = run(t, "channels", info, "--format", "xml")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
