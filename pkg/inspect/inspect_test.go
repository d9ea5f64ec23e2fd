package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blmne/pkg/errs"
	"blmne/pkg/files"
	"blmne/pkg/meg"
)

func sampleRecording() *meg.Recording {
	return &meg.Recording{
		Kind: meg.KindRaw,
		Info: meg.Info{
			Channels: []meg.Channel{
				{Name: "A", Type: "eeg"},
				{Name: "B", Type: "eeg"},
				{Name: "C", Type: "meg"},
			},
			SFreq: 1000,
		},
	}
}

func TestChannelTypesSummary(t *testing.T) {
	assert.Equal(t, map[string]int{"eeg": 2, "meg": 1}, ChannelTypesSummary(sampleRecording()))
	assert.Empty(t, ChannelTypesSummary(nil))
}

func TestChannelTypesSummaryEnumeratesEveryType(t *testing.T) {
	rec := sampleRecording()
	rec.Info.Channels = append(rec.Info.Channels,
		meg.Channel{Name: "STI 014", Type: "stim"},
		meg.Channel{Name: "EOG 061", Type: "eog"},
		meg.Channel{Name: "X", Type: "misc"},
	)
	summary := ChannelTypesSummary(rec)

	total := 0
	for _, n := range summary {
		total += n
	}
	assert.Equal(t, len(rec.Info.Channels), total)
	assert.Equal(t, []string{"eeg", "eog", "meg", "misc", "stim"}, ChannelTypes(summary))
}

func TestChannelTypesDetail(t *testing.T) {
	detail := ChannelTypesDetail(sampleRecording())
	assert.Equal(t, ChannelGroup{Count: 2, Names: []string{"A", "B"}}, detail["eeg"])
	assert.Equal(t, ChannelGroup{Count: 1, Names: []string{"C"}}, detail["meg"])
}

func TestUpdateBads(t *testing.T) {
	rec := sampleRecording()
	rec.Info.Bads = []string{"B", "C"}

	_, err := UpdateBads(rec, []string{"X"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "X")
	assert.Equal(t, []string{"B", "C"}, rec.Bads(), "failed update leaves bads alone")

	out, err := UpdateBads(rec, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, out.Bads(), "replacement, not union")

	_, err = UpdateBads(nil, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestValidateData(t *testing.T) {
	rec := sampleRecording()
	assert.NoError(t, ValidateData(rec, meg.KindRaw))
	assert.NoError(t, ValidateData(rec, ""))
	assert.ErrorIs(t, ValidateData(rec, meg.KindEpochs), errs.ErrValidation)
	assert.ErrorIs(t, ValidateData(nil, meg.KindRaw), errs.ErrValidation)
}

func TestDetectByName(t *testing.T) {
	cases := map[string]meg.Kind{
		"sub-01_task-rest_meg.fif":  meg.KindRaw,
		"sub-01_raw_tsss.fif.gz":    meg.KindRaw,
		"sub-01-epo.fif":            meg.KindEpochs,
		"sub-01_task-rest_epo.fif":  meg.KindEpochs,
		"SUB-01-AVE.FIF":            meg.KindEvoked,
		"sub-01_ave.fif.gz":         meg.KindEvoked,
		"sub-01-ica.fif":            meg.KindICA,
		"recording.ds":              meg.KindRaw,
		"sub-01_task-rest_eeg.vhdr": meg.KindRaw,
		"sub-01_eeg.edf":            meg.KindRaw,
	}
	for name, want := range cases {
		got, err := DetectByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := DetectByName("notes.txt")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestValidateInputData(t *testing.T) {
	dir := t.TempDir()
	epo := filepath.Join(dir, "sub-01-epo.fif")
	require.NoError(t, os.WriteFile(epo, []byte("fif"), 0o644))

	assert.NoError(t, ValidateInputData(epo, meg.KindEpochs))
	assert.ErrorIs(t, ValidateInputData(epo, meg.KindRaw), errs.ErrValidation)
	assert.ErrorIs(t, ValidateInputData(filepath.Join(dir, "missing_raw.fif"), meg.KindRaw), errs.ErrNotFound)
	assert.ErrorIs(t, ValidateInputData("", meg.KindRaw), errs.ErrValidation)

	always := DetectorFunc(func(string) (meg.Kind, error) { return meg.KindICA, nil })
	assert.NoError(t, ValidateInputDataWith(always, epo, meg.KindICA))
}

func writeChannels(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.tsv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadChannelsTSV(t *testing.T) {
	path := writeChannels(t, "name\ttype\tunits\tstatus\n"+
		"A\tEEG\tV\tgood\n"+
		"B\tEEG\tV\tbad\n"+
		"C\tMEGMAG\tT\tBAD \n")
	bads, err := ReadChannelsTSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, bads)

	_, err = ReadChannelsTSV(writeChannels(t, "name\ttype\nA\tEEG\n"))
	assert.ErrorIs(t, err, errs.ErrParse)

	_, err = ReadChannelsTSV(writeChannels(t, ""))
	assert.ErrorIs(t, err, errs.ErrParse)

	_, err = ReadChannelsTSV(filepath.Join(t.TempDir(), "none.tsv"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateBadsFromChannelsFile(t *testing.T) {
	rec := sampleRecording()
	rec.Info.Bads = []string{"A"}
	path := writeChannels(t, "name\tstatus\nA\tgood\nB\tbad\nC\tgood\n")

	warning, err := UpdateBadsFromChannelsFile(rec, path)
	require.NoError(t, err)
	assert.Equal(t, BadsChangedWarning, warning)
	assert.Equal(t, []string{"B"}, rec.Bads())

	warning, err = UpdateBadsFromChannelsFile(rec, path)
	require.NoError(t, err)
	assert.Empty(t, warning, "no warning once bads agree")

	unknown := writeChannels(t, "name\tstatus\nZ\tbad\n")
	_, err = UpdateBadsFromChannelsFile(rec, unknown)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestApplyOptionalChannels(t *testing.T) {
	rec := sampleRecording()
	warning, err := ApplyOptionalChannels(rec, files.NewOptionalFiles(nil))
	require.NoError(t, err)
	assert.Empty(t, warning)

	path := writeChannels(t, "name\tstatus\nC\tbad\n")
	warning, err = ApplyOptionalChannels(rec, files.NewOptionalFiles(map[files.Role]string{files.RoleChannels: path}))
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.Equal(t, []string{"C"}, rec.Bads())
}

func TestTypedNilRecording(t *testing.T) {
	var rec *meg.Recording

	assert.NotPanics(t, func() {
		assert.Empty(t, ChannelTypesSummary(rec))
		assert.Empty(t, ChannelTypesDetail(rec))
	})
	_, err := UpdateBads(rec, []string{"A"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.ErrorIs(t, ValidateData(rec, meg.KindRaw), errs.ErrValidation)

	tsv := filepath.Join(t.TempDir(), "channels.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte("name\tstatus\nA\tbad\n"), 0o644))
	_, err = UpdateBadsFromChannelsFile(rec, tsv)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestIsNil(t *testing.T) {
	var rec *meg.Recording
	var data Data = rec
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(data))
	assert.True(t, IsNil([]string(nil)))
	assert.False(t, IsNil(sampleRecording()))
	assert.False(t, IsNil(0))
}
