package meg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blmne/pkg/errs"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"raw":                    KindRaw,
		" Epochs ":               KindEpochs,
		"evoked":                 KindEvoked,
		"ica":                    KindICA,
		"independent-components": KindICA,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("source")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRecordingAccessors(t *testing.T) {
	rec := &Recording{
		Kind:     KindRaw,
		NSamples: 2500,
		Info: Info{
			Channels: []Channel{{Name: "A", Type: "eeg"}, {Name: "B", Type: "meg"}},
			Bads:     []string{"B"},
			SFreq:    1000,
		},
	}

	assert.Equal(t, []string{"A", "B"}, rec.ChannelNames())
	assert.Equal(t, []string{"eeg", "meg"}, rec.ChannelTypes())
	assert.Equal(t, 2.5, rec.Duration())

	bads := rec.Bads()
	bads[0] = "mutated"
	assert.Equal(t, []string{"B"}, rec.Info.Bads)

	rec.SetBads(nil)
	assert.NotNil(t, rec.Info.Bads)
	assert.Empty(t, rec.Info.Bads)

	rec.Info.SFreq = 0
	assert.Zero(t, rec.Duration())
}

func TestReadRecordingJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.json")
	body := `{"n_times": 100, "info": {"sfreq": 50, "chs": [{"ch_name": "EEG 001", "kind": "eeg"}],
	  "dig": [{"kind": "cardinal", "ident": 1, "r": [0.1, 0, 0]}]}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rec, err := ReadRecordingJSON(path)
	require.NoError(t, err)
	assert.Equal(t, KindRaw, rec.Kind)
	assert.Equal(t, 2.0, rec.Duration())
	require.Len(t, rec.Digitization(), 1)
	assert.Equal(t, DigCardinal, rec.Digitization()[0].Kind)

	_, err = ReadRecordingJSON(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"kind": "spectrum"}`), 0o644))
	_, err = ReadRecordingJSON(bad)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
