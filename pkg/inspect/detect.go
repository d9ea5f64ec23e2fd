package inspect

import (
	"os"
	"path/filepath"
	"strings"

	"blmne/pkg/errs"
	"blmne/pkg/meg"
)

// Detector decides which kind of data a file holds.
type Detector interface {
	Detect(path string) (meg.Kind, error)
}

type DetectorFunc func(path string) (meg.Kind, error)

func (f DetectorFunc) Detect(path string) (meg.Kind, error) { return f(path) }

// DefaultDetector follows the MNE/BIDS file naming conventions.
var DefaultDetector Detector = DetectorFunc(DetectByName)

var fifSuffixes = []struct {
	suffix string
	kind   meg.Kind
}{
	{"epo", meg.KindEpochs},
	{"ave", meg.KindEvoked},
	{"ica", meg.KindICA},
}

// rawExtensions are vendor formats that only ever hold continuous data.
var rawExtensions = map[string]struct{}{
	".ds":    {},
	".con":   {},
	".sqd":   {},
	".edf":   {},
	".bdf":   {},
	".gdf":   {},
	".vhdr":  {},
	".set":   {},
	".cnt":   {},
	".mff":   {},
	".snirf": {},
	".nxe":   {},
}

// DetectByName infers the kind from the file name: FIF files ending in
// -epo/_epo, -ave/_ave or -ica/_ica are epochs, evoked and ICA solutions; any
// other FIF file and the vendor raw formats are raw recordings.
func DetectByName(path string) (meg.Kind, error) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	if stem, ok := strings.CutSuffix(name, ".fif"); ok {
		for _, s := range fifSuffixes {
			if strings.HasSuffix(stem, "-"+s.suffix) || strings.HasSuffix(stem, "_"+s.suffix) {
				return s.kind, nil
			}
		}
		return meg.KindRaw, nil
	}
	if _, ok := rawExtensions[filepath.Ext(name)]; ok {
		return meg.KindRaw, nil
	}
	return "", errs.Validation("unrecognized data format: %s", filepath.Base(path))
}

// ValidateInputData checks that path exists and holds data of the expected kind.
func ValidateInputData(path string, expected meg.Kind) error {
	return ValidateInputDataWith(DefaultDetector, path, expected)
}

func ValidateInputDataWith(det Detector, path string, expected meg.Kind) error {
	if strings.TrimSpace(path) == "" {
		return errs.Validation("input data path cannot be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return errs.FromOS(err, "input data %s", path)
	}
	if det == nil {
		det = DefaultDetector
	}
	got, err := det.Detect(path)
	if err != nil {
		return err
	}
	if got != expected {
		return errs.Validation("input data %s holds %s data, expected %s", path, got, expected)
	}
	return nil
}
