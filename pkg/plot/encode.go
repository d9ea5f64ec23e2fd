package plot

import (
	"bytes"
	"encoding/base64"
	"os"

	"blmne/pkg/errs"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// EncodeBase64 is the encoding used for every image embedded in a report.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// IsPNG reports whether b starts with the PNG signature.
func IsPNG(b []byte) bool {
	return bytes.HasPrefix(b, pngSignature)
}

// FileToBase64 reads a PNG file and returns its base64 text.
func FileToBase64(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errs.FromOS(err, "reading image %s", path)
	}
	if !IsPNG(b) {
		return "", errs.Validation("image %s is not a PNG file", path)
	}
	return EncodeBase64(b), nil
}
