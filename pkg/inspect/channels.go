package inspect

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"blmne/pkg/errs"
	"blmne/pkg/files"
	"blmne/pkg/logger"
)

// BadsChangedWarning is returned when a channels file disagrees with the bad
// channels already recorded in the data.
const BadsChangedWarning = "Bad channels from the info of your data file are different from those in the channels.tsv file. " +
	"By default, only bad channels from channels.tsv are considered as bad: the info of your data file is updated with those channels."

// ReadChannelsTSV returns the names of the rows marked status=bad in a BIDS
// channels.tsv file, in file order.
func ReadChannelsTSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.FromOS(err, "opening channels file %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.Parse("channels file %s is empty", path)
		}
		return nil, errs.Parse("channels file %s: %v", path, err)
	}
	nameCol, statusCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameCol = i
		case "status":
			statusCol = i
		}
	}
	if nameCol < 0 || statusCol < 0 {
		return nil, errs.Parse("channels file %s needs name and status columns", path)
	}

	bads := []string{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Parse("channels file %s: %v", path, err)
		}
		if len(rec) <= nameCol || len(rec) <= statusCol {
			return nil, errs.Parse("channels file %s line %d: missing columns", path, line)
		}
		if strings.EqualFold(strings.TrimSpace(rec[statusCol]), "bad") {
			bads = append(bads, strings.TrimSpace(rec[nameCol]))
		}
	}
	return bads, nil
}

// UpdateBadsFromChannelsFile applies the bad channels of a channels.tsv file to
// data. When they differ from the current bads the data is updated and
// BadsChangedWarning is returned; otherwise the warning is empty.
func UpdateBadsFromChannelsFile(data Data, path string) (string, error) {
	if IsNil(data) {
		return "", errs.Validation("data object is nil")
	}
	bads, err := ReadChannelsTSV(path)
	if err != nil {
		return "", err
	}
	if sameSet(data.Bads(), bads) {
		return "", nil
	}
	if _, err := UpdateBads(data, bads); err != nil {
		return "", err
	}
	logger.Infof("bad channels updated from %s: %s", path, strings.Join(bads, ", "))
	return BadsChangedWarning, nil
}

// ApplyOptionalChannels updates data from the channels file of desc, if one
// was supplied.
func ApplyOptionalChannels(data Data, desc files.OptionalFiles) (string, error) {
	path, ok := desc.Path(files.RoleChannels)
	if !ok {
		return "", nil
	}
	return UpdateBadsFromChannelsFile(data, path)
}
