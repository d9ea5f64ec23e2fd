package config

import (
	"strings"

	"github.com/tidwall/gjson"

	"blmne/pkg/errs"
)

// InputTags describes one entry of the platform's _inputs metadata.
type InputTags struct {
	ID           string   `json:"id"`
	Datatype     string   `json:"datatype,omitempty"`
	Keys         []string `json:"keys,omitempty"`
	Tags         []string `json:"tags"`
	DatatypeTags []string `json:"datatype_tags"`
}

// InputNames returns the tag annotations of every declared input. It reads the
// raw file because _inputs is removed by Load.
func InputNames(path string) ([]InputTags, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, errs.Parse("config %s: invalid JSON", path)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, errs.Parse("config %s: root must be a JSON object", path)
	}
	inputs := root.Get("_inputs")
	if !inputs.Exists() || inputs.Type == gjson.Null {
		return nil, nil
	}
	if !inputs.IsArray() {
		return nil, errs.Validation("config %s: _inputs must be an array", path)
	}

	var out []InputTags
	var walkErr error
	inputs.ForEach(func(idx, value gjson.Result) bool {
		if !value.IsObject() {
			walkErr = errs.Validation("config %s: _inputs[%d] must be an object", path, idx.Int())
			return false
		}
		out = append(out, InputTags{
			ID:           strings.TrimSpace(value.Get("id").String()),
			Datatype:     strings.TrimSpace(value.Get("datatype").String()),
			Keys:         stringList(value.Get("keys")),
			Tags:         stringList(value.Get("tags")),
			DatatypeTags: stringList(value.Get("datatype_tags")),
		})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func stringList(r gjson.Result) []string {
	if !r.IsArray() {
		return []string{}
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item.String())
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
