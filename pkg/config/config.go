// Package config loads the config.json handed to an app and exposes it as a
// normalized parameter map plus a typed view of the well-known keys.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"

	"blmne/pkg/errs"
)

// ReservedPrefix marks keys injected by the platform rather than the app author.
const ReservedPrefix = "_"

// internalKeys are the platform metadata keys written into every config.json.
var internalKeys = map[string]struct{}{
	"_app":     {},
	"_tid":     {},
	"_inputs":  {},
	"_outputs": {},
	"_rule":    {},
}

// IsInternalKey reports whether key is platform metadata.
func IsInternalKey(key string) bool {
	if _, ok := internalKeys[key]; ok {
		return true
	}
	return strings.HasPrefix(key, ReservedPrefix)
}

// Config is the normalized app configuration.
//
// Params holds every non-internal key; a key whose value was "" maps to nil, the
// same value an omitted key yields from Get. Inputs is the typed view of the
// optional-file keys and Extra carries all remaining app parameters, which is
// what Kwargs hands downstream.
type Config struct {
	Inputs OptionalInputs
	Extra  map[string]any
	Params map[string]any
}

// OptionalInputs are the auxiliary file references an app may receive.
// A nil pointer means the key was omitted or empty.
type OptionalInputs struct {
	Crosstalk   *string `mapstructure:"crosstalk"`
	Calibration *string `mapstructure:"calibration"`
	Events      *string `mapstructure:"events"`
	Headshape   *string `mapstructure:"headshape"`
	Channels    *string `mapstructure:"channels"`
	Destination *string `mapstructure:"destination"`

	EventsOverride      *string `mapstructure:"events_override"`
	HeadshapeOverride   *string `mapstructure:"headshape_override"`
	ChannelsOverride    *string `mapstructure:"channels_override"`
	DestinationOverride *string `mapstructure:"destination_override"`
}

// Lookup returns the path stored under a config key, if any.
func (in OptionalInputs) Lookup(key string) (string, bool) {
	var p *string
	switch key {
	case "crosstalk":
		p = in.Crosstalk
	case "calibration":
		p = in.Calibration
	case "events":
		p = in.Events
	case "headshape":
		p = in.Headshape
	case "channels":
		p = in.Channels
	case "destination":
		p = in.Destination
	case "events_override":
		p = in.EventsOverride
	case "headshape_override":
		p = in.HeadshapeOverride
	case "channels_override":
		p = in.ChannelsOverride
	case "destination_override":
		p = in.DestinationOverride
	}
	if p == nil || strings.TrimSpace(*p) == "" {
		return "", false
	}
	return *p, true
}

// Load reads path, strips platform metadata and maps empty strings to nil.
func Load(path string) (*Config, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	params, err := decodeObject(path, raw)
	if err != nil {
		return nil, err
	}
	return FromParams(DefineKwargs(ConvertEmptyToNil(params)))
}

// inputKeys are the config keys OptionalInputs is decoded from.
var inputKeys = map[string]struct{}{
	"crosstalk":            {},
	"calibration":          {},
	"events":               {},
	"headshape":            {},
	"channels":             {},
	"destination":          {},
	"events_override":      {},
	"headshape_override":   {},
	"channels_override":    {},
	"destination_override": {},
}

// IsInputKey reports whether key names an optional-file input.
func IsInputKey(key string) bool {
	_, ok := inputKeys[key]
	return ok
}

// FromParams builds a Config from an already normalized parameter map.
//
// Only string values under the exact input keys fill Inputs. A role key
// holding any other JSON value is an ordinary app parameter and stays in Extra.
// A nil role value is an absent input and lands in neither.
func FromParams(params map[string]any) (*Config, error) {
	cfg := &Config{Params: params, Extra: map[string]any{}}
	inputs := make(map[string]any)
	for k, v := range params {
		if IsInputKey(k) {
			switch v.(type) {
			case string:
				inputs[k] = v
				continue
			case nil:
				continue
			}
		}
		cfg.Extra[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg.Inputs,
		ErrorUnused: true,
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == fieldName
		},
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(inputs); err != nil {
		return nil, errs.Validation("config: %v", err)
	}
	return cfg, nil
}

// Kwargs returns a copy of the app parameters without the optional-file
// inputs, ready to be forwarded to processing code.
func (c *Config) Kwargs() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(c.Extra))
	for k, v := range c.Extra {
		out[k] = v
	}
	return out
}

// ConvertEmptyToNil returns a copy of params where every "" value is nil.
func ConvertEmptyToNil(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok && s == "" {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

// DefineKwargs returns a copy of params without internal keys, ready to be
// forwarded as a parameter set. Remaining values are untouched.
func DefineKwargs(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if IsInternalKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Get returns the value under key; absent keys and empty values both yield nil.
func (c *Config) Get(key string) any {
	if c == nil {
		return nil
	}
	return c.Params[key]
}

// IsSet reports whether key carries a value.
func (c *Config) IsSet(key string) bool {
	return c.Get(key) != nil
}

func (c *Config) String(key string) (string, bool) {
	s, ok := c.Get(key).(string)
	return s, ok
}

func (c *Config) Float(key string) (float64, bool) {
	switch v := c.Get(key).(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func (c *Config) Bool(key string) (bool, bool) {
	b, ok := c.Get(key).(bool)
	return b, ok
}

func readRaw(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.Validation("config path cannot be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromOS(err, "reading config %s", path)
	}
	return raw, nil
}

func decodeObject(path string, raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errs.Parse("config %s: root must be a JSON object", path)
	}
	var params map[string]any
	if err := json.Unmarshal(trimmed, &params); err != nil {
		return nil, errs.Wrap(fmt.Errorf("config %s: %w", path, err), errs.CategoryParse)
	}
	return params, nil
}
