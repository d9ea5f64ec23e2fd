// Package meg models the slice of a sensor recording the helpers need: channel
// metadata, bad channels, filter state, projectors and digitization points.
//
// Reading the signal itself is the job of the acquisition tooling; a host app
// either builds a Recording directly or loads the measurement-info sidecar
// written next to the data with ReadRecordingJSON.
package meg

import (
	"encoding/json"
	"os"
	"strings"

	"blmne/pkg/errs"
)

// Kind is the category of a data file.
type Kind string

const (
	KindRaw    Kind = "raw"
	KindEpochs Kind = "epochs"
	KindEvoked Kind = "evoked"
	KindICA    Kind = "ica"
)

// Kinds lists every known category.
var Kinds = []Kind{KindRaw, KindEpochs, KindEvoked, KindICA}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindRaw, KindEpochs, KindEvoked, KindICA:
		return k, nil
	case "independent-components", "independent_components":
		return KindICA, nil
	}
	return "", errs.Validation("unknown data kind %q (want raw, epochs, evoked or ica)", s)
}

type Channel struct {
	Name string `json:"ch_name"`
	Type string `json:"kind"`
}

// DigKind labels a digitized point.
type DigKind string

const (
	DigCardinal DigKind = "cardinal"
	DigHPI      DigKind = "hpi"
	DigEEG      DigKind = "eeg"
	DigExtra    DigKind = "extra"
)

// DigPoint is a digitized head/sensor location in head coordinates (meters).
type DigPoint struct {
	Kind  DigKind    `json:"kind"`
	Ident int        `json:"ident"`
	R     [3]float64 `json:"r"`
}

type Projector struct {
	Desc   string `json:"desc"`
	Active bool   `json:"active"`
}

// Info is the measurement info of a recording.
type Info struct {
	Channels []Channel   `json:"chs"`
	Bads     []string    `json:"bads"`
	SFreq    float64     `json:"sfreq"`
	Highpass float64     `json:"highpass"`
	Lowpass  float64     `json:"lowpass"`
	Projs    []Projector `json:"projs"`
	Dig      []DigPoint  `json:"dig"`
}

// Recording is an in-memory data object of one Kind.
type Recording struct {
	Kind     Kind `json:"kind"`
	Info     Info `json:"info"`
	NSamples int  `json:"n_times"`
}

func (r *Recording) DataKind() Kind { return r.Kind }

func (r *Recording) ChannelNames() []string {
	out := make([]string, len(r.Info.Channels))
	for i, ch := range r.Info.Channels {
		out[i] = ch.Name
	}
	return out
}

func (r *Recording) ChannelTypes() []string {
	out := make([]string, len(r.Info.Channels))
	for i, ch := range r.Info.Channels {
		out[i] = ch.Type
	}
	return out
}

func (r *Recording) Bads() []string {
	return append([]string(nil), r.Info.Bads...)
}

// SetBads replaces the bad-channel list with a copy of bads.
func (r *Recording) SetBads(bads []string) {
	r.Info.Bads = append([]string{}, bads...)
}

func (r *Recording) SampleRate() float64 { return r.Info.SFreq }
func (r *Recording) Highpass() float64   { return r.Info.Highpass }
func (r *Recording) Lowpass() float64    { return r.Info.Lowpass }

func (r *Recording) Projectors() []Projector {
	return append([]Projector(nil), r.Info.Projs...)
}

func (r *Recording) Digitization() []DigPoint {
	return append([]DigPoint(nil), r.Info.Dig...)
}

// Duration is the recording length in seconds, 0 when the rate is unknown.
func (r *Recording) Duration() float64 {
	if r.Info.SFreq <= 0 {
		return 0
	}
	return float64(r.NSamples) / r.Info.SFreq
}

// ReadRecordingJSON loads a measurement-info sidecar.
func ReadRecordingJSON(path string) (*Recording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromOS(err, "reading recording info %s", path)
	}
	var rec Recording
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errs.Parse("recording info %s: %v", path, err)
	}
	if rec.Kind == "" {
		rec.Kind = KindRaw
	}
	kind, err := ParseKind(string(rec.Kind))
	if err != nil {
		return nil, err
	}
	rec.Kind = kind
	return &rec, nil
}
