package report

import (
	"github.com/shopspring/decimal"

	"blmne/pkg/errs"
	"blmne/pkg/inspect"
	"blmne/pkg/meg"
)

// RawSummaryName is the entry name AddRawInfo writes under.
const RawSummaryName = "Raw data summary"

// RawInfo is the read side of a recording that a summary is derived from.
type RawInfo interface {
	inspect.Data
	SampleRate() float64
	Duration() float64
	Highpass() float64
	Lowpass() float64
	Projectors() []meg.Projector
}

// RawSummary is the structured block AddRawInfo appends.
type RawSummary struct {
	NChannels         int            `json:"n_channels" yaml:"n_channels"`
	ChannelTypes      map[string]int `json:"channel_types" yaml:"channel_types"`
	BadChannels       []string       `json:"bad_channels" yaml:"bad_channels"`
	SFreq             float64        `json:"sfreq" yaml:"sfreq"`
	DurationS         float64        `json:"duration_s" yaml:"duration_s"`
	Highpass          float64        `json:"highpass" yaml:"highpass"`
	Lowpass           float64        `json:"lowpass" yaml:"lowpass"`
	NProjectors       int            `json:"n_projectors" yaml:"n_projectors"`
	NActiveProjectors int            `json:"n_active_projectors" yaml:"n_active_projectors"`
}

// SummarizeRaw derives a RawSummary without touching raw.
func SummarizeRaw(raw RawInfo) (RawSummary, error) {
	if inspect.IsNil(raw) {
		return RawSummary{}, errs.Validation("no data to summarize")
	}
	projs := raw.Projectors()
	active := 0
	for _, p := range projs {
		if p.Active {
			active++
		}
	}
	bads := raw.Bads()
	if bads == nil {
		bads = []string{}
	}
	return RawSummary{
		NChannels:         len(raw.ChannelNames()),
		ChannelTypes:      inspect.ChannelTypesSummary(raw),
		BadChannels:       bads,
		SFreq:             round(raw.SampleRate(), 2),
		DurationS:         round(raw.Duration(), 2),
		Highpass:          round(raw.Highpass(), 3),
		Lowpass:           round(raw.Lowpass(), 3),
		NProjectors:       len(projs),
		NActiveProjectors: active,
	}, nil
}

// AsMap is the summary as a data entry value.
func (s RawSummary) AsMap() map[string]any {
	return map[string]any{
		"n_channels":          s.NChannels,
		"channel_types":       s.ChannelTypes,
		"bad_channels":        s.BadChannels,
		"sfreq":               s.SFreq,
		"duration_s":          s.DurationS,
		"highpass":            s.Highpass,
		"lowpass":             s.Lowpass,
		"n_projectors":        s.NProjectors,
		"n_active_projectors": s.NActiveProjectors,
	}
}

// AddRawInfo appends a data entry summarizing raw.
func (p *Product) AddRawInfo(raw RawInfo) error {
	summary, err := SummarizeRaw(raw)
	if err != nil {
		return err
	}
	return p.AddData(RawSummaryName, summary.AsMap())
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
