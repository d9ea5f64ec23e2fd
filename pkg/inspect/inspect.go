// Package inspect validates app inputs and summarizes the channel layout of a
// data object before it is handed to processing code.
package inspect

import (
	"reflect"
	"sort"
	"strings"

	"blmne/pkg/errs"
	"blmne/pkg/meg"
)

// Data is the channel view the inspector needs from a data object.
type Data interface {
	ChannelNames() []string
	ChannelTypes() []string
	Bads() []string
	SetBads(bads []string)
}

// Kinded is implemented by data objects that know their category.
type Kinded interface {
	DataKind() meg.Kind
}

// ChannelGroup is the detailed summary of one channel type.
type ChannelGroup struct {
	Count int      `json:"count" yaml:"count"`
	Names []string `json:"names" yaml:"names"`
}

// ChannelTypesSummary counts channels per type. Every channel is counted once
// under the type it reports.
func ChannelTypesSummary(data Data) map[string]int {
	out := make(map[string]int)
	if IsNil(data) {
		return out
	}
	for _, typ := range data.ChannelTypes() {
		out[typ]++
	}
	return out
}

// ChannelTypesDetail groups channel names by type, preserving channel order
// inside each group.
func ChannelTypesDetail(data Data) map[string]ChannelGroup {
	out := make(map[string]ChannelGroup)
	if IsNil(data) {
		return out
	}
	names := data.ChannelNames()
	for i, typ := range data.ChannelTypes() {
		g := out[typ]
		g.Count++
		if i < len(names) {
			g.Names = append(g.Names, names[i])
		}
		out[typ] = g
	}
	return out
}

// ChannelTypes returns the sorted list of types present in data.
func ChannelTypes(summary map[string]int) []string {
	out := make([]string, 0, len(summary))
	for typ := range summary {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// UpdateBads replaces the bad-channel list of data with bads after checking
// that every name is a known channel.
func UpdateBads(data Data, bads []string) (Data, error) {
	if IsNil(data) {
		return nil, errs.Validation("data object is nil")
	}
	if unknown := unknownChannels(data.ChannelNames(), bads); len(unknown) > 0 {
		return nil, errs.Validation("unknown channel(s) in bads: %s", strings.Join(unknown, ", "))
	}
	data.SetBads(bads)
	return data, nil
}

// ValidateData checks an in-memory data object against the expected kind.
func ValidateData(data Kinded, expected meg.Kind) error {
	if IsNil(data) {
		return errs.Validation("input data is nil")
	}
	if expected != "" && data.DataKind() != expected {
		return errs.Validation("expected %s data, got %s", expected, data.DataKind())
	}
	return nil
}

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice or func.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func unknownChannels(known, names []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, n := range known {
		set[n] = struct{}{}
	}
	var unknown []string
	for _, n := range names {
		if _, ok := set[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
