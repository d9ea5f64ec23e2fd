// Package report maintains product.json, the document a web dashboard reads to
// show an app's messages, figures and summaries, and the notes an app adds to
// its own HTML report.
//
// A product document is created once per run and then only appended to. Each
// Add call is a read-modify-write of the whole file with no locking: one
// process must own a given document.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"blmne/pkg/errs"
	"blmne/pkg/files"
	"blmne/pkg/logger"
	"blmne/pkg/plot"
)

// ItemsKey holds the ordered entry list at the document root.
const ItemsKey = "brainlife"

// Entry types.
const (
	TypeText   = "text"
	TypePlot   = "plot"
	TypePlotly = "plotly"
	TypeData   = "data"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityDanger  Severity = "danger"
)

func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError, SeverityDanger:
		return sev, nil
	}
	return "", errs.Validation("severity %q must be one of info, success, warning, error, danger", s)
}

// Entry is one decoded item of the document.
type Entry struct {
	Type    string          `json:"type"`
	MsgType Severity        `json:"msg_type,omitempty"`
	Msg     string          `json:"msg,omitempty"`
	Name    string          `json:"name,omitempty"`
	Desc    string          `json:"desc,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// Product is a handle on a product document path.
type Product struct {
	path string
}

func NewProduct(path string) *Product {
	return &Product{path: path}
}

func (p *Product) Path() string { return p.path }

// Create writes an empty document, replacing any previous one. Extra root
// fields (metrics, labels) may be passed in unstructured.
func (p *Product) Create(unstructured map[string]any) error {
	if strings.TrimSpace(p.path) == "" {
		return errs.Validation("product path cannot be empty")
	}
	if _, ok := unstructured[ItemsKey]; ok {
		return errs.Validation("unstructured data cannot use the reserved %q key", ItemsKey)
	}
	doc := map[string]json.RawMessage{}
	for k, v := range unstructured {
		raw, err := json.Marshal(v)
		if err != nil {
			return errs.Validation("unstructured field %q is not JSON-encodable: %v", k, err)
		}
		doc[k] = raw
	}
	if dir := filepath.Dir(p.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.FromOS(err, "creating product directory %s", dir)
		}
	}
	if err := p.write(doc, nil); err != nil {
		return err
	}
	logger.Debugf("created product document %s", p.path)
	return nil
}

// AddInfo appends a text message.
func (p *Product) AddInfo(message string, severity Severity) error {
	if _, err := ParseSeverity(string(severity)); err != nil {
		return err
	}
	return p.append(map[string]any{
		"type":     TypeText,
		"msg_type": severity,
		"msg":      message,
	})
}

// AddImage embeds the PNG at path.
func (p *Product) AddImage(path, title, description string) error {
	encoded, err := plot.FileToBase64(path)
	if err != nil {
		return err
	}
	return p.AddBase64Image(encoded, title, description)
}

// AddBase64Image embeds an already encoded PNG.
func (p *Product) AddBase64Image(encoded, title, description string) error {
	entry := map[string]any{
		"type":  TypePlot,
		"name":  title,
		"value": encoded,
	}
	if description != "" {
		entry["desc"] = description
	}
	return p.append(entry)
}

// AddFigure renders fig at dpi, closes it and embeds the result.
func (p *Product) AddFigure(fig *plot.Figure, title string, dpi float64) error {
	encoded, err := plot.SaveToBase64(fig, true, dpi)
	if err != nil {
		return err
	}
	return p.AddBase64Image(encoded, title, "")
}

// AddPlotly appends an interactive plot. The payload must carry a data array
// and a layout object; it is stored verbatim.
func (p *Product) AddPlotly(plotly map[string]any, title string) error {
	if err := checkPlotly(plotly); err != nil {
		return err
	}
	return p.append(map[string]any{
		"type":  TypePlotly,
		"name":  title,
		"value": plotly,
	})
}

// AddData appends a structured key/value block.
func (p *Product) AddData(name string, value map[string]any) error {
	if value == nil {
		return errs.Validation("data block %q has no value", name)
	}
	return p.append(map[string]any{
		"type":  TypeData,
		"name":  name,
		"value": value,
	})
}

// Entries returns the current entries in order.
func (p *Product) Entries() ([]Entry, error) {
	_, items, err := p.read()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(items))
	for i, raw := range items {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errs.Parse("product %s entry %d: %v", p.path, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Field returns a root-level field of the document.
func (p *Product) Field(key string) (json.RawMessage, bool, error) {
	doc, _, err := p.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func checkPlotly(plotly map[string]any) error {
	raw, err := json.Marshal(plotly)
	if err != nil {
		return errs.Validation("plotly payload is not JSON-encodable: %v", err)
	}
	payload := gjson.ParseBytes(raw)
	if data := payload.Get("data"); !data.Exists() {
		return errs.Validation("plotly payload is missing the data key")
	} else if !data.IsArray() {
		return errs.Validation("plotly data must be an array")
	}
	if layout := payload.Get("layout"); !layout.Exists() {
		return errs.Validation("plotly payload is missing the layout key")
	} else if !layout.IsObject() {
		return errs.Validation("plotly layout must be an object")
	}
	return nil
}

// append validates entry before touching the file so a rejected entry leaves
// the document unchanged.
func (p *Product) append(entry map[string]any) error {
	raw, err := normalizeEntry(entry)
	if err != nil {
		return err
	}
	doc, items, err := p.read()
	if err != nil {
		return err
	}
	if err := p.write(doc, append(items, raw)); err != nil {
		return err
	}
	logger.Debugf("product %s: appended %v entry #%d", p.path, entry["type"], len(items)+1)
	return nil
}

func (p *Product) read() (map[string]json.RawMessage, []json.RawMessage, error) {
	if strings.TrimSpace(p.path) == "" {
		return nil, nil, errs.Validation("product path cannot be empty")
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errs.NotFound("product document %s does not exist; create it first", p.path)
		}
		return nil, nil, errs.FromOS(err, "reading product document %s", p.path)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, errs.Parse("product document %s: %v", p.path, err)
	}
	if doc == nil {
		return nil, nil, errs.Parse("product document %s: root must be an object", p.path)
	}
	var items []json.RawMessage
	if rawItems, ok := doc[ItemsKey]; ok && !bytes.Equal(bytes.TrimSpace(rawItems), []byte("null")) {
		if err := json.Unmarshal(rawItems, &items); err != nil {
			return nil, nil, errs.Parse("product document %s: %s must be a list: %v", p.path, ItemsKey, err)
		}
	}
	return doc, items, nil
}

func (p *Product) write(doc map[string]json.RawMessage, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	encodedItems, err := json.Marshal(items)
	if err != nil {
		return errs.IO("encoding product entries: %v", err)
	}
	doc[ItemsKey] = encodedItems
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.IO("encoding product document: %v", err)
	}
	if err := files.WriteFileAtomic(p.path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing product document: %w", err)
	}
	return nil
}
