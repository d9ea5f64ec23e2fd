package report

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"blmne/pkg/errs"
)

// entrySchema is the contract the dashboard reads product entries with.
const entrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "oneOf": [
    {
      "type": "object",
      "required": ["type", "msg_type", "msg"],
      "properties": {
        "type": {"const": "text"},
        "msg_type": {"enum": ["info", "success", "warning", "error", "danger"]},
        "msg": {"type": "string"}
      }
    },
    {
      "type": "object",
      "required": ["type", "name", "value"],
      "properties": {
        "type": {"const": "plot"},
        "name": {"type": "string"},
        "desc": {"type": "string"},
        "value": {"type": "string", "minLength": 1}
      }
    },
    {
      "type": "object",
      "required": ["type", "name", "value"],
      "properties": {
        "type": {"const": "plotly"},
        "name": {"type": "string"},
        "value": {
          "type": "object",
          "required": ["data", "layout"],
          "properties": {
            "data": {"type": "array", "items": {"type": "object"}},
            "layout": {"type": "object"}
          }
        }
      }
    },
    {
      "type": "object",
      "required": ["type", "name", "value"],
      "properties": {
        "type": {"const": "data"},
        "name": {"type": "string"},
        "value": {"type": "object"}
      }
    }
  ]
}`

var compiledEntrySchema = mustCompile("product-entry.json", entrySchema)

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// normalizeEntry round-trips entry through JSON so the schema sees plain JSON
// values, validates it and returns its encoded form.
func normalizeEntry(entry map[string]any) (json.RawMessage, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, errs.Validation("product entry is not JSON-encodable: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, errs.Validation("product entry is not JSON-encodable: %v", err)
	}
	if err := compiledEntrySchema.Validate(generic); err != nil {
		return nil, errs.Validation("invalid %v entry: %v", entry["type"], err)
	}
	return raw, nil
}
