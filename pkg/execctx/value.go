// Package execctx implements the per-invocation execution context (spec
// §4.C): a named variable store used both for template substitution inside
// composite tool steps and for threading a bytecode program's locals.
package execctx

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// Kind tags the variant held by a Value.
type Kind int

// Value kinds (spec §3: "Name → Value (String, Number, Bool, Json-blob,
// ToolResult)").
const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindJSON
	KindToolResult
)

// Value is a tagged variable value stored in an ExecutionContext.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Bool   bool
	JSON   string             // raw JSON text for KindJSON
	Result mcpstatus.ToolResult // for KindToolResult
}

// String constructs a KindString Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a KindNumber Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool constructs a KindBool Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// JSONBlob constructs a KindJSON Value from raw JSON text.
func JSONBlob(raw string) Value { return Value{Kind: KindJSON, JSON: raw} }

// FromToolResult constructs a KindToolResult Value.
func FromToolResult(r mcpstatus.ToolResult) Value {
	return Value{Kind: KindToolResult, Result: r}
}

// FromJSONText classifies raw JSON text by its top-level type and wraps it
// in the matching Value kind: strings and numbers and bools become their
// scalar kind, objects and arrays become KindJSON, and a missing/invalid
// document becomes KindJSON("null"). Used to seed a composite invocation's
// context from the fields of its params object (spec §4.F), where each
// field's JSON type is not known ahead of time.
func FromJSONText(raw string) Value {
	r := gjson.Parse(raw)
	switch r.Type {
	case gjson.String:
		return String(r.String())
	case gjson.Number:
		return Number(r.Float())
	case gjson.True, gjson.False:
		return Bool(r.Bool())
	case gjson.JSON:
		return JSONBlob(raw)
	default:
		return JSONBlob("null")
	}
}

// jsonText returns the JSON representation of v's top-level value, used
// when a bare "${var}" token is substituted in a template.
func (v Value) jsonText() string {
	switch v.Kind {
	case KindString:
		return quoteString(v.Str)
	case KindNumber:
		return formatNumber(v.Num)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindJSON:
		return v.JSON
	case KindToolResult:
		return v.Result.ResultJSON
	default:
		return "null"
	}
}

// pathSource returns the JSON document that ${var.path} indexes into: for
// KindJSON it's the blob itself, for KindToolResult it's the result body,
// and scalar kinds have no sub-paths.
func (v Value) pathSource() (string, bool) {
	switch v.Kind {
	case KindJSON:
		return v.JSON, true
	case KindToolResult:
		return v.Result.ResultJSON, true
	default:
		return "", false
	}
}

func quoteString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
