// Package jsonval is the JSON adapter (spec §4.A): the only place in the
// runtime that knows JSON syntax. Every higher layer — the tool registry,
// the composite executor, the bytecode compiler, the driver bridge — reads
// request and persisted envelopes exclusively through Value's field-access
// methods and treats the results as opaque data.
package jsonval

import (
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/stacklok/edgemcp/pkg/errors"
)

// Value is a read-only view over a JSON document or sub-document. The zero
// Value is not valid; construct one with Parse.
type Value struct {
	raw    string
	result gjson.Result
}

// Parse validates raw as JSON and returns a Value rooted at its top level.
// An envelope that fails to parse is always a caller-visible InvalidParams
// error (spec §7), never a panic.
func Parse(raw string) (Value, error) {
	if !gjson.Valid(raw) {
		return Value{}, errors.NewInvalidParamsError("malformed JSON envelope", nil)
	}
	return Value{raw: raw, result: gjson.Parse(raw)}, nil
}

// Raw returns the original JSON text this Value was parsed from.
func (v Value) Raw() string { return v.raw }

// Exists reports whether the Value represents a present JSON value (as
// opposed to a missing field looked up via GetObject/GetArray).
func (v Value) Exists() bool { return v.result.Exists() }

// GetString returns the named string field if present, or (\"\", false).
func (v Value) GetString(field string) (string, bool) {
	r := v.result.Get(field)
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

// GetInt returns the named integer field, or def if absent or non-numeric.
func (v Value) GetInt(field string, def int) int {
	r := v.result.Get(field)
	if !r.Exists() || r.Type != gjson.Number {
		return def
	}
	return int(r.Int())
}

// GetBool returns the named boolean field, or def if absent or non-boolean.
func (v Value) GetBool(field string, def bool) bool {
	r := v.result.Get(field)
	if !r.Exists() || (r.Type != gjson.True && r.Type != gjson.False) {
		return def
	}
	return r.Bool()
}

// GetFloat returns the named numeric field, or def if absent or non-numeric.
func (v Value) GetFloat(field string, def float64) float64 {
	r := v.result.Get(field)
	if !r.Exists() || r.Type != gjson.Number {
		return def
	}
	return r.Float()
}

// GetObject returns the named sub-object as a Value, or (zero, false) if the
// field is missing or not a JSON object.
func (v Value) GetObject(field string) (Value, bool) {
	r := v.result.Get(field)
	if !r.Exists() || !r.IsObject() {
		return Value{}, false
	}
	return Value{raw: r.Raw, result: r}, true
}

// GetArray returns the named array field as a Value, or (zero, false) if the
// field is missing or not a JSON array.
func (v Value) GetArray(field string) (Value, bool) {
	r := v.result.Get(field)
	if !r.Exists() || !r.IsArray() {
		return Value{}, false
	}
	return Value{raw: r.Raw, result: r}, true
}

// ArrayLength returns the number of elements in an array Value (0 if v is
// not an array).
func (v Value) ArrayLength() int {
	if !v.result.IsArray() {
		return 0
	}
	return len(v.result.Array())
}

// ArrayGetObject returns the i-th element of an array Value as a Value.
// Returns (zero, false) if out of range or the element is not an object.
func (v Value) ArrayGetObject(i int) (Value, bool) {
	arr := v.result.Array()
	if i < 0 || i >= len(arr) {
		return Value{}, false
	}
	r := arr[i]
	if !r.IsObject() {
		return Value{}, false
	}
	return Value{raw: r.Raw, result: r}, true
}

// ArrayElementString returns the i-th element of an array Value as a string.
// Returns (\"\", false) if out of range or the element is not a JSON string.
func (v Value) ArrayElementString(i int) (string, bool) {
	arr := v.result.Array()
	if i < 0 || i >= len(arr) {
		return "", false
	}
	r := arr[i]
	if r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

// GetRaw returns the named field's raw JSON text, whatever its type, or
// ("", false) if the field is absent. Used by callers (the composite
// executor) that need to re-interpret a field's JSON type themselves
// rather than coercing it to one of the typed Get* accessors.
func (v Value) GetRaw(field string) (string, bool) {
	r := v.result.Get(field)
	if !r.Exists() {
		return "", false
	}
	return r.Raw, true
}

// Keys returns the top-level field names of an object Value, in document
// order. Used by the composite executor to seed an execution context from a
// params object without knowing its shape ahead of time.
func (v Value) Keys() []string {
	if !v.result.IsObject() {
		return nil
	}
	var keys []string
	v.result.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// ValidateSchema validates data against a JSON-Schema document. Per spec
// §9, schema validation is an external oracle: tests beyond those that
// specifically exercise validation must not depend on it rejecting
// anything, so a schema that itself fails to compile is treated as
// "always passes" rather than propagating a compile error.
func ValidateSchema(data Value, schema string) bool {
	if schema == "" {
		return true
	}
	schemaLoader := gojsonschema.NewStringLoader(schema)
	docLoader := gojsonschema.NewStringLoader(data.raw)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return true
	}
	return result.Valid()
}
