package bytecode

import "encoding/json"

// ValueKind tags a Value's variant (spec §3 BytecodeValue).
type ValueKind int

// Value kinds.
const (
	Null ValueKind = iota
	NumberKind
	StringKind
	BoolKind
	ObjectKind
	ArrayKind
)

// Value is the interpreter's tagged runtime value. Strings are owned by the
// value; object and array values own their contents (spec §9 memory-model
// note). Duplication onto the operand stack clones rather than aliases —
// see Clone.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Obj  map[string]Value
	Arr  []Value
}

// NullValue is the shared representation of the Null variant.
var NullValue = Value{Kind: Null}

// NumValue constructs a NumberKind Value.
func NumValue(n float64) Value { return Value{Kind: NumberKind, Num: n} }

// StrValue constructs a StringKind Value.
func StrValue(s string) Value { return Value{Kind: StringKind, Str: s} }

// BoolValue constructs a BoolKind Value.
func BoolValue(b bool) Value { return Value{Kind: BoolKind, Bool: b} }

// ObjValue constructs an ObjectKind Value from an existing map (not cloned;
// callers that don't own m should Clone the result).
func ObjValue(m map[string]Value) Value { return Value{Kind: ObjectKind, Obj: m} }

// ArrValue constructs an ArrayKind Value from an existing slice (not
// cloned; callers that don't own s should Clone the result).
func ArrValue(s []Value) Value { return Value{Kind: ArrayKind, Arr: s} }

// Clone deep-copies Object and Array values; scalars are copied by value.
func (v Value) Clone() Value {
	switch v.Kind {
	case ObjectKind:
		m := make(map[string]Value, len(v.Obj))
		for k, e := range v.Obj {
			m[k] = e.Clone()
		}
		return Value{Kind: ObjectKind, Obj: m}
	case ArrayKind:
		s := make([]Value, len(v.Arr))
		for i, e := range v.Arr {
			s[i] = e.Clone()
		}
		return Value{Kind: ArrayKind, Arr: s}
	default:
		return v
	}
}

// Truthy implements the VM's truthiness rule (spec §4.D: "zero/empty-string/
// false are falsy"). Null is falsy; objects and arrays are always truthy,
// matching their existence-based semantics in the source language.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Null:
		return false
	case NumberKind:
		return v.Num != 0
	case StringKind:
		return v.Str != ""
	case BoolKind:
		return v.Bool
	default:
		return true
	}
}

// Equal implements EQ/NEQ: structural equality within a kind, false across
// kinds (Null only equals Null).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case NumberKind:
		return v.Num == other.Num
	case StringKind:
		return v.Str == other.Str
	case BoolKind:
		return v.Bool == other.Bool
	case ArrayKind:
		if len(v.Arr) != len(other.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(other.Arr[i]) {
				return false
			}
		}
		return true
	case ObjectKind:
		if len(v.Obj) != len(other.Obj) {
			return false
		}
		for k, e := range v.Obj {
			oe, ok := other.Obj[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ToJSON renders v as a JSON document. Generic tree marshaling has no
// better-fitting library in the pack than encoding/json (gjson, used
// elsewhere in this module, is read-only); see DESIGN.md.
func (v Value) ToJSON() (string, error) {
	b, err := json.Marshal(v.toAny())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v Value) toAny() any {
	switch v.Kind {
	case Null:
		return nil
	case NumberKind:
		return v.Num
	case StringKind:
		return v.Str
	case BoolKind:
		return v.Bool
	case ArrayKind:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.toAny()
		}
		return out
	case ObjectKind:
		out := make(map[string]any, len(v.Obj))
		for k, e := range v.Obj {
			out[k] = e.toAny()
		}
		return out
	default:
		return nil
	}
}

// FromJSON parses a JSON document into a Value tree.
func FromJSON(raw string) (Value, error) {
	var any any
	if err := json.Unmarshal([]byte(raw), &any); err != nil {
		return Value{}, err
	}
	return fromAny(any), nil
}

func fromAny(a any) Value {
	switch t := a.(type) {
	case nil:
		return NullValue
	case float64:
		return NumValue(t)
	case string:
		return StrValue(t)
	case bool:
		return BoolValue(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromAny(e)
		}
		return ArrValue(out)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = fromAny(e)
		}
		return ObjValue(out)
	default:
		return NullValue
	}
}
