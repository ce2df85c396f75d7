package toolregistry

import (
	"context"

	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/composite"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// Kind tags which implementation variant a Definition holds (spec §3, §9:
// "tagged variant with per-variant data; dispatch via exhaustive matching").
type Kind int

// Tool kinds.
const (
	KindNative Kind = iota
	KindComposite
	KindScript
	KindBytecode
)

// String renders the kind the way it appears on the wire (list(), and the
// persisted JSON mirror written by SaveDynamic).
func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindComposite:
		return "composite"
	case KindScript:
		return "script"
	case KindBytecode:
		return "bytecode"
	default:
		return "unknown"
	}
}

// NativeHandler is a compiled-in tool implementation. It receives the
// request's params object as raw JSON and returns a ToolResult; ctx carries
// cancellation/deadline for handlers that perform I/O.
type NativeHandler func(ctx context.Context, paramsJSON string) (mcpstatus.ToolResult, error)

// ScriptDefinition is a Script-kind tool's implementation. Script tools
// parse and register but always execute as NotImplemented (spec §4.E).
type ScriptDefinition struct {
	Language string
	Source   string
}

// Definition is one registered tool (spec §3 Tool). Exactly one of Native,
// Composite, Script, Bytecode is populated, selected by Kind.
type Definition struct {
	Name        string
	Description string
	Schema      string // raw JSON-Schema text; empty means unvalidated
	Kind        Kind
	IsDynamic   bool
	Persistent  bool

	Native    NativeHandler
	Composite *composite.Definition
	Script    *ScriptDefinition
	Bytecode  *bytecode.Program
}
