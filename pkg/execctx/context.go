package execctx

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// DefaultCapacity is the default maximum number of variables an
// ExecutionContext may hold (spec §3: "default 32").
const DefaultCapacity = 32

// activeSet tracks which tool names (of any kind) are currently executing
// along a single call chain, shared across a context and its children so
// that tool recursion (spec §4.F: "composite A calls composite A, directly
// or transitively") can be detected regardless of nesting depth.
type activeSet struct {
	names map[string]bool
}

// Context is a per-invocation variable scope (spec §4.C). It is created at
// the start of a composite, script, or bytecode tool invocation and freed
// on return; it is never shared across invocations.
type Context struct {
	vars     map[string]Value
	capacity int
	active   *activeSet
}

// New creates a root Context with the given capacity. A capacity <= 0
// falls back to DefaultCapacity.
func New(capacity int) *Context {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Context{
		vars:     make(map[string]Value, capacity),
		capacity: capacity,
		active:   &activeSet{names: make(map[string]bool)},
	}
}

// Child creates a new Context that shares this Context's active-tool set
// (for recursion detection across a composite call chain) but starts with
// an empty, independently-capacitated variable store, matching spec §4.C's
// "create(name, parent?, capacity)" — the "parent" relationship here is the
// recursion guard, not variable inheritance: spec §3 is explicit that
// contexts are "not shared".
func (c *Context) Child(capacity int) *Context {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Context{
		vars:     make(map[string]Value, capacity),
		capacity: capacity,
		active:   c.active,
	}
}

// Capacity returns the context's configured variable capacity, so callers
// creating a Child can propagate it instead of falling back to
// DefaultCapacity.
func (c *Context) Capacity() int { return c.capacity }

// Free releases the context. Present for symmetry with spec §4.C's
// create/free pairing; Go's GC reclaims the map, so this currently only
// matters as a place to hang future instrumentation.
func (c *Context) Free() {}

// Get returns the named variable, or (zero, false) if unset.
func (c *Context) Get(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Put stores a variable under name. Fails with ErrExecution if the context
// is already at capacity and name is not already present (spec §4.C:
// "Capacity exhaustion fails put with ExecutionError").
func (c *Context) Put(name string, v Value) error {
	if _, exists := c.vars[name]; !exists && len(c.vars) >= c.capacity {
		return errors.NewExecutionError("execution context capacity exhausted", nil)
	}
	c.vars[name] = v
	return nil
}

// PutResult stores a mcpstatus.ToolResult under name via Put.
func (c *Context) PutResult(name string, result mcpstatus.ToolResult) error {
	return c.Put(name, FromToolResult(result))
}

// EnterActive marks toolName as actively executing on this context's call
// chain. Returns an ErrExecution "tool recursion" error if toolName is
// already active (spec §4.F cycle detection). The caller must call ExitActive
// when the sub-invocation returns, success or failure.
func (c *Context) EnterActive(toolName string) error {
	if c.active.names[toolName] {
		return errors.NewExecutionError("tool recursion", nil)
	}
	c.active.names[toolName] = true
	return nil
}

// ExitActive clears toolName from the active set.
func (c *Context) ExitActive(toolName string) {
	delete(c.active.names, toolName)
}

var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)((?:\.[A-Za-z_][A-Za-z0-9_]*)*)\}`)

// Substitute replaces every "${var}" and "${var.path}" token in template
// with the textual JSON representation of the referenced value: strings
// are JSON-quoted, numbers/bools unquoted, objects/arrays inlined as JSON
// (spec §4.C). An unresolved variable fails the whole substitution with
// ErrExecution.
func (c *Context) Substitute(template string) (string, error) {
	var firstErr error
	result := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		if firstErr != nil {
			return token
		}
		m := tokenPattern.FindStringSubmatch(token)
		name, path := m[1], strings.TrimPrefix(m[2], ".")

		v, ok := c.vars[name]
		if !ok {
			firstErr = errors.NewExecutionError("unresolved variable: "+name, nil)
			return token
		}
		if path == "" {
			return v.jsonText()
		}
		src, ok := v.pathSource()
		if !ok {
			firstErr = errors.NewExecutionError("unresolved variable: "+name+"."+path, nil)
			return token
		}
		r := gjson.Get(src, path)
		if !r.Exists() {
			firstErr = errors.NewExecutionError("unresolved variable: "+name+"."+path, nil)
			return token
		}
		return r.Raw
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
