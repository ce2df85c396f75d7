// Package toolregistry implements the tool registry (spec §4.E): a
// fixed-capacity slot vector mapping tool names to definitions, dispatching
// invocations by kind, and persisting dynamically defined tools to a KV
// store.
package toolregistry

import (
	"context"

	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/composite"
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/execctx"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/kvstore"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// DefineToolName is the built-in tool used to register dynamic tools.
const DefineToolName = "system.defineTool"

type slot struct {
	active bool
	def    *Definition
}

// Registry is the fixed-capacity tool table. It is not safe for concurrent
// use: spec §5 assumes a single in-flight request at a time, with
// serialization, if any, enforced by the embedding transport layer.
type Registry struct {
	slots       []slot
	byName      map[string]int
	kv          kvstore.KVStore
	ctxCapacity int
	bcOpts      bytecode.RunOptions
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithContextCapacity overrides the per-invocation execution context's
// variable capacity (spec §3 default 32).
func WithContextCapacity(n int) Option {
	return func(r *Registry) { r.ctxCapacity = n }
}

// WithBytecodeOptions overrides the step/stack budget applied to every
// Bytecode-kind tool invocation.
func WithBytecodeOptions(opts bytecode.RunOptions) Option {
	return func(r *Registry) { r.bcOpts = opts }
}

// New constructs a Registry with room for maxTools slots. kv may be nil, in
// which case dynamic tools cannot be persisted or reloaded (Save/Load return
// ErrInternal).
func New(maxTools int, kv kvstore.KVStore, opts ...Option) *Registry {
	r := &Registry{
		slots:  make([]slot, maxTools),
		byName: make(map[string]int, maxTools),
		kv:     kv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init registers the built-in system.defineTool tool and loads every
// persisted dynamic tool (spec §4.E init(max_tools)). The registry's slots
// must already be sized via New before calling Init.
func (r *Registry) Init(ctx context.Context) error {
	builtins := []struct {
		name    string
		handler NativeHandler
	}{
		{DefineToolName, r.handleDefineTool},
		{ListToolsName, r.handleListTools},
		{UnregisterToolName, r.handleUnregisterTool},
		{DisassembleBytecodeName, r.handleDisassembleBytecode},
	}
	for _, bi := range builtins {
		if err := r.Register(bi.name, bi.handler, ""); err != nil {
			return err
		}
	}
	return r.LoadAllDynamic(ctx)
}

// Register installs a compiled-in Native tool. Fails AlreadyExists if name
// collides with a registered tool, Full if no slot remains.
func (r *Registry) Register(name string, handler NativeHandler, schema string) error {
	return r.registerDefinition(&Definition{
		Name:   name,
		Kind:   KindNative,
		Schema: schema,
		Native: handler,
	})
}

// Unregister removes a tool by name (SPEC_FULL.md supplement:
// system.unregisterTool). Fails NotFound if name is not registered.
func (r *Registry) Unregister(name string) error {
	idx, ok := r.byName[name]
	if !ok {
		return errors.NewNotFoundError("tool not found: "+name, nil)
	}
	r.slots[idx] = slot{}
	delete(r.byName, name)
	return nil
}

func (r *Registry) registerDefinition(def *Definition) error {
	if _, exists := r.byName[def.Name]; exists {
		return errors.NewAlreadyExistsError("tool already registered: "+def.Name, nil)
	}
	idx := r.freeSlot()
	if idx < 0 {
		return errors.NewFullError("tool registry is full", nil)
	}
	r.slots[idx] = slot{active: true, def: def}
	r.byName[def.Name] = idx
	return nil
}

func (r *Registry) freeSlot() int {
	for i, s := range r.slots {
		if !s.active {
			return i
		}
	}
	return -1
}

// Find returns the slot index of name, if registered.
func (r *Registry) Find(name string) (int, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// GetDefinition returns the Definition registered under name.
func (r *Registry) GetDefinition(name string) (*Definition, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.slots[idx].def, true
}

// Execute parses envelopeJSON as {"tool":..., "params":...}, validates
// params against the tool's schema (if any), and dispatches by kind (spec
// §4.E execute). A malformed envelope, unknown tool, or schema violation is
// reported as a ToolResult rather than a Go error: only a failure the
// caller cannot meaningfully render as a wire response returns err != nil.
func (r *Registry) Execute(ctx context.Context, envelopeJSON string) (mcpstatus.ToolResult, error) {
	env, err := jsonval.Parse(envelopeJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	name, ok := env.GetString("tool")
	if !ok || name == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "tool" field`), nil
	}
	paramsJSON := "{}"
	if p, ok := env.GetObject("params"); ok {
		paramsJSON = p.Raw()
	}

	ec := execctx.New(r.ctxCapacity)
	defer ec.Free()
	return r.dispatch(ctx, name, paramsJSON, ec)
}

// ExecuteStep implements composite.ToolExecutor, letting the composite
// executor recursively invoke the registry without an import cycle.
func (r *Registry) ExecuteStep(ctx context.Context, toolName, paramsJSON string, ec *execctx.Context) (mcpstatus.ToolResult, error) {
	return r.dispatch(ctx, toolName, paramsJSON, ec)
}

func (r *Registry) dispatch(ctx context.Context, name, paramsJSON string, ec *execctx.Context) (mcpstatus.ToolResult, error) {
	def, ok := r.GetDefinition(name)
	if !ok {
		return mcpstatus.ErrorResult(mcpstatus.NotFound, "unknown tool: "+name), nil
	}

	if def.Schema != "" {
		paramsVal, err := jsonval.Parse(paramsJSON)
		if err != nil {
			return errors.ToToolResult(err), nil
		}
		if !jsonval.ValidateSchema(paramsVal, def.Schema) {
			return mcpstatus.ErrorResult(mcpstatus.InvalidParams, "params failed schema validation"), nil
		}
	}

	if err := ec.EnterActive(name); err != nil {
		return errors.ToToolResult(err), nil
	}
	defer ec.ExitActive(name)

	switch def.Kind {
	case KindNative:
		return def.Native(ctx, paramsJSON)
	case KindComposite:
		return composite.Run(ctx, def.Composite, paramsJSON, ec, r)
	case KindScript:
		return mcpstatus.ErrorResult(mcpstatus.NotImplemented, "script tools are not implemented"), nil
	case KindBytecode:
		return r.runBytecode(ctx, def.Bytecode, paramsJSON, ec)
	default:
		return mcpstatus.ErrorResult(mcpstatus.NotImplemented, "unknown tool kind"), nil
	}
}

// bytecodeInvoker adapts Registry to bytecode.ToolInvoker, closing over the
// calling ctx and execution context so a CALL instruction's sub-invocation
// shares the same cycle-detection active set as its caller.
type bytecodeInvoker struct {
	r   *Registry
	ctx context.Context
	ec  *execctx.Context
}

func (b *bytecodeInvoker) InvokeTool(name, paramsJSON string) (mcpstatus.ToolResult, error) {
	return b.r.dispatch(b.ctx, name, paramsJSON, b.ec)
}

func (r *Registry) runBytecode(ctx context.Context, prog *bytecode.Program, paramsJSON string, ec *execctx.Context) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}

	locals := make([]bytecode.Value, len(prog.VariableNames))
	for i, name := range prog.VariableNames {
		raw, ok := params.GetRaw(name)
		if !ok {
			locals[i] = bytecode.NullValue
			continue
		}
		v, err := bytecode.FromJSON(raw)
		if err != nil {
			locals[i] = bytecode.NullValue
			continue
		}
		locals[i] = v
	}

	result, err := bytecode.Run(prog, locals, &bytecodeInvoker{r: r, ctx: ctx, ec: ec}, r.bcOpts)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	resultJSON, err := result.ToJSON()
	if err != nil {
		return mcpstatus.ErrorResult(mcpstatus.ExecutionError, "bytecode result is not serializable"), nil
	}
	return mcpstatus.Ok(resultJSON), nil
}

// List renders every active tool as a JSON array of
// {name, description?, hasSchema, isDynamic, type} (spec §4.E list()).
func (r *Registry) List() string {
	return marshalList(r.slots)
}
