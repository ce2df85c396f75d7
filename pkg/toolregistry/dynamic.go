package toolregistry

import (
	"context"
	"fmt"

	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/composite"
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// defaultImplementationType is used when the register_dynamic envelope
// omits implementationType (spec §4.E).
const defaultImplementationType = "composite"

// handleDefineTool is system.defineTool's Native handler: it receives the
// envelope's params object directly and delegates to RegisterDynamic.
func (r *Registry) handleDefineTool(ctx context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	return r.RegisterDynamic(ctx, paramsJSON)
}

// RegisterDynamic parses a system.defineTool params object
// ({name, description?, schema?, implementationType?, implementation,
// persistent?}), compiles its implementation, and registers the resulting
// tool. On success with persistent=true, the definition is also written to
// the KV store under tool.<name> (spec §4.E register_dynamic).
func (r *Registry) RegisterDynamic(ctx context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	p, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}

	name, ok := p.GetString("name")
	if !ok || name == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "name"`), nil
	}
	implType, ok := p.GetString("implementationType")
	if !ok || implType == "" {
		implType = defaultImplementationType
	}
	description, _ := p.GetString("description")
	schema := ""
	if s, ok := p.GetObject("schema"); ok {
		schema = s.Raw()
	}
	persistent := p.GetBool("persistent", false)

	impl, ok := p.GetObject("implementation")
	if !ok {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "implementation"`), nil
	}

	def := &Definition{
		Name:        name,
		Description: description,
		Schema:      schema,
		IsDynamic:   true,
		Persistent:  persistent,
	}

	if err := populateImplementation(def, implType, impl); err != nil {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, err.Error()), nil
	}

	if err := r.registerDefinition(def); err != nil {
		return errors.ToToolResult(err), nil
	}

	if persistent {
		if err := r.SaveDynamic(ctx, name); err != nil {
			return errors.ToToolResult(err), nil
		}
	}
	return mcpstatus.Ok(`{"registered":true}`), nil
}

func populateImplementation(def *Definition, implType string, impl jsonval.Value) error {
	switch implType {
	case "composite":
		steps, err := parseCompositeSteps(impl)
		if err != nil {
			return err
		}
		def.Kind = KindComposite
		def.Composite = &composite.Definition{Steps: steps}
	case "script":
		lang, _ := impl.GetString("language")
		source, _ := impl.GetString("source")
		def.Kind = KindScript
		def.Script = &ScriptDefinition{Language: lang, Source: source}
	case "bytecode":
		program, ok := impl.GetObject("program")
		if !ok {
			return fmt.Errorf("bytecode implementation missing \"program\"")
		}
		compiled, err := bytecode.CompileJSON(program.Raw())
		if err != nil {
			return fmt.Errorf("compiling bytecode program: %w", err)
		}
		def.Kind = KindBytecode
		def.Bytecode = compiled
	case "native":
		return fmt.Errorf("native tools cannot be defined dynamically")
	default:
		return fmt.Errorf("unsupported implementationType: %s", implType)
	}
	return nil
}

func parseCompositeSteps(impl jsonval.Value) ([]composite.Step, error) {
	stepsArr, ok := impl.GetArray("steps")
	if !ok {
		return nil, fmt.Errorf("composite implementation missing \"steps\" array")
	}
	n := stepsArr.ArrayLength()
	steps := make([]composite.Step, 0, n)
	for i := 0; i < n; i++ {
		obj, ok := stepsArr.ArrayGetObject(i)
		if !ok {
			return nil, fmt.Errorf("steps[%d] is not an object", i)
		}
		toolName, ok := obj.GetString("tool_name")
		if !ok || toolName == "" {
			return nil, fmt.Errorf("steps[%d] missing \"tool_name\"", i)
		}
		template, _ := obj.GetString("params_template")
		resultStore, _ := obj.GetString("result_store")
		steps = append(steps, composite.Step{
			ToolName:       toolName,
			ParamsTemplate: template,
			ResultStore:    resultStore,
		})
	}
	return steps, nil
}
