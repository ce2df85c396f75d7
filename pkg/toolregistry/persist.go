package toolregistry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/composite"
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/logger"
)

// toolKeyPrefix namespaces dynamic tool bodies within the shared KV store
// (spec §6: persistent storage key "tool.<tool_name>").
const toolKeyPrefix = "tool."

// persistedDefinition is the compact JSON mirror of a Definition written to
// the KV store (spec §4.E: "bytecode programs are base64-encoded binary").
type persistedDefinition struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Schema         string          `json:"schema,omitempty"`
	Kind           string          `json:"kind"`
	Persistent     bool            `json:"persistent"`
	CompositeSteps []persistedStep `json:"compositeSteps,omitempty"`
	ScriptLanguage string          `json:"scriptLanguage,omitempty"`
	ScriptSource   string          `json:"scriptSource,omitempty"`
	BytecodeB64    string          `json:"bytecode,omitempty"`
}

type persistedStep struct {
	ToolName       string `json:"tool_name"`
	ParamsTemplate string `json:"params_template"`
	ResultStore    string `json:"result_store,omitempty"`
}

// SaveDynamic serializes the named tool's current definition and writes it
// to the KV store under tool.<name>.
func (r *Registry) SaveDynamic(ctx context.Context, name string) error {
	if r.kv == nil {
		return errors.NewInternalError("no KV store configured", nil)
	}
	def, ok := r.GetDefinition(name)
	if !ok {
		return errors.NewNotFoundError("tool not found: "+name, nil)
	}

	pd := persistedDefinition{
		Name:        def.Name,
		Description: def.Description,
		Schema:      def.Schema,
		Kind:        def.Kind.String(),
		Persistent:  def.Persistent,
	}
	switch def.Kind {
	case KindComposite:
		pd.CompositeSteps = make([]persistedStep, len(def.Composite.Steps))
		for i, s := range def.Composite.Steps {
			pd.CompositeSteps[i] = persistedStep{s.ToolName, s.ParamsTemplate, s.ResultStore}
		}
	case KindScript:
		pd.ScriptLanguage = def.Script.Language
		pd.ScriptSource = def.Script.Source
	case KindBytecode:
		bin, err := def.Bytecode.Serialize()
		if err != nil {
			return errors.NewExecutionError("serializing bytecode program for "+name, err)
		}
		pd.BytecodeB64 = base64.StdEncoding.EncodeToString(bin)
	}

	body, err := json.Marshal(pd)
	if err != nil {
		return errors.NewInternalError("marshaling persisted tool "+name, err)
	}
	if err := r.kv.Write(ctx, toolKeyPrefix+name, body); err != nil {
		return errors.NewInternalError("writing persisted tool "+name, err)
	}
	return nil
}

// LoadDynamic reads and registers a single persisted tool by name.
func (r *Registry) LoadDynamic(ctx context.Context, name string) error {
	if r.kv == nil {
		return errors.NewInternalError("no KV store configured", nil)
	}
	raw, err := r.kv.Read(ctx, toolKeyPrefix+name)
	if err != nil {
		return errors.NewNotFoundError("no persisted tool "+name, err)
	}
	return r.loadFromBytes(name, raw)
}

// LoadAllDynamic loads every persisted tool in KV-enumeration order.
// Failure to load one tool is logged and does not abort the batch (spec
// §4.E ordering, §7 locally recovered errors).
func (r *Registry) LoadAllDynamic(ctx context.Context) error {
	if r.kv == nil {
		return nil
	}
	keys, err := r.kv.ListKeys(ctx)
	if err != nil {
		return errors.NewInternalError("listing persisted tools", err)
	}
	for _, key := range keys {
		name, ok := strings.CutPrefix(key, toolKeyPrefix)
		if !ok {
			continue
		}
		raw, err := r.kv.Read(ctx, key)
		if err != nil {
			logger.Get().Warn("failed to read persisted tool", "tool", name, "error", err)
			continue
		}
		if err := r.loadFromBytes(name, raw); err != nil {
			logger.Get().Warn("failed to load persisted tool", "tool", name, "error", err)
			continue
		}
	}
	return nil
}

func (r *Registry) loadFromBytes(name string, raw []byte) error {
	var pd persistedDefinition
	if err := json.Unmarshal(raw, &pd); err != nil {
		return errors.NewInternalError("parsing persisted tool "+name, err)
	}

	def := &Definition{
		Name:        pd.Name,
		Description: pd.Description,
		Schema:      pd.Schema,
		IsDynamic:   true,
		Persistent:  pd.Persistent,
	}
	switch pd.Kind {
	case KindComposite.String():
		steps := make([]composite.Step, len(pd.CompositeSteps))
		for i, s := range pd.CompositeSteps {
			steps[i] = composite.Step{ToolName: s.ToolName, ParamsTemplate: s.ParamsTemplate, ResultStore: s.ResultStore}
		}
		def.Kind = KindComposite
		def.Composite = &composite.Definition{Steps: steps}
	case KindScript.String():
		def.Kind = KindScript
		def.Script = &ScriptDefinition{Language: pd.ScriptLanguage, Source: pd.ScriptSource}
	case KindBytecode.String():
		bin, err := base64.StdEncoding.DecodeString(pd.BytecodeB64)
		if err != nil {
			return errors.NewInternalError("decoding bytecode for "+name, err)
		}
		prog, err := bytecode.Deserialize(bin)
		if err != nil {
			return errors.NewInternalError("deserializing bytecode for "+name, err)
		}
		def.Kind = KindBytecode
		def.Bytecode = prog
	default:
		return errors.NewInternalError("unknown persisted tool kind "+pd.Kind+" for "+name, nil)
	}

	if _, exists := r.byName[name]; exists {
		return errors.NewAlreadyExistsError("tool already registered: "+name, nil)
	}
	return r.registerDefinition(def)
}
