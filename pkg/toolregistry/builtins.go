package toolregistry

import (
	"context"
	"encoding/json"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// ListToolsName lists registered tools, optionally narrowed by kind and/or
// to dynamically defined tools only (SPEC_FULL.md supplement: tool.list
// filtering), params {"kind":"native|composite|script|bytecode",
// "dynamicOnly":bool}, both optional.
const ListToolsName = "system.listTools"

// UnregisterToolName removes a registered tool by name (SPEC_FULL.md
// supplement), params {"name":"..."}.
const UnregisterToolName = "system.unregisterTool"

// DisassembleBytecodeName renders a Bytecode-kind tool's instruction
// listing for debugging (SPEC_FULL.md supplement), params {"name":"..."}.
const DisassembleBytecodeName = "system.disassembleBytecode"

func (r *Registry) handleListTools(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	kind := ""
	dynamicOnly := false
	if params, err := jsonval.Parse(paramsJSON); err == nil {
		kind, _ = params.GetString("kind")
		dynamicOnly = params.GetBool("dynamicOnly", false)
	}
	return mcpstatus.Ok(marshalFilteredList(r.slots, kind, dynamicOnly)), nil
}

func (r *Registry) handleUnregisterTool(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	name, ok := params.GetString("name")
	if !ok || name == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "name" field`), nil
	}
	if err := r.Unregister(name); err != nil {
		return errors.ToToolResult(err), nil
	}
	return mcpstatus.Ok(`{"unregistered":true}`), nil
}

func (r *Registry) handleDisassembleBytecode(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	name, ok := params.GetString("name")
	if !ok || name == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "name" field`), nil
	}
	def, ok := r.GetDefinition(name)
	if !ok {
		return mcpstatus.ErrorResult(mcpstatus.NotFound, "unknown tool: "+name), nil
	}
	if def.Kind != KindBytecode || def.Bytecode == nil {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, name+" is not a bytecode tool"), nil
	}
	listing := def.Bytecode.Disassemble()
	out, merr := json.Marshal(struct {
		Listing string `json:"listing"`
	}{Listing: listing})
	if merr != nil {
		return mcpstatus.ErrorResult(mcpstatus.ExecutionError, "failed to encode disassembly"), nil
	}
	return mcpstatus.Ok(string(out)), nil
}
