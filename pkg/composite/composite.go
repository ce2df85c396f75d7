// Package composite implements the composite tool executor (spec §4.F): a
// tool whose implementation is a linear sequence of sub-tool calls threaded
// through a shared execution context.
package composite

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/execctx"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// Step is one call in a composite tool's sequence (spec §3 Step).
type Step struct {
	ToolName       string
	ParamsTemplate string
	ResultStore    string // empty if the result isn't bound to a variable
}

// Definition is a composite tool's implementation: its ordered steps.
type Definition struct {
	Steps []Step
}

// ToolExecutor recursively dispatches a sub-tool call back into the tool
// registry. The registry implements this rather than composite importing
// the registry package, avoiding an import cycle (the registry already
// imports composite to run Composite-kind tools).
type ToolExecutor interface {
	ExecuteStep(ctx context.Context, toolName, paramsJSON string, ec *execctx.Context) (mcpstatus.ToolResult, error)
}

// Run executes def against paramsJSON: a fresh child context (sharing
// parent's active-tool set for cycle detection) is seeded with each field
// of params as a variable, then each step's params_template is substituted
// and dispatched in order. The first non-success sub-result aborts the
// whole run and is returned verbatim (spec §4.F, §7: fail-fast, no
// synthesized error code). The last successful step's result is the
// composite's result.
func Run(ctx context.Context, def *Definition, paramsJSON string, parent *execctx.Context, exec ToolExecutor) (mcpstatus.ToolResult, error) {
	child := parent.Child(parent.Capacity())
	defer child.Free()

	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	for _, key := range params.Keys() {
		raw, ok := params.GetRaw(key)
		if !ok {
			continue
		}
		if err := child.Put(key, execctx.FromJSONText(raw)); err != nil {
			return errors.ToToolResult(err), nil
		}
	}

	var last mcpstatus.ToolResult
	for i, step := range def.Steps {
		callParams, err := child.Substitute(step.ParamsTemplate)
		if err != nil {
			return errors.ToToolResult(annotateStep(err, i)), nil
		}

		result, err := exec.ExecuteStep(ctx, step.ToolName, callParams, child)
		if err != nil {
			return mcpstatus.ToolResult{}, err
		}
		if result.Status != mcpstatus.Success {
			if result.Status == mcpstatus.Timeout {
				result.ResultJSON = withFailedStep(result.ResultJSON, i)
			}
			return result, nil
		}

		if step.ResultStore != "" {
			if err := child.PutResult(step.ResultStore, result); err != nil {
				return errors.ToToolResult(annotateStep(err, i)), nil
			}
		}
		last = result
	}
	return last, nil
}

// withFailedStep merges {"failedStep": i} into a propagated error body
// without disturbing its other fields or introducing a new status code
// (spec §4.F: errors propagate verbatim). Falls back to the original body
// if it isn't a JSON object.
func withFailedStep(resultJSON string, i int) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(resultJSON), &body); err != nil {
		return resultJSON
	}
	stepJSON, err := json.Marshal(i)
	if err != nil {
		return resultJSON
	}
	body["failedStep"] = stepJSON
	merged, err := json.Marshal(body)
	if err != nil {
		return resultJSON
	}
	return string(merged)
}

func annotateStep(err error, i int) error {
	e, ok := err.(*errors.Error)
	if !ok {
		return err
	}
	return errors.NewError(e.Type, "step "+strconv.Itoa(i)+": "+e.Message, e.Cause)
}
