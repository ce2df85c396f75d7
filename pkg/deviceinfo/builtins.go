package deviceinfo

import (
	"context"
	"encoding/json"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

// ToolGetInfo is the built-in tool name this package installs (spec §6).
const ToolGetInfo = "device.getInfo"

// compactSnapshot is the trimmed view returned when params carries
// {"format":"compact"}: the system, processor, and memory sections, with
// the higher-volume arrays and the capability list omitted.
type compactSnapshot struct {
	System    SystemInfo    `json:"system"`
	Processor ProcessorInfo `json:"processor"`
	Memory    MemoryInfo    `json:"memory"`
}

// RegisterBuiltins installs device.getInfo onto reg.
func (p *Provider) RegisterBuiltins(reg *toolregistry.Registry) error {
	return reg.Register(ToolGetInfo, p.handleGetInfo, "")
}

func (p *Provider) handleGetInfo(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	format := ""
	if paramsJSON != "" {
		params, err := jsonval.Parse(paramsJSON)
		if err != nil {
			return errors.ToToolResult(err), nil
		}
		format, _ = params.GetString("format")
	}

	var body []byte
	var err error
	if format == "compact" {
		body, err = json.Marshal(compactSnapshot{
			System:    p.snapshot.System,
			Processor: p.snapshot.Processor,
			Memory:    p.snapshot.Memory,
		})
	} else {
		body, err = json.Marshal(p.snapshot)
	}
	if err != nil {
		return mcpstatus.ErrorResult(mcpstatus.ExecutionError, "failed to marshal device info"), nil
	}
	return mcpstatus.Ok(string(body)), nil
}
