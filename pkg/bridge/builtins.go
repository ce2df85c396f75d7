package bridge

import (
	"context"
	"encoding/json"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// handleRegisterNativeDriver implements system.registerNativeDriver: params
// is {"id":..., "name":..., "deviceType":..., "configSchema":...}.
func (b *Bridge) handleRegisterNativeDriver(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	id, ok := params.GetString("id")
	if !ok || id == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "id" field`), nil
	}
	name, _ := params.GetString("name")
	deviceType, _ := params.GetString("deviceType")
	configSchema := ""
	if obj, ok := params.GetObject("configSchema"); ok {
		configSchema = obj.Raw()
	}

	if err := b.Register(id, name, deviceType, configSchema); err != nil {
		return errors.ToToolResult(err), nil
	}
	return mcpstatus.Ok(`{"registered":true}`), nil
}

// handleUnregisterNativeDriver implements system.unregisterNativeDriver:
// params is {"id":...}.
func (b *Bridge) handleUnregisterNativeDriver(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	id, ok := params.GetString("id")
	if !ok || id == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "id" field`), nil
	}
	if err := b.Unregister(id); err != nil {
		return errors.ToToolResult(err), nil
	}
	return mcpstatus.Ok(`{"unregistered":true}`), nil
}

type driverListEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	DeviceType string `json:"deviceType,omitempty"`
	State      string `json:"state"`
}

// handleListNativeDrivers implements system.listNativeDrivers: params
// {"kind":"..."} optionally narrows the listing to drivers whose
// DeviceType matches (SPEC_FULL.md supplement: driver listing by device
// type, matching drivers.Manager.GetByType).
func (b *Bridge) handleListNativeDrivers(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	kind := ""
	if params, err := jsonval.Parse(paramsJSON); err == nil {
		kind, _ = params.GetString("kind")
	}

	entries := make([]driverListEntry, 0, len(b.entries))
	for _, e := range b.entries {
		if kind != "" && e.DeviceType != kind {
			continue
		}
		entries = append(entries, driverListEntry{
			ID:         e.DriverID,
			Name:       e.Name,
			DeviceType: e.DeviceType,
			State:      e.State.String(),
		})
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return mcpstatus.ErrorResult(mcpstatus.ExecutionError, "failed to marshal driver list"), nil
	}
	return mcpstatus.Ok(string(body)), nil
}

// handleExecuteNativeDriverFunction implements
// system.executeNativeDriverFunction: params is
// {"id":..., "function":..., "args":...}. On success the wire response is
// the literal {"status":"success"}, discarding whatever the native
// function itself returned.
func (b *Bridge) handleExecuteNativeDriverFunction(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	id, ok := params.GetString("id")
	if !ok || id == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "id" field`), nil
	}
	function, ok := params.GetString("function")
	if !ok || function == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "function" field`), nil
	}
	argsJSON := "{}"
	if obj, ok := params.GetObject("args"); ok {
		argsJSON = obj.Raw()
	}

	var execErr error
	if VerbKind(function) == "custom" {
		_, execErr = b.ExecuteFunction(id, function, argsJSON)
	} else {
		_, execErr = b.dispatchVerb(id, function, argsJSON)
	}
	if execErr != nil {
		return errors.ToToolResult(execErr), nil
	}
	return mcpstatus.Ok(`{"status":"success"}`), nil
}
