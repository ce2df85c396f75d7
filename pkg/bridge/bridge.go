// Package bridge implements the driver bridge (spec §4.H): the adapter
// that exposes arbitrary native driver functions as tools. Rather than the
// source's void* cast steered by verb_name and device_type (spec §9 design
// note), each device-type family gets its own adaptation function; the
// bridge holds a flat verb -> NativeFunc mapping per driver and consults
// the family table only where JSON shape needs translating (write/read/
// getStatus). The "current driver id" thread-local the source used is
// replaced by passing driverID explicitly through every call.
package bridge

import (
	"context"
	"fmt"

	"github.com/stacklok/edgemcp/pkg/drivers"
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

// NativeFunc is the Go equivalent of a native function pointer mapped to a
// verb: it receives the call's raw JSON arguments and returns a raw JSON
// result.
type NativeFunc func(argsJSON string) (string, error)

// standard bridge verbs (spec §4.H).
const (
	VerbInit      = "init"
	VerbDeinit    = "deinit"
	VerbRead      = "read"
	VerbWrite     = "write"
	VerbControl   = "control"
	VerbGetStatus = "getStatus"
)

var standardVerbs = []string{VerbInit, VerbDeinit, VerbRead, VerbWrite, VerbControl, VerbGetStatus}

// VerbKind classifies name as one of the six standard verbs, or "custom"
// (spec §4.H map_function: "verb's type is inferred from its name").
func VerbKind(name string) string {
	for _, v := range standardVerbs {
		if v == name {
			return v
		}
	}
	return "custom"
}

// Entry is a registered bridge driver (spec §3 BridgeDriverEntry).
type Entry struct {
	DriverID     string
	Name         string
	DeviceType   string
	ConfigSchema string
	State        drivers.State
	Mappings     map[string]NativeFunc
}

// Bridge maintains driver_id -> Entry and installs the built-in tool
// surface (system.registerNativeDriver and friends) onto a tool registry.
type Bridge struct {
	entries map[string]*Entry
	toolReg *toolregistry.Registry
}

// New constructs a Bridge that installs its tool surface onto toolReg.
func New(toolReg *toolregistry.Registry) *Bridge {
	return &Bridge{entries: make(map[string]*Entry), toolReg: toolReg}
}

// RegisterBuiltins installs the bridge's built-in tool names (spec §6).
func (b *Bridge) RegisterBuiltins() error {
	builtins := []struct {
		name    string
		handler toolregistry.NativeHandler
	}{
		{"system.registerNativeDriver", b.handleRegisterNativeDriver},
		{"system.unregisterNativeDriver", b.handleUnregisterNativeDriver},
		{"system.listNativeDrivers", b.handleListNativeDrivers},
		{"system.executeNativeDriverFunction", b.handleExecuteNativeDriverFunction},
	}
	for _, bi := range builtins {
		if err := b.toolReg.Register(bi.name, bi.handler, ""); err != nil {
			return err
		}
	}
	return nil
}

// Register creates a BridgeDriverEntry for id and installs forwarder tools
// driver.<id>.<verb> for each of the six standard verbs (spec §4.H
// register). Fails AlreadyExists for a duplicate id.
func (b *Bridge) Register(id, name, deviceType, configSchema string) error {
	if _, exists := b.entries[id]; exists {
		return errors.NewAlreadyExistsError("driver already registered: "+id, nil)
	}
	entry := &Entry{
		DriverID:     id,
		Name:         name,
		DeviceType:   deviceType,
		ConfigSchema: configSchema,
		State:        drivers.StateRegistered,
		Mappings:     make(map[string]NativeFunc),
	}
	b.entries[id] = entry

	for _, verb := range standardVerbs {
		toolName := fmt.Sprintf("driver.%s.%s", id, verb)
		v := verb
		if err := b.toolReg.Register(toolName, func(_ context.Context, argsJSON string) (mcpstatus.ToolResult, error) {
			result, err := b.dispatchVerb(id, v, argsJSON)
			if err != nil {
				return errors.ToToolResult(err), nil
			}
			return mcpstatus.Ok(result), nil
		}, ""); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a bridge driver and its forwarder tools.
func (b *Bridge) Unregister(id string) error {
	if _, ok := b.entries[id]; !ok {
		return errors.NewNotFoundError("driver not found: "+id, nil)
	}
	delete(b.entries, id)
	for _, verb := range standardVerbs {
		_ = b.toolReg.Unregister(fmt.Sprintf("driver.%s.%s", id, verb))
	}
	return nil
}

// Find returns the entry registered under id.
func (b *Bridge) Find(id string) (*Entry, bool) {
	e, ok := b.entries[id]
	return e, ok
}

// List returns every registered entry, in no particular order.
func (b *Bridge) List() []*Entry {
	out := make([]*Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	return out
}

// MapFunction adds or replaces the native function mapped to verbName on
// driverID (spec §4.H map_function).
func (b *Bridge) MapFunction(driverID, verbName string, fn NativeFunc) error {
	e, ok := b.entries[driverID]
	if !ok {
		return errors.NewNotFoundError("driver not found: "+driverID, nil)
	}
	e.Mappings[verbName] = fn
	return nil
}

// ExecuteFunction looks up funcName on driverID and invokes it directly
// with argsJSON, with no device-type adaptation. This is the path used by
// system.executeNativeDriverFunction and by custom (non-standard) verbs.
func (b *Bridge) ExecuteFunction(driverID, funcName, argsJSON string) (string, error) {
	e, ok := b.entries[driverID]
	if !ok {
		return "", errors.NewNotFoundError("driver not found: "+driverID, nil)
	}
	fn, ok := e.Mappings[funcName]
	if !ok {
		return "", errors.NewNotFoundError("driver "+driverID+" has no mapping for "+funcName, nil)
	}
	return fn(argsJSON)
}

// dispatchVerb routes one of the six standard verbs through device-type
// adaptation (spec §4.H: "certain device-type families parse the JSON
// payload to extract typed arguments... fall through to a generic write
// if no specialized mapping exists").
func (b *Bridge) dispatchVerb(driverID, verb, argsJSON string) (string, error) {
	e, ok := b.entries[driverID]
	if !ok {
		return "", errors.NewNotFoundError("driver not found: "+driverID, nil)
	}

	switch verb {
	case VerbInit:
		result, err := b.callOrDefault(e, VerbInit, argsJSON, `{}`)
		if err == nil {
			e.State = drivers.StateInitialized
		}
		return result, err
	case VerbDeinit:
		result, err := b.callOrDefault(e, VerbDeinit, argsJSON, `{}`)
		if err == nil {
			e.State = drivers.StateDeinitialized
		}
		return result, err
	case VerbRead:
		return adaptRead(e, argsJSON)
	case VerbWrite:
		result, err := adaptWrite(e, argsJSON)
		if err == nil {
			e.State = drivers.StateRunning
		}
		return result, err
	case VerbControl:
		result, err := b.callOrDefault(e, VerbControl, argsJSON, `{}`)
		if err == nil {
			e.State = drivers.StateRunning
		}
		return result, err
	case VerbGetStatus:
		return adaptGetStatus(e)
	default:
		return "", errors.NewNotImplementedError("unknown bridge verb: "+verb, nil)
	}
}

func (b *Bridge) callOrDefault(e *Entry, verb, argsJSON, fallback string) (string, error) {
	if fn, ok := e.Mappings[verb]; ok {
		return fn(argsJSON)
	}
	return fallback, nil
}

// adaptWrite implements the LED family's typed setters (state, brightness,
// color), falling back to a generic write(data,size) mapping when no
// specialized setter is mapped (spec §4.H).
func adaptWrite(e *Entry, argsJSON string) (string, error) {
	args, err := jsonval.Parse(argsJSON)
	if err != nil {
		return "", errors.NewInvalidParamsError("malformed write arguments", err)
	}

	if isLEDFamily(e.DeviceType) {
		if obj, ok := args.GetObject("color"); ok {
			if fn, ok := e.Mappings["setColor"]; ok {
				return fn(obj.Raw())
			}
		}
		if _, present := args.GetRaw("brightness"); present {
			if fn, ok := e.Mappings["setBrightness"]; ok {
				return fn(argsJSON)
			}
		}
		if _, present := args.GetRaw("state"); present {
			if fn, ok := e.Mappings["setState"]; ok {
				return fn(argsJSON)
			}
		}
	}

	if fn, ok := e.Mappings[VerbWrite]; ok {
		return fn(argsJSON)
	}
	return "", errors.NewExecutionError("driver "+e.DriverID+" has no write mapping", nil)
}

// adaptRead formats a temperature family's raw float read as
// {"value":..., "units":"celsius"}; other families return the mapped
// read function's result verbatim.
func adaptRead(e *Entry, argsJSON string) (string, error) {
	fn, ok := e.Mappings[VerbRead]
	if !ok {
		return "", errors.NewExecutionError("driver "+e.DriverID+" has no read mapping", nil)
	}
	result, err := fn(argsJSON)
	if err != nil {
		return "", err
	}
	if isTemperatureFamily(e.DeviceType) {
		return fmt.Sprintf(`{"value":%s,"units":"celsius"}`, result), nil
	}
	return result, nil
}

// adaptGetStatus returns a mapped getStatus function's result verbatim when
// one is mapped; otherwise it reports the entry's id, device type, and
// lifecycle state. No other per-device-type fields are added.
func adaptGetStatus(e *Entry) (string, error) {
	if fn, ok := e.Mappings[VerbGetStatus]; ok {
		return fn(`{}`)
	}
	return fmt.Sprintf(`{"id":%q,"deviceType":%q,"state":%q}`, e.DriverID, e.DeviceType, e.State.String()), nil
}

func isLEDFamily(deviceType string) bool {
	return deviceType == "LED_RGB" || deviceType == "LED"
}

func isTemperatureFamily(deviceType string) bool {
	return deviceType == "DS18B20" || deviceType == "TEMPERATURE"
}
