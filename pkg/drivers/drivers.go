// Package drivers implements the driver manager (spec §4.G): a registry of
// native hardware driver instances, each progressing through a fixed
// lifecycle state machine independent of the tool registry.
package drivers

import (
	"context"

	"github.com/stacklok/edgemcp/pkg/errors"
)

// State is a driver instance's lifecycle state (spec §4.H: "Registered ->
// Initialized <-> Running -> Deinitialized").
type State int

// Driver lifecycle states.
const (
	StateRegistered State = iota
	StateInitialized
	StateRunning
	StateDeinitialized
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateDeinitialized:
		return "deinitialized"
	default:
		return "unknown"
	}
}

// Interface is the native driver implementation a DriverInfo wraps. Every
// method receives the raw JSON payload the caller supplied and returns the
// raw JSON result (or data) to surface back to the tool layer.
type Interface interface {
	Init(ctx context.Context, configJSON string) error
	Deinit(ctx context.Context) error
	Read(ctx context.Context, paramsJSON string) (string, error)
	Write(ctx context.Context, paramsJSON string) (string, error)
	Control(ctx context.Context, paramsJSON string) (string, error)
	GetStatus(ctx context.Context) (string, error)
}

// Info is a registered driver instance (spec §3 DriverInfo).
type Info struct {
	ID          string
	Name        string
	Kind        string // device-type family, e.g. "LED_RGB", "DS18B20"
	Iface       Interface
	State       State
	Initialized bool
}

// Manager maintains driver_id -> Info (spec §4.G). Not safe for concurrent
// use, matching the core's single-threaded scheduling model (spec §5).
type Manager struct {
	byID map[string]*Info
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{byID: make(map[string]*Info)}
}

// Register adds a new driver instance. Fails AlreadyExists for a duplicate
// id.
func (m *Manager) Register(info *Info) error {
	if _, exists := m.byID[info.ID]; exists {
		return errors.NewAlreadyExistsError("driver already registered: "+info.ID, nil)
	}
	info.State = StateRegistered
	info.Initialized = false
	m.byID[info.ID] = info
	return nil
}

// Unregister removes a driver instance by id.
func (m *Manager) Unregister(id string) error {
	if _, ok := m.byID[id]; !ok {
		return errors.NewNotFoundError("driver not found: "+id, nil)
	}
	delete(m.byID, id)
	return nil
}

// Find returns the driver registered under id.
func (m *Manager) Find(id string) (*Info, bool) {
	info, ok := m.byID[id]
	return info, ok
}

// GetByType returns every registered driver whose Kind matches deviceType.
func (m *Manager) GetByType(deviceType string) []*Info {
	var out []*Info
	for _, info := range m.byID {
		if info.Kind == deviceType {
			out = append(out, info)
		}
	}
	return out
}

// List returns every registered driver, in no particular order.
func (m *Manager) List() []*Info {
	out := make([]*Info, 0, len(m.byID))
	for _, info := range m.byID {
		out = append(out, info)
	}
	return out
}

// Initialize calls the driver's Init hook with configJSON and, on success,
// transitions it Registered -> Initialized.
func (m *Manager) Initialize(ctx context.Context, id, configJSON string) error {
	info, ok := m.byID[id]
	if !ok {
		return errors.NewNotFoundError("driver not found: "+id, nil)
	}
	if err := info.Iface.Init(ctx, configJSON); err != nil {
		return errors.NewExecutionError("initializing driver "+id, err)
	}
	info.State = StateInitialized
	info.Initialized = true
	return nil
}

// Deinitialize calls the driver's Deinit hook and transitions it to
// Deinitialized regardless of its prior state.
func (m *Manager) Deinitialize(id string) error {
	info, ok := m.byID[id]
	if !ok {
		return errors.NewNotFoundError("driver not found: "+id, nil)
	}
	if err := info.Iface.Deinit(context.Background()); err != nil {
		return errors.NewExecutionError("deinitializing driver "+id, err)
	}
	info.State = StateDeinitialized
	info.Initialized = false
	return nil
}

func (m *Manager) ready(id string) (*Info, error) {
	info, ok := m.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("driver not found: "+id, nil)
	}
	if info.State != StateInitialized && info.State != StateRunning {
		return nil, errors.NewExecutionError("driver "+id+" is not initialized", nil)
	}
	return info, nil
}

// Read dispatches to the driver's Read hook. Fails ExecutionError if the
// driver is not Initialized/Running.
func (m *Manager) Read(ctx context.Context, id, paramsJSON string) (string, error) {
	info, err := m.ready(id)
	if err != nil {
		return "", err
	}
	return info.Iface.Read(ctx, paramsJSON)
}

// Write dispatches to the driver's Write hook.
func (m *Manager) Write(ctx context.Context, id, paramsJSON string) (string, error) {
	info, err := m.ready(id)
	if err != nil {
		return "", err
	}
	info.State = StateRunning
	return info.Iface.Write(ctx, paramsJSON)
}

// Control dispatches to the driver's Control hook.
func (m *Manager) Control(ctx context.Context, id, paramsJSON string) (string, error) {
	info, err := m.ready(id)
	if err != nil {
		return "", err
	}
	info.State = StateRunning
	return info.Iface.Control(ctx, paramsJSON)
}

// GetStatus dispatches to the driver's GetStatus hook.
func (m *Manager) GetStatus(ctx context.Context, id string) (string, error) {
	info, err := m.ready(id)
	if err != nil {
		return "", err
	}
	return info.Iface.GetStatus(ctx)
}
