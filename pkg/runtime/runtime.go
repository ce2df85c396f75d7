// Package runtime wires the tool registry, driver manager, driver bridge,
// auth gate, and device-info provider into a single value (spec §9: "a
// single Runtime value threaded explicitly through every call, replacing
// the source's file-scope static state"). Tests and the CLI each construct
// their own independent Runtime rather than sharing process-wide globals.
package runtime

import (
	"context"

	"github.com/stacklok/edgemcp/pkg/bridge"
	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/config"
	"github.com/stacklok/edgemcp/pkg/deviceinfo"
	"github.com/stacklok/edgemcp/pkg/drivers"
	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/kvstore"
	"github.com/stacklok/edgemcp/pkg/logger"
	"github.com/stacklok/edgemcp/pkg/mcpauth"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

// Runtime holds one fully wired instance of the core.
type Runtime struct {
	Config     *config.Config
	KV         *kvstore.Store
	Tools      *toolregistry.Registry
	Drivers    *drivers.Manager
	Bridge     *bridge.Bridge
	Auth       *mcpauth.Manager
	DeviceInfo *deviceinfo.Provider
}

// New constructs a Runtime from cfg but does not yet open the KV store or
// register any tool: call Start to bring it up.
func New(cfg *config.Config) *Runtime {
	return &Runtime{
		Config:     cfg,
		Drivers:    drivers.New(),
		DeviceInfo: deviceinfo.New(),
	}
}

// Start opens the KV store, constructs the registry/bridge/auth gate with
// it, registers every built-in tool, and loads persisted dynamic tools and
// auth configuration. initialAuthOpen is forwarded to the auth gate's Init
// (spec §4.I init(initial_open)).
func (r *Runtime) Start(ctx context.Context, initialAuthOpen bool) error {
	kv, err := kvstore.Open(ctx, r.Config.KVStorePath)
	if err != nil {
		return errors.NewInternalError("opening KV store", err)
	}
	r.KV = kv

	r.Tools = toolregistry.New(
		r.Config.MaxToolCount,
		kv,
		toolregistry.WithContextCapacity(r.Config.ExecutionContextCapacity),
		toolregistry.WithBytecodeOptions(bytecode.RunOptions{
			MaxSteps:      r.Config.BytecodeStepBudget,
			MaxStackDepth: r.Config.BytecodeStackDepth,
		}),
	)
	r.Bridge = bridge.New(r.Tools)
	r.Auth = mcpauth.New(kv, r.Config.AuthStrictMode)

	if err := r.Auth.Init(ctx, initialAuthOpen); err != nil {
		return errors.NewInternalError("initializing auth gate", err)
	}
	if err := r.Tools.Init(ctx); err != nil {
		return errors.NewInternalError("initializing tool registry", err)
	}
	if err := r.Bridge.RegisterBuiltins(); err != nil {
		return errors.NewInternalError("registering driver bridge tools", err)
	}
	if err := r.Auth.RegisterBuiltins(r.Tools); err != nil {
		return errors.NewInternalError("registering auth tools", err)
	}
	if err := r.DeviceInfo.Collect(ctx); err != nil {
		logger.Get().Warn("device info collection failed", "error", err)
	}
	if err := r.DeviceInfo.RegisterBuiltins(r.Tools); err != nil {
		return errors.NewInternalError("registering device info tool", err)
	}
	return nil
}

// Close releases the KV store.
func (r *Runtime) Close() error {
	if r.KV == nil {
		return nil
	}
	return r.KV.Close()
}

// Invoke is the single entry point a transport calls into: whenever Auth
// requires authentication it checks authMethod/authToken against Auth and
// answers PermissionDenied on failure; otherwise it dispatches envelopeJSON
// to the tool registry.
func (r *Runtime) Invoke(ctx context.Context, envelopeJSON, authMethod, authToken string) (mcpstatus.ToolResult, error) {
	if r.Auth.IsRequired() && !r.Auth.Validate(authMethod, authToken) {
		return mcpstatus.ErrorResult(mcpstatus.PermissionDenied, "authentication required"), nil
	}
	return r.Tools.Execute(ctx, envelopeJSON)
}
