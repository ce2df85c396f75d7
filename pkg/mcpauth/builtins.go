package mcpauth

import (
	"context"

	"github.com/stacklok/edgemcp/pkg/errors"
	"github.com/stacklok/edgemcp/pkg/jsonval"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

// Names of the built-in tools this package installs (spec §6).
const (
	ToolSetAuth       = "system.setAuth"
	ToolGetAuthStatus = "system.getAuthStatus"
	ToolClearAuth     = "system.clearAuth"
)

// RegisterBuiltins installs this package's tool surface onto reg.
func (m *Manager) RegisterBuiltins(reg *toolregistry.Registry) error {
	builtins := []struct {
		name    string
		handler toolregistry.NativeHandler
	}{
		{ToolSetAuth, m.handleSetAuth},
		{ToolGetAuthStatus, m.handleGetAuthStatus},
		{ToolClearAuth, m.handleClearAuth},
	}
	for _, bi := range builtins {
		if err := reg.Register(bi.name, bi.handler, ""); err != nil {
			return err
		}
	}
	return nil
}

// handleSetAuth implements system.setAuth: params is
// {"method":..., "token":..., "persistent":...}.
func (m *Manager) handleSetAuth(ctx context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	params, err := jsonval.Parse(paramsJSON)
	if err != nil {
		return errors.ToToolResult(err), nil
	}
	method, ok := params.GetString("method")
	if !ok || method == "" {
		return mcpstatus.ErrorResult(mcpstatus.InvalidParams, `missing "method" field`), nil
	}
	token, _ := params.GetString("token")
	persistent := params.GetBool("persistent", false)

	if err := m.Set(ctx, method, token, persistent); err != nil {
		return errors.ToToolResult(err), nil
	}
	return mcpstatus.Ok(`{"set":true}`), nil
}

// handleGetAuthStatus implements system.getAuthStatus: returns whether
// auth is required and which method is configured, never the token.
func (m *Manager) handleGetAuthStatus(context.Context, string) (mcpstatus.ToolResult, error) {
	method := m.cfg.Method
	if method == "" {
		method = MethodNone
	}
	body := `{"required":` + boolJSON(m.IsRequired()) + `,"method":"` + method + `","persistent":` + boolJSON(m.cfg.Persistent) + `}`
	return mcpstatus.Ok(body), nil
}

// handleClearAuth implements system.clearAuth.
func (m *Manager) handleClearAuth(ctx context.Context, _ string) (mcpstatus.ToolResult, error) {
	if err := m.Clear(ctx); err != nil {
		return errors.ToToolResult(err), nil
	}
	return mcpstatus.Ok(`{"cleared":true}`), nil
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
