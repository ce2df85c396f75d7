package toolregistry

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stacklok/edgemcp/pkg/bytecode"
	"github.com/stacklok/edgemcp/pkg/composite"
	"github.com/stacklok/edgemcp/pkg/kvstore"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

func echoHandler(_ context.Context, paramsJSON string) (mcpstatus.ToolResult, error) {
	v := gjson.Get(paramsJSON, "v")
	return mcpstatus.Ok(`{"v":` + v.Raw + `}`), nil
}

func openTestKV(t *testing.T) kvstore.KVStore {
	t.Helper()
	store, err := kvstore.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestExecute_RegisterAndInvokeNative is spec scenario 1.
func TestExecute_RegisterAndInvokeNative(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.Register("echo", echoHandler, ""))

	result, err := r.Execute(context.Background(), `{"tool":"echo","params":{"v":42}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.Success, result.Status)
	assert.JSONEq(t, `{"v":42}`, result.ResultJSON)
}

// TestExecute_Composite is spec scenario 2: "double" composite.
func TestExecute_Composite(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.Init(context.Background()))
	require.NoError(t, r.Register("echo", echoHandler, ""))

	defineParams := `{
		"name":"double",
		"implementationType":"composite",
		"implementation":{"steps":[
			{"tool_name":"echo","params_template":"{\"v\":${x}}","result_store":"a"},
			{"tool_name":"echo","params_template":"{\"v\":${a.v}}"}
		]}
	}`
	result, err := r.Execute(context.Background(), envelope(DefineToolName, defineParams))
	require.NoError(t, err)
	require.Equal(t, mcpstatus.Success, result.Status, result.ResultJSON)

	result, err = r.Execute(context.Background(), `{"tool":"double","params":{"x":7}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.Success, result.Status)
	assert.JSONEq(t, `{"v":7}`, result.ResultJSON)
}

// TestPersistence is spec scenario 3: a persistent composite tool survives
// a simulated restart (a fresh Registry over the same KV store).
func TestPersistence(t *testing.T) {
	kv := openTestKV(t)

	r1 := New(8, kv)
	require.NoError(t, r1.Init(context.Background()))
	require.NoError(t, r1.Register("echo", func(context.Context, string) (mcpstatus.ToolResult, error) {
		return mcpstatus.Ok(`{"pong":true}`), nil
	}, ""))

	defineParams := `{
		"name":"ping",
		"implementationType":"composite",
		"persistent":true,
		"implementation":{"steps":[{"tool_name":"echo","params_template":"{}"}]}
	}`
	result, err := r1.Execute(context.Background(), envelope(DefineToolName, defineParams))
	require.NoError(t, err)
	require.Equal(t, mcpstatus.Success, result.Status, result.ResultJSON)

	// Simulate restart: a brand new Registry over the same KV store. "echo"
	// must be re-registered by the host before persisted tools are loaded,
	// same as real startup.
	r2 := New(8, kv)
	require.NoError(t, r2.Register("echo", func(context.Context, string) (mcpstatus.ToolResult, error) {
		return mcpstatus.Ok(`{"pong":true}`), nil
	}, ""))
	require.NoError(t, r2.LoadAllDynamic(context.Background()))

	_, ok := r2.GetDefinition("ping")
	require.True(t, ok)

	result, err = r2.Execute(context.Background(), `{"tool":"ping","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.Success, result.Status)
	assert.JSONEq(t, `{"pong":true}`, result.ResultJSON)
}

// TestExecute_BytecodeArithmetic is spec scenario 4.
func TestExecute_BytecodeArithmetic(t *testing.T) {
	r := New(8, nil)
	program := `{
		"instructions":[
			{"op":"PUSH_NUM","value":3},
			{"op":"PUSH_NUM","value":4},
			{"op":"ADD"},
			{"op":"HALT"}
		]
	}`
	prog, err := bytecode.CompileJSON(program)
	require.NoError(t, err)
	require.NoError(t, r.registerDefinition(&Definition{Name: "add34", Kind: KindBytecode, Bytecode: prog}))

	result, err := r.Execute(context.Background(), `{"tool":"add34","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.Success, result.Status)
	assert.Equal(t, "7", result.ResultJSON)
}

// TestExecute_BytecodeTimeout is spec scenario 5.
func TestExecute_BytecodeTimeout(t *testing.T) {
	r := New(8, nil, WithBytecodeOptions(bytecode.RunOptions{MaxSteps: 10}))
	prog := &bytecode.Program{Instructions: []bytecode.Instruction{{Op: bytecode.JUMP, U16: 0}}}
	require.NoError(t, r.registerDefinition(&Definition{Name: "loop", Kind: KindBytecode, Bytecode: prog}))

	result, err := r.Execute(context.Background(), `{"tool":"loop","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.Timeout, result.Status)
}

func TestRegister_AlreadyExists(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.Register("echo", echoHandler, ""))

	err := r.Register("echo", echoHandler, "")
	require.Error(t, err)
	_, stillOnlyOne := r.GetDefinition("echo")
	assert.True(t, stillOnlyOne)
	assert.Equal(t, 1, countActive(r))
}

func TestRegister_Full(t *testing.T) {
	r := New(1, nil)
	require.NoError(t, r.Register("a", echoHandler, ""))

	err := r.Register("b", echoHandler, "")
	require.Error(t, err)
}

func TestExecute_UnknownTool(t *testing.T) {
	r := New(8, nil)
	result, err := r.Execute(context.Background(), `{"tool":"nope","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.NotFound, result.Status)
}

func TestExecute_SchemaViolation(t *testing.T) {
	r := New(8, nil)
	schema := `{"type":"object","required":["v"],"properties":{"v":{"type":"number"}}}`
	require.NoError(t, r.Register("echo", echoHandler, schema))

	result, err := r.Execute(context.Background(), `{"tool":"echo","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.InvalidParams, result.Status)
}

func TestExecute_CompositeMissingSubTool(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.registerDefinition(&Definition{
		Name: "broken",
		Kind: KindComposite,
		Composite: &composite.Definition{
			Steps: []composite.Step{{ToolName: "missing_tool", ParamsTemplate: "{}"}},
		},
	}))

	result, err := r.Execute(context.Background(), `{"tool":"broken","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, mcpstatus.NotFound, result.Status)
}

func TestUnregister(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.Register("echo", echoHandler, ""))
	require.NoError(t, r.Unregister("echo"))

	_, ok := r.GetDefinition("echo")
	assert.False(t, ok)

	err := r.Unregister("echo")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	r := New(8, nil)
	require.NoError(t, r.Register("echo", echoHandler, ""))

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(r.List()), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "echo", entries[0].Name)
	assert.Equal(t, "native", entries[0].Type)
}

func countActive(r *Registry) int {
	n := 0
	for _, s := range r.slots {
		if s.active {
			n++
		}
	}
	return n
}

func envelope(tool, paramsJSON string) string {
	return `{"tool":"` + tool + `","params":` + paramsJSON + `}`
}
