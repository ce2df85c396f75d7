package bridge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stacklok/edgemcp/pkg/mcpstatus"
	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

// TestExecuteNativeDriverFunction_LEDSetColor is spec scenario 6: register
// led1 as LED_RGB, map setColor to a recorder, invoke it through
// system.executeNativeDriverFunction, and observe the recorder's arguments
// plus the literal {"status":"success"} response.
func TestExecuteNativeDriverFunction_LEDSetColor(t *testing.T) {
	reg := toolregistry.New(16, nil)
	require.NoError(t, reg.Init(context.Background()))

	b := New(reg)
	require.NoError(t, b.RegisterBuiltins())
	require.NoError(t, b.Register("led1", "status LED", "LED_RGB", ""))

	var gotR, gotG, gotB int64
	recorder := func(argsJSON string) (string, error) {
		gotR = gjson.Get(argsJSON, "r").Int()
		gotG = gjson.Get(argsJSON, "g").Int()
		gotB = gjson.Get(argsJSON, "b").Int()
		return `{}`, nil
	}
	require.NoError(t, b.MapFunction("led1", "setColor", recorder))

	params := `{"id":"led1","function":"setColor","args":{"r":10,"g":20,"b":30}}`
	result, err := reg.Execute(context.Background(), fmt.Sprintf(`{"tool":"system.executeNativeDriverFunction","params":%s}`, params))
	require.NoError(t, err)

	assert.Equal(t, int64(10), gotR)
	assert.Equal(t, int64(20), gotG)
	assert.Equal(t, int64(30), gotB)
	assert.JSONEq(t, `{"status":"success"}`, result.ResultJSON)
}

func TestRegister_AlreadyExists(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.Register("led1", "", "LED_RGB", ""))

	err := b.Register("led1", "", "LED_RGB", "")
	assert.Error(t, err)
}

func TestUnregister_RemovesForwarderTools(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.Register("led1", "", "LED_RGB", ""))
	require.NoError(t, b.Unregister("led1"))

	_, ok := reg.GetDefinition("driver.led1.write")
	assert.False(t, ok)
	_, ok = b.Find("led1")
	assert.False(t, ok)
}

func TestStandardVerbForwarder_WriteFallsBackToGeneric(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.Register("relay1", "", "RELAY", ""))

	var recordedArgs string
	require.NoError(t, b.MapFunction("relay1", VerbWrite, func(argsJSON string) (string, error) {
		recordedArgs = argsJSON
		return `{"ok":true}`, nil
	}))

	result, err := reg.Execute(context.Background(), `{"tool":"driver.relay1.write","params":{"on":true}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, result.ResultJSON)
	assert.JSONEq(t, `{"on":true}`, recordedArgs)

	entry, _ := b.Find("relay1")
	assert.Equal(t, "running", entry.State.String())
}

func TestTemperatureRead_WrapsValueAndUnits(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.Register("temp1", "", "DS18B20", ""))
	require.NoError(t, b.MapFunction("temp1", VerbRead, func(string) (string, error) {
		return "21.5", nil
	}))

	result, err := reg.Execute(context.Background(), `{"tool":"driver.temp1.read","params":{}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":21.5,"units":"celsius"}`, result.ResultJSON)
}

func TestListNativeDrivers(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.RegisterBuiltins())
	require.NoError(t, b.Register("led1", "status LED", "LED_RGB", ""))

	result, err := reg.Execute(context.Background(), `{"tool":"system.listNativeDrivers","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(result.ResultJSON, "#").Int())
	assert.Equal(t, "led1", gjson.Get(result.ResultJSON, "0.id").String())
}

func TestExecuteNativeDriverFunction_UnknownDriver(t *testing.T) {
	reg := toolregistry.New(16, nil)
	b := New(reg)
	require.NoError(t, b.RegisterBuiltins())

	result, err := reg.Execute(context.Background(), `{"tool":"system.executeNativeDriverFunction","params":{"id":"nope","function":"setColor","args":{}}}`)
	require.NoError(t, err)
	assert.NotEqual(t, mcpstatus.Success, result.Status)
}
