package deviceinfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stacklok/edgemcp/pkg/toolregistry"
)

func TestCollect_PopulatesSystemSection(t *testing.T) {
	p := New()
	require.NoError(t, p.Collect(context.Background()))

	snap := p.Snapshot()
	assert.NotEmpty(t, snap.System.OS)
}

func TestWithBoardDetails_PreservedThroughCollect(t *testing.T) {
	p := New()
	p.WithBoardDetails(
		[]IOPort{{Name: "gpio0", Direction: "out", State: "low"}},
		[]Sensor{{Name: "temp0", Kind: "temperature", Value: 21.5, Units: "celsius"}},
		[]StorageDevice{{Name: "/"}},
		[]string{"gpio", "i2c"},
	)
	require.NoError(t, p.Collect(context.Background()))

	snap := p.Snapshot()
	require.Len(t, snap.IOPorts, 1)
	assert.Equal(t, "gpio0", snap.IOPorts[0].Name)
	require.Len(t, snap.Sensors, 1)
	assert.Equal(t, "temp0", snap.Sensors[0].Name)
	assert.Contains(t, snap.Capabilities, "gpio")
}

func TestHandleGetInfo_FullAndCompact(t *testing.T) {
	p := New()
	require.NoError(t, p.Collect(context.Background()))
	reg := toolregistry.New(4, nil)
	require.NoError(t, p.RegisterBuiltins(reg))

	result, err := reg.Execute(context.Background(), `{"tool":"device.getInfo","params":{}}`)
	require.NoError(t, err)
	assert.True(t, gjson.Get(result.ResultJSON, "system").Exists())
	assert.True(t, gjson.Get(result.ResultJSON, "capabilities").Exists())

	compact, err := reg.Execute(context.Background(), `{"tool":"device.getInfo","params":{"format":"compact"}}`)
	require.NoError(t, err)
	assert.True(t, gjson.Get(compact.ResultJSON, "system").Exists())
	assert.False(t, gjson.Get(compact.ResultJSON, "capabilities").Exists())
}
