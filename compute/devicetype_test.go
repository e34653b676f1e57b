package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceType(t *testing.T) {
	assert.Equal(t, "GPU", DeviceTypeGPU.String())
	assert.Equal(t, "ACCELERATOR", DeviceTypeAccelerator.String())
	assert.Equal(t, []string{"OTHER", "CPU", "GPU", "ACCELERATOR", "ALL"}, DeviceTypeStrings())

	for _, dt := range DeviceTypeValues() {
		parsed, err := DeviceTypeString(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
		assert.True(t, dt.IsADeviceType())
	}
	parsed, err := DeviceTypeString("cpu")
	require.NoError(t, err)
	assert.Equal(t, DeviceTypeCPU, parsed)
	_, err = DeviceTypeString("FPGA")
	require.Error(t, err)
	assert.False(t, DeviceType(17).IsADeviceType())
	assert.Equal(t, "DeviceType(17)", DeviceType(17).String())
}

func TestQueueProperties(t *testing.T) {
	assert.Equal(t, "None", QueueProperties(0).String())
	assert.Equal(t, "OutOfOrderExecution", QueueOutOfOrderExecution.String())
	both := QueueOutOfOrderExecution | QueueProfiling
	assert.Equal(t, "OutOfOrderExecution|Profiling", both.String())
	assert.Equal(t, "Profiling|Unknown", (QueueProfiling | 1<<10).String())
	assert.True(t, both.Has(QueueProfiling))
	assert.False(t, QueueProfiling.Has(both))
}
