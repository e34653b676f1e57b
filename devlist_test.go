package vexcl_test

import (
	"testing"

	"github.com/dmcdougall/vexcl"
	"github.com/dmcdougall/vexcl/compute"
	"github.com/dmcdougall/vexcl/filter"
	"github.com/dmcdougall/vexcl/internal/devicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceListOn(t *testing.T) {
	backend := devicetest.NewBackend(t, devicetest.MixedConfig())

	devices, err := vexcl.DeviceListOn(backend, filter.And(filter.Type(compute.DeviceTypeGPU), filter.DoublePrecision))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rocket 9000", "Rocket 7000"}, devicetest.DeviceNames(devices))
	newGoldie(t).Assert(t, "devices_gpu_fp64", []byte(devices.String()))

	devices, err = vexcl.DeviceListOn(backend, nil)
	require.NoError(t, err)
	assert.Len(t, devices, 5)

	devices, err = vexcl.DeviceListOn(backend, filter.Vendor("Nobody"))
	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.Equal(t, "", devices.String())
}

func TestDeviceListSkipsUnavailable(t *testing.T) {
	backend := devicetest.NewBackend(t, devicetest.FaultyConfig())
	counter := filter.Count(100)
	devices, err := vexcl.DeviceListOn(backend, counter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good GPU", "No Context GPU", "No Queue CPU", "Good CPU"}, devicetest.DeviceNames(devices))
	assert.Equal(t, 96, counter.Remaining(), "filter must be evaluated once per available device only")
}

func TestDeviceListDefaultBackend(t *testing.T) {
	backend := devicetest.NewBackend(t, devicetest.CPUConfig())
	compute.SetDefault(backend)
	t.Cleanup(func() { compute.SetDefault(nil) })

	devices, err := vexcl.DeviceList(filter.Type(compute.DeviceTypeCPU))
	require.NoError(t, err)
	assert.Equal(t, []string{"CPU #0", "CPU #1", "CPU #2"}, devicetest.DeviceNames(devices))

	contexts, queues, err := vexcl.QueueList(filter.Position(1), 0)
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	require.Len(t, queues, 1)
	assert.Equal(t, "CPU #0", queues[0].Device().Name())
}

func TestListErrors(t *testing.T) {
	_, err := vexcl.DeviceListOn(failingBackend{}, nil)
	require.ErrorContains(t, err, "driver not loaded")
	var runtimeErr *compute.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Equal(t, "Platforms", runtimeErr.Op)

	_, _, err = vexcl.QueueListOn(failingBackend{}, nil, 0)
	require.ErrorContains(t, err, "driver not loaded")
}

func TestQueueListOn(t *testing.T) {
	backend := devicetest.NewBackend(t, devicetest.FaultyConfig())
	contexts, queues, err := vexcl.QueueListOn(backend, nil, compute.QueueProfiling)
	require.NoError(t, err)
	require.Len(t, contexts, 2)
	require.Len(t, queues, 2)
	newGoldie(t).Assert(t, "context_faulty", []byte(queues.String()))
	for ii, queue := range queues {
		assert.Same(t, contexts[ii], queue.Context())
		assert.Equal(t, compute.QueueProfiling, queue.Properties())
		assert.Equal(t, []compute.Device{queue.Device()}, contexts[ii].Devices())
	}

	// The context created for "No Queue CPU" is released when its queue fails.
	stats := backend.Stats()
	assert.Equal(t, 3, stats.ContextsCreated)
	assert.Equal(t, 1, stats.ContextsReleased)
	assert.Equal(t, 2, stats.QueuesCreated)
}
