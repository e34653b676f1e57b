// Package devicetest provides memory backend fixtures shared by the tests.
package devicetest

import (
	"os"
	"testing"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/dmcdougall/vexcl/compute/memory"
	"github.com/janpfeifer/must"
)

// MixedConfig has 3 GPUs, 2 of them supporting double precision, followed by 2 CPUs.
func MixedConfig() *memory.Config {
	return &memory.Config{
		Platforms: []memory.PlatformConfig{
			{
				Name:    "ACME OpenCL",
				Vendor:  "ACME",
				Version: "OpenCL 3.0",
				Devices: []memory.DeviceConfig{
					{Name: "Rocket 9000", Type: "GPU", Extensions: "cl_khr_fp64 cl_khr_int64_base_atomics"},
					{Name: "Rocket 100", Type: "GPU", Extensions: "cl_khr_int64_base_atomics"},
					{Name: "Rocket 7000", Type: "GPU", Extensions: "cl_amd_fp64"},
				},
			},
			{
				Name:    "Host Runtime",
				Vendor:  "Initech",
				Version: "OpenCL 2.1",
				Devices: []memory.DeviceConfig{
					{Name: "Initech Xeon #0", Type: "CPU", Extensions: "cl_khr_fp64"},
					{Name: "Initech Xeon #1", Type: "CPU", Extensions: "cl_khr_fp64"},
				},
			},
		},
	}
}

// CPUConfig has a platform with 1 GPU followed by a platform with 3 CPUs.
func CPUConfig() *memory.Config {
	return &memory.Config{
		Platforms: []memory.PlatformConfig{
			{
				Name:   "ACME OpenCL",
				Vendor: "ACME",
				Devices: []memory.DeviceConfig{
					{Name: "Rocket 9000", Type: "GPU", Extensions: "cl_khr_fp64"},
				},
			},
			{
				Name:   "Host Runtime",
				Vendor: "Initech",
				Devices: []memory.DeviceConfig{
					{Name: "CPU #0", Type: "CPU"},
					{Name: "CPU #1", Type: "CPU"},
					{Name: "CPU #2", Type: "CPU"},
				},
			},
		},
	}
}

// FaultyConfig has one working device per kind of failure: an unavailable device, a device whose contexts
// fail, and a device whose queues fail. Only "Good GPU" and "Good CPU" can be used.
func FaultyConfig() *memory.Config {
	return &memory.Config{
		Platforms: []memory.PlatformConfig{
			{
				Name:   "ACME OpenCL",
				Vendor: "ACME",
				Devices: []memory.DeviceConfig{
					{Name: "Offline GPU", Type: "GPU", Unavailable: true},
					{Name: "Good GPU", Type: "GPU", Extensions: "cl_khr_fp64"},
					{Name: "No Context GPU", Type: "GPU", FailContext: true},
				},
			},
			{
				Name:   "Broken Platform",
				Vendor: "Initech",
				Devices: []memory.DeviceConfig{
					{Name: "Offline CPU", Type: "CPU", Unavailable: true},
				},
			},
			{
				Name:   "Host Runtime",
				Vendor: "Initech",
				Devices: []memory.DeviceConfig{
					{Name: "No Queue CPU", Type: "CPU", FailQueue: true},
					{Name: "Good CPU", Type: "CPU"},
				},
			},
		},
	}
}

// NewBackend creates a memory backend for cfg, failing the test on error.
func NewBackend(t testing.TB, cfg *memory.Config) *memory.Backend {
	t.Helper()
	return must.M1(memory.New(cfg))
}

// AllDevices returns all devices of the backend, available or not, in enumeration order.
func AllDevices(t testing.TB, backend compute.Backend) []compute.Device {
	t.Helper()
	var devices []compute.Device
	for _, platform := range must.M1(backend.Platforms()) {
		devices = append(devices, must.M1(platform.Devices())...)
	}
	return devices
}

// DeviceNames returns the names of the devices.
func DeviceNames(devices []compute.Device) []string {
	names := make([]string, len(devices))
	for ii, d := range devices {
		names[ii] = d.Name()
	}
	return names
}

// FindDevice returns the device of the backend with the given name, failing the test if not found.
func FindDevice(t testing.TB, backend compute.Backend, name string) compute.Device {
	t.Helper()
	for _, d := range AllDevices(t, backend) {
		if d.Name() == name {
			return d
		}
	}
	t.Fatalf("device %q not found in backend %q", name, backend.Name())
	return nil
}

// EnvVars are the environment variables that affect device selection.
var EnvVars = []string{
	"OCL_PLATFORM", "OCL_VENDOR", "OCL_DEVICE", "OCL_TYPE", "OCL_MAX_DEVICES", "OCL_POSITION",
	"VEXCL_LOCK_DIR", compute.BackendEnv, memory.ConfigEnv,
}

// ClearEnv unsets EnvVars for the duration of the test.
func ClearEnv(t *testing.T) {
	t.Helper()
	for _, key := range EnvVars {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset $%s: %v", key, err)
		}
	}
}
