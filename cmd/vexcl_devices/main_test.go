package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmcdougall/vexcl/filter"
	"github.com/dmcdougall/vexcl/internal/devicetest"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// writeMemoryConfig writes the devices of devicetest.MixedConfig to a YAML file.
func writeMemoryConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, must.M1(yaml.Marshal(devicetest.MixedConfig())), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListDevices(t *testing.T) {
	devicetest.ClearEnv(t)
	config := writeMemoryConfig(t)

	out, err := execute(t, "--memory-config", config, "--type", "gpu", "--double")
	require.NoError(t, err)
	assert.Contains(t, out, "Devices on memory:")
	assert.Contains(t, out, "1. Rocket 9000 (ACME OpenCL)\n2. Rocket 7000 (ACME OpenCL)\n")

	out, err = execute(t, "--memory-config", config, "--vendor", "Nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
}

func TestListQueuesExclusive(t *testing.T) {
	devicetest.ClearEnv(t)
	lockDir := t.TempDir()
	t.Setenv(filter.LockDirEnv, lockDir)
	t.Setenv(filter.PlatformEnv, "Host")

	out, err := execute(t, "--memory-config", writeMemoryConfig(t), "--queues", "--exclusive", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Queues on memory:")
	assert.Contains(t, out, "1. Initech Xeon #0 (Host Runtime)\n")
	assert.NotContains(t, out, "2. ")
	assert.Contains(t, out, "locked "+filepath.Join(lockDir, "vexcl_device_1_0.lock"))
}

func TestBuildFilter(t *testing.T) {
	devicetest.ClearEnv(t)
	t.Setenv(filter.VendorEnv, "ACME")

	f, err := buildFilter(&options{count: 1, position: -1})
	require.NoError(t, err)
	assert.Equal(t, `((All && Vendor("ACME")) && Count(1))`, filter.Describe(f))

	f, err = buildFilter(&options{name: "Rocket", deviceType: "ALL", double: true, count: -1, position: 0})
	require.NoError(t, err)
	assert.Equal(t, `(((((All && Vendor("ACME")) && Name("Rocket")) && Type(ALL)) && DoublePrecision) && Position(0))`,
		filter.Describe(f))

	_, err = buildFilter(&options{deviceType: "FPGA", count: -1, position: -1})
	require.ErrorContains(t, err, "FPGA")

	t.Setenv(filter.PositionEnv, "first")
	_, err = buildFilter(&options{count: -1, position: -1})
	require.ErrorContains(t, err, filter.PositionEnv)
}

func TestInvalidFlags(t *testing.T) {
	devicetest.ClearEnv(t)
	config := writeMemoryConfig(t)

	_, err := execute(t, "--memory-config", config, "--hold")
	require.ErrorContains(t, err, "--hold requires --exclusive")

	_, err = execute(t, "--memory-config", config, "--backend", "webgpu")
	require.ErrorContains(t, err, "--memory-config")

	_, err = execute(t, "--backend", "no-such-backend")
	require.ErrorContains(t, err, "not registered")

	_, err = execute(t, "extra-argument")
	require.Error(t, err)
}
