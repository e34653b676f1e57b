package filter

import (
	"os"
	"os/user"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockDir(t *testing.T) {
	t.Setenv(LockDirEnv, "/var/lock/vexcl")
	assert.Equal(t, "/var/lock/vexcl", LockDir())

	t.Setenv(LockDirEnv, "")
	assert.Equal(t, os.TempDir(), LockDir())

	require.NoError(t, os.Unsetenv(LockDirEnv))
	assert.Equal(t, os.TempDir(), LockDir())

	usr, err := user.Current()
	require.NoError(t, err)
	t.Setenv(LockDirEnv, "~/locks")
	assert.Equal(t, path.Join(usr.HomeDir, "locks"), LockDir())
	t.Setenv(LockDirEnv, "~")
	assert.Equal(t, path.Clean(usr.HomeDir), LockDir())
}

func TestReplaceTildeInDir(t *testing.T) {
	dir, err := replaceTildeInDir("/no/tilde")
	require.NoError(t, err)
	assert.Equal(t, "/no/tilde", dir)

	_, err = replaceTildeInDir("~no_such_user_for_vexcl/locks")
	require.Error(t, err)
}

func TestLockFileName(t *testing.T) {
	assert.Equal(t, "vexcl_device_0_0.lock", LockFileName(0, 0))
	assert.Equal(t, "vexcl_device_1_12.lock", LockFileName(1, 12))
}
