package filter

import (
	"fmt"
	"os"
	"os/user"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// LockDirEnv is the directory holding the device lock files used by Exclusive.
	// If not set, os.TempDir() is used. The directory must exist, it is never created.
	LockDirEnv = "VEXCL_LOCK_DIR"

	// LockTimeout is how long Exclusive waits for a device lock held by someone else.
	LockTimeout = 100 * time.Millisecond

	// LockRetryDelay is the interval between attempts to take a device lock.
	LockRetryDelay = 10 * time.Millisecond
)

// LockDir returns the directory where device lock files are created.
func LockDir() string {
	if dir, found := os.LookupEnv(LockDirEnv); found && dir != "" {
		expanded, err := replaceTildeInDir(dir)
		if err != nil {
			return dir
		}
		return expanded
	}
	return os.TempDir()
}

// LockFileName returns the name of the lock file for the device at the given platform and device indices.
func LockFileName(platformIdx, deviceIdx int) string {
	return fmt.Sprintf("vexcl_device_%d_%d.lock", platformIdx, deviceIdx)
}

// replaceTildeInDir expands a leading "~" or "~user" to the corresponding home directory.
func replaceTildeInDir(dir string) (string, error) {
	if len(dir) == 0 || dir[0] != '~' {
		return dir, nil
	}
	var userName string
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		sepIdx := strings.IndexRune(dir, '/')
		if sepIdx == -1 {
			userName = dir[1:]
		} else {
			userName = dir[1:sepIdx]
		}
	}
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", dir)
	}
	return path.Join(usr.HomeDir, dir[1+len(userName):]), nil
}
