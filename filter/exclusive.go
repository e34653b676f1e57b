package filter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LockRegistry holds the device locks taken by Exclusive filters.
//
// Each device of the backend is associated with a lock file in the lock directory, named after the device
// platform and device indices (see LockFileName). Locks that were acquired for selected devices are retained
// until Release is called or the process exits, so other processes using the same lock directory won't
// select the same devices.
//
// Locks are advisory (flock(2)) and held per open file: two registries in the same process contend for the
// devices exactly as two processes would.
//
// A LockRegistry is safe for concurrent use.
type LockRegistry struct {
	backend compute.Backend
	lockDir string

	pathsOnce sync.Once
	paths     map[string]string // Device.ID() -> lock file path.

	mu     sync.Mutex
	locks  map[string]*flock.Flock // Lock file path -> retained lock.
	warned map[string]bool
}

// NewLockRegistry creates a LockRegistry for the devices of backend, with lock files in lockDir.
//
// If backend is nil, compute.Default() is used when the first device is evaluated.
// If lockDir is empty, LockDir() is used.
func NewLockRegistry(backend compute.Backend, lockDir string) *LockRegistry {
	if lockDir == "" {
		lockDir = LockDir()
	}
	return &LockRegistry{
		backend: backend,
		lockDir: lockDir,
		locks:   make(map[string]*flock.Flock),
		warned:  make(map[string]bool),
	}
}

var (
	defaultRegistry     *LockRegistry
	defaultRegistryOnce sync.Once
)

// DefaultLockRegistry returns the process-wide registry used by Exclusive.
// It uses compute.Default() and LockDir() at the time of its creation.
func DefaultLockRegistry() *LockRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewLockRegistry(nil, "")
	})
	return defaultRegistry
}

// Exclusive selects devices selected by inner that are not already locked by another registry, using the
// process-wide DefaultLockRegistry. See LockRegistry.Exclusive.
func Exclusive(inner Filter) Filter {
	return DefaultLockRegistry().Exclusive(inner)
}

// ReleaseExclusiveLocks releases all locks retained by the process-wide DefaultLockRegistry.
func ReleaseExclusiveLocks() error {
	return DefaultLockRegistry().Release()
}

// LockDir returns the directory where the registry creates its lock files.
func (r *LockRegistry) LockDir() string { return r.lockDir }

// Exclusive selects devices whose lock could be acquired and that are selected by inner.
//
// The lock is tried first, waiting at most LockTimeout, and inner is only evaluated if it was acquired.
// If inner rejects the device, the lock is released at once. Devices whose lock file can't be opened
// (e.g. the lock directory doesn't exist) are considered lockable: a warning is logged once per file, and
// the result is the one of inner.
func (r *LockRegistry) Exclusive(inner Filter) Filter {
	return &exclusiveFilter{registry: r, inner: inner}
}

type exclusiveFilter struct {
	registry *LockRegistry
	inner    Filter
}

// Match implements Filter.
func (f *exclusiveFilter) Match(d compute.Device) bool {
	acquired, fresh := f.registry.lock(d)
	if !acquired {
		return false
	}
	if f.inner.Match(d) {
		return true
	}
	if fresh {
		f.registry.unlock(d)
	}
	return false
}

// String implements fmt.Stringer.
func (f *exclusiveFilter) String() string { return fmt.Sprintf("Exclusive(%s)", Describe(f.inner)) }

// lockPaths returns the device ID to lock file path map, built on first use.
// Availability of the devices is not checked, so the indices match the ones seen by other processes.
func (r *LockRegistry) lockPaths() map[string]string {
	r.pathsOnce.Do(func() {
		r.paths = make(map[string]string)
		backend := r.backend
		if backend == nil {
			var err error
			backend, err = compute.Default()
			if err != nil {
				klog.Warningf("vexcl: exclusive device locks disabled: %v", err)
				return
			}
		}
		platforms, err := backend.Platforms()
		if err != nil {
			klog.Warningf("vexcl: failed to list platforms of %q for device locks: %v", backend.Name(), err)
			return
		}
		for platformIdx, platform := range platforms {
			devices, err := platform.Devices()
			if err != nil {
				klog.Warningf("vexcl: failed to list devices of platform %q for device locks: %v", platform.Name(), err)
				continue
			}
			for deviceIdx, device := range devices {
				r.paths[device.ID()] = filepath.Join(r.lockDir, LockFileName(platformIdx, deviceIdx))
			}
		}
		klog.V(2).Infof("vexcl: %d device lock files in %q", len(r.paths), r.lockDir)
	})
	return r.paths
}

// warnOnceLocked logs a warning for key, if not already logged. r.mu must be held.
func (r *LockRegistry) warnOnceLocked(key, format string, args ...any) {
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	klog.Warningf(format, args...)
}

// lock tries to acquire the lock of device d. It returns whether the device can be used, and whether
// a new lock was taken by this call.
func (r *LockRegistry) lock(d compute.Device) (acquired, fresh bool) {
	path, found := r.lockPaths()[d.ID()]
	r.mu.Lock()
	defer r.mu.Unlock()
	if !found {
		r.warnOnceLocked("device:"+d.ID(),
			"vexcl: no lock file known for device %q, using it without exclusive lock", d.Name())
		return true, false
	}
	if _, held := r.locks[path]; held {
		return true, false
	}

	lock := flock.New(path, flock.SetFlag(os.O_CREATE|os.O_RDWR), flock.SetPermissions(0o666))
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			klog.V(1).Infof("vexcl: device %q is locked by another process (%s)", d.Name(), path)
			return false, false
		}
		r.warnOnceLocked(path, "vexcl: failed to open lock file %q for device %q, using it without exclusive lock: %v",
			path, d.Name(), err)
		return true, false
	}
	if !locked {
		return false, false
	}
	// Let other users lock the same device.
	if err := os.Chmod(path, 0o666); err != nil {
		klog.V(1).Infof("vexcl: failed to chmod lock file %q: %v", path, err)
	}
	r.locks[path] = lock
	klog.V(1).Infof("vexcl: locked device %q (%s)", d.Name(), path)
	return true, true
}

// unlock releases the lock of device d, if held by the registry.
func (r *LockRegistry) unlock(d compute.Device) {
	path, found := r.lockPaths()[d.ID()]
	if !found {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, held := r.locks[path]
	if !held {
		return
	}
	delete(r.locks, path)
	if err := lock.Unlock(); err != nil {
		klog.Errorf("vexcl: failed to unlock %q: %v", path, err)
	}
}

// Held returns the paths of the lock files currently held by the registry, sorted.
func (r *LockRegistry) Held() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.locks))
	for path := range r.locks {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// Release unlocks all the locks retained by the registry. It returns the first error, after trying to
// unlock all of them.
func (r *LockRegistry) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for path, lock := range r.locks {
		if err := lock.Unlock(); err != nil {
			err = errors.Wrapf(err, "failed to unlock %q", path)
			if firstErr == nil {
				firstErr = err
			} else {
				klog.Errorf("vexcl: %v", err)
			}
		}
	}
	clear(r.locks)
	return firstErr
}
