/*
 *	Copyright 2024 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package compute

import (
	"os"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// BackendEnv is the name of the environment variable that selects the default backend by name.
	BackendEnv = "VEXCL_BACKEND"
)

// BackendConstructor creates a new instance of a backend. It is called at most once per registered name,
// the first time the backend is requested.
type BackendConstructor func() (Backend, error)

var (
	// DefaultBackendName is the backend used by Default if BackendEnv is not set and the backend is registered.
	DefaultBackendName = "webgpu"

	// knownBackends maps registered names to their constructors. Protected by muBackends.
	knownBackends = make(map[string]BackendConstructor)

	// loadedBackends caches the backends already created. Protected by muBackends.
	loadedBackends = make(map[string]Backend)

	// defaultBackend, if set with SetDefault, takes precedence over any name based selection.
	defaultBackend Backend

	muBackends sync.Mutex
)

// Register a backend constructor under the given name.
//
// It is usually called from the init() function of the backend package. Registering a name again replaces the
// previous constructor and drops any backend already created with it.
func Register(name string, constructor BackendConstructor) {
	muBackends.Lock()
	defer muBackends.Unlock()
	if _, found := knownBackends[name]; found {
		klog.V(1).Infof("compute backend %q registered again, replacing previous registration", name)
	}
	knownBackends[name] = constructor
	delete(loadedBackends, name)
}

// AvailableBackends returns the sorted names of the registered backends.
func AvailableBackends() []string {
	muBackends.Lock()
	defer muBackends.Unlock()
	names := make([]string, 0, len(knownBackends))
	for name := range knownBackends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetBackend returns the backend registered with the given name, creating it if not created yet.
//
// Backends are singletons: GetBackend returns the same instance for the same name.
// It uses a mutex to serialize (make it safe) calls from different goroutines.
func GetBackend(name string) (Backend, error) {
	muBackends.Lock()
	defer muBackends.Unlock()
	return getBackendLocked(name)
}

func getBackendLocked(name string) (Backend, error) {
	if backend, found := loadedBackends[name]; found {
		return backend, nil
	}
	constructor, found := knownBackends[name]
	if !found {
		return nil, errors.Errorf("compute backend %q not registered, registered backends are %v: "+
			"import the backend package (e.g. `import _ \"github.com/dmcdougall/vexcl/compute/webgpu\"`)",
			name, sortedKnownNamesLocked())
	}
	klog.V(1).Infof("creating compute backend %q", name)
	backend, err := constructor()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create compute backend %q", name)
	}
	loadedBackends[name] = backend
	return backend, nil
}

func sortedKnownNamesLocked() []string {
	names := make([]string, 0, len(knownBackends))
	for name := range knownBackends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetDefault sets the backend returned by Default, overriding the name based selection.
// Passing nil restores the name based selection.
func SetDefault(backend Backend) {
	muBackends.Lock()
	defer muBackends.Unlock()
	defaultBackend = backend
}

// Default returns the backend to use when none is given explicitly.
//
// In order of preference: the backend set with SetDefault; the backend named by the environment variable
// VEXCL_BACKEND; DefaultBackendName if it is registered; the first registered backend in alphabetical order.
func Default() (Backend, error) {
	muBackends.Lock()
	defer muBackends.Unlock()
	if defaultBackend != nil {
		return defaultBackend, nil
	}
	if name, found := os.LookupEnv(BackendEnv); found && name != "" {
		return getBackendLocked(name)
	}
	if _, found := knownBackends[DefaultBackendName]; found {
		return getBackendLocked(DefaultBackendName)
	}
	names := sortedKnownNamesLocked()
	if len(names) == 0 {
		return nil, errors.New("no compute backend registered: import a backend package " +
			"(e.g. `import _ \"github.com/dmcdougall/vexcl/compute/webgpu\"`)")
	}
	return getBackendLocked(names[0])
}
