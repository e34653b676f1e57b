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
	"maps"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

type fakeBackend struct {
	name string
}

func (b *fakeBackend) Name() string                                  { return b.name }
func (b *fakeBackend) Platforms() ([]Platform, error)                { return nil, nil }
func (b *fakeBackend) NewContext(devices ...Device) (Context, error) { return nil, errors.New("not implemented") }

// isolateRegistry gives the test an empty backend registry, restoring the previous one at the end.
func isolateRegistry(t *testing.T) {
	muBackends.Lock()
	savedKnown, savedLoaded, savedDefault := maps.Clone(knownBackends), maps.Clone(loadedBackends), defaultBackend
	knownBackends = make(map[string]BackendConstructor)
	loadedBackends = make(map[string]Backend)
	defaultBackend = nil
	muBackends.Unlock()
	t.Setenv(BackendEnv, "")
	t.Cleanup(func() {
		muBackends.Lock()
		defer muBackends.Unlock()
		knownBackends, loadedBackends, defaultBackend = savedKnown, savedLoaded, savedDefault
	})
}

// registerFake registers a fakeBackend and returns a pointer to the number of times it was constructed.
func registerFake(name string) *int {
	var count int
	Register(name, func() (Backend, error) {
		count++
		return &fakeBackend{name: name}, nil
	})
	return &count
}

func TestRegistry(t *testing.T) {
	isolateRegistry(t)
	_, err := Default()
	require.Error(t, err)

	bCount := registerFake("b")
	aCount := registerFake("a")
	Register("broken", func() (Backend, error) { return nil, errors.New("no devices") })
	assert.Equal(t, []string{"a", "b", "broken"}, AvailableBackends())

	b1, err := GetBackend("b")
	require.NoError(t, err)
	b2, err := GetBackend("b")
	require.NoError(t, err)
	assert.Same(t, b1, b2)
	assert.Equal(t, 1, *bCount)
	assert.Equal(t, 0, *aCount)

	_, err = GetBackend("broken")
	require.ErrorContains(t, err, "no devices")
	_, err = GetBackend("missing")
	require.ErrorContains(t, err, `"missing" not registered`)

	// Registering again drops the instance already created.
	bCount = registerFake("b")
	b3, err := GetBackend("b")
	require.NoError(t, err)
	assert.NotSame(t, b1, b3)
	assert.Equal(t, 1, *bCount)
}

func TestDefault(t *testing.T) {
	isolateRegistry(t)
	registerFake("b")
	registerFake("a")

	backend, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "a", backend.Name(), "first registered name in alphabetical order")

	registerFake(DefaultBackendName)
	backend, err = Default()
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendName, backend.Name())

	t.Setenv(BackendEnv, "b")
	backend, err = Default()
	require.NoError(t, err)
	assert.Equal(t, "b", backend.Name())

	t.Setenv(BackendEnv, "missing")
	_, err = Default()
	require.Error(t, err)

	custom := &fakeBackend{name: "custom"}
	SetDefault(custom)
	backend, err = Default()
	require.NoError(t, err)
	assert.Same(t, custom, backend)

	SetDefault(nil)
	_, err = Default()
	require.Error(t, err)
}

func TestRuntimeError(t *testing.T) {
	cause := errors.New("device lost")
	err := WrapRuntimeError("memory", "NewQueue", cause)
	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Equal(t, "memory", runtimeErr.Backend)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "memory runtime error in NewQueue: device lost", err.Error())
	assert.NoError(t, WrapRuntimeError("memory", "NewQueue", nil))

	err = RuntimeErrorf("webgpu", "NewContext", "%d devices", 2)
	require.ErrorAs(t, err, &runtimeErr)
	assert.Equal(t, "NewContext", runtimeErr.Op)
	assert.Contains(t, err.Error(), "2 devices")
}
