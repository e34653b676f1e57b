//go:build vexcl_strict

package vexcl_test

import (
	"testing"

	"github.com/dmcdougall/vexcl"
	"github.com/dmcdougall/vexcl/compute/memory"
	"github.com/dmcdougall/vexcl/filter"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
)

func TestEmptyContextPanics(t *testing.T) {
	backend := must.M1(memory.New(&memory.Config{}))
	require.Panics(t, func() {
		_, _ = vexcl.NewContext(filter.All).WithBackend(backend).Done()
	})
}
