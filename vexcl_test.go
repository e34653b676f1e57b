package vexcl_test

import (
	"testing"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// newGoldie returns a goldie.Goldie reading the golden files in testdata/golden.
// Run `go test -update .` to rewrite them.
func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// failingBackend fails to list its platforms.
type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Platforms() ([]compute.Platform, error) {
	return nil, compute.RuntimeErrorf("failing", "Platforms", "driver not loaded")
}

func (failingBackend) NewContext(...compute.Device) (compute.Context, error) {
	return nil, errors.New("not implemented")
}
