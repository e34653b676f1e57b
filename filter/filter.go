// Package filter implements device filters: predicates over compute.Device that can be combined with And, Or
// and Not to select the devices used by a vexcl.Context.
//
// Most filters are pure functions of the device, but Count and Position keep an internal counter that is
// consumed every time they are evaluated. Combinators evaluate their operands left to right and short-circuit,
// so the position of Count and Position in an expression matters: they should be the last (right-most) terms
// of a conjunction, so they only count devices that passed all other filters.
//
// Example, selecting at most 2 GPUs supporting double precision:
//
//	f := filter.And(filter.And(filter.Type(compute.DeviceTypeGPU), filter.DoublePrecision), filter.Count(2))
//
// Filters are not safe for concurrent use.
package filter

import (
	"fmt"

	"github.com/dmcdougall/vexcl/compute"
)

// Filter is a predicate over compute devices.
type Filter interface {
	// Match returns whether the device is selected.
	Match(d compute.Device) bool
}

// Func adapts an ordinary function to a Filter.
type Func func(d compute.Device) bool

// Match implements Filter.
func (fn Func) Match(d compute.Device) bool { return fn(d) }

// String implements fmt.Stringer.
func (fn Func) String() string { return "Func" }

// allFilter selects any device.
type allFilter struct{}

// All selects any device.
var All Filter = allFilter{}

// Match implements Filter.
func (allFilter) Match(compute.Device) bool { return true }

// String implements fmt.Stringer.
func (allFilter) String() string { return "All" }

// Describe returns a human-readable description of the filter expression.
func Describe(f Filter) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}
