package filter

import (
	"fmt"

	"github.com/dmcdougall/vexcl/compute"
)

type andFilter struct{ lhs, rhs Filter }

// And selects devices selected by both filters.
//
// lhs is always evaluated first, and rhs is evaluated only if lhs selected the device.
func And(lhs, rhs Filter) Filter { return andFilter{lhs: lhs, rhs: rhs} }

// Match implements Filter.
func (f andFilter) Match(d compute.Device) bool {
	return f.lhs.Match(d) && f.rhs.Match(d)
}

// String implements fmt.Stringer.
func (f andFilter) String() string { return fmt.Sprintf("(%s && %s)", Describe(f.lhs), Describe(f.rhs)) }

type orFilter struct{ lhs, rhs Filter }

// Or selects devices selected by either filter.
//
// lhs is always evaluated first, and rhs is evaluated only if lhs rejected the device.
func Or(lhs, rhs Filter) Filter { return orFilter{lhs: lhs, rhs: rhs} }

// Match implements Filter.
func (f orFilter) Match(d compute.Device) bool {
	return f.lhs.Match(d) || f.rhs.Match(d)
}

// String implements fmt.Stringer.
func (f orFilter) String() string { return fmt.Sprintf("(%s || %s)", Describe(f.lhs), Describe(f.rhs)) }

type notFilter struct{ f Filter }

// Not selects devices rejected by f.
func Not(f Filter) Filter { return notFilter{f: f} }

// Match implements Filter.
func (f notFilter) Match(d compute.Device) bool { return !f.f.Match(d) }

// String implements fmt.Stringer.
func (f notFilter) String() string { return fmt.Sprintf("!%s", Describe(f.f)) }

// AllOf is a conjunction of the filters, evaluated left to right with And semantics.
// With no filters it returns All.
func AllOf(filters ...Filter) Filter {
	if len(filters) == 0 {
		return All
	}
	f := filters[0]
	for _, next := range filters[1:] {
		f = And(f, next)
	}
	return f
}
