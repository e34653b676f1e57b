package filter

import (
	"fmt"

	"github.com/dmcdougall/vexcl/compute"
)

// CountFilter selects no more than a given number of devices. See Count.
type CountFilter struct {
	initial, counter int
}

// Count selects no more than n devices: each evaluation decrements an internal counter, and the device is
// selected if the counter is still >= 0.
//
// Count should be the last filter of an expression: every evaluation consumes the counter, so if it is
// evaluated for devices that are later rejected by other filters, fewer than n devices are selected.
func Count(n int) *CountFilter {
	return &CountFilter{initial: n, counter: n}
}

// Match implements Filter.
func (f *CountFilter) Match(compute.Device) bool {
	f.counter--
	return f.counter >= 0
}

// Remaining returns the current value of the internal counter.
func (f *CountFilter) Remaining() int { return f.counter }

// String implements fmt.Stringer.
func (f *CountFilter) String() string { return fmt.Sprintf("Count(%d)", f.initial) }

// PositionFilter selects the device at a given position. See Position.
type PositionFilter struct {
	initial, counter int
}

// Position selects the single device at position p (0-based) among the devices it is evaluated for: it
// compares its internal counter to zero and then decrements it.
//
// As with Count, Position should be the last filter of an expression, so the position is taken in the list
// of devices that passed all other filters.
func Position(p int) *PositionFilter {
	return &PositionFilter{initial: p, counter: p}
}

// Match implements Filter.
func (f *PositionFilter) Match(compute.Device) bool {
	selected := f.counter == 0
	f.counter--
	return selected
}

// String implements fmt.Stringer.
func (f *PositionFilter) String() string { return fmt.Sprintf("Position(%d)", f.initial) }
