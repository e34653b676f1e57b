package filter

import (
	"fmt"
	"strings"

	"github.com/dmcdougall/vexcl/compute"
)

// DoublePrecisionExtensions are the extensions that signal support for double precision arithmetic.
var DoublePrecisionExtensions = []string{"cl_khr_fp64", "cl_amd_fp64"}

type vendorFilter string

// Vendor selects devices whose vendor name contains the given value (case-sensitive).
func Vendor(name string) Filter { return vendorFilter(name) }

// Match implements Filter.
func (f vendorFilter) Match(d compute.Device) bool { return strings.Contains(d.Vendor(), string(f)) }

// String implements fmt.Stringer.
func (f vendorFilter) String() string { return fmt.Sprintf("Vendor(%q)", string(f)) }

type platformFilter string

// Platform selects devices whose platform name contains the given value (case-sensitive).
func Platform(name string) Filter { return platformFilter(name) }

// Match implements Filter.
func (f platformFilter) Match(d compute.Device) bool {
	return strings.Contains(d.Platform().Name(), string(f))
}

// String implements fmt.Stringer.
func (f platformFilter) String() string { return fmt.Sprintf("Platform(%q)", string(f)) }

type nameFilter string

// Name selects devices whose name contains the given value (case-sensitive).
func Name(name string) Filter { return nameFilter(name) }

// Match implements Filter.
func (f nameFilter) Match(d compute.Device) bool { return strings.Contains(d.Name(), string(f)) }

// String implements fmt.Stringer.
func (f nameFilter) String() string { return fmt.Sprintf("Name(%q)", string(f)) }

type typeFilter compute.DeviceType

// Type selects devices of the given type. compute.DeviceTypeAll selects devices of any type.
func Type(t compute.DeviceType) Filter { return typeFilter(t) }

// TypeFromString selects devices by a type given as a string: the first of "CPU", "GPU" or "ACCELERATOR"
// contained in s is used. If none is contained, devices of any type are selected.
func TypeFromString(s string) Filter { return typeFilter(parseType(s)) }

func parseType(s string) compute.DeviceType {
	switch {
	case strings.Contains(s, "CPU"):
		return compute.DeviceTypeCPU
	case strings.Contains(s, "GPU"):
		return compute.DeviceTypeGPU
	case strings.Contains(s, "ACCELERATOR"):
		return compute.DeviceTypeAccelerator
	default:
		return compute.DeviceTypeAll
	}
}

// Match implements Filter.
func (f typeFilter) Match(d compute.Device) bool {
	t := compute.DeviceType(f)
	return t == compute.DeviceTypeAll || d.Type() == t
}

// String implements fmt.Stringer.
func (f typeFilter) String() string { return fmt.Sprintf("Type(%s)", compute.DeviceType(f)) }

type doublePrecisionFilter struct{}

// DoublePrecision selects devices supporting double precision arithmetic, that is, whose extensions include
// one of DoublePrecisionExtensions.
var DoublePrecision Filter = doublePrecisionFilter{}

// Match implements Filter.
func (doublePrecisionFilter) Match(d compute.Device) bool {
	extensions := d.Extensions()
	for _, ext := range DoublePrecisionExtensions {
		if strings.Contains(extensions, ext) {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (doublePrecisionFilter) String() string { return "DoublePrecision" }
