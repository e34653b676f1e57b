package filter

import (
	"os"
	"strconv"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Environment variables read by ParseEnv and Env.
const (
	// PlatformEnv selects devices whose platform name contains its value.
	PlatformEnv = "OCL_PLATFORM"

	// VendorEnv selects devices whose vendor name contains its value.
	VendorEnv = "OCL_VENDOR"

	// DeviceEnv selects devices whose name contains its value.
	DeviceEnv = "OCL_DEVICE"

	// TypeEnv selects devices by type, see TypeFromString.
	TypeEnv = "OCL_TYPE"

	// MaxDevicesEnv limits the number of selected devices, see Count.
	MaxDevicesEnv = "OCL_MAX_DEVICES"

	// PositionEnv selects the single device at the given position, see Position.
	PositionEnv = "OCL_POSITION"
)

// ParseEnv returns a filter built from the environment variables PlatformEnv, VendorEnv, DeviceEnv, TypeEnv,
// MaxDevicesEnv and PositionEnv, in this order, combined with And. Variables not set are ignored, so with an
// empty environment it selects all devices.
//
// It returns an error if OCL_MAX_DEVICES or OCL_POSITION are not integers.
func ParseEnv() (Filter, error) {
	f := All
	if value, found := os.LookupEnv(PlatformEnv); found {
		f = And(f, Platform(value))
	}
	if value, found := os.LookupEnv(VendorEnv); found {
		f = And(f, Vendor(value))
	}
	if value, found := os.LookupEnv(DeviceEnv); found {
		f = And(f, Name(value))
	}
	if value, found := os.LookupEnv(TypeEnv); found {
		f = And(f, TypeFromString(value))
	}
	if value, found := os.LookupEnv(MaxDevicesEnv); found {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for $%s", MaxDevicesEnv)
		}
		f = And(f, Count(n))
	}
	if value, found := os.LookupEnv(PositionEnv); found {
		p, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for $%s", PositionEnv)
		}
		f = And(f, Position(p))
	}
	return f, nil
}

// Env is like ParseEnv, but panics if the environment holds malformed integers.
func Env() Filter {
	f, err := ParseEnv()
	if err != nil {
		exceptions.Panicf("filter.Env(): %+v", err)
	}
	return f
}
