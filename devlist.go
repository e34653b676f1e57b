package vexcl

import (
	"fmt"
	"strings"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/dmcdougall/vexcl/filter"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Devices is a list of selected compute devices.
type Devices []compute.Device

// String renders one device per line, numbered from 1: "<n>. <device name> (<platform name>)".
func (ds Devices) String() string {
	var sb strings.Builder
	for ii, d := range ds {
		writeDeviceLine(&sb, ii+1, d)
	}
	return sb.String()
}

// Queues is a list of command queues.
type Queues []compute.Queue

// String renders the device of each queue, one per line, numbered from 1: "<n>. <device name> (<platform name>)".
func (qs Queues) String() string {
	var sb strings.Builder
	for ii, q := range qs {
		writeDeviceLine(&sb, ii+1, q.Device())
	}
	return sb.String()
}

func writeDeviceLine(sb *strings.Builder, n int, d compute.Device) {
	_, _ = fmt.Fprintf(sb, "%d. %s (%s)\n", n, d.Name(), d.Platform().Name())
}

// DeviceList returns the available devices of the default backend (compute.Default) selected by f.
// A nil filter selects all available devices.
func DeviceList(f filter.Filter) (Devices, error) {
	backend, err := compute.Default()
	if err != nil {
		return nil, err
	}
	return DeviceListOn(backend, f)
}

// DeviceListOn returns the available devices of backend selected by f, in platform order, and then device order
// within each platform.
//
// f is evaluated exactly once for each available device, in the same order. Unavailable devices are skipped
// without evaluating f. A nil filter selects all available devices.
func DeviceListOn(backend compute.Backend, f filter.Filter) (Devices, error) {
	if f == nil {
		f = filter.All
	}
	platforms, err := backend.Platforms()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to list platforms of backend %q", backend.Name())
	}
	var selected Devices
	for _, platform := range platforms {
		devices, err := platform.Devices()
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to list devices of platform %q", platform.Name())
		}
		for _, device := range devices {
			if !device.Available() {
				klog.V(2).Infof("vexcl: skipping unavailable device %q", device.Name())
				continue
			}
			if f.Match(device) {
				selected = append(selected, device)
			}
		}
	}
	return selected, nil
}

// QueueList creates one context and one command queue for each device of the default backend (compute.Default)
// selected by f. See QueueListOn.
func QueueList(f filter.Filter, properties compute.QueueProperties) ([]compute.Context, Queues, error) {
	backend, err := compute.Default()
	if err != nil {
		return nil, nil, err
	}
	return QueueListOn(backend, f, properties)
}

// QueueListOn creates one context and one command queue, with the given properties, for each available device
// of backend selected by f. The returned slices are aligned: queue i belongs to context i.
//
// Devices are visited in the same order as DeviceListOn. Devices for which the context or the queue can't be
// created are skipped: they are logged (with klog.V(1)) but are not an error.
func QueueListOn(backend compute.Backend, f filter.Filter, properties compute.QueueProperties) (
	[]compute.Context, Queues, error) {
	if f == nil {
		f = filter.All
	}
	platforms, err := backend.Platforms()
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "failed to list platforms of backend %q", backend.Name())
	}
	var contexts []compute.Context
	var queues Queues
	for _, platform := range platforms {
		devices, err := platform.Devices()
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "failed to list devices of platform %q", platform.Name())
		}
		var selected []compute.Device
		for _, device := range devices {
			if device.Available() && f.Match(device) {
				selected = append(selected, device)
			}
		}
		if len(selected) == 0 {
			continue
		}
		for _, device := range selected {
			ctx, queue, err := newDeviceQueue(backend, device, properties)
			if err != nil {
				klog.V(1).Infof("vexcl: skipping device %q (%s): %v", device.Name(), platform.Name(), err)
				continue
			}
			contexts = append(contexts, ctx)
			queues = append(queues, queue)
		}
	}
	return contexts, queues, nil
}

// newDeviceQueue creates a context with only the given device, and a queue on it.
func newDeviceQueue(backend compute.Backend, device compute.Device, properties compute.QueueProperties) (
	compute.Context, compute.Queue, error) {
	ctx, err := backend.NewContext(device)
	if err != nil {
		return nil, nil, err
	}
	queue, err := ctx.NewQueue(device, properties)
	if err != nil {
		if releaseErr := ctx.Release(); releaseErr != nil {
			klog.Errorf("vexcl: failed to release context of device %q: %v", device.Name(), releaseErr)
		}
		return nil, nil, err
	}
	return ctx, queue, nil
}
