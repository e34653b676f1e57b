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

// Package compute defines the vendor-neutral view of a heterogeneous compute runtime used by vexcl:
// backends expose platforms, platforms expose devices, and devices can be grouped into contexts
// from which command queues are created.
//
// Concrete runtimes live in sub-packages (see compute/webgpu and compute/memory) and register themselves
// with Register, usually from an init() function, so importing them is enough to make them available:
//
//	import _ "github.com/dmcdougall/vexcl/compute/webgpu"
package compute

// Backend is a loaded compute runtime.
//
// Platforms must be returned in a stable order: the index of a platform (and the index of a device within its
// platform) is used to identify the physical device across processes -- see filter.LockRegistry.
type Backend interface {
	// Name of the backend, as used with Register and GetBackend.
	Name() string

	// Platforms lists all platforms exposed by the runtime.
	Platforms() ([]Platform, error)

	// NewContext creates a compute context associating the given devices.
	NewContext(devices ...Device) (Context, error)
}

// Platform groups devices provided by one vendor implementation (driver) of the runtime.
type Platform interface {
	Name() string
	Vendor() string
	Version() string

	// Devices lists all devices of the platform, available or not.
	Devices() ([]Device, error)
}

// Device is a read-only reference to a compute device owned by the runtime.
type Device interface {
	// ID is an opaque identity of the device, unique within its Backend.
	ID() string

	Name() string
	Vendor() string
	Platform() Platform
	Type() DeviceType

	// Extensions returns the space separated list of extensions supported by the device, using the
	// OpenCL vocabulary (e.g. "cl_khr_fp64").
	Extensions() string

	// Available reports whether the device can currently be used.
	Available() bool
}

// Context is a runtime level grouping of devices used to allocate resources and create queues.
type Context interface {
	Devices() []Device

	// NewQueue creates a command queue on one of the devices of the context.
	NewQueue(device Device, properties QueueProperties) (Queue, error)

	// Release the context. It is no longer valid afterward.
	Release() error
}

// Queue is an ordered submission channel of work to one device.
type Queue interface {
	Context() Context
	Device() Device
	Properties() QueueProperties

	// Finish blocks the calling goroutine until all work enqueued so far is completed.
	Finish() error

	// Release the queue. It is no longer valid afterward.
	Release() error
}
