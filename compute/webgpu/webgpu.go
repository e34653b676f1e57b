// Package webgpu implements a compute backend on top of WebGPU (wgpu-native), using
// github.com/openfluke/webgpu.
//
// WebGPU adapters are grouped into platforms by their WebGPU backend type (Vulkan, Metal, D3D12, ...).
// A compute context is a WebGPU device requested from the adapter, and the command queue is the device's
// queue. Only single-device contexts are supported.
//
// Importing the package registers the backend under the name "webgpu".
package webgpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/openfluke/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BackendName is the name under which the backend is registered.
const BackendName = "webgpu"

func init() {
	compute.Register(BackendName, func() (compute.Backend, error) { return New() })
}

// Backend implements compute.Backend over a WebGPU instance.
type Backend struct {
	instance *wgpu.Instance

	enumerateOnce sync.Once
	platforms     []*Platform
}

var _ compute.Backend = &Backend{}

// New creates a WebGPU instance and a Backend using it.
func New() (*Backend, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, compute.RuntimeErrorf(BackendName, "CreateInstance", "wgpu.CreateInstance returned nil")
	}
	return &Backend{instance: instance}, nil
}

// Name implements compute.Backend.
func (b *Backend) Name() string { return BackendName }

// Platforms implements compute.Backend. Adapters are enumerated only once, and their order is preserved.
func (b *Backend) Platforms() ([]compute.Platform, error) {
	b.enumerateOnce.Do(b.enumerate)
	platforms := make([]compute.Platform, len(b.platforms))
	for ii, p := range b.platforms {
		platforms[ii] = p
	}
	return platforms, nil
}

func (b *Backend) enumerate() {
	byBackendType := make(map[string]*Platform)
	for adapterIdx, adapter := range b.instance.EnumerateAdapters(nil) {
		info := adapter.GetInfo()
		backendType := info.BackendType.String()
		p, found := byBackendType[backendType]
		if !found {
			p = &Platform{name: "WebGPU " + backendType}
			byBackendType[backendType] = p
			b.platforms = append(b.platforms, p)
		}
		d := &Device{
			platform:   p,
			adapter:    adapter,
			id:         fmt.Sprintf("%s:%d", BackendName, adapterIdx),
			name:       strings.TrimSpace(info.Name),
			vendor:     strings.TrimSpace(info.VendorName),
			devType:    adapterDeviceType(info.AdapterType.String()),
			extensions: adapterExtensions(adapter.EnumerateFeatures()),
		}
		if d.vendor == "" {
			d.vendor = fmt.Sprintf("0x%04x", info.VendorId)
		}
		klog.V(1).Infof("webgpu: adapter #%d %q (vendor %q, type %s, backend %s)", adapterIdx, d.name, d.vendor, d.devType, backendType)
		p.devices = append(p.devices, d)
	}
}

// adapterDeviceType maps the WebGPU adapter type (DiscreteGPU, IntegratedGPU, VirtualGPU, CPU, Unknown) to a
// compute.DeviceType.
func adapterDeviceType(adapterType string) compute.DeviceType {
	upper := strings.ToUpper(adapterType)
	switch {
	case strings.Contains(upper, "CPU"):
		return compute.DeviceTypeCPU
	case strings.Contains(upper, "GPU"):
		return compute.DeviceTypeGPU
	default:
		return compute.DeviceTypeOther
	}
}

// adapterExtensions lists the adapter features, and adds the OpenCL "cl_khr_fp64" extension name if the adapter
// supports 64-bit floats in shaders.
func adapterExtensions(features []wgpu.FeatureName) string {
	names := make([]string, 0, len(features)+1)
	var fp64 bool
	for _, f := range features {
		name := f.String()
		if strings.Contains(strings.ToUpper(name), "F64") {
			fp64 = true
		}
		names = append(names, name)
	}
	if fp64 {
		names = append(names, "cl_khr_fp64")
	}
	return strings.Join(names, " ")
}

// NewContext implements compute.Backend. It requests a WebGPU device from the adapter.
func (b *Backend) NewContext(devices ...compute.Device) (compute.Context, error) {
	if len(devices) != 1 {
		return nil, compute.RuntimeErrorf(BackendName, "NewContext", "only single device contexts are supported, %d devices given", len(devices))
	}
	d, ok := devices[0].(*Device)
	if !ok {
		return nil, compute.RuntimeErrorf(BackendName, "NewContext", "device %q is not a WebGPU device", devices[0].Name())
	}
	wgpuDevice, err := d.adapter.RequestDevice(&wgpu.DeviceDescriptor{})
	if err != nil {
		return nil, compute.WrapRuntimeError(BackendName, "NewContext", errors.Wrapf(err, "RequestDevice failed for adapter %q", d.name))
	}
	if wgpuDevice == nil {
		return nil, compute.RuntimeErrorf(BackendName, "NewContext", "RequestDevice returned nil for adapter %q", d.name)
	}
	return &Context{device: d, wgpuDevice: wgpuDevice}, nil
}

// Platform groups the adapters of one WebGPU backend type.
type Platform struct {
	name    string
	devices []*Device
}

// Name implements compute.Platform.
func (p *Platform) Name() string { return p.name }

// Vendor implements compute.Platform.
func (p *Platform) Vendor() string { return "wgpu" }

// Version implements compute.Platform.
func (p *Platform) Version() string { return "" }

// Devices implements compute.Platform.
func (p *Platform) Devices() ([]compute.Device, error) {
	devices := make([]compute.Device, len(p.devices))
	for ii, d := range p.devices {
		devices[ii] = d
	}
	return devices, nil
}

// Device is a WebGPU adapter.
type Device struct {
	platform   *Platform
	adapter    *wgpu.Adapter
	id         string
	name       string
	vendor     string
	devType    compute.DeviceType
	extensions string
}

// ID implements compute.Device.
func (d *Device) ID() string { return d.id }

// Name implements compute.Device.
func (d *Device) Name() string { return d.name }

// Vendor implements compute.Device.
func (d *Device) Vendor() string { return d.vendor }

// Platform implements compute.Device.
func (d *Device) Platform() compute.Platform { return d.platform }

// Type implements compute.Device.
func (d *Device) Type() compute.DeviceType { return d.devType }

// Extensions implements compute.Device.
func (d *Device) Extensions() string { return d.extensions }

// Available implements compute.Device. Enumerated adapters are always available.
func (d *Device) Available() bool { return true }

// Context owns the WebGPU device requested from the adapter.
type Context struct {
	device     *Device
	wgpuDevice *wgpu.Device
}

// WGPUDevice returns the underlying WebGPU device, to be used to allocate buffers and pipelines.
func (c *Context) WGPUDevice() *wgpu.Device { return c.wgpuDevice }

// Devices implements compute.Context.
func (c *Context) Devices() []compute.Device { return []compute.Device{c.device} }

// NewQueue implements compute.Context. WebGPU queues always execute in order, so
// compute.QueueOutOfOrderExecution is not supported.
func (c *Context) NewQueue(device compute.Device, properties compute.QueueProperties) (compute.Queue, error) {
	if c.wgpuDevice == nil {
		return nil, compute.RuntimeErrorf(BackendName, "NewQueue", "context already released")
	}
	if device != compute.Device(c.device) {
		return nil, compute.RuntimeErrorf(BackendName, "NewQueue", "device %q is not part of the context", device.Name())
	}
	if properties.Has(compute.QueueOutOfOrderExecution) {
		return nil, compute.RuntimeErrorf(BackendName, "NewQueue", "WebGPU queues don't support %s", compute.QueueOutOfOrderExecution)
	}
	wgpuQueue := c.wgpuDevice.GetQueue()
	if wgpuQueue == nil {
		return nil, compute.RuntimeErrorf(BackendName, "NewQueue", "GetQueue returned nil for adapter %q", c.device.name)
	}
	return &Queue{context: c, queue: wgpuQueue, properties: properties}, nil
}

// Release implements compute.Context.
func (c *Context) Release() error {
	if c.wgpuDevice == nil {
		return nil
	}
	c.wgpuDevice.Release()
	c.wgpuDevice = nil
	return nil
}

// Queue wraps the queue of a WebGPU device.
type Queue struct {
	context    *Context
	queue      *wgpu.Queue
	properties compute.QueueProperties
}

// WGPUQueue returns the underlying WebGPU queue, to be used to submit command buffers.
func (q *Queue) WGPUQueue() *wgpu.Queue { return q.queue }

// Context implements compute.Queue.
func (q *Queue) Context() compute.Context { return q.context }

// Device implements compute.Queue.
func (q *Queue) Device() compute.Device { return q.context.device }

// Properties implements compute.Queue.
func (q *Queue) Properties() compute.QueueProperties { return q.properties }

// Finish implements compute.Queue: it polls the device until all submitted work is done.
func (q *Queue) Finish() error {
	if q.queue == nil || q.context.wgpuDevice == nil {
		return errors.New("webgpu.Queue.Finish: queue or its context already released")
	}
	q.context.wgpuDevice.Poll(true, nil)
	return nil
}

// Release implements compute.Queue.
func (q *Queue) Release() error {
	if q.queue == nil {
		return nil
	}
	q.queue.Release()
	q.queue = nil
	return nil
}
