// Package memory implements a simulated compute backend, whose platforms and devices are described by a
// Config (usually loaded from YAML).
//
// Work enqueued in its queues runs on goroutines, and Queue.Finish waits for it. Device failures can be
// injected with DeviceConfig.FailContext and DeviceConfig.FailQueue.
//
// Importing the package registers the backend under the name "memory": it reads its configuration
// from the file named by VEXCL_MEMORY_CONFIG, or uses DefaultConfig if it is not set.
package memory

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// BackendName is the name under which the backend is registered.
	BackendName = "memory"

	// ConfigEnv is the environment variable with the path to the YAML configuration of the registered backend.
	ConfigEnv = "VEXCL_MEMORY_CONFIG"
)

func init() {
	compute.Register(BackendName, func() (compute.Backend, error) {
		cfg := DefaultConfig()
		if path, found := os.LookupEnv(ConfigEnv); found && path != "" {
			var err error
			cfg, err = LoadConfig(path)
			if err != nil {
				return nil, err
			}
		}
		return New(cfg)
	})
}

// Stats counts the runtime objects created and released by a Backend.
type Stats struct {
	ContextsCreated, ContextsReleased int
	QueuesCreated, QueuesReleased     int
}

// Backend implements compute.Backend with simulated devices.
type Backend struct {
	name      string
	platforms []*Platform

	mu    sync.Mutex
	stats Stats
}

var _ compute.Backend = &Backend{}

// New creates a Backend for the given configuration.
func New(cfg *Config) (*Backend, error) {
	return NewNamed(BackendName, cfg)
}

// NewNamed creates a Backend with a custom name, used as prefix of the device IDs.
func NewNamed(name string, cfg *Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Backend{name: name}
	for pIdx, pCfg := range cfg.Platforms {
		p := &Platform{backend: b, config: pCfg}
		for dIdx, dCfg := range pCfg.Devices {
			devType, _ := parseDeviceType(dCfg.Type)
			vendor := dCfg.Vendor
			if vendor == "" {
				vendor = pCfg.Vendor
			}
			p.devices = append(p.devices, &Device{
				platform: p,
				id:       fmt.Sprintf("%s:%d:%d", name, pIdx, dIdx),
				vendor:   vendor,
				devType:  devType,
				config:   dCfg,
			})
		}
		b.platforms = append(b.platforms, p)
	}
	return b, nil
}

// Name implements compute.Backend.
func (b *Backend) Name() string { return b.name }

// Platforms implements compute.Backend.
func (b *Backend) Platforms() ([]compute.Platform, error) {
	platforms := make([]compute.Platform, len(b.platforms))
	for ii, p := range b.platforms {
		platforms[ii] = p
	}
	return platforms, nil
}

// Stats returns a snapshot of the objects created and released so far.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// NewContext implements compute.Backend.
func (b *Backend) NewContext(devices ...compute.Device) (compute.Context, error) {
	if len(devices) == 0 {
		return nil, compute.RuntimeErrorf(b.name, "NewContext", "no devices given")
	}
	ctx := &Context{backend: b}
	for _, d := range devices {
		device, ok := d.(*Device)
		if !ok || device.platform.backend != b {
			return nil, compute.RuntimeErrorf(b.name, "NewContext", "device %q doesn't belong to backend %q", d.Name(), b.name)
		}
		if device.config.FailContext {
			return nil, compute.RuntimeErrorf(b.name, "NewContext", "simulated failure creating context for device %q", device.Name())
		}
		ctx.devices = append(ctx.devices, device)
	}
	b.mu.Lock()
	b.stats.ContextsCreated++
	b.mu.Unlock()
	klog.V(2).Infof("memory backend %q: created context with %d device(s)", b.name, len(ctx.devices))
	return ctx, nil
}

// Platform implements compute.Platform.
type Platform struct {
	backend *Backend
	config  PlatformConfig
	devices []*Device
}

// Name implements compute.Platform.
func (p *Platform) Name() string { return p.config.Name }

// Vendor implements compute.Platform.
func (p *Platform) Vendor() string { return p.config.Vendor }

// Version implements compute.Platform.
func (p *Platform) Version() string { return p.config.Version }

// Devices implements compute.Platform.
func (p *Platform) Devices() ([]compute.Device, error) {
	devices := make([]compute.Device, len(p.devices))
	for ii, d := range p.devices {
		devices[ii] = d
	}
	return devices, nil
}

// Device implements compute.Device.
type Device struct {
	platform *Platform
	id       string
	vendor   string
	devType  compute.DeviceType
	config   DeviceConfig
}

// ID implements compute.Device.
func (d *Device) ID() string { return d.id }

// Name implements compute.Device.
func (d *Device) Name() string { return d.config.Name }

// Vendor implements compute.Device.
func (d *Device) Vendor() string { return d.vendor }

// Platform implements compute.Device.
func (d *Device) Platform() compute.Platform { return d.platform }

// Type implements compute.Device.
func (d *Device) Type() compute.DeviceType { return d.devType }

// Extensions implements compute.Device.
func (d *Device) Extensions() string { return d.config.Extensions }

// Available implements compute.Device.
func (d *Device) Available() bool { return !d.config.Unavailable }

// String implements fmt.Stringer.
func (d *Device) String() string { return fmt.Sprintf("%s (%s)", d.Name(), d.platform.Name()) }

// Context implements compute.Context.
type Context struct {
	backend  *Backend
	devices  []*Device
	released bool
}

// Devices implements compute.Context.
func (c *Context) Devices() []compute.Device {
	devices := make([]compute.Device, len(c.devices))
	for ii, d := range c.devices {
		devices[ii] = d
	}
	return devices
}

// NewQueue implements compute.Context.
func (c *Context) NewQueue(d compute.Device, properties compute.QueueProperties) (compute.Queue, error) {
	if c.released {
		return nil, compute.RuntimeErrorf(c.backend.name, "NewQueue", "context already released")
	}
	device, ok := d.(*Device)
	if !ok || !slices.Contains(c.devices, device) {
		return nil, compute.RuntimeErrorf(c.backend.name, "NewQueue", "device %q is not part of the context", d.Name())
	}
	if device.config.FailQueue {
		return nil, compute.RuntimeErrorf(c.backend.name, "NewQueue", "simulated failure creating queue for device %q", device.Name())
	}
	c.backend.mu.Lock()
	c.backend.stats.QueuesCreated++
	c.backend.mu.Unlock()
	return &Queue{context: c, device: device, properties: properties}, nil
}

// Release implements compute.Context.
func (c *Context) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	c.backend.mu.Lock()
	c.backend.stats.ContextsReleased++
	c.backend.mu.Unlock()
	return nil
}

// Queue implements compute.Queue. Work is submitted with Enqueue.
type Queue struct {
	context    *Context
	device     *Device
	properties compute.QueueProperties

	pending sync.WaitGroup

	mu sync.Mutex
	// tail is closed when the last work item submitted to an in-order queue completes.
	tail     chan struct{}
	done     int
	released bool
}

// Context implements compute.Queue.
func (q *Queue) Context() compute.Context { return q.context }

// Device implements compute.Queue.
func (q *Queue) Device() compute.Device { return q.device }

// Properties implements compute.Queue.
func (q *Queue) Properties() compute.QueueProperties { return q.properties }

// Enqueue submits work to the queue and returns immediately. Unless the queue was created with
// compute.QueueOutOfOrderExecution, work items run one at a time in submission order.
func (q *Queue) Enqueue(work func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.released {
		return errors.New("memory.Queue.Enqueue: queue already released")
	}
	q.pending.Add(1)
	if q.properties.Has(compute.QueueOutOfOrderExecution) {
		go q.run(work)
		return nil
	}
	prev := q.tail
	finished := make(chan struct{})
	q.tail = finished
	go func() {
		defer close(finished)
		if prev != nil {
			<-prev
		}
		q.run(work)
	}()
	return nil
}

func (q *Queue) run(work func()) {
	defer q.pending.Done()
	work()
	q.mu.Lock()
	q.done++
	q.mu.Unlock()
}

// Completed returns the number of work items completed so far.
func (q *Queue) Completed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// Finish implements compute.Queue.
func (q *Queue) Finish() error {
	q.pending.Wait()
	return nil
}

// Release implements compute.Queue. It waits for pending work first.
func (q *Queue) Release() error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return nil
	}
	q.released = true
	q.mu.Unlock()
	q.pending.Wait()
	b := q.context.backend
	b.mu.Lock()
	b.stats.QueuesReleased++
	b.mu.Unlock()
	return nil
}
