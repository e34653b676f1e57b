package vexcl

import (
	"github.com/dmcdougall/vexcl/compute"
	"github.com/dmcdougall/vexcl/filter"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Context holds the compute contexts and command queues of the devices used by a program.
//
// Contexts and queues are aligned: Queue(i) was created on Context(i), and runs on Device(i).
// A Context is created with NewContext(...).Done() or NewContextFromQueues, and both register it as the
// current context (see CurrentContext).
type Context struct {
	contexts []compute.Context
	queues   Queues
}

// ContextConfig is created with NewContext, and is a "builder pattern" to configure the creation of a Context.
//
// Once finished call ContextConfig.Done to create the Context.
type ContextConfig struct {
	filter     filter.Filter
	backend    compute.Backend
	properties compute.QueueProperties
	used       bool
}

// NewContext returns a configuration for a Context with one queue for each device selected by f.
// A nil filter selects all available devices.
//
// Optionally, configure it further with the With... methods, and then call ContextConfig.Done to create the
// Context.
func NewContext(f filter.Filter) *ContextConfig {
	return &ContextConfig{filter: f}
}

// WithBackend sets the backend whose devices are used. The default is compute.Default().
//
// It returns itself (ContextConfig) to allow cascading configuration calls.
func (cfg *ContextConfig) WithBackend(backend compute.Backend) *ContextConfig {
	cfg.backend = backend
	return cfg
}

// WithQueueProperties sets the properties of the created command queues.
//
// It returns itself (ContextConfig) to allow cascading configuration calls.
func (cfg *ContextConfig) WithQueueProperties(properties compute.QueueProperties) *ContextConfig {
	cfg.properties = properties
	return cfg
}

// Done creates one context and one queue for each selected device (see QueueListOn), and registers the new
// Context as the current one.
//
// A Context with no devices is valid, unless the build tag "vexcl_strict" is set, in which case Done panics.
// A ContextConfig can only be used once.
func (cfg *ContextConfig) Done() (*Context, error) {
	if cfg.used {
		return nil, errors.New("vexcl.ContextConfig used more than once, which is not supported -- call vexcl.NewContext() again")
	}
	cfg.used = true

	backend := cfg.backend
	if backend == nil {
		var err error
		backend, err = compute.Default()
		if err != nil {
			return nil, err
		}
	}
	contexts, queues, err := QueueListOn(backend, cfg.filter, cfg.properties)
	if err != nil {
		return nil, err
	}
	if len(queues) == 0 && strictEmptyContext {
		exceptions.Panicf("no compute devices found")
	}
	ctx := &Context{contexts: contexts, queues: queues}
	klog.V(1).Infof("vexcl: created context with %d device(s) on backend %q", ctx.Size(), backend.Name())
	SetCurrentContext(ctx)
	return ctx, nil
}

// ContextQueue pairs a command queue with the context it was created on.
type ContextQueue struct {
	Context compute.Context
	Queue   compute.Queue
}

// NewContextFromQueues creates a Context from queues created elsewhere, keeping their order, and registers it
// as the current one.
//
// The Context doesn't take ownership of them, but Context.Release will release them if called.
func NewContextFromQueues(pairs ...ContextQueue) *Context {
	ctx := &Context{
		contexts: make([]compute.Context, len(pairs)),
		queues:   make(Queues, len(pairs)),
	}
	for ii, pair := range pairs {
		ctx.contexts[ii] = pair.Context
		ctx.queues[ii] = pair.Queue
	}
	SetCurrentContext(ctx)
	return ctx
}

// Size returns the number of devices (and queues) in the Context.
func (ctx *Context) Size() int { return len(ctx.queues) }

// Empty returns whether the Context has no devices.
func (ctx *Context) Empty() bool { return len(ctx.queues) == 0 }

// Context returns the compute context of the i-th device. It panics if i is out of range.
func (ctx *Context) Context(i int) compute.Context { return ctx.contexts[i] }

// Contexts returns the compute contexts of all devices.
func (ctx *Context) Contexts() []compute.Context {
	return append([]compute.Context(nil), ctx.contexts...)
}

// Queue returns the command queue of the i-th device. It panics if i is out of range.
func (ctx *Context) Queue(i int) compute.Queue { return ctx.queues[i] }

// Queues returns the command queues of all devices.
func (ctx *Context) Queues() Queues {
	return append(Queues(nil), ctx.queues...)
}

// Device returns the i-th device. It panics if i is out of range.
func (ctx *Context) Device(i int) compute.Device { return ctx.queues[i].Device() }

// Finish blocks until all the work submitted to the queues is completed.
//
// All queues are finished, even if some fail: the first error is returned and the others are logged.
func (ctx *Context) Finish() error {
	var firstErr error
	for ii, queue := range ctx.queues {
		if err := queue.Finish(); err != nil {
			err = errors.WithMessagef(err, "failed to finish queue #%d (device %q)", ii, queue.Device().Name())
			if firstErr == nil {
				firstErr = err
			} else {
				klog.Errorf("vexcl: %v", err)
			}
		}
	}
	return firstErr
}

// Release releases all queues and then all contexts. If ctx is the current context, the current context is
// cleared. The Context is empty afterward.
//
// The first error is returned and the others are logged.
func (ctx *Context) Release() error {
	clearCurrentContextIf(ctx)
	var firstErr error
	report := func(err error) {
		if firstErr == nil {
			firstErr = err
		} else {
			klog.Errorf("vexcl: %v", err)
		}
	}
	for ii, queue := range ctx.queues {
		if err := queue.Release(); err != nil {
			report(errors.WithMessagef(err, "failed to release queue #%d", ii))
		}
	}
	for ii, c := range ctx.contexts {
		if c == nil {
			continue
		}
		if err := c.Release(); err != nil {
			report(errors.WithMessagef(err, "failed to release context #%d", ii))
		}
	}
	ctx.contexts, ctx.queues = nil, nil
	return firstErr
}

// String renders the devices of the Context, one per line. See Queues.String.
func (ctx *Context) String() string { return ctx.queues.String() }
