// Package vexcl selects the compute devices a program runs on, and groups command queues on them into an
// execution Context.
//
// Devices are chosen with filters (see package filter), combined with the filter derived from the
// environment (filter.Env) as needed:
//
//	ctx, err := vexcl.NewContext(filter.And(filter.Env(), filter.DoublePrecision)).Done()
//	if err != nil { ... }
//	defer ctx.Release()
//	fmt.Print(ctx)  // 1. Rocket 9000 (ACME OpenCL)
//
// Creating a Context registers it as the process-wide current context, returned by CurrentContext.
//
// The devices come from a compute.Backend: by default compute.Default(), which requires a backend package
// to be imported, e.g.:
//
//	import _ "github.com/dmcdougall/vexcl/compute/webgpu"
//
// If the build tag "vexcl_strict" is set, creating a Context that has no devices panics.
package vexcl
