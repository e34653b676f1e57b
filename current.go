package vexcl

import (
	"sync"

	"github.com/gomlx/exceptions"
)

var (
	// currentContext is the last Context created or set. Protected by muCurrent.
	currentContext *Context
	muCurrent      sync.RWMutex
)

// SetCurrentContext makes ctx the current context. The last one set wins.
//
// It is called automatically when a Context is created.
func SetCurrentContext(ctx *Context) {
	muCurrent.Lock()
	defer muCurrent.Unlock()
	currentContext = ctx
}

// CurrentContext returns the current context: the last Context created or set with SetCurrentContext.
//
// It panics if there is none.
func CurrentContext() *Context {
	ctx, found := LookupCurrentContext()
	if !found {
		exceptions.Panicf("vexcl.CurrentContext(): no current context, create one with vexcl.NewContext() first")
	}
	return ctx
}

// LookupCurrentContext returns the current context, if there is one.
func LookupCurrentContext() (ctx *Context, found bool) {
	muCurrent.RLock()
	defer muCurrent.RUnlock()
	return currentContext, currentContext != nil
}

// ClearCurrentContext unsets the current context.
func ClearCurrentContext() {
	SetCurrentContext(nil)
}

// clearCurrentContextIf unsets the current context if it is ctx.
func clearCurrentContextIf(ctx *Context) {
	muCurrent.Lock()
	defer muCurrent.Unlock()
	if currentContext == ctx {
		currentContext = nil
	}
}
