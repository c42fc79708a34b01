// Package experimental holds extension points that sit outside the
// guarantees of the public api package: hooks a host may opt into, but
// that the core compiler and runtime do not depend on.
package experimental

import (
	"context"

	"github.com/wasmforge/wasmforge/api"
)

// FunctionListenerFactoryKey is a context.Context Value key. Its
// associated value should be a FunctionListenerFactory.
type FunctionListenerFactoryKey struct{}

// FunctionListenerFactory returns FunctionListeners to be notified when a
// function is called.
type FunctionListenerFactory interface {
	// NewListener returns a FunctionListener for a defined function. If nil
	// is returned, no listener will be notified.
	NewListener(api.FunctionDefinition) FunctionListener
}

// FunctionListener can be registered for any function via
// FunctionListenerFactory to be notified when the function is called.
type FunctionListener interface {
	// Before is invoked before a function is called. The returned context
	// is used as the context of this function call.
	Before(ctx context.Context, def api.FunctionDefinition, paramValues []uint64) context.Context

	// After is invoked after a function is called.
	After(ctx context.Context, def api.FunctionDefinition, err error, resultValues []uint64)
}
