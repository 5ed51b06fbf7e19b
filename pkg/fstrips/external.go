// Package fstrips implements a functional STRIPS planning engine.
// This file implements the registry of externally-defined predicates
// and functions. The registry is the engine's only process-wide state:
// the host populates it before search starts and it is read-only
// afterwards.
package fstrips

import (
	"fmt"
	"sync"
)

// ExternalPredicate is a native predicate evaluated during formula
// interpretation. It receives the current valuation and the interpreted
// argument values.
type ExternalPredicate func(val Valuation, args []Object) (bool, error)

// ExternalFunction is a native static function over interpreted
// argument values.
type ExternalFunction func(args []Object) (Object, error)

var externals = struct {
	mu    sync.RWMutex
	preds map[string]ExternalPredicate
	funcs map[string]ExternalFunction
}{
	preds: make(map[string]ExternalPredicate),
	funcs: make(map[string]ExternalFunction),
}

// RegisterExternalPredicate binds a name to a native predicate.
// Registration must happen before any search runs; re-registering a
// name is an error.
func RegisterExternalPredicate(name string, fn ExternalPredicate) error {
	externals.mu.Lock()
	defer externals.mu.Unlock()
	if _, dup := externals.preds[name]; dup {
		return fmt.Errorf("external predicate %q already registered", name)
	}
	externals.preds[name] = fn
	return nil
}

// RegisterExternalFunction binds a name to a native static function.
func RegisterExternalFunction(name string, fn ExternalFunction) error {
	externals.mu.Lock()
	defer externals.mu.Unlock()
	if _, dup := externals.funcs[name]; dup {
		return fmt.Errorf("external function %q already registered", name)
	}
	externals.funcs[name] = fn
	return nil
}

// ClearExternals empties the registry. Tests use it to isolate cases.
func ClearExternals() {
	externals.mu.Lock()
	defer externals.mu.Unlock()
	externals.preds = make(map[string]ExternalPredicate)
	externals.funcs = make(map[string]ExternalFunction)
}

func lookupExternalPredicate(name string) (ExternalPredicate, bool) {
	externals.mu.RLock()
	defer externals.mu.RUnlock()
	fn, ok := externals.preds[name]
	return fn, ok
}

func lookupExternalFunction(name string) (ExternalFunction, bool) {
	externals.mu.RLock()
	defer externals.mu.RUnlock()
	fn, ok := externals.funcs[name]
	return fn, ok
}
