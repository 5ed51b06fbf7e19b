// Package fstrips implements a functional STRIPS planning engine.
// This file defines Binding, the sparse map from bound-variable ids to
// values used by the interpreter and by grounding.
package fstrips

import (
	"fmt"
	"strings"
)

// Binding maps bound-variable ids to Objects. Ids are small dense
// integers local to one schema or quantifier scope, so the mapping is a
// pair of parallel slices rather than a map.
type Binding struct {
	values []Object
	set    []bool
}

// NewBinding creates an empty binding over ids [0, size).
func NewBinding(size int) *Binding {
	return &Binding{values: make([]Object, size), set: make([]bool, size)}
}

// Size returns the number of variable slots.
func (b *Binding) Size() int { return len(b.values) }

// Bound reports whether the id has a value.
func (b *Binding) Bound(id int) bool {
	return b != nil && id >= 0 && id < len(b.set) && b.set[id]
}

// Value returns the Object bound to id; the second result is false when
// the id is unbound.
func (b *Binding) Value(id int) (Object, bool) {
	if !b.Bound(id) {
		return Object{}, false
	}
	return b.values[id], true
}

// Set binds id to o, growing the binding if id is beyond its size.
func (b *Binding) Set(id int, o Object) {
	for id >= len(b.values) {
		b.values = append(b.values, Object{})
		b.set = append(b.set, false)
	}
	b.values[id] = o
	b.set[id] = true
}

// Unset removes the value bound to id.
func (b *Binding) Unset(id int) {
	if id >= 0 && id < len(b.set) {
		b.set[id] = false
		b.values[id] = Object{}
	}
}

// Clone returns an independent copy. Quantifier interpretation clones
// the binding at each recursion level so sibling branches cannot
// interfere.
func (b *Binding) Clone() *Binding {
	if b == nil {
		return nil
	}
	return &Binding{
		values: append([]Object(nil), b.values...),
		set:    append([]bool(nil), b.set...),
	}
}

// Full reports whether every slot is bound.
func (b *Binding) Full() bool {
	for _, s := range b.set {
		if !s {
			return false
		}
	}
	return true
}

// String renders the binding for diagnostics.
func (b *Binding) String() string {
	if b == nil {
		return "{}"
	}
	parts := make([]string, 0, len(b.values))
	for i, s := range b.set {
		if s {
			parts = append(parts, fmt.Sprintf("%d=%s", i, b.values[i]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
