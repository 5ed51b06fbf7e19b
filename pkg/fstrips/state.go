// Package fstrips implements a functional STRIPS planning engine.
// This file implements the state store: a fixed-length dense valuation
// of every declared state variable, with value hashing and batched
// effect accumulation.
package fstrips

import "strings"

// Valuation is the read surface interpretation works against: a total
// State or a partial assignment. The second result is false when the
// variable has no value, which interpretation surfaces as
// ErrUnassignedVariable.
type Valuation interface {
	Value(v VarID) (Object, bool)
}

// State is a total valuation of the state variables. States are value
// types from the search's point of view: successor generation clones
// and accumulates rather than mutating a shared instance. A State is
// not safe for concurrent mutation.
type State struct {
	values []Object
	hash   uint64
	hashed bool
}

// NewState creates a State over n variables, every slot initially the
// invalid Object. The initial-state loader must assign all of them.
func NewState(n int) *State {
	return &State{values: make([]Object, n)}
}

// NewStateFrom creates a State holding the given values. The slice is
// taken over by the State.
func NewStateFrom(values []Object) *State {
	return &State{values: values}
}

// Len returns the number of state variables.
func (s *State) Len() int { return len(s.values) }

// Value implements Valuation. States are total, so the second result is
// false only for out-of-range ids.
func (s *State) Value(v VarID) (Object, bool) {
	if v < 0 || int(v) >= len(s.values) {
		return Object{}, false
	}
	return s.values[v], true
}

// Get returns the value of a variable. Out-of-range ids return the
// invalid Object.
func (s *State) Get(v VarID) Object {
	if v < 0 || int(v) >= len(s.values) {
		return Object{}
	}
	return s.values[v]
}

// Set assigns a variable in place and invalidates the cached hash.
func (s *State) Set(v VarID, o Object) {
	if v < 0 || int(v) >= len(s.values) {
		return
	}
	s.values[v] = o
	s.hashed = false
}

// Accumulate applies a batch of atoms in order. When the batch assigns
// the same variable more than once the last write wins, so callers must
// preserve the effect order declared by the schema.
func (s *State) Accumulate(atoms []Atom) {
	for _, a := range atoms {
		if a.Var >= 0 && int(a.Var) < len(s.values) {
			s.values[a.Var] = a.Value
		}
	}
	s.hashed = false
}

// Clone returns an independent copy with the same values and hash.
func (s *State) Clone() *State {
	return &State{
		values: append([]Object(nil), s.values...),
		hash:   s.hash,
		hashed: s.hashed,
	}
}

// Successor clones the state and accumulates the batch into the copy.
func (s *State) Successor(atoms []Atom) *State {
	child := s.Clone()
	child.Accumulate(atoms)
	return child
}

// Hash returns the value hash of the state. The hash is cached until
// the next mutation; clones carry the cache over, so Hash agrees across
// Clone as equality does.
func (s *State) Hash() uint64 {
	if !s.hashed {
		h := uint64(fnvOffset64)
		for _, o := range s.values {
			h = o.hash(h)
		}
		s.hash = h
		s.hashed = true
	}
	return s.hash
}

// Equal reports value equality.
func (s *State) Equal(other *State) bool {
	if other == nil || len(s.values) != len(other.values) {
		return false
	}
	for i, o := range s.values {
		if !o.Equal(other.values[i]) {
			return false
		}
	}
	return true
}

// String renders the full valuation; intended for small test problems.
func (s *State) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, o := range s.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o.String())
	}
	b.WriteByte(']')
	return b.String()
}

// PartialAssignment is a sparse valuation used while interpreting under
// incomplete information, such as inside the lifted-CSP translator.
type PartialAssignment struct {
	values map[VarID]Object
}

// NewPartialAssignment creates an empty partial assignment.
func NewPartialAssignment() *PartialAssignment {
	return &PartialAssignment{values: make(map[VarID]Object)}
}

// Assign sets the value of a variable.
func (p *PartialAssignment) Assign(v VarID, o Object) { p.values[v] = o }

// Value implements Valuation.
func (p *PartialAssignment) Value(v VarID) (Object, bool) {
	o, ok := p.values[v]
	return o, ok
}
