// Backtracking solver for the applicability CSP. Search states form a
// copy-on-write chain: each node records one variable's narrowed domain
// and points at its parent, so backtracking is pointer-cheap and
// sibling branches share everything they did not touch.
package fstrips

import (
	"context"
	"errors"
	"fmt"
)

// maxPropagationRounds bounds the fixpoint loop against propagators
// that oscillate instead of converging.
const maxPropagationRounds = 1000

// cspState is one link in the copy-on-write domain chain. A nil state
// is the root, where every variable holds its full initial domain.
type cspState struct {
	parent *cspState
	varID  int
	dom    *Bitset
	depth  int
}

// CspSolver enumerates solutions of a CspModel. A solver is not safe
// for concurrent use; the lifted applicability layer keeps one per
// schema and refreshes its tables between planning states.
type CspSolver struct {
	model *CspModel
	root  []*Bitset
}

// NewCspSolver prepares a solver over the model's current variables
// and constraints.
func NewCspSolver(model *CspModel) *CspSolver {
	root := make([]*Bitset, model.VarCount())
	for i := 0; i < model.VarCount(); i++ {
		root[i] = NewBitsetFull(model.Var(i).Size())
	}
	return &CspSolver{model: model, root: root}
}

// Model returns the underlying model.
func (s *CspSolver) Model() *CspModel { return s.model }

// domain resolves a variable's current domain by walking the chain,
// falling back to the initial domain at the root.
func (s *CspSolver) domain(st *cspState, id int) *Bitset {
	for cur := st; cur != nil; cur = cur.parent {
		if cur.varID == id {
			return cur.dom
		}
	}
	return s.root[id]
}

// setDomain records a narrowed domain in a fresh chain link.
func (s *CspSolver) setDomain(st *cspState, id int, dom *Bitset) *cspState {
	depth := 1
	if st != nil {
		depth = st.depth + 1
	}
	return &cspState{parent: st, varID: id, dom: dom, depth: depth}
}

// narrowPositions intersects a variable's domain with the kept
// positions, failing with ErrCspInconsistent when nothing remains.
func (s *CspSolver) narrowPositions(st *cspState, v *CspVar, keep *Bitset) (*cspState, error) {
	cur := s.domain(st, v.id)
	nd := cur.Intersect(keep)
	if nd.IsEmpty() {
		return nil, fmt.Errorf("%s: empty domain: %w", v, ErrCspInconsistent)
	}
	if nd.Equal(cur) {
		return st, nil
	}
	return s.setDomain(st, v.id, nd), nil
}

// narrowTo restricts a variable to the given values.
func (s *CspSolver) narrowTo(st *cspState, v *CspVar, values []int) (*cspState, error) {
	positions := make([]int, 0, len(values))
	for _, value := range values {
		if p, ok := v.PosOf(value); ok {
			positions = append(positions, p)
		}
	}
	return s.narrowPositions(st, v, NewBitsetOf(v.Size(), positions))
}

// removeValue drops a single value from a variable's domain.
func (s *CspSolver) removeValue(st *cspState, v *CspVar, value int) (*cspState, error) {
	p, ok := v.PosOf(value)
	if !ok {
		return st, nil
	}
	cur := s.domain(st, v.id)
	if !cur.Has(p) {
		return st, nil
	}
	nd := cur.Remove(p)
	if nd.IsEmpty() {
		return nil, fmt.Errorf("%s: empty domain: %w", v, ErrCspInconsistent)
	}
	return s.setDomain(st, v.id, nd), nil
}

// keepAtMostValue drops every value above the limit.
func (s *CspSolver) keepAtMostValue(st *cspState, v *CspVar, limit int) (*cspState, error) {
	cur := s.domain(st, v.id)
	nd := cur.KeepAtMost(cutAtMost(v, limit))
	if nd.IsEmpty() {
		return nil, fmt.Errorf("%s: empty domain: %w", v, ErrCspInconsistent)
	}
	if nd.Equal(cur) {
		return st, nil
	}
	return s.setDomain(st, v.id, nd), nil
}

// keepAtLeastValue drops every value below the limit.
func (s *CspSolver) keepAtLeastValue(st *cspState, v *CspVar, limit int) (*cspState, error) {
	cur := s.domain(st, v.id)
	nd := cur.KeepAtLeast(cutAtLeast(v, limit))
	if nd.IsEmpty() {
		return nil, fmt.Errorf("%s: empty domain: %w", v, ErrCspInconsistent)
	}
	if nd.Equal(cur) {
		return st, nil
	}
	return s.setDomain(st, v.id, nd), nil
}

// propagate runs every constraint to a common fixpoint. Propagators
// return the input state unchanged when they narrowed nothing, so a
// round with no fresh states is the fixpoint.
func (s *CspSolver) propagate(ctx context.Context, st *cspState) (*cspState, error) {
	for round := 0; round < maxPropagationRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := false
		for _, c := range s.model.constraints {
			next, err := c.Propagate(s, st)
			if err != nil {
				return nil, err
			}
			if next != st {
				changed = true
				st = next
			}
		}
		if !changed {
			return st, nil
		}
	}
	return nil, fmt.Errorf("propagation did not reach a fixpoint in %d rounds", maxPropagationRounds)
}

// firstUnbound returns the lowest-id variable with more than one value
// left, or nil when the state is a full assignment.
func (s *CspSolver) firstUnbound(st *cspState) *CspVar {
	for i := 0; i < s.model.VarCount(); i++ {
		if !s.domain(st, i).IsSingleton() {
			return s.model.Var(i)
		}
	}
	return nil
}

// solution reads the assigned value of every variable.
func (s *CspSolver) solution(st *cspState) []int {
	values := make([]int, s.model.VarCount())
	for i := range values {
		v := s.model.Var(i)
		values[i] = v.ValueAt(s.domain(st, i).SingletonPos())
	}
	return values
}

// SolveAll enumerates every solution in lexicographic order of the
// variable values (variables in id order, values ascending) and hands
// each to yield. Enumeration stops early when yield returns false.
func (s *CspSolver) SolveAll(ctx context.Context, yield func(values []int) bool) error {
	st, err := s.propagate(ctx, nil)
	if err != nil {
		if errors.Is(err, ErrCspInconsistent) {
			return nil
		}
		return err
	}

	type frame struct {
		st        *cspState
		v         *CspVar
		positions []int
		next      int
	}
	var stack []frame

	// open either records a solution or pushes a choice point for the
	// first unbound variable. It reports whether yield asked to stop.
	open := func(st *cspState) bool {
		v := s.firstUnbound(st)
		if v == nil {
			return !yield(s.solution(st))
		}
		dom := s.domain(st, v.id)
		positions := make([]int, 0, dom.Count())
		dom.Iterate(func(p int) { positions = append(positions, p) })
		stack = append(stack, frame{st: st, v: v, positions: positions})
		return false
	}

	if open(st) {
		return nil
	}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &stack[len(stack)-1]
		if f.next >= len(f.positions) {
			stack = stack[:len(stack)-1]
			continue
		}
		p := f.positions[f.next]
		f.next++
		child := s.setDomain(f.st, f.v.id, NewBitsetOf(f.v.Size(), []int{p}))
		child, err := s.propagate(ctx, child)
		if err != nil {
			if errors.Is(err, ErrCspInconsistent) {
				continue
			}
			return err
		}
		if open(child) {
			return nil
		}
	}
	return nil
}

// SolveFirst returns the lexicographically smallest solution, or an
// error wrapping ErrCspInconsistent when none exists.
func (s *CspSolver) SolveFirst(ctx context.Context) ([]int, error) {
	var out []int
	err := s.SolveAll(ctx, func(values []int) bool {
		out = append([]int(nil), values...)
		return false
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("csp has no solution: %w", ErrCspInconsistent)
	}
	return out, nil
}

// PropagateOnly runs root propagation without search and returns the
// smallest surviving value per variable. The returned assignment need
// not satisfy the constraints; callers in the approximate applicability
// mode re-check it against the planning state.
func (s *CspSolver) PropagateOnly(ctx context.Context) ([]int, error) {
	st, err := s.propagate(ctx, nil)
	if err != nil {
		return nil, err
	}
	values := make([]int, s.model.VarCount())
	for i := range values {
		v := s.model.Var(i)
		values[i] = v.ValueAt(s.domain(st, i).Min())
	}
	return values, nil
}
