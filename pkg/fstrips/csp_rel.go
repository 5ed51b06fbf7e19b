// Relational propagators for the applicability CSP: the six comparison
// operators between two variables or between a variable and a constant.
// Comparisons are over values, so propagation maps bounds through each
// variable's sorted value list before touching the position sets.
package fstrips

import (
	"fmt"
	"sort"
)

// relBinary propagates x op y with bounds consistency for the ordered
// operators and value intersection for equality.
type relBinary struct {
	op RelOp
	x  *CspVar
	y  *CspVar
}

// NewRelConstraint posts x op y.
func NewRelConstraint(op RelOp, x, y *CspVar) CspConstraint {
	return &relBinary{op: op, x: x, y: y}
}

func (c *relBinary) Vars() []*CspVar { return []*CspVar{c.x, c.y} }

func (c *relBinary) String() string {
	return fmt.Sprintf("%s %s %s", c.x, c.op, c.y)
}

func (c *relBinary) Propagate(sv *CspSolver, st *cspState) (*cspState, error) {
	dx := sv.domain(st, c.x.id)
	dy := sv.domain(st, c.y.id)
	if dx.IsEmpty() || dy.IsEmpty() {
		return nil, fmt.Errorf("constraint %s: %w", c, ErrCspInconsistent)
	}
	switch c.op {
	case RelEQ:
		kept := intersectValues(c.x, dx, c.y, dy)
		st, err := sv.narrowTo(st, c.x, kept)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", c, err)
		}
		st, err = sv.narrowTo(st, c.y, kept)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", c, err)
		}
		return st, nil
	case RelNEQ:
		if dx.IsSingleton() {
			v := c.x.ValueAt(dx.SingletonPos())
			var err error
			st, err = sv.removeValue(st, c.y, v)
			if err != nil {
				return nil, fmt.Errorf("constraint %s: %w", c, err)
			}
			dy = sv.domain(st, c.y.id)
		}
		if dy.IsSingleton() {
			v := c.y.ValueAt(dy.SingletonPos())
			var err error
			st, err = sv.removeValue(st, c.x, v)
			if err != nil {
				return nil, fmt.Errorf("constraint %s: %w", c, err)
			}
		}
		return st, nil
	case RelLT:
		return c.bounds(sv, st, dx, dy, true)
	case RelLEQ:
		return c.bounds(sv, st, dx, dy, false)
	case RelGT:
		flip := &relBinary{op: RelLT, x: c.y, y: c.x}
		return flip.bounds(sv, st, dy, dx, true)
	case RelGEQ:
		flip := &relBinary{op: RelLEQ, x: c.y, y: c.x}
		return flip.bounds(sv, st, dy, dx, false)
	}
	return nil, fmt.Errorf("constraint %s: unknown operator", c)
}

// bounds enforces x < y (strict) or x <= y over values.
func (c *relBinary) bounds(sv *CspSolver, st *cspState, dx, dy *Bitset, strict bool) (*cspState, error) {
	maxY := c.y.ValueAt(dy.Max())
	minX := c.x.ValueAt(dx.Min())
	limX, limY := maxY, minX
	if strict {
		limX--
		limY++
	}
	st, err := sv.keepAtMostValue(st, c.x, limX)
	if err != nil {
		return nil, fmt.Errorf("constraint %s: %w", c, err)
	}
	st, err = sv.keepAtLeastValue(st, c.y, limY)
	if err != nil {
		return nil, fmt.Errorf("constraint %s: %w", c, err)
	}
	return st, nil
}

// relConst propagates x op c for a constant c.
type relConst struct {
	op RelOp
	x  *CspVar
	c  int
}

// NewRelConstConstraint posts x op c.
func NewRelConstConstraint(op RelOp, x *CspVar, c int) CspConstraint {
	return &relConst{op: op, x: x, c: c}
}

func (r *relConst) Vars() []*CspVar { return []*CspVar{r.x} }

func (r *relConst) String() string {
	return fmt.Sprintf("%s %s %d", r.x, r.op, r.c)
}

func (r *relConst) Propagate(sv *CspSolver, st *cspState) (*cspState, error) {
	var err error
	switch r.op {
	case RelEQ:
		st, err = sv.narrowTo(st, r.x, []int{r.c})
	case RelNEQ:
		st, err = sv.removeValue(st, r.x, r.c)
	case RelLT:
		st, err = sv.keepAtMostValue(st, r.x, r.c-1)
	case RelLEQ:
		st, err = sv.keepAtMostValue(st, r.x, r.c)
	case RelGT:
		st, err = sv.keepAtLeastValue(st, r.x, r.c+1)
	case RelGEQ:
		st, err = sv.keepAtLeastValue(st, r.x, r.c)
	default:
		return nil, fmt.Errorf("constraint %s: unknown operator", r)
	}
	if err != nil {
		return nil, fmt.Errorf("constraint %s: %w", r, err)
	}
	return st, nil
}

// intersectValues returns the sorted values live in both domains.
func intersectValues(x *CspVar, dx *Bitset, y *CspVar, dy *Bitset) []int {
	var kept []int
	dx.Iterate(func(p int) {
		v := x.ValueAt(p)
		if q, ok := y.PosOf(v); ok && dy.Has(q) {
			kept = append(kept, v)
		}
	})
	return kept
}

// cutAtMost returns the last position of x whose value is <= limit,
// or -1 when every value exceeds it.
func cutAtMost(x *CspVar, limit int) int {
	return sort.SearchInts(x.values, limit+1) - 1
}

// cutAtLeast returns the first position of x whose value is >= limit,
// or len(values) when every value is below it.
func cutAtLeast(x *CspVar, limit int) int {
	return sort.SearchInts(x.values, limit)
}
