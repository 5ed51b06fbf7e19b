// Extensional table constraint with generalized arc consistency. The
// lifted applicability layer posts one table per fluent atom and per
// arithmetic subterm, then swaps the rows with SetRows when the search
// moves to a new planning state, so posting and refreshing are cheap
// relative to propagation.
package fstrips

import (
	"fmt"
)

// TableConstraint restricts a tuple of variables to an explicit list of
// allowed value rows.
type TableConstraint struct {
	vars []*CspVar
	rows [][]int
}

// NewTableConstraint posts rows over vars. Every row must match the
// variable count.
func NewTableConstraint(vars []*CspVar, rows [][]int) (*TableConstraint, error) {
	t := &TableConstraint{vars: vars}
	if err := t.SetRows(rows); err != nil {
		return nil, err
	}
	return t, nil
}

// SetRows replaces the allowed rows. The constraint keeps the slice;
// callers hand over ownership.
func (t *TableConstraint) SetRows(rows [][]int) error {
	for i, row := range rows {
		if len(row) != len(t.vars) {
			return fmt.Errorf("table row %d: got %d values, want %d", i, len(row), len(t.vars))
		}
	}
	t.rows = rows
	return nil
}

// Rows returns the current allowed rows.
func (t *TableConstraint) Rows() [][]int { return t.rows }

func (t *TableConstraint) Vars() []*CspVar { return t.vars }

func (t *TableConstraint) String() string {
	return fmt.Sprintf("table(%d vars, %d rows)", len(t.vars), len(t.rows))
}

// Propagate enforces generalized arc consistency: each variable keeps
// exactly the positions supported by some row compatible with every
// other variable's current domain.
func (t *TableConstraint) Propagate(sv *CspSolver, st *cspState) (*cspState, error) {
	doms := make([]*Bitset, len(t.vars))
	for i, v := range t.vars {
		doms[i] = sv.domain(st, v.id)
	}
	supported := make([]*Bitset, len(t.vars))
	for i, v := range t.vars {
		supported[i] = NewBitsetOf(v.Size(), nil)
	}
	live := false
rows:
	for _, row := range t.rows {
		positions := make([]int, len(row))
		for i, value := range row {
			p, ok := t.vars[i].PosOf(value)
			if !ok || !doms[i].Has(p) {
				continue rows
			}
			positions[i] = p
		}
		live = true
		for i, p := range positions {
			supported[i].words[p/64] |= 1 << uint(p%64)
		}
	}
	if !live {
		return nil, fmt.Errorf("constraint %s: %w", t, ErrCspInconsistent)
	}
	for i, v := range t.vars {
		var err error
		st, err = sv.narrowPositions(st, v, supported[i])
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", t, err)
		}
	}
	return st, nil
}
