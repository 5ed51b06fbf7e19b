// Constraint model for the applicability CSP. Variables carry an
// ordered list of concrete integer values; the solver works on bitset
// domains over positions into that list, so every propagator translates
// between values and positions through the owning variable.
package fstrips

import (
	"fmt"
	"sort"
)

// CspVar is a finite-domain integer variable. Its value list is sorted
// ascending and fixed at creation; narrowing happens on the solver side
// through position sets.
type CspVar struct {
	id     int
	name   string
	values []int
	index  map[int]int
}

// ID returns the variable's index in its model.
func (v *CspVar) ID() int { return v.id }

// Name returns the diagnostic name.
func (v *CspVar) Name() string { return v.name }

// Values returns the ordered value list. Callers must not modify it.
func (v *CspVar) Values() []int { return v.values }

// Size returns the number of values in the initial domain.
func (v *CspVar) Size() int { return len(v.values) }

// PosOf maps a value to its position, reporting whether it exists.
func (v *CspVar) PosOf(value int) (int, bool) {
	p, ok := v.index[value]
	return p, ok
}

// ValueAt maps a position back to its value.
func (v *CspVar) ValueAt(pos int) int { return v.values[pos] }

func (v *CspVar) String() string {
	return fmt.Sprintf("%s#%d", v.name, v.id)
}

// CspConstraint narrows variable domains. Propagate must either return
// a state at least as narrow as the input or an error wrapping
// ErrCspInconsistent when some domain empties.
type CspConstraint interface {
	// Vars lists the constrained variables.
	Vars() []*CspVar
	// Propagate narrows domains in the given state.
	Propagate(sv *CspSolver, st *cspState) (*cspState, error)
	String() string
}

// CspModel owns the variables and constraints of one CSP instance.
type CspModel struct {
	vars        []*CspVar
	constraints []CspConstraint
}

// NewCspModel returns an empty model.
func NewCspModel() *CspModel {
	return &CspModel{}
}

// NewIntVar adds a variable over an explicit value set. Values are
// deduplicated and sorted ascending.
func (m *CspModel) NewIntVar(name string, values []int) (*CspVar, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("csp variable %q: empty domain", name)
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	dedup := sorted[:1]
	for _, v := range sorted[1:] {
		if v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	v := &CspVar{
		id:     len(m.vars),
		name:   name,
		values: dedup,
		index:  make(map[int]int, len(dedup)),
	}
	for i, val := range dedup {
		v.index[val] = i
	}
	m.vars = append(m.vars, v)
	return v, nil
}

// NewIntVarRange adds a variable over the inclusive range [lb, ub].
func (m *CspModel) NewIntVarRange(name string, lb, ub int) (*CspVar, error) {
	if lb > ub {
		return nil, fmt.Errorf("csp variable %q: empty range [%d, %d]", name, lb, ub)
	}
	values := make([]int, 0, ub-lb+1)
	for v := lb; v <= ub; v++ {
		values = append(values, v)
	}
	return m.NewIntVar(name, values)
}

// AddConstraint posts a constraint on the model.
func (m *CspModel) AddConstraint(c CspConstraint) {
	m.constraints = append(m.constraints, c)
}

// VarCount returns the number of variables.
func (m *CspModel) VarCount() int { return len(m.vars) }

// Var returns the variable with the given id.
func (m *CspModel) Var(id int) *CspVar { return m.vars[id] }

// Constraints returns the posted constraints.
func (m *CspModel) Constraints() []CspConstraint { return m.constraints }
