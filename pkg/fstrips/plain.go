// Plain operators: the compiled ground-state fast path. A ground action
// whose precondition is a conjunction of ground equality atoms and
// whose effects are unconditional constant assignments lowers to flat
// (variable, value) lists, cutting the interpreter out of the expansion
// loop entirely.
package fstrips

import (
	"fmt"
)

// PlainOperator is one compiled ground action.
type PlainOperator struct {
	ID   ActionID
	Name string
	Pre  []Atom
	Effs []Atom
}

// Applicable checks the flat precondition against a state.
func (op *PlainOperator) Applicable(s *State) bool {
	for _, a := range op.Pre {
		if !s.Get(a.Var).Equal(a.Value) {
			return false
		}
	}
	return true
}

// Apply returns the successor state.
func (op *PlainOperator) Apply(s *State) *State {
	return s.Successor(op.Effs)
}

// CompilePlain lowers every ground action of the problem. It fails with
// an error wrapping ErrUntranslatable when some action needs the
// interpreter: a non-flat precondition, a conditional effect, or a
// non-constant right-hand side.
func CompilePlain(prob *Problem) ([]PlainOperator, error) {
	actions := prob.GroundActions()
	if actions == nil {
		return nil, fmt.Errorf("problem has no ground actions; run the grounder first")
	}
	ops := make([]PlainOperator, len(actions))
	for i, ga := range actions {
		op, err := compileAction(ga)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func compileAction(ga *GroundAction) (PlainOperator, error) {
	op := PlainOperator{ID: ga.ID, Name: ga.Name()}
	switch ga.Precondition.Kind {
	case FormTrue:
	case FormFalse:
		// Grounding prunes these; a manually built action still compiles,
		// to an operator with an unsatisfiable precondition.
		op.Pre = []Atom{{Var: InvalidVar, Value: MakeBool(true)}}
	default:
		flat := ga.Precondition.FlatAtoms()
		if flat == nil {
			return op, fmt.Errorf("action %s: precondition is not a flat conjunction: %w", ga.Name(), ErrUntranslatable)
		}
		op.Pre = flat
	}
	for _, e := range ga.Effects {
		if e.Condition != nil {
			return op, fmt.Errorf("action %s: conditional effect: %w", ga.Name(), ErrUntranslatable)
		}
		if e.Lhs.Kind != TermStateVar {
			return op, fmt.Errorf("action %s: effect target is not ground: %w", ga.Name(), ErrUntranslatable)
		}
		atom := Atom{Var: e.Lhs.SV}
		switch e.Kind {
		case EffAdd:
			atom.Value = MakeBool(true)
		case EffDelete:
			atom.Value = MakeBool(false)
		default:
			if e.Rhs.Kind != TermConstant {
				return op, fmt.Errorf("action %s: effect value is not constant: %w", ga.Name(), ErrUntranslatable)
			}
			atom.Value = e.Rhs.Val
		}
		op.Effs = append(op.Effs, atom)
	}
	return op, nil
}
