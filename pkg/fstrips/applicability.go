// Package fstrips implements a functional STRIPS planning engine.
// This file implements the applicability and effect manager: deciding
// whether a ground action applies in a state and computing the atom
// updates of its successor.
package fstrips

import "fmt"

// Applicability answers (state, ground action) questions for the search
// drivers. Interpretation failures other than type mismatches are
// treated as "not applicable"; type mismatches are engine bugs or bad
// input and propagate.
type Applicability struct {
	prob *Problem
}

// NewApplicability creates the manager for a problem.
func NewApplicability(p *Problem) *Applicability {
	return &Applicability{prob: p}
}

// Applicable interprets the action precondition in the state. The state
// constraint is not part of this check; it gates successors instead.
func (am *Applicability) Applicable(s *State, a *GroundAction) (bool, error) {
	ok, err := am.prob.interp.Formula(a.Precondition, s, nil)
	if err != nil {
		if fatalInterpretation(err) {
			return false, err
		}
		return false, nil
	}
	return ok, nil
}

// Effects computes the atom updates the action produces in the state:
// one atom per fired effect, in schema-declared order. The caller
// decides whether to allocate a fresh state or reuse a buffer.
func (am *Applicability) Effects(s *State, a *GroundAction) ([]Atom, error) {
	atoms := make([]Atom, 0, len(a.Effects))
	for i, e := range a.Effects {
		if e.Condition != nil {
			fire, err := am.prob.interp.Formula(e.Condition, s, nil)
			if err != nil {
				return nil, fmt.Errorf("effect %d of %s: %w", i, a.Name(), err)
			}
			if !fire {
				continue
			}
		}
		atom, err := am.effectAtom(s, a, e)
		if err != nil {
			return nil, fmt.Errorf("effect %d of %s: %w", i, a.Name(), err)
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}

// effectAtom evaluates one fired effect to its (variable, value) pair
// and checks the value against the variable's declared type.
func (am *Applicability) effectAtom(s *State, a *GroundAction, e *Effect) (Atom, error) {
	v, err := am.resolveLhs(s, e.Lhs)
	if err != nil {
		return Atom{}, err
	}
	var value Object
	switch e.Kind {
	case EffFunctional:
		value, err = am.prob.interp.Term(e.Rhs, s, nil)
		if err != nil {
			return Atom{}, err
		}
	case EffAdd:
		value = MakeBool(true)
	case EffDelete:
		value = MakeBool(false)
	}
	want := am.prob.Index.VarType(v)
	lang := am.prob.Lang
	if value.Kind() != lang.ValueKind(want) || (value.Kind() == ObjID && !lang.Contains(want, value)) {
		return Atom{}, &TypeMismatchError{
			Context: fmt.Sprintf("assignment to %s", am.prob.Index.Name(v)),
			Want:    lang.ValueKind(want),
			Got:     value.Kind(),
		}
	}
	if !lang.Contains(want, value) {
		// In-kind but out of range: benign, the action simply cannot
		// apply here.
		return Atom{}, fmt.Errorf("assignment to %s: %s outside the declared range", am.prob.Index.Name(v), value)
	}
	return Atom{Var: v, Value: value}, nil
}

// resolveLhs turns an effect left-hand side into a state variable,
// interpreting nested subterms against the current state.
func (am *Applicability) resolveLhs(s *State, lhs *Term) (VarID, error) {
	switch lhs.Kind {
	case TermStateVar:
		return lhs.SV, nil
	case TermFluentApp:
		args := make([]Object, len(lhs.Sub))
		for i, sub := range lhs.Sub {
			a, err := am.prob.interp.Term(sub, s, nil)
			if err != nil {
				return InvalidVar, err
			}
			args[i] = a
		}
		return am.prob.Index.Resolve(lhs.Symbol, args)
	default:
		return InvalidVar, fmt.Errorf("effect left-hand side has kind %d", lhs.Kind)
	}
}

// Successor applies the action if possible. It returns (nil, nil) when
// the action is inapplicable, an effect fails benignly, or the
// successor violates the state constraint; a non-nil error is always
// fatal.
func (am *Applicability) Successor(s *State, a *GroundAction) (*State, error) {
	ok, err := am.Applicable(s, a)
	if err != nil || !ok {
		return nil, err
	}
	atoms, err := am.Effects(s, a)
	if err != nil {
		if fatalInterpretation(err) {
			return nil, err
		}
		return nil, nil
	}
	child := s.Successor(atoms)
	ok, err = am.prob.ConstraintSatisfied(child)
	if err != nil {
		if fatalInterpretation(err) {
			return nil, err
		}
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return child, nil
}
