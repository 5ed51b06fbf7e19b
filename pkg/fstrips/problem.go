// Package fstrips implements a functional STRIPS planning engine.
// This file defines Problem, the loaded planning instance the engine
// consumes: language, state-variable index, initial state, schemas,
// goal and optional state constraint. Problems are immutable during
// search and safe to share by read.
package fstrips

import "fmt"

// Problem is a fully loaded planning instance.
type Problem struct {
	Lang       *Language
	Index      *VariableIndex
	Init       *State
	Schemas    []*ActionSchema
	Goal       *Formula
	Constraint *Formula // nil when the problem declares none

	interp *Interpreter
	ground []*GroundAction
}

// NewProblem assembles and validates a problem. The goal and constraint
// formulas are normalised by binding with an empty binding, which
// resolves ground fluent applications to state-variable reads and
// enables the flat-conjunction fast path.
func NewProblem(lang *Language, idx *VariableIndex, init *State, schemas []*ActionSchema, goal, constraint *Formula) (*Problem, error) {
	if goal == nil {
		return nil, fmt.Errorf("problem needs a goal formula")
	}
	if init == nil || init.Len() != idx.Count() {
		return nil, fmt.Errorf("initial state covers %d variables, want %d", stateLen(init), idx.Count())
	}
	in := NewInterpreter(lang, idx)
	empty := NewBinding(0)
	goal, err := in.BindFormula(goal, empty)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	if constraint != nil {
		constraint, err = in.BindFormula(constraint, empty)
		if err != nil {
			return nil, fmt.Errorf("state constraint: %w", err)
		}
		if constraint.Kind == FormTrue {
			constraint = nil
		}
	}
	p := &Problem{
		Lang:       lang,
		Index:      idx,
		Init:       init,
		Schemas:    schemas,
		Goal:       goal,
		Constraint: constraint,
		interp:     in,
	}
	if err := p.checkInit(); err != nil {
		return nil, err
	}
	return p, nil
}

func stateLen(s *State) int {
	if s == nil {
		return 0
	}
	return s.Len()
}

// checkInit verifies that the initial state is total and well-typed:
// every variable holds a value whose type is a subtype of the declared
// one.
func (p *Problem) checkInit() error {
	for _, vd := range p.Index.Variables() {
		o := p.Init.Get(vd.ID)
		if !o.IsValid() {
			return fmt.Errorf("initial state leaves %s unassigned", p.Index.Name(vd.ID))
		}
		if !p.Lang.Contains(vd.Type, o) {
			return fmt.Errorf("initial value of %s lies outside its declared type", p.Index.Name(vd.ID))
		}
	}
	return nil
}

// Interpreter returns the shared interpreter over this problem's
// language and index.
func (p *Problem) Interpreter() *Interpreter { return p.interp }

// GoalSatisfied interprets the goal formula in a state.
func (p *Problem) GoalSatisfied(s *State) (bool, error) {
	return p.interp.Formula(p.Goal, s, nil)
}

// ConstraintSatisfied interprets the state constraint in a state; a
// problem without one accepts every state.
func (p *Problem) ConstraintSatisfied(s *State) (bool, error) {
	if p.Constraint == nil {
		return true, nil
	}
	return p.interp.Formula(p.Constraint, s, nil)
}

// GroundActions returns the fully grounded action set, or nil when the
// problem has only been prepared for lifted search.
func (p *Problem) GroundActions() []*GroundAction { return p.ground }

// setGroundActions installs the grounder's output.
func (p *Problem) setGroundActions(actions []*GroundAction) { p.ground = actions }

// GroundAction resolves a dense action id.
func (p *Problem) GroundAction(id ActionID) *GroundAction {
	if id < 0 || int(id) >= len(p.ground) {
		return nil
	}
	return p.ground[id]
}
