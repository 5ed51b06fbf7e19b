// Package fstrips implements a functional STRIPS planning engine.
// This file defines action effects: functional assignments and atomic
// add/delete updates, each optionally guarded by a condition formula.
package fstrips

import "fmt"

// EffectKind tags the effect variants.
type EffectKind uint8

const (
	// EffFunctional assigns lhs := rhs.
	EffFunctional EffectKind = iota
	// EffAdd sets a boolean fluent to true.
	EffAdd
	// EffDelete sets a boolean fluent to false.
	EffDelete
)

// Effect is one state update of an action. Lhs must be a fluent-headed
// term or a resolved state variable; Rhs is nil for the atomic kinds.
// A nil Condition means the effect always fires.
type Effect struct {
	Kind      EffectKind
	Lhs       *Term
	Rhs       *Term
	Condition *Formula
}

// NewFunctionalEffect builds lhs := rhs guarded by cond (nil for
// unconditional).
func NewFunctionalEffect(lhs, rhs *Term, cond *Formula) (*Effect, error) {
	if err := checkLhs(lhs); err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, fmt.Errorf("functional effect needs a right-hand side")
	}
	return &Effect{Kind: EffFunctional, Lhs: lhs, Rhs: rhs, Condition: cond}, nil
}

// NewAddEffect builds an atomic add of a boolean fluent.
func NewAddEffect(lhs *Term, cond *Formula) (*Effect, error) {
	if err := checkLhs(lhs); err != nil {
		return nil, err
	}
	return &Effect{Kind: EffAdd, Lhs: lhs, Condition: cond}, nil
}

// NewDeleteEffect builds an atomic delete of a boolean fluent.
func NewDeleteEffect(lhs *Term, cond *Formula) (*Effect, error) {
	if err := checkLhs(lhs); err != nil {
		return nil, err
	}
	return &Effect{Kind: EffDelete, Lhs: lhs, Condition: cond}, nil
}

func checkLhs(lhs *Term) error {
	if lhs == nil {
		return fmt.Errorf("effect needs a left-hand side")
	}
	if lhs.Kind != TermFluentApp && lhs.Kind != TermStateVar {
		return fmt.Errorf("effect left-hand side must be fluent-headed, got kind %d", lhs.Kind)
	}
	return nil
}

// Clone returns a deep copy of the effect.
func (e *Effect) Clone() *Effect {
	if e == nil {
		return nil
	}
	return &Effect{
		Kind:      e.Kind,
		Lhs:       e.Lhs.Clone(),
		Rhs:       e.Rhs.Clone(),
		Condition: e.Condition.Clone(),
	}
}

// Bind substitutes a binding into the effect, folding the condition
// where it becomes constant. An unconditionally false condition still
// yields an effect; the applicability manager skips it at run time.
func (e *Effect) Bind(in *Interpreter, b *Binding) (*Effect, error) {
	lhs, err := in.BindTerm(e.Lhs, b)
	if err != nil {
		return nil, err
	}
	var rhs *Term
	if e.Rhs != nil {
		rhs, err = in.BindTerm(e.Rhs, b)
		if err != nil {
			return nil, err
		}
	}
	var cond *Formula
	if e.Condition != nil {
		cond, err = in.BindFormula(e.Condition, b)
		if err != nil {
			return nil, err
		}
		if cond.Kind == FormTrue {
			cond = nil
		}
	}
	return &Effect{Kind: e.Kind, Lhs: lhs, Rhs: rhs, Condition: cond}, nil
}

// Render formats the effect for boundary output.
func (e *Effect) Render(lang *Language, idx *VariableIndex) string {
	var body string
	switch e.Kind {
	case EffFunctional:
		body = fmt.Sprintf("%s := %s", RenderTerm(lang, idx, e.Lhs), RenderTerm(lang, idx, e.Rhs))
	case EffAdd:
		body = "add " + RenderTerm(lang, idx, e.Lhs)
	case EffDelete:
		body = "del " + RenderTerm(lang, idx, e.Lhs)
	}
	if e.Condition != nil {
		return fmt.Sprintf("when %s: %s", RenderFormula(lang, idx, e.Condition), body)
	}
	return body
}
