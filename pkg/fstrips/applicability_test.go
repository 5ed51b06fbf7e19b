package fstrips

import (
	"errors"
	"testing"
)

// Applicable follows the precondition; Successor returns (nil, nil)
// for inapplicable actions instead of an error.
func TestApplicability_Basic(t *testing.T) {
	prob := switchProblem(t, 2)
	groundAll(t, prob)
	appl := NewApplicability(prob)
	flip1 := actionNamed(t, prob, "flip(s1)")

	ok, err := appl.Applicable(prob.Init, flip1)
	if err != nil {
		t.Fatalf("Applicable: %v", err)
	}
	if !ok {
		t.Fatalf("flip(s1) should apply in the initial state")
	}

	child, err := appl.Successor(prob.Init, flip1)
	if err != nil {
		t.Fatalf("Successor: %v", err)
	}
	if child == nil {
		t.Fatalf("Successor = nil for an applicable action")
	}

	// Flipping the same switch again fails the precondition.
	again, err := appl.Successor(child, flip1)
	if err != nil {
		t.Fatalf("Successor twice: %v", err)
	}
	if again != nil {
		t.Fatalf("flip(s1) applied twice")
	}
}

// Conditional effects fire only when their condition holds, so toggle
// inverts in both directions.
func TestApplicability_ConditionalEffects(t *testing.T) {
	prob := toggleProblem(t)
	groundAll(t, prob)
	appl := NewApplicability(prob)
	toggle := prob.GroundActions()[0]

	atoms, err := appl.Effects(prob.Init, toggle)
	if err != nil {
		t.Fatalf("Effects: %v", err)
	}
	if len(atoms) != 1 || !atoms[0].Value.Truthy() {
		t.Fatalf("toggle from false = %v, want one add", atoms)
	}

	on := prob.Init.Successor(atoms)
	atoms, err = appl.Effects(on, toggle)
	if err != nil {
		t.Fatalf("Effects from true: %v", err)
	}
	if len(atoms) != 1 || atoms[0].Value.Truthy() {
		t.Fatalf("toggle from true = %v, want one delete", atoms)
	}
}

// A successor that violates the state constraint is discarded.
func TestApplicability_ConstraintGatesSuccessor(t *testing.T) {
	// Two switches, but the constraint forbids both on at once.
	lang := NewLanguage()
	sw := mustType(t)(lang.AddObjectType("switch", TypeObject))
	s1 := mustObj(t)(lang.AddObject("s1", sw))
	s2 := mustObj(t)(lang.AddObject("s2", sw))
	on := mustSym(t)(lang.AddSymbol("on", []TypeID{sw}, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	s := BoundVar{ID: 0, Name: "s", Type: sw}
	onS := func() *Term {
		return mustTerm(t)(NewFluentApp(lang, on, []*Term{NewVariable(lang, s)}))
	}
	flip := mustSchema(t)(NewActionSchema("flip",
		[]TypeID{sw}, []string{"s"},
		NewAtom(RelEQ, onS(), NewConstant(lang, MakeBool(false))),
		[]*Effect{mustEffect(t)(NewAddEffect(onS(), nil))}))

	both := NewAnd(
		predTrue(t, lang, on, NewConstant(lang, s1)),
		predTrue(t, lang, on, NewConstant(lang, s2)),
	)
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{flip},
		predTrue(t, lang, on, NewConstant(lang, s1)), NewNot(both))
	groundAll(t, prob)
	appl := NewApplicability(prob)

	mid, err := appl.Successor(prob.Init, actionNamed(t, prob, "flip(s1)"))
	if err != nil || mid == nil {
		t.Fatalf("flip(s1) from initial: %v, %v", mid, err)
	}
	blocked, err := appl.Successor(mid, actionNamed(t, prob, "flip(s2)"))
	if err != nil {
		t.Fatalf("flip(s2): %v", err)
	}
	if blocked != nil {
		t.Fatalf("constraint-violating successor survived")
	}
}

// Ill-typed effect values are fatal, not silently inapplicable.
func TestApplicability_TypeMismatchFatal(t *testing.T) {
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	pApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, p, nil)) }
	// Assigning the integer 3 to a boolean variable.
	bad := mustSchema(t)(NewActionSchema("bad", nil, nil, nil,
		[]*Effect{mustEffect(t)(NewFunctionalEffect(pApp(), NewConstant(lang, MakeInt(3)), nil))}))
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{bad},
		NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true))), nil)
	groundAll(t, prob)
	appl := NewApplicability(prob)

	_, err = appl.Successor(prob.Init, prob.GroundActions()[0])
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("Successor error = %v, want TypeMismatchError", err)
	}
}

// Integer writes that overflow the variable's bounded range fail
// benignly: the action is inapplicable there, not an engine error.
func TestApplicability_RangeOverflowBenign(t *testing.T) {
	lang := NewLanguage()
	lvl := mustType(t)(lang.AddIntType("lvl", 0, 1))
	f := mustSym(t)(lang.AddSymbol("f", nil, lvl, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	fApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, f, nil)) }
	bump := mustSchema(t)(NewActionSchema("bump", nil, nil, nil,
		[]*Effect{mustEffect(t)(NewFunctionalEffect(fApp(),
			mustTerm(t)(NewArith(lang, OpAdd, fApp(), NewConstant(lang, MakeInt(1)))), nil))}))

	init := NewState(idx.Count())
	init.Set(0, MakeInt(0))
	prob := newProblem(t, lang, idx, init, []*ActionSchema{bump},
		NewAtom(RelEQ, fApp(), NewConstant(lang, MakeInt(1))), nil)
	groundAll(t, prob)
	appl := NewApplicability(prob)

	one, err := appl.Successor(prob.Init, prob.GroundActions()[0])
	if err != nil || one == nil {
		t.Fatalf("first bump: %v, %v", one, err)
	}
	over, err := appl.Successor(one, prob.GroundActions()[0])
	if err != nil {
		t.Fatalf("overflowing bump errored: %v", err)
	}
	if over != nil {
		t.Fatalf("overflowing bump produced a state")
	}
}

// Effect order within one action is the schema declaration order, so a
// later write to the same variable wins.
func TestApplicability_EffectOrder(t *testing.T) {
	lang := NewLanguage()
	lvl := mustType(t)(lang.AddIntType("lvl", 0, 9))
	f := mustSym(t)(lang.AddSymbol("f", nil, lvl, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	fApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, f, nil)) }
	twice := mustSchema(t)(NewActionSchema("twice", nil, nil, nil,
		[]*Effect{
			mustEffect(t)(NewFunctionalEffect(fApp(), NewConstant(lang, MakeInt(1)), nil)),
			mustEffect(t)(NewFunctionalEffect(fApp(), NewConstant(lang, MakeInt(2)), nil)),
		}))

	init := NewState(idx.Count())
	init.Set(0, MakeInt(0))
	prob := newProblem(t, lang, idx, init, []*ActionSchema{twice},
		NewAtom(RelEQ, fApp(), NewConstant(lang, MakeInt(2))), nil)
	groundAll(t, prob)
	appl := NewApplicability(prob)

	child, err := appl.Successor(prob.Init, prob.GroundActions()[0])
	if err != nil || child == nil {
		t.Fatalf("Successor: %v, %v", child, err)
	}
	if got := child.Get(0); got.Code() != 2 {
		t.Fatalf("f = %v after twice, want 2", got)
	}
}
