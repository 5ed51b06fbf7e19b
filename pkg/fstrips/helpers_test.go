package fstrips

import (
	"context"
	"fmt"
	"testing"
)

// Fixture problems shared across the test files. Each builder fails
// the test on construction errors so the tests themselves stay about
// behavior.

func mustType(t testing.TB) func(TypeID, error) TypeID {
	return func(id TypeID, err error) TypeID {
		t.Helper()
		if err != nil {
			t.Fatalf("type: %v", err)
		}
		return id
	}
}

func mustObj(t testing.TB) func(Object, error) Object {
	return func(o Object, err error) Object {
		t.Helper()
		if err != nil {
			t.Fatalf("object: %v", err)
		}
		return o
	}
}

func mustSym(t testing.TB) func(SymbolID, error) SymbolID {
	return func(id SymbolID, err error) SymbolID {
		t.Helper()
		if err != nil {
			t.Fatalf("symbol: %v", err)
		}
		return id
	}
}

func mustTerm(t testing.TB) func(*Term, error) *Term {
	return func(tm *Term, err error) *Term {
		t.Helper()
		if err != nil {
			t.Fatalf("term: %v", err)
		}
		return tm
	}
}

func mustEffect(t testing.TB) func(*Effect, error) *Effect {
	return func(e *Effect, err error) *Effect {
		t.Helper()
		if err != nil {
			t.Fatalf("effect: %v", err)
		}
		return e
	}
}

func mustSchema(t testing.TB) func(*ActionSchema, error) *ActionSchema {
	return func(s *ActionSchema, err error) *ActionSchema {
		t.Helper()
		if err != nil {
			t.Fatalf("schema: %v", err)
		}
		return s
	}
}

func mustVar(t testing.TB, idx *VariableIndex, sym SymbolID, args ...Object) VarID {
	t.Helper()
	v, err := idx.Resolve(sym, args)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return v
}

func newProblem(t testing.TB, lang *Language, idx *VariableIndex, init *State, schemas []*ActionSchema, goal, constraint *Formula) *Problem {
	t.Helper()
	p, err := NewProblem(lang, idx, init, schemas, goal, constraint)
	if err != nil {
		t.Fatalf("problem: %v", err)
	}
	return p
}

// boolInit returns a total state with every boolean variable false.
func boolInit(t testing.TB, idx *VariableIndex) *State {
	t.Helper()
	s := NewState(idx.Count())
	for _, vd := range idx.Variables() {
		if vd.Type != TypeBool {
			t.Fatalf("boolInit: variable %d has non-bool type %d", vd.ID, vd.Type)
		}
		s.Set(vd.ID, MakeBool(false))
	}
	return s
}

// predTrue builds the formula sym(args...) = true.
func predTrue(t testing.TB, lang *Language, sym SymbolID, args ...*Term) *Formula {
	t.Helper()
	app := mustTerm(t)(NewFluentApp(lang, sym, args))
	return NewAtom(RelEQ, app, NewConstant(lang, MakeBool(true)))
}

// switchProblem builds n independent boolean switches. flip(s) needs
// on(s) = false and adds on(s); the goal wants every switch on.
func switchProblem(t testing.TB, n int) *Problem {
	t.Helper()
	lang := NewLanguage()
	sw := mustType(t)(lang.AddObjectType("switch", TypeObject))
	objs := make([]Object, n)
	for i := range objs {
		objs[i] = mustObj(t)(lang.AddObject(fmt.Sprintf("s%d", i+1), sw))
	}
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

	goals := make([]*Formula, n)
	for i, o := range objs {
		goals[i] = predTrue(t, lang, on, NewConstant(lang, o))
	}
	return newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{flip}, NewAnd(goals...), nil)
}

// toggleProblem builds one 0-ary boolean fluent p and a toggle action
// that inverts it through a pair of conditional effects.
func toggleProblem(t testing.TB) *Problem {
	t.Helper()
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	pApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, p, nil)) }
	toggle := mustSchema(t)(NewActionSchema("toggle", nil, nil, nil,
		[]*Effect{
			mustEffect(t)(NewAddEffect(pApp(), NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(false))))),
			mustEffect(t)(NewDeleteEffect(pApp(), NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true))))),
		}))
	goal := NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true)))
	return newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{toggle}, goal, nil)
}

// guardedProblem builds one boolean p with a drain action requiring
// p = true. The goal compares p against goalVal, so goalVal = false is
// satisfied by the empty plan and goalVal = true is unreachable.
func guardedProblem(t testing.TB, goalVal bool) *Problem {
	t.Helper()
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	pApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, p, nil)) }
	drain := mustSchema(t)(NewActionSchema("drain", nil, nil,
		NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true))),
		[]*Effect{mustEffect(t)(NewDeleteEffect(pApp(), nil))}))
	goal := NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(goalVal)))
	return newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{drain}, goal, nil)
}

// pickProblem builds three objects of which only o2 is marked, one
// pick action that unmarks, and a universally quantified all-clear
// goal.
func pickProblem(t testing.TB) *Problem {
	t.Helper()
	lang := NewLanguage()
	obj := mustType(t)(lang.AddObjectType("obj", TypeObject))
	mustObj(t)(lang.AddObject("o1", obj))
	o2 := mustObj(t)(lang.AddObject("o2", obj))
	mustObj(t)(lang.AddObject("o3", obj))
	at := mustSym(t)(lang.AddSymbol("at", []TypeID{obj}, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	x := BoundVar{ID: 0, Name: "x", Type: obj}
	atX := func() *Term {
		return mustTerm(t)(NewFluentApp(lang, at, []*Term{NewVariable(lang, x)}))
	}
	pick := mustSchema(t)(NewActionSchema("pick",
		[]TypeID{obj}, []string{"x"},
		NewAtom(RelEQ, atX(), NewConstant(lang, MakeBool(true))),
		[]*Effect{mustEffect(t)(NewDeleteEffect(atX(), nil))}))

	init := boolInit(t, idx)
	init.Set(mustVar(t, idx, at, o2), MakeBool(true))

	goal := NewForall([]BoundVar{x}, NewAtom(RelEQ, atX(), NewConstant(lang, MakeBool(false))))
	return newProblem(t, lang, idx, init, []*ActionSchema{pick}, goal, nil)
}

// counterProblem builds n integer counters in [0, max] starting at
// zero, with unit increment and decrement actions and a strictly
// increasing goal ordering.
func counterProblem(t testing.TB, n int, max int32) *Problem {
	t.Helper()
	lang := NewLanguage()
	counter := mustType(t)(lang.AddObjectType("counter", TypeObject))
	val := mustType(t)(lang.AddIntType("val", 0, max))
	objs := make([]Object, n)
	for i := range objs {
		objs[i] = mustObj(t)(lang.AddObject(fmt.Sprintf("c%d", i+1), counter))
	}
	value := mustSym(t)(lang.AddSymbol("value", []TypeID{counter}, val, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	init := NewState(idx.Count())
	for _, o := range objs {
		init.Set(mustVar(t, idx, value, o), MakeInt(0))
	}

	c := BoundVar{ID: 0, Name: "c", Type: counter}
	valueC := func() *Term {
		return mustTerm(t)(NewFluentApp(lang, value, []*Term{NewVariable(lang, c)}))
	}
	one := func() *Term { return NewConstant(lang, MakeInt(1)) }
	incr := mustSchema(t)(NewActionSchema("incr",
		[]TypeID{counter}, []string{"c"},
		NewAtom(RelLT, valueC(), NewConstant(lang, MakeInt(max))),
		[]*Effect{mustEffect(t)(NewFunctionalEffect(valueC(), mustTerm(t)(NewArith(lang, OpAdd, valueC(), one())), nil))}))
	decr := mustSchema(t)(NewActionSchema("decr",
		[]TypeID{counter}, []string{"c"},
		NewAtom(RelGT, valueC(), NewConstant(lang, MakeInt(0))),
		[]*Effect{mustEffect(t)(NewFunctionalEffect(valueC(), mustTerm(t)(NewArith(lang, OpSub, valueC(), one())), nil))}))

	var goals []*Formula
	for i := 0; i+1 < n; i++ {
		lhs := mustTerm(t)(NewFluentApp(lang, value, []*Term{NewConstant(lang, objs[i])}))
		rhs := mustTerm(t)(NewFluentApp(lang, value, []*Term{NewConstant(lang, objs[i+1])}))
		goals = append(goals, NewAtom(RelLT, lhs, rhs))
	}
	return newProblem(t, lang, idx, init, []*ActionSchema{incr, decr}, NewAnd(goals...), nil)
}

// cycleProblem builds a toggling fluent p and an untouched goal fluent
// q. The reachable space is the two-state cycle over p, so a search
// must terminate through duplicate or novelty pruning before it can
// report the q = true goal unsolvable.
func cycleProblem(t testing.TB) *Problem {
	t.Helper()
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	q := mustSym(t)(lang.AddSymbol("q", nil, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	pApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, p, nil)) }
	toggle := mustSchema(t)(NewActionSchema("toggle", nil, nil, nil,
		[]*Effect{
			mustEffect(t)(NewAddEffect(pApp(), NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(false))))),
			mustEffect(t)(NewDeleteEffect(pApp(), NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true))))),
		}))
	goal := predTrue(t, lang, q)
	return newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{toggle}, goal, nil)
}

// groundAll grounds a fixture problem, failing the test on error.
func groundAll(t testing.TB, prob *Problem) {
	t.Helper()
	if err := prob.GroundAll(context.Background(), 1); err != nil {
		t.Fatalf("grounding: %v", err)
	}
}

// actionNamed finds a ground action by rendered name.
func actionNamed(t testing.TB, prob *Problem, name string) *GroundAction {
	t.Helper()
	for _, ga := range prob.GroundActions() {
		if ga.Name() == name {
			return ga
		}
	}
	t.Fatalf("no ground action named %q", name)
	return nil
}
