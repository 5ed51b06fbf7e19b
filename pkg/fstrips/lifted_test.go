package fstrips

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// enumNames collects the action names a source yields for a state.
func enumNames(t testing.TB, src ActionSource, s *State) []string {
	t.Helper()
	var names []string
	err := src.ForEach(context.Background(), s, func(a *GroundAction) bool {
		names = append(names, a.Name())
		return true
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	return names
}

// The lifted source must yield exactly the actions the ground source
// yields, in the same order, from any state.
func TestLifted_AgreesWithGroundSource(t *testing.T) {
	prob := switchProblem(t, 3)
	groundAll(t, prob)
	appl := NewApplicability(prob)
	gs, err := NewGroundSource(prob, appl)
	if err != nil {
		t.Fatalf("NewGroundSource: %v", err)
	}
	ls, err := NewLiftedSource(context.Background(), prob, appl)
	if err != nil {
		t.Fatalf("NewLiftedSource: %v", err)
	}

	s := prob.Init
	for depth := 0; ; depth++ {
		want := enumNames(t, gs, s)
		got := enumNames(t, ls, s)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("depth %d: lifted = %v, ground = %v", depth, got, want)
		}
		if len(want) == 0 {
			break
		}
		s, err = appl.Successor(s, actionNamed(t, prob, want[0]))
		if err != nil || s == nil {
			t.Fatalf("depth %d: successor: %v, %v", depth, s, err)
		}
	}
}

// Preconditions with static data compile to fixed tables; only the
// declared adjacencies enumerate, and movement tracks the state.
func TestLifted_StaticTables(t *testing.T) {
	lang := NewLanguage()
	room := mustType(t)(lang.AddObjectType("room", TypeObject))
	r1 := mustObj(t)(lang.AddObject("r1", room))
	r2 := mustObj(t)(lang.AddObject("r2", room))
	r3 := mustObj(t)(lang.AddObject("r3", room))
	adjacent := mustSym(t)(lang.AddSymbol("adjacent", []TypeID{room, room}, TypeBool, false))
	if err := lang.SetStaticData(adjacent, [][]Object{
		{r1, r2, MakeBool(true)},
		{r2, r3, MakeBool(true)},
	}); err != nil {
		t.Fatalf("SetStaticData: %v", err)
	}
	pos := mustSym(t)(lang.AddSymbol("pos", nil, room, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	from := BoundVar{ID: 0, Name: "from", Type: room}
	to := BoundVar{ID: 1, Name: "to", Type: room}
	posApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, pos, nil)) }
	adj := mustTerm(t)(NewStaticApp(lang, adjacent,
		[]*Term{NewVariable(lang, from), NewVariable(lang, to)}))
	pre := NewAnd(
		NewAtom(RelEQ, adj, NewConstant(lang, MakeBool(true))),
		NewAtom(RelEQ, posApp(), NewVariable(lang, from)),
	)
	move := mustSchema(t)(NewActionSchema("move", []TypeID{room, room}, []string{"from", "to"}, pre,
		[]*Effect{mustEffect(t)(NewFunctionalEffect(posApp(), NewVariable(lang, to), nil))}))

	init := NewState(idx.Count())
	init.Set(0, r1)
	goal := NewAtom(RelEQ, posApp(), NewConstant(lang, r3))
	prob := newProblem(t, lang, idx, init, []*ActionSchema{move}, goal, nil)
	appl := NewApplicability(prob)
	ls, err := NewLiftedSource(context.Background(), prob, appl)
	if err != nil {
		t.Fatalf("NewLiftedSource: %v", err)
	}

	if got := enumNames(t, ls, prob.Init); !reflect.DeepEqual(got, []string{"move(r1, r2)"}) {
		t.Fatalf("from r1: %v", got)
	}
	mid := prob.Init.Clone()
	mid.Set(0, r2)
	if got := enumNames(t, ls, mid); !reflect.DeepEqual(got, []string{"move(r2, r3)"}) {
		t.Fatalf("from r2: %v", got)
	}
	// The problem was never grounded; the lifted source works alone.
	if prob.GroundActions() != nil {
		t.Fatalf("lifted enumeration grounded the problem")
	}
}

// Disjunctive preconditions fall outside the CSP fragment; the schema
// falls back to eager grounding but the source still agrees.
func TestLifted_UntranslatableFallback(t *testing.T) {
	lang := NewLanguage()
	sw := mustType(t)(lang.AddObjectType("switch", TypeObject))
	mustObj(t)(lang.AddObject("s1", sw))
	mustObj(t)(lang.AddObject("s2", sw))
	on := mustSym(t)(lang.AddSymbol("on", []TypeID{sw}, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	s := BoundVar{ID: 0, Name: "s", Type: sw}
	onS := func() *Term {
		return mustTerm(t)(NewFluentApp(lang, on, []*Term{NewVariable(lang, s)}))
	}
	pre := NewOr(
		NewAtom(RelEQ, onS(), NewConstant(lang, MakeBool(false))),
		NewAtom(RelEQ, onS(), NewConstant(lang, MakeBool(true))),
	)
	flip := mustSchema(t)(NewActionSchema("flip", []TypeID{sw}, []string{"s"}, pre,
		[]*Effect{mustEffect(t)(NewAddEffect(onS(), nil))}))
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{flip},
		predTrue(t, lang, on, NewConstant(lang, objByName(t, lang, "s1"))), nil)

	if _, err := NewSchemaCSP(prob, flip); !errors.Is(err, ErrUntranslatable) {
		t.Fatalf("NewSchemaCSP error = %v, want ErrUntranslatable", err)
	}

	appl := NewApplicability(prob)
	ls, err := NewLiftedSource(context.Background(), prob, appl)
	if err != nil {
		t.Fatalf("NewLiftedSource: %v", err)
	}
	got := enumNames(t, ls, prob.Init)
	if !reflect.DeepEqual(got, []string{"flip(s1)", "flip(s2)"}) {
		t.Fatalf("fallback enumeration = %v", got)
	}
}

// Negated static atoms see the completed predicate graph: tuples off
// the extension are false, not absent.
func TestSchemaCSP_NegatedStatic(t *testing.T) {
	lang := NewLanguage()
	room := mustType(t)(lang.AddObjectType("room", TypeObject))
	r1 := mustObj(t)(lang.AddObject("r1", room))
	r2 := mustObj(t)(lang.AddObject("r2", room))
	mustObj(t)(lang.AddObject("r3", room))
	adjacent := mustSym(t)(lang.AddSymbol("adjacent", []TypeID{room, room}, TypeBool, false))
	if err := lang.SetStaticData(adjacent, [][]Object{{r1, r2, MakeBool(true)}}); err != nil {
		t.Fatalf("SetStaticData: %v", err)
	}
	mark := mustSym(t)(lang.AddSymbol("mark", []TypeID{room}, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	a := BoundVar{ID: 0, Name: "a", Type: room}
	b := BoundVar{ID: 1, Name: "b", Type: room}
	adj := mustTerm(t)(NewStaticApp(lang, adjacent,
		[]*Term{NewVariable(lang, a), NewVariable(lang, b)}))
	pre := NewNot(NewAtom(RelEQ, adj, NewConstant(lang, MakeBool(true))))
	link := mustSchema(t)(NewActionSchema("link", []TypeID{room, room}, []string{"a", "b"}, pre,
		[]*Effect{mustEffect(t)(NewAddEffect(
			mustTerm(t)(NewFluentApp(lang, mark, []*Term{NewVariable(lang, a)})), nil))}))
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{link},
		predTrue(t, lang, mark, NewConstant(lang, r1)), nil)

	sc, err := NewSchemaCSP(prob, link)
	if err != nil {
		t.Fatalf("NewSchemaCSP: %v", err)
	}
	count := 0
	err = sc.Enumerate(context.Background(), prob.Init, func(*Binding, []int) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	// 9 ordered pairs, one adjacency declared true.
	if count != 8 {
		t.Fatalf("non-adjacent pairs = %d, want 8", count)
	}
}

// Arithmetic subterms lower to extensional tables over the operand
// domains.
func TestSchemaCSP_ArithmeticAtom(t *testing.T) {
	lang := NewLanguage()
	lvl := mustType(t)(lang.AddIntType("lvl", 0, 5))
	step := mustType(t)(lang.AddIntType("step", 1, 2))
	f := mustSym(t)(lang.AddSymbol("f", nil, lvl, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	d := BoundVar{ID: 0, Name: "d", Type: step}
	fApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, f, nil)) }
	sum := mustTerm(t)(NewArith(lang, OpAdd, fApp(), NewVariable(lang, d)))
	pre := NewAtom(RelEQ, sum, NewConstant(lang, MakeInt(3)))
	bump := mustSchema(t)(NewActionSchema("bump", []TypeID{step}, []string{"d"}, pre,
		[]*Effect{mustEffect(t)(NewFunctionalEffect(fApp(), sum.Clone(), nil))}))

	init := NewState(idx.Count())
	init.Set(0, MakeInt(1))
	prob := newProblem(t, lang, idx, init, []*ActionSchema{bump},
		NewAtom(RelEQ, fApp(), NewConstant(lang, MakeInt(3))), nil)

	sc, err := NewSchemaCSP(prob, bump)
	if err != nil {
		t.Fatalf("NewSchemaCSP: %v", err)
	}
	var bindings []int32
	err = sc.Enumerate(context.Background(), prob.Init, func(b *Binding, _ []int) bool {
		o, _ := b.Value(0)
		bindings = append(bindings, int32(o.Code()))
		return true
	})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	// f = 1, so only d = 2 reaches 3.
	if !reflect.DeepEqual(bindings, []int32{2}) {
		t.Fatalf("bindings = %v, want [2]", bindings)
	}

	two := prob.Init.Clone()
	two.Set(0, MakeInt(2))
	bindings = bindings[:0]
	if err := sc.Enumerate(context.Background(), two, func(b *Binding, _ []int) bool {
		o, _ := b.Value(0)
		bindings = append(bindings, int32(o.Code()))
		return true
	}); err != nil {
		t.Fatalf("Enumerate after refresh: %v", err)
	}
	if !reflect.DeepEqual(bindings, []int32{1}) {
		t.Fatalf("bindings after refresh = %v, want [1]", bindings)
	}
}

// A contradictory precondition compiles to a silent empty enumeration.
func TestSchemaCSP_AlwaysFalse(t *testing.T) {
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	pApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, p, nil)) }
	never := mustSchema(t)(NewActionSchema("never", nil, nil, Contradiction(),
		[]*Effect{mustEffect(t)(NewAddEffect(pApp(), nil))}))
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{never},
		NewAtom(RelEQ, pApp(), NewConstant(lang, MakeBool(true))), nil)

	sc, err := NewSchemaCSP(prob, never)
	if err != nil {
		t.Fatalf("NewSchemaCSP: %v", err)
	}
	err = sc.Enumerate(context.Background(), prob.Init, func(*Binding, []int) bool {
		t.Fatalf("unsatisfiable schema yielded a binding")
		return false
	})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	if _, err := sc.ApproxBinding(context.Background(), prob.Init); !errors.Is(err, ErrCspInconsistent) {
		t.Fatalf("ApproxBinding error = %v, want ErrCspInconsistent", err)
	}
}

// ApproxBinding reads propagation minima without search; the candidate
// binding still needs an applicability check.
func TestSchemaCSP_ApproxBinding(t *testing.T) {
	prob := switchProblem(t, 2)
	flip := prob.Schemas[0]
	sc, err := NewSchemaCSP(prob, flip)
	if err != nil {
		t.Fatalf("NewSchemaCSP: %v", err)
	}
	b, err := sc.ApproxBinding(context.Background(), prob.Init)
	if err != nil {
		t.Fatalf("ApproxBinding: %v", err)
	}
	o, ok := b.Value(0)
	if !ok {
		t.Fatalf("approx binding leaves the parameter unbound")
	}
	if got := prob.Lang.ObjectName(o); got != "s1" {
		t.Fatalf("approx binding = %s, want s1", got)
	}
}
