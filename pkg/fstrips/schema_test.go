package fstrips

import (
	"testing"
)

// Ground-action names render as name(arg, ...) with bare names at
// arity zero.
func TestGround_Names(t *testing.T) {
	prob := switchProblem(t, 2)
	groundAll(t, prob)

	names := make(map[string]bool)
	for _, ga := range prob.GroundActions() {
		names[ga.Name()] = true
	}
	if !names["flip(s1)"] || !names["flip(s2)"] {
		t.Fatalf("ground names = %v, want flip(s1) and flip(s2)", names)
	}

	tog := toggleProblem(t)
	groundAll(t, tog)
	if len(tog.GroundActions()) != 1 || tog.GroundActions()[0].Name() != "toggle" {
		t.Fatalf("arity-0 ground name = %v, want bare toggle", tog.GroundActions())
	}
}

// Grounding substitutes the binding into the precondition, folding
// fluent applications to state-variable reads.
func TestGround_FoldsPrecondition(t *testing.T) {
	prob := switchProblem(t, 1)
	groundAll(t, prob)

	ga := actionNamed(t, prob, "flip(s1)")
	if ga.Precondition.Kind != FormAtom {
		t.Fatalf("precondition kind = %d, want atom", ga.Precondition.Kind)
	}
	if ga.Precondition.Lhs.Kind != TermStateVar {
		t.Fatalf("precondition lhs kind = %d, want state variable", ga.Precondition.Lhs.Kind)
	}
	if len(ga.Effects) != 1 || ga.Effects[0].Lhs.Kind != TermStateVar {
		t.Fatalf("effect lhs not folded: %+v", ga.Effects)
	}
}

// A schema needs at least one effect; a nil precondition means
// tautology.
func TestNewActionSchema_Validation(t *testing.T) {
	lang := NewLanguage()
	p := mustSym(t)(lang.AddSymbol("p", nil, TypeBool, true))
	pApp := mustTerm(t)(NewFluentApp(lang, p, nil))

	if _, err := NewActionSchema("noop", nil, nil, nil, nil); err == nil {
		t.Fatalf("schema without effects accepted")
	}

	s, err := NewActionSchema("set", nil, nil, nil,
		[]*Effect{mustEffect(t)(NewAddEffect(pApp, nil))})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Precondition.Kind != FormTrue {
		t.Fatalf("nil precondition kind = %d, want tautology", s.Precondition.Kind)
	}
}

// Ground-action ids are dense and stable: schema order first, then
// lexicographic binding order.
func TestGround_StableIDs(t *testing.T) {
	prob := switchProblem(t, 3)
	groundAll(t, prob)

	actions := prob.GroundActions()
	if len(actions) != 3 {
		t.Fatalf("got %d ground actions, want 3", len(actions))
	}
	wantNames := []string{"flip(s1)", "flip(s2)", "flip(s3)"}
	for i, ga := range actions {
		if ga.ID != ActionID(i) {
			t.Fatalf("action %d has id %d", i, ga.ID)
		}
		if ga.Name() != wantNames[i] {
			t.Fatalf("action %d = %q, want %q", i, ga.Name(), wantNames[i])
		}
		if prob.GroundAction(ga.ID) != ga {
			t.Fatalf("GroundAction(%d) does not round-trip", ga.ID)
		}
	}
}
