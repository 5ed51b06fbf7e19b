package fstrips

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// chargeProblem builds a single fuel gauge in [0, 3] and a charge
// action with an integer-typed step parameter in [1, 2].
func chargeProblem(t testing.TB) *Problem {
	t.Helper()
	lang := NewLanguage()
	step := mustType(t)(lang.AddIntType("step", 1, 2))
	tank := mustType(t)(lang.AddIntType("tank", 0, 3))
	fuel := mustSym(t)(lang.AddSymbol("fuel", nil, tank, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	init := NewState(idx.Count())
	init.Set(mustVar(t, idx, fuel), MakeInt(0))

	d := BoundVar{ID: 0, Name: "d", Type: step}
	fuelApp := func() *Term { return mustTerm(t)(NewFluentApp(lang, fuel, nil)) }
	sum := mustTerm(t)(NewArith(lang, OpAdd, fuelApp(), NewVariable(lang, d)))
	charge := mustSchema(t)(NewActionSchema("charge",
		[]TypeID{step}, []string{"d"}, nil,
		[]*Effect{mustEffect(t)(NewFunctionalEffect(fuelApp(), sum, nil))}))

	goal := NewAtom(RelEQ, fuelApp(), NewConstant(lang, MakeInt(3)))
	return newProblem(t, lang, idx, init, []*ActionSchema{charge}, goal, nil)
}

// TestCheckPlan_Valid replays a correct plan, including sloppy
// whitespace in the rendered step names.
func TestCheckPlan_Valid(t *testing.T) {
	prob := switchProblem(t, 2)
	plan := []string{"flip(s1)", " flip( s2 ) "}
	if err := CheckPlan(context.Background(), prob, plan); err != nil {
		t.Fatalf("CheckPlan: %v", err)
	}
}

// TestCheckPlan_IntArguments replays integer-typed parameters parsed
// back from their rendered form.
func TestCheckPlan_IntArguments(t *testing.T) {
	prob := chargeProblem(t)
	if err := CheckPlan(context.Background(), prob, []string{"charge(1)", "charge(2)"}); err != nil {
		t.Fatalf("CheckPlan: %v", err)
	}
}

// TestCheckPlan_ArgumentOutOfRange rejects a step whose integer
// argument lies outside the parameter's declared range.
func TestCheckPlan_ArgumentOutOfRange(t *testing.T) {
	prob := chargeProblem(t)
	err := CheckPlan(context.Background(), prob, []string{"charge(3)"})
	var pie *PlanInvariantError
	if !errors.As(err, &pie) {
		t.Fatalf("err = %v, want PlanInvariantError", err)
	}
	if pie.Step != 0 || !strings.Contains(pie.Reason, "wrong type") {
		t.Fatalf("error = %+v, want a step-0 type complaint", pie)
	}
}

// TestCheckPlan_EffectOverflow reports a step whose assignment leaves
// the declared range as an effect failure, not a type error.
func TestCheckPlan_EffectOverflow(t *testing.T) {
	prob := chargeProblem(t)
	err := CheckPlan(context.Background(), prob, []string{"charge(2)", "charge(2)"})
	var pie *PlanInvariantError
	if !errors.As(err, &pie) {
		t.Fatalf("err = %v, want PlanInvariantError", err)
	}
	if pie.Step != 1 || !strings.Contains(pie.Reason, "effects failed") {
		t.Fatalf("error = %+v, want step-1 effect failure", pie)
	}
}

// TestCheckPlan_PreconditionFailure reports the failing step index.
func TestCheckPlan_PreconditionFailure(t *testing.T) {
	prob := switchProblem(t, 2)
	err := CheckPlan(context.Background(), prob, []string{"flip(s1)", "flip(s1)"})
	var pie *PlanInvariantError
	if !errors.As(err, &pie) {
		t.Fatalf("err = %v, want PlanInvariantError", err)
	}
	if pie.Step != 1 || pie.Reason != "precondition does not hold" {
		t.Fatalf("error = %+v, want step-1 precondition failure", pie)
	}
}

// TestCheckPlan_GoalNotReached flags the final state when the plan
// runs but stops short.
func TestCheckPlan_GoalNotReached(t *testing.T) {
	prob := switchProblem(t, 2)
	err := CheckPlan(context.Background(), prob, []string{"flip(s1)"})
	var pie *PlanInvariantError
	if !errors.As(err, &pie) {
		t.Fatalf("err = %v, want PlanInvariantError", err)
	}
	if pie.Step != 1 || pie.Action != "(final state)" {
		t.Fatalf("error = %+v, want the final-state check", pie)
	}
}

// TestCheckPlan_MalformedSteps covers the parse failures: unknown
// schema, bad syntax, arity mismatch, unknown object.
func TestCheckPlan_MalformedSteps(t *testing.T) {
	prob := switchProblem(t, 1)
	cases := []string{
		"warp(s1)",
		"flip(s1",
		"flip",
		"flip(s1, s1)",
		"flip(zz)",
	}
	for _, step := range cases {
		err := CheckPlan(context.Background(), prob, []string{step})
		var pie *PlanInvariantError
		if !errors.As(err, &pie) {
			t.Fatalf("step %q: err = %v, want PlanInvariantError", step, err)
		}
		if pie.Step != 0 {
			t.Fatalf("step %q: reported step %d, want 0", step, pie.Step)
		}
	}
}

// TestCheckPlan_ConstraintViolation reports the step whose successor
// breaks the state constraint.
func TestCheckPlan_ConstraintViolation(t *testing.T) {
	lang := NewLanguage()
	sw := mustType(t)(lang.AddObjectType("switch", TypeObject))
	s1 := mustObj(t)(lang.AddObject("s1", sw))
	on := mustSym(t)(lang.AddSymbol("on", []TypeID{sw}, TypeBool, true))
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	v := BoundVar{ID: 0, Name: "s", Type: sw}
	onV := func() *Term {
		return mustTerm(t)(NewFluentApp(lang, on, []*Term{NewVariable(lang, v)}))
	}
	flip := mustSchema(t)(NewActionSchema("flip",
		[]TypeID{sw}, []string{"s"},
		NewAtom(RelEQ, onV(), NewConstant(lang, MakeBool(false))),
		[]*Effect{mustEffect(t)(NewAddEffect(onV(), nil))}))
	goal := predTrue(t, lang, on, NewConstant(lang, s1))
	constraint := NewNot(predTrue(t, lang, on, NewConstant(lang, s1)))
	prob := newProblem(t, lang, idx, boolInit(t, idx), []*ActionSchema{flip}, goal, constraint)

	cerr := CheckPlan(context.Background(), prob, []string{"flip(s1)"})
	var pie *PlanInvariantError
	if !errors.As(cerr, &pie) {
		t.Fatalf("err = %v, want PlanInvariantError", cerr)
	}
	if pie.Step != 0 || !strings.Contains(pie.Reason, "state constraint") {
		t.Fatalf("error = %+v, want a constraint violation at step 0", pie)
	}
}

// TestCheckPlan_LiftedPlanNoGrounding validates a plan without a ground
// action table on the problem.
func TestCheckPlan_LiftedPlanNoGrounding(t *testing.T) {
	prob := switchProblem(t, 2)
	if err := CheckPlan(context.Background(), prob, []string{"flip(s1)", "flip(s2)"}); err != nil {
		t.Fatalf("CheckPlan: %v", err)
	}
	if prob.GroundActions() != nil {
		t.Fatalf("validation grounded the problem")
	}
}
