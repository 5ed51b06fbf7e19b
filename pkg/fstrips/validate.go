// Plan validation: replaying a plan from the initial state and
// checking every contract a returned plan must honor. The runner
// validates every plan the drivers produce; a failure here is an
// engine bug, not a user error, which is why the failure type is
// PlanInvariantError.
package fstrips

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CheckPlan replays plan from the initial state. Every step must parse
// to a known ground action, be applicable in its state, and produce a
// successor satisfying the state constraint; the final state must
// satisfy the goal.
func CheckPlan(ctx context.Context, prob *Problem, plan []string) error {
	appl := NewApplicability(prob)
	s := prob.Init
	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		ga, err := resolveStep(prob, step)
		if err != nil {
			return &PlanInvariantError{Step: i, Action: step, Reason: err.Error()}
		}
		ok, err := appl.Applicable(s, ga)
		if err != nil {
			return err
		}
		if !ok {
			return &PlanInvariantError{Step: i, Action: step, Reason: "precondition does not hold"}
		}
		atoms, err := appl.Effects(s, ga)
		if err != nil {
			if fatalInterpretation(err) {
				return err
			}
			return &PlanInvariantError{Step: i, Action: step, Reason: fmt.Sprintf("effects failed: %v", err)}
		}
		s = s.Successor(atoms)
		ok, err = ConstraintHolds(prob, s)
		if err != nil {
			return err
		}
		if !ok {
			return &PlanInvariantError{Step: i, Action: step, Reason: "successor violates the state constraint"}
		}
	}
	ok, err := GoalHolds(prob, s)
	if err != nil {
		return err
	}
	if !ok {
		return &PlanInvariantError{Step: len(plan), Action: "(final state)", Reason: "goal not satisfied"}
	}
	return nil
}

// resolveStep parses a rendered action name, "pick(o2)" or "noop",
// back to a ground action. It grounds the schema directly instead of
// requiring a ground-action table, so plans from lifted runs validate
// without grounding the whole problem.
func resolveStep(prob *Problem, step string) (*GroundAction, error) {
	name := strings.TrimSpace(step)
	var args []string
	if i := strings.IndexByte(name, '('); i >= 0 {
		if !strings.HasSuffix(name, ")") {
			return nil, fmt.Errorf("malformed action %q", step)
		}
		inner := name[i+1 : len(name)-1]
		name = name[:i]
		if strings.TrimSpace(inner) != "" {
			args = strings.Split(inner, ",")
			for j := range args {
				args[j] = strings.TrimSpace(args[j])
			}
		}
	}
	var schema *ActionSchema
	for _, sc := range prob.Schemas {
		if sc.Name == name {
			schema = sc
			break
		}
	}
	if schema == nil {
		return nil, fmt.Errorf("unknown action schema %q", name)
	}
	if len(args) != schema.Arity() {
		return nil, fmt.Errorf("action %q takes %d arguments, got %d", name, schema.Arity(), len(args))
	}
	binding := NewBinding(schema.Arity())
	for i, arg := range args {
		o, err := resolveObject(prob.Lang, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %q: %w", i, name, err)
		}
		if !prob.Lang.Contains(schema.Signature[i], o) {
			return nil, fmt.Errorf("argument %d of %q: %s has the wrong type", i, name, arg)
		}
		binding.Set(i, o)
	}
	return Ground(prob.Interpreter(), schema, binding, InvalidAction)
}

// resolveObject maps a rendered argument back to an object: a declared
// name, a boolean literal, or an integer literal.
func resolveObject(lang *Language, name string) (Object, error) {
	if o, ok := lang.ObjectByName(name); ok {
		return o, nil
	}
	switch name {
	case "true":
		return MakeBool(true), nil
	case "false":
		return MakeBool(false), nil
	}
	if n, err := strconv.ParseInt(name, 10, 32); err == nil {
		return MakeInt(int32(n)), nil
	}
	return Object{}, fmt.Errorf("unknown object %q", name)
}
