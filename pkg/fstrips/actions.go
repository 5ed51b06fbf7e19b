// Action sources: the two ways the search driver enumerates the ground
// actions applicable in a state. GroundSource walks the pre-grounded
// action set and tests each precondition; LiftedSource solves one CSP
// per schema, falling back to per-schema grounding where the
// precondition does not translate. Both enumerate deterministically:
// schemas in declaration order, bindings ascending.
package fstrips

import (
	"context"
	"errors"
	"fmt"
)

// ActionSource enumerates applicable ground actions. Implementations
// must be deterministic and yield each applicable action exactly once.
// Enumeration stops early when yield returns false.
type ActionSource interface {
	ForEach(ctx context.Context, s *State, yield func(a *GroundAction) bool) error
}

// GroundSource enumerates over a fully grounded action set.
type GroundSource struct {
	prob *Problem
	appl *Applicability
}

// NewGroundSource builds a source over the problem's grounded actions.
// The problem must have been ground already.
func NewGroundSource(prob *Problem, appl *Applicability) (*GroundSource, error) {
	if prob.GroundActions() == nil {
		return nil, fmt.Errorf("problem %s has no ground actions; run the grounder first", describeProblem(prob))
	}
	return &GroundSource{prob: prob, appl: appl}, nil
}

func describeProblem(p *Problem) string {
	return fmt.Sprintf("(%d schemas, %d variables)", len(p.Schemas), p.Index.Count())
}

// ForEach tests every ground action's precondition against the state.
func (g *GroundSource) ForEach(ctx context.Context, s *State, yield func(a *GroundAction) bool) error {
	for i, a := range g.prob.GroundActions() {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ok, err := g.appl.Applicable(s, a)
		if err != nil {
			return err
		}
		if ok && !yield(a) {
			return nil
		}
	}
	return nil
}

// liftedSchema pairs one schema with its enumeration strategy: a
// compiled CSP, or a pre-grounded action list when the precondition is
// untranslatable.
type liftedSchema struct {
	csp    *SchemaCSP
	ground []*GroundAction
}

// LiftedSource enumerates applicable actions through per-schema CSPs,
// building ground actions on demand. Actions it yields carry
// InvalidAction ids; callers identify them by pointer or name.
type LiftedSource struct {
	prob    *Problem
	appl    *Applicability
	schemas []liftedSchema
}

// NewLiftedSource compiles every schema. Schemas whose precondition
// falls outside the CSP fragment are ground eagerly and enumerated by
// precondition testing instead.
func NewLiftedSource(ctx context.Context, prob *Problem, appl *Applicability) (*LiftedSource, error) {
	ls := &LiftedSource{prob: prob, appl: appl}
	grounder := NewGrounder(prob, 1)
	for _, schema := range prob.Schemas {
		sc, err := NewSchemaCSP(prob, schema)
		if err == nil {
			ls.schemas = append(ls.schemas, liftedSchema{csp: sc})
			continue
		}
		if !errors.Is(err, ErrUntranslatable) {
			return nil, err
		}
		actions, err := grounder.groundSchema(ctx, schema)
		if err != nil {
			return nil, err
		}
		ls.schemas = append(ls.schemas, liftedSchema{ground: actions})
	}
	return ls, nil
}

// ForEach solves each schema CSP against the state and grounds every
// solution binding.
func (ls *LiftedSource) ForEach(ctx context.Context, s *State, yield func(a *GroundAction) bool) error {
	for i := range ls.schemas {
		sel := &ls.schemas[i]
		if sel.csp == nil {
			for _, a := range sel.ground {
				ok, err := ls.appl.Applicable(s, a)
				if err != nil {
					return err
				}
				if ok && !yield(a) {
					return nil
				}
			}
			continue
		}
		var groundErr error
		stopped := false
		err := sel.csp.Enumerate(ctx, s, func(b *Binding, _ []int) bool {
			ga, err := Ground(ls.prob.Interpreter(), sel.csp.Schema(), b, InvalidAction)
			if err != nil {
				if fatalInterpretation(err) {
					groundErr = err
					return false
				}
				return true
			}
			if !yield(ga) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if groundErr != nil {
			return groundErr
		}
		if stopped {
			return nil
		}
	}
	return nil
}
