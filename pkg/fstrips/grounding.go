// Full grounding: instantiate every action schema over the Cartesian
// product of its parameter-type universes, pruning any binding whose
// precondition folds to false against the static data. Surviving
// instantiations receive dense ids in schema order then lexicographic
// binding order, so ids are stable across runs.
package fstrips

import (
	"context"
	"fmt"

	"github.com/gitrdm/gostrips/internal/parallel"
)

// Grounder instantiates action schemas against a problem's language.
type Grounder struct {
	prob    *Problem
	workers int
}

// NewGrounder prepares a grounder. workers <= 0 means one worker per
// CPU core.
func NewGrounder(prob *Problem, workers int) *Grounder {
	return &Grounder{prob: prob, workers: workers}
}

// Run grounds every schema and installs the resulting action set on
// the problem. Schemas are ground in parallel; the interpreter is
// stateless so sharing it across workers is safe.
func (g *Grounder) Run(ctx context.Context) ([]*GroundAction, error) {
	schemas := g.prob.Schemas
	results := make([][]*GroundAction, len(schemas))
	errs := make([]error, len(schemas))

	pool := parallel.NewWorkerPool(g.workers)
	defer pool.Shutdown()
	if err := pool.Batch(ctx, len(schemas), func(i int) {
		results[i], errs[i] = g.groundSchema(ctx, schemas[i])
	}); err != nil {
		return nil, err
	}

	var out []*GroundAction
	for i := range schemas {
		if errs[i] != nil {
			return nil, errs[i]
		}
		for _, ga := range results[i] {
			ga.ID = ActionID(len(out))
			out = append(out, ga)
		}
	}
	g.prob.setGroundActions(out)
	return out, nil
}

// groundSchema enumerates bindings in lexicographic order over the
// parameter universes. Bindings that fail to interpret for benign
// reasons, or whose bound precondition is the contradiction, are
// pruned; type mismatches abort the grounding.
func (g *Grounder) groundSchema(ctx context.Context, schema *ActionSchema) ([]*GroundAction, error) {
	universes := make([][]Object, schema.Arity())
	for i, t := range schema.Signature {
		objs, err := g.prob.Lang.ObjectsOf(t)
		if err != nil {
			return nil, fmt.Errorf("grounding %q: parameter %d: %w", schema.Name, i, err)
		}
		if len(objs) == 0 {
			return nil, nil
		}
		universes[i] = objs
	}

	var out []*GroundAction
	binding := NewBinding(schema.Arity())
	var rec func(i int) error
	rec = func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == schema.Arity() {
			ga, err := Ground(g.prob.Interpreter(), schema, binding.Clone(), InvalidAction)
			if err != nil {
				if fatalInterpretation(err) {
					return err
				}
				return nil
			}
			if ga.Precondition.Kind == FormFalse {
				return nil
			}
			out = append(out, ga)
			return nil
		}
		for _, o := range universes[i] {
			binding.Set(i, o)
			if err := rec(i + 1); err != nil {
				return err
			}
		}
		binding.Unset(i)
		return nil
	}
	if err := rec(0); err != nil {
		return nil, err
	}
	return out, nil
}

// GroundAll grounds the problem's schemas with the given worker count
// and installs the action set.
func (p *Problem) GroundAll(ctx context.Context, workers int) error {
	_, err := NewGrounder(p, workers).Run(ctx)
	return err
}
