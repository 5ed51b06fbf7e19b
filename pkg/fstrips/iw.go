// Iterated width. IW(w) is breadth-first search that admits only
// states novel at width w or less; the driver runs IW(1), IW(2), ...
// up to the configured bound and reports unsolvable only when the last
// iteration exhausts. Novelty pruning subsumes duplicate detection, so
// the iterations carry no closed set.
package fstrips

import (
	"context"

	"github.com/gitrdm/gostrips/pkg/logging"
)

// IWOptions configures the iterated-width driver.
type IWOptions struct {
	MaxWidth       int
	Flavour        string
	Budget         int64
	IgnoreNegative bool
	Workers        int
	MemoryMB       int
	Log            *logging.Logger
}

// IW is the iterated-width driver.
type IW struct {
	name string
	opts IWOptions
}

// NewIW builds the driver, filling defaulted options in place.
func NewIW(name string, opts IWOptions) *IW {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 2
	}
	if opts.Flavour == "" {
		opts.Flavour = EvaluatorAdaptive
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultNoveltyBudget
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if name == "" {
		name = "iw"
	}
	return &IW{name: name, opts: opts}
}

// Name returns the registry name the driver was built under.
func (d *IW) Name() string { return d.name }

// Search runs the iterations in increasing width over one shared
// monitor, accumulating statistics across them.
func (d *IW) Search(ctx context.Context, prob *Problem) (*Result, error) {
	res := &Result{}
	exp, err := newExpander(ctx, prob, d.opts.Workers)
	if err != nil {
		return res, searchErr(err)
	}
	goals := NewGoalCounter(prob)
	features := DefaultFeatures(prob.Lang, prob.Index)
	mon := NewMonitor(d.opts.MemoryMB)

	res.Stats.Generated++
	u, err := goals.Unachieved(prob.Init)
	if err != nil {
		return res, searchErr(err)
	}
	if u == 0 {
		res.Solved = true
		res.Plan = []string{}
		return res, nil
	}

	for w := 1; w <= d.opts.MaxWidth; w++ {
		d.opts.Log.Debug("iteration start", "width", w, "expanded", res.Stats.Expanded)
		plan, err := d.iterate(ctx, exp, goals, features, mon, prob.Init, w, &res.Stats)
		if err != nil {
			return res, err
		}
		if plan != nil {
			res.Solved = true
			res.Plan = plan
			d.opts.Log.Info("search finished",
				"solved", true,
				"width", w,
				"plan_length", len(plan),
				"expanded", res.Stats.Expanded,
				"generated", res.Stats.Generated,
				"pruned", res.Stats.Pruned)
			return res, nil
		}
	}
	d.opts.Log.Info("search finished",
		"solved", false,
		"max_width", d.opts.MaxWidth,
		"expanded", res.Stats.Expanded,
		"generated", res.Stats.Generated,
		"pruned", res.Stats.Pruned)
	return res, ErrUnsolvable
}

// iterate runs one IW(w) pass. It returns a nil plan when the pass
// exhausts without reaching the goal.
func (d *IW) iterate(ctx context.Context, exp *expander, goals *GoalCounter, features *FeatureSet, mon *Monitor, init *State, w int, stats *SearchStats) ([]string, error) {
	eval, err := NewNoveltyEvaluator(features, w, d.opts.Flavour, d.opts.Budget, d.opts.IgnoreNegative)
	if err != nil {
		return nil, err
	}
	root := &bfsNode{state: init}
	eval.Evaluate(0, init)
	stats.Evaluated++
	queue := []*bfsNode{root}

	for len(queue) > 0 {
		if err := mon.Check(ctx); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]
		stats.Expanded++

		var goal *bfsNode
		var inner error
		err := exp.forEach(ctx, n.state, func(name string, child *State) bool {
			stats.Generated++
			cu, cerr := goals.Unachieved(child)
			if cerr != nil {
				inner = cerr
				return false
			}
			cn := &bfsNode{state: child, parent: n, name: name}
			// The goal is tested before the novelty cut so a goal
			// state never gets pruned away.
			if cu == 0 {
				goal = cn
				return false
			}
			stats.Evaluated++
			if nov := eval.Evaluate(0, child); nov > w {
				stats.Pruned++
				return true
			}
			queue = append(queue, cn)
			return true
		})
		if err != nil {
			return nil, searchErr(err)
		}
		if inner != nil {
			return nil, searchErr(inner)
		}
		if goal != nil {
			return bfsPlan(goal), nil
		}
	}
	return nil, nil
}
