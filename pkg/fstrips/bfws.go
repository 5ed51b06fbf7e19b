// Best-first width search. One driver covers the whole family: the
// classic F orderings over a single novelty scheme, the simulated
// variants that pair novelty tables with IW-probe relevant sets, and
// the degenerate greedy orderings that skip novelty entirely. The
// members differ only in node ordering, table key, and action source.
package fstrips

import (
	"context"
	"fmt"

	"github.com/gitrdm/gostrips/pkg/logging"
)

// BFWSVariant selects the open-list ordering of the classic driver.
type BFWSVariant string

const (
	// BFWSF0 orders by (novelty, g).
	BFWSF0 BFWSVariant = "F0"
	// BFWSF1 orders by (h, novelty, g).
	BFWSF1 BFWSVariant = "F1"
	// BFWSF2 orders by (novelty, h, g).
	BFWSF2 BFWSVariant = "F2"
	// BFWSF5 orders by (novelty, h, g) with one novelty table per
	// unachieved-goal count.
	BFWSF5 BFWSVariant = "F5"
)

// BFWSOptions configures one driver instance. The zero value asks for
// the defaults: F5 ordering, search width 2, simulation width 1,
// adaptive tables.
type BFWSOptions struct {
	Variant        BFWSVariant
	SearchWidth    int
	SimWidth       int
	Flavour        string
	Budget         int64
	IgnoreNegative bool
	MarkNegative   bool

	// Smart switches on the simulated family: IW probes seed a
	// relevant-atom set and the table key pairs the unachieved-goal
	// count with the reached-atom count.
	Smart bool
	// Lifted enumerates applicable actions through per-schema CSPs
	// instead of a ground-action table.
	Lifted bool
	// Greedy drops novelty: plain best-first on (h, g).
	Greedy bool

	Workers    int
	SimNodeCap int
	MemoryMB   int

	// Log receives progress and breach reports. nil means discard.
	Log *logging.Logger
}

// BFWS is a best-first width search driver.
type BFWS struct {
	name string
	opts BFWSOptions
}

// NewBFWS builds a driver registered under name, filling defaulted
// options in place.
func NewBFWS(name string, opts BFWSOptions) *BFWS {
	if opts.Variant == "" {
		opts.Variant = BFWSF5
	}
	if opts.SearchWidth <= 0 {
		opts.SearchWidth = 2
	}
	if opts.SimWidth <= 0 {
		opts.SimWidth = 1
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
		name = "bfws"
	}
	return &BFWS{name: name, opts: opts}
}

// Name returns the registry name the driver was built under.
func (d *BFWS) Name() string { return d.name }

// order maps the configured variant to an open-list comparator. Lower
// is better in every component; equal nodes pop in insertion order.
func (d *BFWS) order() nodeOrder {
	switch {
	case d.opts.Greedy:
		return func(a, b *Node) bool {
			if a.H != b.H {
				return a.H < b.H
			}
			return a.G < b.G
		}
	case d.opts.Variant == BFWSF0:
		return func(a, b *Node) bool {
			if a.Novelty != b.Novelty {
				return a.Novelty < b.Novelty
			}
			return a.G < b.G
		}
	case d.opts.Variant == BFWSF1:
		return func(a, b *Node) bool {
			if a.H != b.H {
				return a.H < b.H
			}
			if a.Novelty != b.Novelty {
				return a.Novelty < b.Novelty
			}
			return a.G < b.G
		}
	default:
		// F2 and F5 share the ordering; F5 differs in the table key.
		// The smart family rides on the same comparator.
		return func(a, b *Node) bool {
			if a.Novelty != b.Novelty {
				return a.Novelty < b.Novelty
			}
			if a.H != b.H {
				return a.H < b.H
			}
			return a.G < b.G
		}
	}
}

// bfwsRun holds the per-search state so Search itself stays reentrant.
type bfwsRun struct {
	d     *BFWS
	prob  *Problem
	appl  *Applicability
	src   ActionSource
	goals *GoalCounter
	eval  *NoveltyEvaluator
	sim   *Simulator
	mon   *Monitor
	stats *SearchStats
	log   *logging.Logger

	simNodes int
	rsetSum  int
}

func (d *BFWS) setup(ctx context.Context, prob *Problem, stats *SearchStats) (*bfwsRun, error) {
	r := &bfwsRun{d: d, prob: prob, stats: stats, mon: NewMonitor(d.opts.MemoryMB), log: d.opts.Log}
	r.appl = NewApplicability(prob)
	if d.opts.Lifted {
		src, err := NewLiftedSource(ctx, prob, r.appl)
		if err != nil {
			return nil, err
		}
		r.src = src
	} else {
		if prob.GroundActions() == nil {
			if err := prob.GroundAll(ctx, d.opts.Workers); err != nil {
				return nil, err
			}
		}
		src, err := NewGroundSource(prob, r.appl)
		if err != nil {
			return nil, err
		}
		r.src = src
	}
	r.goals = NewGoalCounter(prob)
	features := DefaultFeatures(prob.Lang, prob.Index)
	if !d.opts.Greedy {
		eval, err := NewNoveltyEvaluator(features, d.opts.SearchWidth, d.opts.Flavour, d.opts.Budget, d.opts.IgnoreNegative)
		if err != nil {
			return nil, err
		}
		r.eval = eval
	}
	if d.opts.Smart {
		sim, err := NewSimulator(prob, r.src, r.appl, r.goals, features, SimConfig{
			Width:          d.opts.SimWidth,
			Flavour:        d.opts.Flavour,
			Budget:         d.opts.Budget,
			IgnoreNegative: d.opts.IgnoreNegative,
			MarkNegative:   d.opts.MarkNegative,
			NodeCap:        d.opts.SimNodeCap,
		})
		if err != nil {
			return nil, err
		}
		r.sim = sim
	}
	return r, nil
}

// evaluate fills a node's heuristic, novelty, and smart bookkeeping.
// parent is nil at the root.
func (r *bfwsRun) evaluate(ctx context.Context, n *Node, parent *Node) error {
	u, err := r.goals.Unachieved(n.State)
	if err != nil {
		return err
	}
	n.Unachieved = u
	n.H = u
	if r.eval == nil {
		return nil
	}
	switch {
	case r.d.opts.Smart:
		// Recompute the relevant set when the node achieves a new
		// subgoal; otherwise inherit the parent's set and extend its
		// reached mask along the path.
		if parent == nil || u < parent.Unachieved {
			res, err := r.sim.Run(ctx, n.State)
			if err != nil {
				return err
			}
			r.stats.Simulations++
			r.simNodes += res.Generated
			r.rsetSum += res.Relevant.Len()
			r.log.Debug("simulation finished",
				"unachieved", u,
				"relevant_atoms", res.Relevant.Len(),
				"reached_subgoals", res.ReachedSubgoals,
				"sim_generated", res.Generated)
			n.rset = res.Relevant
			n.reached = res.Relevant.Refresh(n.State)
		} else {
			n.rset = parent.rset
			n.reached = n.rset.Update(parent.reached, n.State)
		}
		n.Reached = n.reached.Count()
		n.key = NoveltyKey(u, n.Reached)
	case r.d.opts.Variant == BFWSF5:
		n.key = NoveltyKey(u, 0)
	default:
		n.key = 0
	}
	n.valuation = r.eval.Features().Valuation(n.valuation, n.State)
	n.Novelty = r.eval.EvaluateValuation(n.key, n.valuation)
	r.stats.Evaluated++
	return nil
}

// Search runs the driver to a plan, exhaustion, or a resource breach.
func (d *BFWS) Search(ctx context.Context, prob *Problem) (*Result, error) {
	res := &Result{}
	switch d.opts.Variant {
	case BFWSF0, BFWSF1, BFWSF2, BFWSF5:
	default:
		return res, fmt.Errorf("unknown bfws variant %q (known: F0, F1, F2, F5)", d.opts.Variant)
	}
	r, err := d.setup(ctx, prob, &res.Stats)
	if err != nil {
		return res, searchErr(err)
	}
	r.log.Debug("search configured",
		"driver", d.name,
		"variant", string(d.opts.Variant),
		"smart", d.opts.Smart,
		"lifted", d.opts.Lifted,
		"search_width", d.opts.SearchWidth)

	root := &Node{State: prob.Init}
	if err := r.evaluate(ctx, root, nil); err != nil {
		return res, searchErr(err)
	}
	res.Stats.Generated++

	open := NewOpenList(d.order())
	closed := newClosedSet()
	open.Push(root)
	closed.insert(root)

	for {
		if err := r.mon.Check(ctx); err != nil {
			r.log.Warn("resource breach", "error", err, "expanded", res.Stats.Expanded)
			return res, err
		}
		n := open.Pop()
		if n == nil {
			r.finish(res)
			return res, ErrUnsolvable
		}
		if n.Unachieved == 0 {
			res.Solved = true
			res.Plan = PlanFrom(n)
			r.finish(res)
			return res, nil
		}
		res.Stats.Expanded++
		if res.Stats.Expanded%10000 == 0 {
			r.log.Debug("search progress",
				"expanded", res.Stats.Expanded,
				"generated", res.Stats.Generated,
				"open", open.Len(),
				"best_h", n.H)
		}

		var inner error
		err := r.src.ForEach(ctx, n.State, func(a *GroundAction) bool {
			child, serr := r.appl.Successor(n.State, a)
			if serr != nil {
				inner = serr
				return false
			}
			if child == nil {
				return true
			}
			res.Stats.Generated++
			if prev := closed.lookup(child); prev != nil {
				if prev.G <= n.G+1 {
					return true
				}
				// Strictly shorter path to a known state.
				open.Invalidate(prev)
				res.Stats.Reopened++
			}
			cn := &Node{State: child, Action: a, Parent: n, G: n.G + 1}
			if serr := r.evaluate(ctx, cn, n); serr != nil {
				inner = serr
				return false
			}
			open.Push(cn)
			closed.insert(cn)
			return true
		})
		if err != nil {
			return res, searchErr(err)
		}
		if inner != nil {
			return res, searchErr(inner)
		}
	}
}

// finish reports the end-of-run statistics the JSON document does not
// carry.
func (r *bfwsRun) finish(res *Result) {
	args := []any{
		"solved", res.Solved,
		"plan_length", len(res.Plan),
		"expanded", res.Stats.Expanded,
		"generated", res.Stats.Generated,
		"evaluated", res.Stats.Evaluated,
		"reopened", res.Stats.Reopened,
	}
	if r.d.opts.Smart {
		avgRset := 0
		if res.Stats.Simulations > 0 {
			avgRset = r.rsetSum / res.Stats.Simulations
		}
		args = append(args,
			"simulations", res.Stats.Simulations,
			"simulated_nodes", r.simNodes,
			"avg_relevant_atoms", avgRset)
	}
	r.log.Info("search finished", args...)
}
