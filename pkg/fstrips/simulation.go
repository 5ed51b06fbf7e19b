// IW simulation: a width-bounded breadth-first probe from a seed state
// that discovers which goal conjuncts are reachable and which atoms lie
// on the paths that first achieve them. The resulting atom set seeds
// the relevant-set machinery of the smart BFWS variants.
package fstrips

import (
	"context"
	"errors"
)

// DefaultSimulationNodeCap bounds one probe when the caller does not.
const DefaultSimulationNodeCap = 50000

// SimConfig bundles the sub-engine knobs.
type SimConfig struct {
	Width          int
	Flavour        string
	Budget         int64
	IgnoreNegative bool
	// MarkNegative records falsifying atoms (value code 0) as relevant
	// alongside the positive ones.
	MarkNegative bool
	NodeCap      int
}

// SimResult is what one simulation learned.
type SimResult struct {
	Relevant        *RelevantSet
	ReachedSubgoals int
	Generated       int
	Expanded        int
	Pruned          int
}

// Simulator runs IW probes. It owns a novelty evaluator that is reset
// before every run, so a single Simulator serves a whole search.
type Simulator struct {
	prob  *Problem
	src   ActionSource
	appl  *Applicability
	goals *GoalCounter
	eval  *NoveltyEvaluator
	ops   []PlainOperator
	cfg   SimConfig
}

// NewSimulator builds the sub-engine. The feature set is shared with
// the outer search; the evaluator is private. When every ground action
// compiles to a plain operator the probe expands through the compiled
// path instead of the interpreter.
func NewSimulator(prob *Problem, src ActionSource, appl *Applicability, goals *GoalCounter, features *FeatureSet, cfg SimConfig) (*Simulator, error) {
	if cfg.NodeCap <= 0 {
		cfg.NodeCap = DefaultSimulationNodeCap
	}
	eval, err := NewNoveltyEvaluator(features, cfg.Width, cfg.Flavour, cfg.Budget, cfg.IgnoreNegative)
	if err != nil {
		return nil, err
	}
	sim := &Simulator{prob: prob, src: src, appl: appl, goals: goals, eval: eval, cfg: cfg}
	if prob.GroundActions() != nil {
		ops, err := CompilePlain(prob)
		if err != nil && !errors.Is(err, ErrUntranslatable) {
			return nil, err
		}
		sim.ops = ops
	}
	return sim, nil
}

type simNode struct {
	state    *State
	parent   *simNode
	achieved *Bitset
}

// Run probes breadth-first from the seed until every reachable subgoal
// has a witness, no novel state remains, or the node cap is hit.
func (sim *Simulator) Run(ctx context.Context, seed *State) (*SimResult, error) {
	sim.eval.Reset()
	res := &SimResult{}
	total := sim.goals.Total()
	witnessed := NewBitsetOf(total, nil)

	var atoms []Atom
	seen := make(map[atomKey]struct{})
	collectPath := func(n *simNode) {
		for cur := n; cur != nil; cur = cur.parent {
			sim.collectState(cur.state, &atoms, seen)
		}
	}

	rootAchieved, err := sim.goals.AchievedMask(seed)
	if err != nil {
		return nil, err
	}
	root := &simNode{state: seed, achieved: rootAchieved}
	res.Generated++
	sim.eval.Evaluate(0, seed)
	if !rootAchieved.IsEmpty() {
		collectPath(root)
		rootAchieved.Iterate(func(i int) { witnessed.words[i/64] |= 1 << uint(i%64) })
	}

	queue := []*simNode{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if witnessed.Count() == total || res.Generated >= sim.cfg.NodeCap {
			break
		}
		n := queue[0]
		queue = queue[1:]
		res.Expanded++

		var inner error
		visit := func(child *State) bool {
			res.Generated++
			if nov := sim.eval.Evaluate(0, child); nov > sim.cfg.Width {
				res.Pruned++
				return res.Generated < sim.cfg.NodeCap
			}
			achieved, err := sim.goals.AchievedMask(child)
			if err != nil {
				inner = err
				return false
			}
			cn := &simNode{state: child, parent: n, achieved: achieved}
			fresh := false
			achieved.Iterate(func(i int) {
				if !witnessed.Has(i) {
					witnessed.words[i/64] |= 1 << uint(i%64)
					fresh = true
				}
			})
			if fresh {
				collectPath(cn)
			}
			queue = append(queue, cn)
			return res.Generated < sim.cfg.NodeCap && witnessed.Count() < total
		}
		var err error
		if sim.ops != nil {
			err = sim.expandPlain(ctx, n.state, visit)
		} else {
			err = sim.src.ForEach(ctx, n.state, func(a *GroundAction) bool {
				child, serr := sim.appl.Successor(n.state, a)
				if serr != nil {
					inner = serr
					return false
				}
				if child == nil {
					return true
				}
				return visit(child)
			})
		}
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
	}

	res.Relevant = NewRelevantSet(atoms)
	res.ReachedSubgoals = witnessed.Count()
	return res, nil
}

// expandPlain generates successors through the compiled operators,
// still honoring the state constraint.
func (sim *Simulator) expandPlain(ctx context.Context, s *State, visit func(*State) bool) error {
	for i := range sim.ops {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		op := &sim.ops[i]
		if !op.Applicable(s) {
			continue
		}
		child := op.Apply(s)
		ok, err := ConstraintHolds(sim.prob, child)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !visit(child) {
			return nil
		}
	}
	return nil
}

// collectState appends the state's unseen atoms in variable order.
func (sim *Simulator) collectState(s *State, atoms *[]Atom, seen map[atomKey]struct{}) {
	for v := VarID(0); int(v) < s.Len(); v++ {
		o := s.Get(v)
		if !sim.cfg.MarkNegative && o.Code() == 0 {
			continue
		}
		k := atomKey{v: v, code: o.Code()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		*atoms = append(*atoms, Atom{Var: v, Value: o})
	}
}
