// Uninformed breadth-first search, and the expansion helper it shares
// with the iterated-width driver. Both run over the full ground action
// set; when every action compiles to a plain operator the expansion
// skips the interpreter entirely.
package fstrips

import (
	"context"
	"errors"

	"github.com/gitrdm/gostrips/pkg/logging"
)

// expander generates (action name, successor) pairs for the blind
// drivers, through compiled operators when available.
type expander struct {
	prob *Problem
	appl *Applicability
	src  *GroundSource
	ops  []PlainOperator
}

func newExpander(ctx context.Context, prob *Problem, workers int) (*expander, error) {
	if prob.GroundActions() == nil {
		if err := prob.GroundAll(ctx, workers); err != nil {
			return nil, err
		}
	}
	appl := NewApplicability(prob)
	src, err := NewGroundSource(prob, appl)
	if err != nil {
		return nil, err
	}
	e := &expander{prob: prob, appl: appl, src: src}
	ops, err := CompilePlain(prob)
	if err != nil && !errors.Is(err, ErrUntranslatable) {
		return nil, err
	}
	e.ops = ops
	return e, nil
}

// forEach yields the applicable successors of s.
func (e *expander) forEach(ctx context.Context, s *State, yield func(name string, child *State) bool) error {
	if e.ops != nil {
		for i := range e.ops {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			op := &e.ops[i]
			if !op.Applicable(s) {
				continue
			}
			child := op.Apply(s)
			ok, err := ConstraintHolds(e.prob, child)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if !yield(op.Name, child) {
				return nil
			}
		}
		return nil
	}
	var inner error
	err := e.src.ForEach(ctx, s, func(a *GroundAction) bool {
		child, serr := e.appl.Successor(s, a)
		if serr != nil {
			inner = serr
			return false
		}
		if child == nil {
			return true
		}
		return yield(a.Name(), child)
	})
	if err != nil {
		return err
	}
	return inner
}

// bfsNode is the lightweight node the blind drivers chain plans from.
type bfsNode struct {
	state  *State
	parent *bfsNode
	name   string
}

func bfsPlan(n *bfsNode) []string {
	var rev []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		rev = append(rev, cur.name)
	}
	plan := make([]string, len(rev))
	for i, name := range rev {
		plan[len(rev)-1-i] = name
	}
	return plan
}

// stateSet tracks visited states by hash with equality fallback.
type stateSet struct {
	buckets map[uint64][]*State
}

func newStateSet() *stateSet {
	return &stateSet{buckets: make(map[uint64][]*State)}
}

// add records s, reporting false when it was already present.
func (ss *stateSet) add(s *State) bool {
	h := s.Hash()
	for _, old := range ss.buckets[h] {
		if old.Equal(s) {
			return false
		}
	}
	ss.buckets[h] = append(ss.buckets[h], s)
	return true
}

// BFSOptions configures the uninformed driver.
type BFSOptions struct {
	Workers  int
	MemoryMB int
	Log      *logging.Logger
}

// BFS is uninformed breadth-first search with duplicate detection. It
// is complete and optimal in plan length, and exists as the baseline
// the width-based drivers are measured against.
type BFS struct {
	name string
	opts BFSOptions
}

// NewBFS builds the driver.
func NewBFS(name string, opts BFSOptions) *BFS {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if name == "" {
		name = "bfs"
	}
	return &BFS{name: name, opts: opts}
}

// Name returns the registry name the driver was built under.
func (d *BFS) Name() string { return d.name }

// Search explores layer by layer. The goal is tested at generation, so
// the first plan found is shortest.
func (d *BFS) Search(ctx context.Context, prob *Problem) (*Result, error) {
	res := &Result{}
	exp, err := newExpander(ctx, prob, d.opts.Workers)
	if err != nil {
		return res, searchErr(err)
	}
	goals := NewGoalCounter(prob)
	mon := NewMonitor(d.opts.MemoryMB)

	root := &bfsNode{state: prob.Init}
	res.Stats.Generated++
	u, err := goals.Unachieved(root.state)
	if err != nil {
		return res, searchErr(err)
	}
	if u == 0 {
		res.Solved = true
		res.Plan = []string{}
		return res, nil
	}
	seen := newStateSet()
	seen.add(root.state)
	queue := []*bfsNode{root}

	for len(queue) > 0 {
		if err := mon.Check(ctx); err != nil {
			return res, err
		}
		n := queue[0]
		queue = queue[1:]
		res.Stats.Expanded++

		var goal *bfsNode
		var inner error
		err := exp.forEach(ctx, n.state, func(name string, child *State) bool {
			if !seen.add(child) {
				return true
			}
			res.Stats.Generated++
			cu, cerr := goals.Unachieved(child)
			if cerr != nil {
				inner = cerr
				return false
			}
			cn := &bfsNode{state: child, parent: n, name: name}
			if cu == 0 {
				goal = cn
				return false
			}
			queue = append(queue, cn)
			return true
		})
		if err != nil {
			return res, searchErr(err)
		}
		if inner != nil {
			return res, searchErr(inner)
		}
		if goal != nil {
			res.Solved = true
			res.Plan = bfsPlan(goal)
			d.opts.Log.Info("search finished",
				"solved", true,
				"plan_length", len(res.Plan),
				"expanded", res.Stats.Expanded,
				"generated", res.Stats.Generated)
			return res, nil
		}
	}
	d.opts.Log.Info("search finished",
		"solved", false,
		"expanded", res.Stats.Expanded,
		"generated", res.Stats.Generated)
	return res, ErrUnsolvable
}
