// Shared search plumbing: the engine contract, the closed set, the
// resource monitor polled at every pop, and the statistics every driver
// reports.
package fstrips

import (
	"context"
	"errors"
	"runtime"
)

// SearchStats counts driver work. Generated counts successor states,
// evaluated counts novelty/heuristic evaluations, expanded counts pops
// that went on to enumerate actions.
type SearchStats struct {
	Generated   int
	Expanded    int
	Evaluated   int
	Pruned      int
	Simulations int
	Reopened    int
}

// Result is the outcome of one search. When Search returns an error the
// Result still carries the statistics accumulated up to the breach.
type Result struct {
	Solved bool
	Plan   []string
	Stats  SearchStats
}

// Engine is one search strategy over a loaded problem.
type Engine interface {
	Name() string
	Search(ctx context.Context, prob *Problem) (*Result, error)
}

// memPollInterval spaces out ReadMemStats calls, which stop the world.
const memPollInterval = 128

// Monitor converts deadline and memory breaches into the search
// sentinels. Drivers poll it once per pop; a breach is sticky.
type Monitor struct {
	maxBytes uint64
	polls    uint64
	breached error
}

// NewMonitor caps the heap at maxMB megabytes; 0 disables the memory
// check. The deadline rides on the context.
func NewMonitor(maxMB int) *Monitor {
	m := &Monitor{}
	if maxMB > 0 {
		m.maxBytes = uint64(maxMB) << 20
	}
	return m
}

// Check polls the context deadline and, periodically, the heap size.
func (m *Monitor) Check(ctx context.Context) error {
	if m.breached != nil {
		return m.breached
	}
	if ctx.Err() != nil {
		m.breached = ErrOutOfTime
		return m.breached
	}
	if m.maxBytes > 0 {
		m.polls++
		if m.polls%memPollInterval == 1 {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			if ms.HeapAlloc > m.maxBytes {
				m.breached = ErrOutOfMemory
				return m.breached
			}
		}
	}
	return nil
}

// searchErr folds raw context errors into the deadline sentinel so
// every driver reports breaches the same way.
func searchErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrOutOfTime
	}
	return err
}

// closedSet maps state hashes to the best known node per state. Hash
// collisions fall back to value equality within a bucket.
type closedSet struct {
	buckets map[uint64][]*Node
}

func newClosedSet() *closedSet {
	return &closedSet{buckets: make(map[uint64][]*Node)}
}

// lookup finds the node holding an equal state, if any.
func (cs *closedSet) lookup(s *State) *Node {
	for _, n := range cs.buckets[s.Hash()] {
		if n.State.Equal(s) {
			return n
		}
	}
	return nil
}

// insert records a node, replacing a previous node for the same state.
func (cs *closedSet) insert(n *Node) {
	h := n.State.Hash()
	bucket := cs.buckets[h]
	for i, old := range bucket {
		if old.State.Equal(n.State) {
			bucket[i] = n
			return
		}
	}
	cs.buckets[h] = append(bucket, n)
}

// size returns the number of distinct states.
func (cs *closedSet) size() int {
	total := 0
	for _, b := range cs.buckets {
		total += len(b)
	}
	return total
}
