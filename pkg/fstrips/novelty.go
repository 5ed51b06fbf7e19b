// Novelty tables and the keyed evaluator. A table answers "does this
// state's feature valuation contain a width-k tuple never seen before"
// with query-and-mark semantics: every tuple of the valuation is
// recorded as a side effect. The evaluator shards tables by a
// caller-supplied key and clones fresh tables from a template on first
// use of a key.
package fstrips

import (
	"math"
)

// NoveltyInf is the novelty of a state none of whose tuples is new.
const NoveltyInf = math.MaxInt32

// Storage flavours for the tuple sets, selected by the evaluator_t
// option.
const (
	EvaluatorGeneric  = "generic"
	EvaluatorAdaptive = "adaptive"
)

// DefaultNoveltyBudget caps the dense bitset size per table.
const DefaultNoveltyBudget = 10 << 20

// noveltyStore is a monotone set of tuple indexes.
type noveltyStore interface {
	// testAndSet records the index and reports whether it was absent.
	testAndSet(i int) bool
	// fresh returns an empty store of the same shape.
	fresh() noveltyStore
}

// genericStore is a dense bitset over the full index space.
type genericStore struct {
	words []uint64
	size  int
}

func newGenericStore(size int) *genericStore {
	return &genericStore{words: make([]uint64, (size+63)/64), size: size}
}

func (g *genericStore) testAndSet(i int) bool {
	w, mask := i/64, uint64(1)<<uint(i%64)
	if g.words[w]&mask != 0 {
		return false
	}
	g.words[w] |= mask
	return true
}

func (g *genericStore) fresh() noveltyStore { return newGenericStore(g.size) }

// adaptiveStore is a hash set; it trades per-tuple overhead for
// indifference to the size of the index space.
type adaptiveStore struct {
	seen map[int]struct{}
}

func newAdaptiveStore() *adaptiveStore {
	return &adaptiveStore{seen: make(map[int]struct{})}
}

func (a *adaptiveStore) testAndSet(i int) bool {
	if _, ok := a.seen[i]; ok {
		return false
	}
	a.seen[i] = struct{}{}
	return true
}

func (a *adaptiveStore) fresh() noveltyStore { return newAdaptiveStore() }

// combinePair encodes an unordered index pair with hi > lo. The
// encoding is strictly monotone in hi, so growing the index space only
// appends to the end of the pair range.
func combinePair(hi, lo int) int { return hi*(hi-1)/2 + lo }

// pairSpace returns the number of distinct unordered pairs over n
// indexes.
func pairSpace(n int) int { return n * (n - 1) / 2 }

// NoveltyTable holds the seen width-1 tuples and, at width 2, the seen
// pairs.
type NoveltyTable struct {
	width      int
	numIndexes int
	singles    noveltyStore
	pairs      noveltyStore
}

// NewNoveltyTable builds a table for the given width over an index
// space. The generic flavour allocates its bitsets up front and fails
// with a NoveltyBudgetError when a dense table would exceed the byte
// budget; the adaptive flavour grows with the tuples actually seen.
func NewNoveltyTable(width, numIndexes int, flavour string, budget int64) (*NoveltyTable, error) {
	if budget <= 0 {
		budget = DefaultNoveltyBudget
	}
	t := &NoveltyTable{width: width, numIndexes: numIndexes}
	switch flavour {
	case EvaluatorAdaptive:
		t.singles = newAdaptiveStore()
		if width >= 2 {
			t.pairs = newAdaptiveStore()
		}
	default:
		if required := int64(numIndexes+7) / 8; required > budget {
			return nil, &NoveltyBudgetError{Width: 1, Required: required, Budget: budget}
		}
		t.singles = newGenericStore(numIndexes)
		if width >= 2 {
			if required := int64(pairSpace(numIndexes)+7) / 8; required > budget {
				return nil, &NoveltyBudgetError{Width: 2, Required: required, Budget: budget}
			}
			t.pairs = newGenericStore(pairSpace(numIndexes))
		}
	}
	return t, nil
}

// Width returns the maximum tuple width the table tracks.
func (t *NoveltyTable) Width() int { return t.width }

// Clone returns an empty table with the same configuration.
func (t *NoveltyTable) Clone() *NoveltyTable {
	c := &NoveltyTable{width: t.width, numIndexes: t.numIndexes, singles: t.singles.fresh()}
	if t.pairs != nil {
		c.pairs = t.pairs.fresh()
	}
	return c
}

// Evaluate returns the novelty of the valuation: 1 when some single
// feature value is unseen, 2 when some pair is, NoveltyInf otherwise.
// All tuples of the valuation are recorded regardless of the result.
// With ignoreNegative set, features valued 0 contribute nothing.
func (t *NoveltyTable) Evaluate(fi *FeatureIndexer, valuation []int, ignoreNegative bool) int {
	novelty := NoveltyInf

	// scratch holds the flattened index of every contributing feature;
	// the pair pass below iterates it.
	scratch := make([]int, 0, len(valuation))
	for f, v := range valuation {
		if ignoreNegative && v == 0 {
			continue
		}
		idx := fi.ToIndex(f, v)
		scratch = append(scratch, idx)
		if t.singles.testAndSet(idx) {
			novelty = 1
		}
	}
	if t.width < 2 {
		return novelty
	}
	for i := 1; i < len(scratch); i++ {
		for j := 0; j < i; j++ {
			hi, lo := scratch[i], scratch[j]
			if hi < lo {
				hi, lo = lo, hi
			}
			if t.pairs.testAndSet(combinePair(hi, lo)) && novelty > 2 {
				novelty = 2
			}
		}
	}
	return novelty
}

// NoveltyEvaluator shards novelty tables by a caller-supplied key. The
// common key packs ⟨#unachieved goals, #reached relevant atoms⟩ into
// one integer.
type NoveltyEvaluator struct {
	features       *FeatureSet
	template       *NoveltyTable
	tables         map[int]*NoveltyTable
	ignoreNegative bool

	scratch []int
}

// NewNoveltyEvaluator validates the configuration by building the
// template table; per-key tables are cloned from it on demand.
func NewNoveltyEvaluator(fs *FeatureSet, width int, flavour string, budget int64, ignoreNegative bool) (*NoveltyEvaluator, error) {
	template, err := NewNoveltyTable(width, fs.Indexer().NumIndexes(), flavour, budget)
	if err != nil {
		return nil, err
	}
	return &NoveltyEvaluator{
		features:       fs,
		template:       template,
		tables:         make(map[int]*NoveltyTable),
		ignoreNegative: ignoreNegative,
	}, nil
}

// Width returns the configured maximum tuple width.
func (e *NoveltyEvaluator) Width() int { return e.template.Width() }

// Features returns the evaluated feature set.
func (e *NoveltyEvaluator) Features() *FeatureSet { return e.features }

// Evaluate computes and records the novelty of a state under the given
// table key.
func (e *NoveltyEvaluator) Evaluate(key int, s *State) int {
	e.scratch = e.features.Valuation(e.scratch, s)
	return e.EvaluateValuation(key, e.scratch)
}

// EvaluateValuation is Evaluate over a precomputed feature valuation,
// for callers that cache valuations on their nodes.
func (e *NoveltyEvaluator) EvaluateValuation(key int, valuation []int) int {
	table, ok := e.tables[key]
	if !ok {
		table = e.template.Clone()
		e.tables[key] = table
	}
	return table.Evaluate(e.features.Indexer(), valuation, e.ignoreNegative)
}

// Reset drops every per-key table. Simulation engines reuse one
// evaluator across runs this way.
func (e *NoveltyEvaluator) Reset() {
	e.tables = make(map[int]*NoveltyTable)
}

// TableCount reports how many keyed tables exist, for statistics.
func (e *NoveltyEvaluator) TableCount() int { return len(e.tables) }
