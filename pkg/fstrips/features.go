// Novelty features: projections of a state onto small integers. The
// default set has one feature per state variable whose value is the
// variable's object code. The indexer flattens (feature, value) pairs
// into a single dense index space for the novelty tables.
package fstrips

// Feature maps a state to a small integer.
type Feature interface {
	Value(s *State) int
}

// StateVariableFeature reads one state variable's code.
type StateVariableFeature struct {
	Var VarID
}

func (f StateVariableFeature) Value(s *State) int { return s.Get(f.Var).Code() }

// FeatureIndexer maps (feature position, value code) pairs into
// [0, NumIndexes). Each feature owns a contiguous block sized by its
// sound value range, so distinct (feature, value) pairs never collide.
type FeatureIndexer struct {
	offsets []int
	mins    []int
	total   int
}

// NewFeatureIndexer lays out one block per feature from its value
// range.
func NewFeatureIndexer(ranges []Interval) *FeatureIndexer {
	fi := &FeatureIndexer{
		offsets: make([]int, len(ranges)),
		mins:    make([]int, len(ranges)),
	}
	for i, r := range ranges {
		fi.offsets[i] = fi.total
		fi.mins[i] = r.Min
		fi.total += r.Max - r.Min + 1
	}
	return fi
}

// NumIndexes returns the size of the flattened index space.
func (fi *FeatureIndexer) NumIndexes() int { return fi.total }

// ToIndex flattens a feature value. Values must lie within the range
// declared for the feature.
func (fi *FeatureIndexer) ToIndex(feature, value int) int {
	return fi.offsets[feature] + (value - fi.mins[feature])
}

// FeatureSet is a fixed-order feature list with its indexer.
type FeatureSet struct {
	features []Feature
	indexer  *FeatureIndexer
}

// NewFeatureSet pairs features with their sound value ranges.
func NewFeatureSet(features []Feature, ranges []Interval) *FeatureSet {
	return &FeatureSet{features: features, indexer: NewFeatureIndexer(ranges)}
}

// DefaultFeatures builds the per-state-variable feature set.
func DefaultFeatures(lang *Language, idx *VariableIndex) *FeatureSet {
	features := make([]Feature, idx.Count())
	ranges := make([]Interval, idx.Count())
	for _, vd := range idx.Variables() {
		features[vd.ID] = StateVariableFeature{Var: vd.ID}
		ranges[vd.ID] = typeBounds(lang, vd.Type)
	}
	return NewFeatureSet(features, ranges)
}

// Len returns the number of features.
func (fs *FeatureSet) Len() int { return len(fs.features) }

// Indexer returns the shared indexer.
func (fs *FeatureSet) Indexer() *FeatureIndexer { return fs.indexer }

// Valuation computes the feature vector of a state into dst, growing it
// as needed, and returns it.
func (fs *FeatureSet) Valuation(dst []int, s *State) []int {
	if cap(dst) < len(fs.features) {
		dst = make([]int, len(fs.features))
	}
	dst = dst[:len(fs.features)]
	for i, f := range fs.features {
		dst[i] = f.Value(s)
	}
	return dst
}
