// Relevant-atom sets. An IW simulation produces the atom list R; each
// search node then carries a reached mask over R's positions, inherited
// from its parent and extended with the atoms its own state makes true.
// The reached count feeds the novelty table key alongside the
// unachieved-goal count.
package fstrips

// AtomStatus is the per-atom standing within a relevant set.
type AtomStatus uint8

const (
	// AtomUnreached marks a relevant atom no state on the path achieved.
	AtomUnreached AtomStatus = iota
	// AtomReached marks a relevant atom some state on the path achieved.
	AtomReached
	// AtomIrrelevant marks an atom dropped from counting.
	AtomIrrelevant
)

// RelevantSet is an ordered atom list with constant-time membership.
type RelevantSet struct {
	atoms  []Atom
	lookup map[atomKey]int
	status []AtomStatus
}

type atomKey struct {
	v    VarID
	code int
}

// NewRelevantSet indexes the given atoms. Order is preserved; the
// reached masks of search nodes are over these positions.
func NewRelevantSet(atoms []Atom) *RelevantSet {
	r := &RelevantSet{
		atoms:  atoms,
		lookup: make(map[atomKey]int, len(atoms)),
		status: make([]AtomStatus, len(atoms)),
	}
	for i, a := range atoms {
		r.lookup[atomKey{v: a.Var, code: a.Value.Code()}] = i
	}
	return r
}

// Len returns the number of relevant atoms.
func (r *RelevantSet) Len() int { return len(r.atoms) }

// Atoms returns the atom list in position order.
func (r *RelevantSet) Atoms() []Atom { return r.atoms }

// Position finds an atom's position, reporting whether it is relevant.
func (r *RelevantSet) Position(a Atom) (int, bool) {
	i, ok := r.lookup[atomKey{v: a.Var, code: a.Value.Code()}]
	return i, ok
}

// Status returns an atom's standing by position.
func (r *RelevantSet) Status(i int) AtomStatus { return r.status[i] }

// MarkIrrelevant drops an atom from counting.
func (r *RelevantSet) MarkIrrelevant(i int) { r.status[i] = AtomIrrelevant }

// Refresh builds the reached mask of a state from scratch: every
// counting atom the state satisfies is marked.
func (r *RelevantSet) Refresh(s *State) *Bitset {
	mask := NewBitsetOf(len(r.atoms), nil)
	r.extend(mask, s)
	return mask
}

// Update clones the parent's mask and extends it with the atoms the
// child state satisfies. Reached atoms stay reached: the count is over
// the path, not the single state.
func (r *RelevantSet) Update(parent *Bitset, s *State) *Bitset {
	mask := parent.Clone()
	r.extend(mask, s)
	return mask
}

func (r *RelevantSet) extend(mask *Bitset, s *State) {
	for i, a := range r.atoms {
		if r.status[i] == AtomIrrelevant {
			continue
		}
		if s.Get(a.Var).Equal(a.Value) {
			mask.words[i/64] |= 1 << uint(i%64)
		}
	}
}
