// Goal-distance accounting. The goal-count heuristic drives the F1/F2
// orderings and the unachieved-conjunct count keys the novelty tables.
// With the flat-conjunction fast path each conjunct is one array probe;
// otherwise the whole goal counts as a single conjunct interpreted as
// one unit.
package fstrips

// GoalHolds interprets the goal formula, treating benign interpretation
// failures as "not satisfied". Type mismatches stay fatal.
func GoalHolds(prob *Problem, s *State) (bool, error) {
	ok, err := prob.GoalSatisfied(s)
	if err != nil {
		if fatalInterpretation(err) {
			return false, err
		}
		return false, nil
	}
	return ok, nil
}

// ConstraintHolds mirrors GoalHolds for the state constraint: benign
// interpretation failures count as a violation.
func ConstraintHolds(prob *Problem, s *State) (bool, error) {
	ok, err := prob.ConstraintSatisfied(s)
	if err != nil {
		if fatalInterpretation(err) {
			return false, err
		}
		return false, nil
	}
	return ok, nil
}

// GoalCounter counts unsatisfied goal conjuncts.
type GoalCounter struct {
	prob  *Problem
	atoms []Atom
}

// NewGoalCounter prepares the counter over the problem's goal.
func NewGoalCounter(prob *Problem) *GoalCounter {
	return &GoalCounter{prob: prob, atoms: prob.Goal.FlatAtoms()}
}

// Total returns the number of tracked conjuncts.
func (gc *GoalCounter) Total() int {
	if gc.atoms == nil {
		return 1
	}
	return len(gc.atoms)
}

// Conjuncts returns the flat goal atoms, or nil when the goal needs the
// interpreter.
func (gc *GoalCounter) Conjuncts() []Atom { return gc.atoms }

// Unachieved counts the conjuncts false in the state.
func (gc *GoalCounter) Unachieved(s *State) (int, error) {
	if gc.atoms == nil {
		ok, err := GoalHolds(gc.prob, s)
		if err != nil {
			return 0, err
		}
		if ok {
			return 0, nil
		}
		return 1, nil
	}
	n := 0
	for _, a := range gc.atoms {
		if !s.Get(a.Var).Equal(a.Value) {
			n++
		}
	}
	return n, nil
}

// AchievedMask marks the conjuncts true in the state. The mask is over
// conjunct positions in Conjuncts order.
func (gc *GoalCounter) AchievedMask(s *State) (*Bitset, error) {
	mask := NewBitsetOf(gc.Total(), nil)
	if gc.atoms == nil {
		ok, err := GoalHolds(gc.prob, s)
		if err != nil {
			return nil, err
		}
		if ok {
			mask.words[0] |= 1
		}
		return mask, nil
	}
	for i, a := range gc.atoms {
		if s.Get(a.Var).Equal(a.Value) {
			mask.words[i/64] |= 1 << uint(i%64)
		}
	}
	return mask, nil
}
