package fstrips

import "testing"

// TestRelevantSet_PositionLookup checks membership and position order
// match the construction list.
func TestRelevantSet_PositionLookup(t *testing.T) {
	atoms := []Atom{
		{Var: 0, Value: MakeBool(true)},
		{Var: 2, Value: MakeBool(true)},
	}
	r := NewRelevantSet(atoms)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if pos, ok := r.Position(atoms[1]); !ok || pos != 1 {
		t.Fatalf("Position = (%d, %v), want (1, true)", pos, ok)
	}
	// Same variable, different value: not relevant.
	if _, ok := r.Position(Atom{Var: 2, Value: MakeBool(false)}); ok {
		t.Fatalf("false-valued atom reported relevant")
	}
}

// TestRelevantSet_RefreshMarksSatisfied checks a from-scratch mask
// holds exactly the atoms the state makes true.
func TestRelevantSet_RefreshMarksSatisfied(t *testing.T) {
	prob := switchProblem(t, 2)
	r := NewRelevantSet([]Atom{
		{Var: 0, Value: MakeBool(true)},
		{Var: 1, Value: MakeBool(true)},
	})

	if got := r.Refresh(prob.Init).Count(); got != 0 {
		t.Fatalf("initial reached count = %d, want 0", got)
	}

	s := prob.Init.Clone()
	s.Set(0, MakeBool(true))
	mask := r.Refresh(s)
	if mask.Count() != 1 || !mask.Has(0) {
		t.Fatalf("mask = %v, want exactly position 0", mask)
	}
}

// TestRelevantSet_UpdateIsMonotone checks reached atoms stay reached
// when a later state stops satisfying them.
func TestRelevantSet_UpdateIsMonotone(t *testing.T) {
	prob := switchProblem(t, 2)
	r := NewRelevantSet([]Atom{
		{Var: 0, Value: MakeBool(true)},
		{Var: 1, Value: MakeBool(true)},
	})

	first := prob.Init.Clone()
	first.Set(0, MakeBool(true))
	parent := r.Refresh(first)

	// The path moves on: s1 back off, s2 on.
	second := prob.Init.Clone()
	second.Set(1, MakeBool(true))
	mask := r.Update(parent, second)
	if mask.Count() != 2 {
		t.Fatalf("reached count = %d, want 2", mask.Count())
	}
	// The parent mask is untouched.
	if parent.Count() != 1 {
		t.Fatalf("parent mutated: count = %d, want 1", parent.Count())
	}
}

// TestRelevantSet_MarkIrrelevant checks dropped atoms stop counting in
// later masks.
func TestRelevantSet_MarkIrrelevant(t *testing.T) {
	prob := switchProblem(t, 2)
	r := NewRelevantSet([]Atom{
		{Var: 0, Value: MakeBool(true)},
		{Var: 1, Value: MakeBool(true)},
	})
	r.MarkIrrelevant(0)
	if got := r.Status(0); got != AtomIrrelevant {
		t.Fatalf("Status(0) = %v, want AtomIrrelevant", got)
	}

	s := prob.Init.Clone()
	s.Set(0, MakeBool(true))
	s.Set(1, MakeBool(true))
	mask := r.Refresh(s)
	if mask.Count() != 1 || !mask.Has(1) {
		t.Fatalf("mask = %v, want exactly position 1", mask)
	}
}
