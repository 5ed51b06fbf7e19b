// Package fstrips implements a functional STRIPS planning engine.
// This file defines Formula, the expression node for truth values, as a
// tagged variant mirroring Term. Conjunctions of ground equality atoms
// carry a precomputed flat atom list so goal tests avoid the generic
// interpretation path.
package fstrips

import (
	"fmt"
	"strings"
)

// FormulaKind tags the variant a Formula node represents.
type FormulaKind uint8

const (
	// FormTrue is the tautology.
	FormTrue FormulaKind = iota
	// FormFalse is the contradiction.
	FormFalse
	// FormAtom is a relational atom t1 ⋈ t2.
	FormAtom
	// FormExternal is an externally-defined predicate atom.
	FormExternal
	// FormNot negates its body.
	FormNot
	// FormAnd is a conjunction; it short-circuits on the first false.
	FormAnd
	// FormOr is a disjunction; it short-circuits on the first true.
	FormOr
	// FormExists quantifies existentially over its binder list.
	FormExists
	// FormForall quantifies universally over its binder list.
	FormForall
)

// RelOp enumerates the relational comparators.
type RelOp uint8

const (
	RelEQ RelOp = iota
	RelNEQ
	RelLT
	RelLEQ
	RelGT
	RelGEQ
)

// String returns the comparator spelling.
func (r RelOp) String() string {
	switch r {
	case RelEQ:
		return "="
	case RelNEQ:
		return "!="
	case RelLT:
		return "<"
	case RelLEQ:
		return "<="
	case RelGT:
		return ">"
	case RelGEQ:
		return ">="
	default:
		return "?"
	}
}

// RelOpByName resolves a comparator spelling.
func RelOpByName(name string) (RelOp, bool) {
	switch name {
	case "=", "==", "eq":
		return RelEQ, true
	case "!=", "neq":
		return RelNEQ, true
	case "<", "lt":
		return RelLT, true
	case "<=", "leq":
		return RelLEQ, true
	case ">", "gt":
		return RelGT, true
	case ">=", "geq":
		return RelGEQ, true
	}
	return 0, false
}

// eval applies the comparator to two interpreted values. Equality and
// disequality require matching kinds; the ordered comparators require a
// numeric kind as well.
func (r RelOp) eval(a, b Object) (bool, error) {
	switch r {
	case RelEQ, RelNEQ:
		if a.Kind() != b.Kind() {
			return false, &TypeMismatchError{Context: "equality", Want: a.Kind(), Got: b.Kind()}
		}
		if r == RelEQ {
			return a.Equal(b), nil
		}
		return !a.Equal(b), nil
	default:
		cmp, err := compareObjects(a, b)
		if err != nil {
			return false, err
		}
		switch r {
		case RelLT:
			return cmp < 0, nil
		case RelLEQ:
			return cmp <= 0, nil
		case RelGT:
			return cmp > 0, nil
		case RelGEQ:
			return cmp >= 0, nil
		}
	}
	return false, fmt.Errorf("unknown comparator %d", r)
}

// Formula is one node of a truth-valued expression tree. Only the
// fields relevant to the node's Kind are populated.
type Formula struct {
	Kind    FormulaKind
	Rel     RelOp      // FormAtom
	Lhs     *Term      // FormAtom
	Rhs     *Term      // FormAtom
	ExtName string     // FormExternal
	ExtArgs []*Term    // FormExternal
	Sub     []*Formula // FormAnd, FormOr
	Binders []BoundVar // FormExists, FormForall
	Body    *Formula   // FormNot, FormExists, FormForall

	// flat holds the atom list of a ground equality conjunction; nil
	// when the fast path does not apply.
	flat []Atom
}

// Tautology returns the always-true formula.
func Tautology() *Formula { return &Formula{Kind: FormTrue} }

// Contradiction returns the always-false formula.
func Contradiction() *Formula { return &Formula{Kind: FormFalse} }

// NewAtom builds a relational atom.
func NewAtom(rel RelOp, lhs, rhs *Term) *Formula {
	return &Formula{Kind: FormAtom, Rel: rel, Lhs: lhs, Rhs: rhs}
}

// NewExternal builds an externally-defined predicate atom. The predicate
// must be registered before interpretation.
func NewExternal(name string, args []*Term) *Formula {
	return &Formula{Kind: FormExternal, ExtName: name, ExtArgs: args}
}

// NewNot negates a formula.
func NewNot(body *Formula) *Formula { return &Formula{Kind: FormNot, Body: body} }

// NewAnd builds a conjunction. When every conjunct is a ground
// state-variable = constant atom the flat atom list is precomputed and
// interpretation short-cuts to direct state reads.
func NewAnd(sub ...*Formula) *Formula {
	f := &Formula{Kind: FormAnd, Sub: sub}
	f.flat = flattenAtoms(sub)
	return f
}

// NewOr builds a disjunction.
func NewOr(sub ...*Formula) *Formula { return &Formula{Kind: FormOr, Sub: sub} }

// NewExists builds an existential quantifier over the given binders.
func NewExists(binders []BoundVar, body *Formula) *Formula {
	return &Formula{Kind: FormExists, Binders: binders, Body: body}
}

// NewForall builds a universal quantifier over the given binders.
func NewForall(binders []BoundVar, body *Formula) *Formula {
	return &Formula{Kind: FormForall, Binders: binders, Body: body}
}

// flattenAtoms recognises the conjunction-of-ground-equalities shape.
func flattenAtoms(sub []*Formula) []Atom {
	if len(sub) == 0 {
		return nil
	}
	flat := make([]Atom, 0, len(sub))
	for _, s := range sub {
		if s.Kind != FormAtom || s.Rel != RelEQ {
			return nil
		}
		switch {
		case s.Lhs.Kind == TermStateVar && s.Rhs.Kind == TermConstant:
			flat = append(flat, Atom{Var: s.Lhs.SV, Value: s.Rhs.Val})
		case s.Rhs.Kind == TermStateVar && s.Lhs.Kind == TermConstant:
			flat = append(flat, Atom{Var: s.Rhs.SV, Value: s.Lhs.Val})
		default:
			return nil
		}
	}
	return flat
}

// FlatAtoms returns the precomputed atom list of a ground equality
// conjunction, or nil. A single ground atom also qualifies.
func (f *Formula) FlatAtoms() []Atom {
	if f == nil {
		return nil
	}
	if f.Kind == FormAnd {
		return f.flat
	}
	if f.Kind == FormTrue {
		return []Atom{}
	}
	return flattenAtoms([]*Formula{f})
}

// Clone returns a deep, independent copy of the tree.
func (f *Formula) Clone() *Formula {
	if f == nil {
		return nil
	}
	c := *f
	c.Lhs = f.Lhs.Clone()
	c.Rhs = f.Rhs.Clone()
	c.Body = f.Body.Clone()
	if f.ExtArgs != nil {
		c.ExtArgs = make([]*Term, len(f.ExtArgs))
		for i, a := range f.ExtArgs {
			c.ExtArgs[i] = a.Clone()
		}
	}
	if f.Sub != nil {
		c.Sub = make([]*Formula, len(f.Sub))
		for i, s := range f.Sub {
			c.Sub[i] = s.Clone()
		}
	}
	if f.Binders != nil {
		c.Binders = append([]BoundVar(nil), f.Binders...)
	}
	if f.flat != nil {
		c.flat = append([]Atom(nil), f.flat...)
	}
	return &c
}

// Equal reports structural equality.
func (f *Formula) Equal(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case FormAtom:
		return f.Rel == other.Rel && f.Lhs.Equal(other.Lhs) && f.Rhs.Equal(other.Rhs)
	case FormExternal:
		if f.ExtName != other.ExtName || len(f.ExtArgs) != len(other.ExtArgs) {
			return false
		}
		for i, a := range f.ExtArgs {
			if !a.Equal(other.ExtArgs[i]) {
				return false
			}
		}
		return true
	case FormNot:
		return f.Body.Equal(other.Body)
	case FormAnd, FormOr:
		if len(f.Sub) != len(other.Sub) {
			return false
		}
		for i, s := range f.Sub {
			if !s.Equal(other.Sub[i]) {
				return false
			}
		}
		return true
	case FormExists, FormForall:
		if len(f.Binders) != len(other.Binders) {
			return false
		}
		for i, b := range f.Binders {
			ob := other.Binders[i]
			if b.ID != ob.ID || b.Type != ob.Type {
				return false
			}
		}
		return f.Body.Equal(other.Body)
	default:
		return true
	}
}

// HashCode folds the structure into a 64-bit value consistent with Equal.
func (f *Formula) HashCode() uint64 { return f.hashInto(fnvOffset64) }

func (f *Formula) hashInto(h uint64) uint64 {
	if f == nil {
		return fnvStep(h, 0)
	}
	h = fnvStep(h, uint64(f.Kind))
	switch f.Kind {
	case FormAtom:
		h = fnvStep(h, uint64(f.Rel))
		h = f.Lhs.hashInto(h)
		h = f.Rhs.hashInto(h)
	case FormExternal:
		for i := 0; i < len(f.ExtName); i++ {
			h = fnvStep(h, uint64(f.ExtName[i]))
		}
		for _, a := range f.ExtArgs {
			h = a.hashInto(h)
		}
	case FormNot:
		h = f.Body.hashInto(h)
	case FormAnd, FormOr:
		for _, s := range f.Sub {
			h = s.hashInto(h)
		}
	case FormExists, FormForall:
		for _, b := range f.Binders {
			h = fnvStep(h, uint64(uint32(b.ID)))
			h = fnvStep(h, uint64(uint32(b.Type)))
		}
		h = f.Body.hashInto(h)
	}
	return h
}

// AllTerms appends every Term node contained in the formula to out.
func (f *Formula) AllTerms(out []*Term) []*Term {
	if f == nil {
		return out
	}
	if f.Lhs != nil {
		out = f.Lhs.AllTerms(out)
	}
	if f.Rhs != nil {
		out = f.Rhs.AllTerms(out)
	}
	for _, a := range f.ExtArgs {
		out = a.AllTerms(out)
	}
	for _, s := range f.Sub {
		out = s.AllTerms(out)
	}
	if f.Body != nil {
		out = f.Body.AllTerms(out)
	}
	return out
}

// FreeVariables appends the bound-variable descriptors free in the
// formula, skipping those captured by enclosing quantifiers.
func (f *Formula) FreeVariables(out []BoundVar) []BoundVar {
	return f.freeVars(out, nil)
}

func (f *Formula) freeVars(out []BoundVar, captured []int) []BoundVar {
	if f == nil {
		return out
	}
	add := func(terms ...*Term) {
		var local []BoundVar
		for _, t := range terms {
			local = t.FreeVariables(local)
		}
		for _, v := range local {
			if intsContain(captured, v.ID) {
				continue
			}
			dup := false
			for _, w := range out {
				if w.ID == v.ID {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, v)
			}
		}
	}
	switch f.Kind {
	case FormAtom:
		add(f.Lhs, f.Rhs)
	case FormExternal:
		add(f.ExtArgs...)
	case FormNot:
		out = f.Body.freeVars(out, captured)
	case FormAnd, FormOr:
		for _, s := range f.Sub {
			out = s.freeVars(out, captured)
		}
	case FormExists, FormForall:
		inner := append(append([]int(nil), captured...), binderIDs(f.Binders)...)
		out = f.Body.freeVars(out, inner)
	}
	return out
}

func binderIDs(binders []BoundVar) []int {
	ids := make([]int, len(binders))
	for i, b := range binders {
		ids[i] = b.ID
	}
	return ids
}

func intsContain(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// RenderFormula renders a formula using declared names.
func RenderFormula(lang *Language, idx *VariableIndex, f *Formula) string {
	if f == nil {
		return "<nil>"
	}
	switch f.Kind {
	case FormTrue:
		return "true"
	case FormFalse:
		return "false"
	case FormAtom:
		return fmt.Sprintf("%s %s %s", RenderTerm(lang, idx, f.Lhs), f.Rel, RenderTerm(lang, idx, f.Rhs))
	case FormExternal:
		parts := make([]string, len(f.ExtArgs))
		for i, a := range f.ExtArgs {
			parts[i] = RenderTerm(lang, idx, a)
		}
		return "@" + f.ExtName + "(" + strings.Join(parts, ", ") + ")"
	case FormNot:
		return "not(" + RenderFormula(lang, idx, f.Body) + ")"
	case FormAnd, FormOr:
		op := " and "
		if f.Kind == FormOr {
			op = " or "
		}
		parts := make([]string, len(f.Sub))
		for i, s := range f.Sub {
			parts[i] = RenderFormula(lang, idx, s)
		}
		return "(" + strings.Join(parts, op) + ")"
	case FormExists, FormForall:
		q := "exists"
		if f.Kind == FormForall {
			q = "forall"
		}
		parts := make([]string, len(f.Binders))
		for i, b := range f.Binders {
			tn := fmt.Sprintf("%d", b.Type)
			if info := lang.Type(b.Type); info != nil {
				tn = info.Name
			}
			parts[i] = fmt.Sprintf("?%s: %s", b.Name, tn)
		}
		return fmt.Sprintf("%s %s . %s", q, strings.Join(parts, ", "), RenderFormula(lang, idx, f.Body))
	default:
		return "<invalid>"
	}
}
