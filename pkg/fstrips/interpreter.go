// Package fstrips implements a functional STRIPS planning engine.
// This file implements interpretation and binding of expression trees.
// The interpreter is re-entrant: subterm scratch buffers live on the
// call stack, never on the tree nodes, so one tree may be interpreted
// from several goroutines at once.
package fstrips

import "fmt"

// Interpreter evaluates terms and formulas against a valuation and a
// binding, and substitutes bindings into trees. It holds only immutable
// problem structure and is safe for concurrent use.
type Interpreter struct {
	lang *Language
	idx  *VariableIndex
}

// NewInterpreter creates an interpreter over a language and its
// state-variable index.
func NewInterpreter(lang *Language, idx *VariableIndex) *Interpreter {
	return &Interpreter{lang: lang, idx: idx}
}

// Term interprets a term. Constants ignore state and binding; bound
// variables require the binding to cover them; state-variable reads
// require the valuation to assign them.
func (in *Interpreter) Term(t *Term, val Valuation, b *Binding) (Object, error) {
	switch t.Kind {
	case TermConstant:
		return t.Val, nil

	case TermVariable:
		o, ok := b.Value(t.Var.ID)
		if !ok {
			return Object{}, fmt.Errorf("%w: ?%s (id %d)", ErrUnboundVariable, t.Var.Name, t.Var.ID)
		}
		return o, nil

	case TermStateVar:
		o, ok := val.Value(t.SV)
		if !ok {
			return Object{}, fmt.Errorf("%w: %s", ErrUnassignedVariable, in.idx.Name(t.SV))
		}
		return o, nil

	case TermFluentApp:
		args := make([]Object, len(t.Sub))
		for i, s := range t.Sub {
			a, err := in.Term(s, val, b)
			if err != nil {
				return Object{}, err
			}
			args[i] = a
		}
		v, err := in.idx.Resolve(t.Symbol, args)
		if err != nil {
			return Object{}, err
		}
		o, ok := val.Value(v)
		if !ok {
			return Object{}, fmt.Errorf("%w: %s", ErrUnassignedVariable, in.idx.Name(v))
		}
		return o, nil

	case TermStaticApp:
		args := make([]Object, len(t.Sub))
		for i, s := range t.Sub {
			a, err := in.Term(s, val, b)
			if err != nil {
				return Object{}, err
			}
			args[i] = a
		}
		return in.staticValue(t.Symbol, args)

	case TermArith:
		lhs, err := in.Term(t.Sub[0], val, b)
		if err != nil {
			return Object{}, err
		}
		rhs, err := in.Term(t.Sub[1], val, b)
		if err != nil {
			return Object{}, err
		}
		return evalArith(t.Op, lhs, rhs)

	default:
		return Object{}, fmt.Errorf("invalid term kind %d", t.Kind)
	}
}

// staticValue resolves a static application: declared extension first,
// then a registered external function under the symbol's name.
func (in *Interpreter) staticValue(sym SymbolID, args []Object) (Object, error) {
	info := in.lang.Symbol(sym)
	if info == nil {
		return Object{}, fmt.Errorf("unknown symbol %d", sym)
	}
	if in.lang.statics[sym] == nil {
		if fn, ok := lookupExternalFunction(info.Name); ok {
			return fn(args)
		}
	}
	return in.lang.StaticValue(sym, args)
}

// Formula interprets a formula. Conjunction short-circuits on the first
// false conjunct, disjunction on the first true disjunct; quantifiers
// enumerate the binder universes in declared order with a fresh binding
// copy per recursion level.
func (in *Interpreter) Formula(f *Formula, val Valuation, b *Binding) (bool, error) {
	switch f.Kind {
	case FormTrue:
		return true, nil
	case FormFalse:
		return false, nil

	case FormAtom:
		lhs, err := in.Term(f.Lhs, val, b)
		if err != nil {
			return false, err
		}
		rhs, err := in.Term(f.Rhs, val, b)
		if err != nil {
			return false, err
		}
		return f.Rel.eval(lhs, rhs)

	case FormExternal:
		pred, ok := lookupExternalPredicate(f.ExtName)
		if !ok {
			return false, fmt.Errorf("external predicate %q not registered", f.ExtName)
		}
		args := make([]Object, len(f.ExtArgs))
		for i, a := range f.ExtArgs {
			v, err := in.Term(a, val, b)
			if err != nil {
				return false, err
			}
			args[i] = v
		}
		return pred(val, args)

	case FormNot:
		r, err := in.Formula(f.Body, val, b)
		if err != nil {
			return false, err
		}
		return !r, nil

	case FormAnd:
		if f.flat != nil {
			for _, a := range f.flat {
				o, ok := val.Value(a.Var)
				if !ok {
					return false, fmt.Errorf("%w: %s", ErrUnassignedVariable, in.idx.Name(a.Var))
				}
				if !o.Equal(a.Value) {
					return false, nil
				}
			}
			return true, nil
		}
		for _, s := range f.Sub {
			r, err := in.Formula(s, val, b)
			if err != nil {
				return false, err
			}
			if !r {
				return false, nil
			}
		}
		return true, nil

	case FormOr:
		for _, s := range f.Sub {
			r, err := in.Formula(s, val, b)
			if err != nil {
				return false, err
			}
			if r {
				return true, nil
			}
		}
		return false, nil

	case FormExists:
		return in.quantify(f, val, b, 0, false)
	case FormForall:
		return in.quantify(f, val, b, 0, true)

	default:
		return false, fmt.Errorf("invalid formula kind %d", f.Kind)
	}
}

// quantify enumerates the Cartesian product of the binder universes.
// The binding is copied at every level so sibling branches stay
// independent. Existential returns true on the first witness, universal
// false on the first counterexample.
func (in *Interpreter) quantify(f *Formula, val Valuation, b *Binding, level int, universal bool) (bool, error) {
	if level == len(f.Binders) {
		return in.Formula(f.Body, val, b)
	}
	binder := f.Binders[level]
	universe, err := in.lang.ObjectsOf(binder.Type)
	if err != nil {
		return false, fmt.Errorf("quantifier over ?%s: %w", binder.Name, err)
	}
	for _, o := range universe {
		ext := extendBinding(b, binder.ID, o)
		r, err := in.quantify(f, val, ext, level+1, universal)
		if err != nil {
			return false, err
		}
		if universal && !r {
			return false, nil
		}
		if !universal && r {
			return true, nil
		}
	}
	return universal, nil
}

// extendBinding clones b and binds id to o. A nil b starts fresh.
func extendBinding(b *Binding, id int, o Object) *Binding {
	var ext *Binding
	if b == nil {
		ext = NewBinding(id + 1)
	} else {
		ext = b.Clone()
	}
	ext.Set(id, o)
	return ext
}

// BindTerm substitutes the binding into a term, returning a fresh owned
// tree. Bound variables covered by the binding become constants; fully
// ground fluent applications resolve to state-variable nodes; fully
// ground static applications and arithmetic nodes fold to constants.
func (in *Interpreter) BindTerm(t *Term, b *Binding) (*Term, error) {
	switch t.Kind {
	case TermConstant, TermStateVar:
		return t.Clone(), nil

	case TermVariable:
		o, ok := b.Value(t.Var.ID)
		if !ok {
			return t.Clone(), nil
		}
		if !in.lang.Contains(t.Var.Type, o) {
			return nil, &TypeMismatchError{
				Context: fmt.Sprintf("binding of ?%s", t.Var.Name),
				Want:    in.lang.ValueKind(t.Var.Type),
				Got:     o.Kind(),
			}
		}
		return NewConstant(in.lang, o), nil

	case TermFluentApp:
		sub, ground, err := in.bindSubterms(t.Sub, b)
		if err != nil {
			return nil, err
		}
		if ground {
			args := make([]Object, len(sub))
			for i, s := range sub {
				args[i] = s.Val
			}
			v, err := in.idx.Resolve(t.Symbol, args)
			if err != nil {
				return nil, err
			}
			origin := &Term{Kind: TermFluentApp, Type: t.Type, Symbol: t.Symbol, Sub: sub, Bounds: t.Bounds}
			return NewStateVariable(in.lang, in.idx, v, origin), nil
		}
		return &Term{Kind: TermFluentApp, Type: t.Type, Symbol: t.Symbol, Sub: sub, Bounds: t.Bounds}, nil

	case TermStaticApp:
		sub, ground, err := in.bindSubterms(t.Sub, b)
		if err != nil {
			return nil, err
		}
		if ground {
			args := make([]Object, len(sub))
			for i, s := range sub {
				args[i] = s.Val
			}
			v, err := in.staticValue(t.Symbol, args)
			if err != nil {
				return nil, err
			}
			return NewConstant(in.lang, v), nil
		}
		return &Term{Kind: TermStaticApp, Type: t.Type, Symbol: t.Symbol, Sub: sub, Bounds: t.Bounds}, nil

	case TermArith:
		sub, ground, err := in.bindSubterms(t.Sub, b)
		if err != nil {
			return nil, err
		}
		if ground {
			v, err := evalArith(t.Op, sub[0].Val, sub[1].Val)
			if err != nil {
				return nil, err
			}
			return NewConstant(in.lang, v), nil
		}
		return NewArith(in.lang, t.Op, sub[0], sub[1])

	default:
		return nil, fmt.Errorf("invalid term kind %d", t.Kind)
	}
}

func (in *Interpreter) bindSubterms(sub []*Term, b *Binding) ([]*Term, bool, error) {
	out := make([]*Term, len(sub))
	ground := true
	for i, s := range sub {
		bs, err := in.BindTerm(s, b)
		if err != nil {
			return nil, false, err
		}
		out[i] = bs
		if bs.Kind != TermConstant {
			ground = false
		}
	}
	return out, ground, nil
}

// BindFormula substitutes the binding into a formula, folding subtrees
// that become constant. Quantifier binders shadow the outer binding.
func (in *Interpreter) BindFormula(f *Formula, b *Binding) (*Formula, error) {
	switch f.Kind {
	case FormTrue, FormFalse:
		return f.Clone(), nil

	case FormAtom:
		lhs, err := in.BindTerm(f.Lhs, b)
		if err != nil {
			return nil, err
		}
		rhs, err := in.BindTerm(f.Rhs, b)
		if err != nil {
			return nil, err
		}
		if lhs.Kind == TermConstant && rhs.Kind == TermConstant {
			r, err := f.Rel.eval(lhs.Val, rhs.Val)
			if err != nil {
				return nil, err
			}
			if r {
				return Tautology(), nil
			}
			return Contradiction(), nil
		}
		return NewAtom(f.Rel, lhs, rhs), nil

	case FormExternal:
		args := make([]*Term, len(f.ExtArgs))
		for i, a := range f.ExtArgs {
			ba, err := in.BindTerm(a, b)
			if err != nil {
				return nil, err
			}
			args[i] = ba
		}
		return NewExternal(f.ExtName, args), nil

	case FormNot:
		body, err := in.BindFormula(f.Body, b)
		if err != nil {
			return nil, err
		}
		switch body.Kind {
		case FormTrue:
			return Contradiction(), nil
		case FormFalse:
			return Tautology(), nil
		}
		return NewNot(body), nil

	case FormAnd:
		kept := make([]*Formula, 0, len(f.Sub))
		for _, s := range f.Sub {
			bs, err := in.BindFormula(s, b)
			if err != nil {
				return nil, err
			}
			switch bs.Kind {
			case FormFalse:
				return Contradiction(), nil
			case FormTrue:
				continue
			}
			kept = append(kept, bs)
		}
		if len(kept) == 0 {
			return Tautology(), nil
		}
		return NewAnd(kept...), nil

	case FormOr:
		kept := make([]*Formula, 0, len(f.Sub))
		for _, s := range f.Sub {
			bs, err := in.BindFormula(s, b)
			if err != nil {
				return nil, err
			}
			switch bs.Kind {
			case FormTrue:
				return Tautology(), nil
			case FormFalse:
				continue
			}
			kept = append(kept, bs)
		}
		if len(kept) == 0 {
			return Contradiction(), nil
		}
		return NewOr(kept...), nil

	case FormExists, FormForall:
		inner := b
		if inner != nil {
			inner = inner.Clone()
			for _, binder := range f.Binders {
				inner.Unset(binder.ID)
			}
		}
		body, err := in.BindFormula(f.Body, inner)
		if err != nil {
			return nil, err
		}
		if body.Kind == FormTrue || body.Kind == FormFalse {
			return in.foldQuantifier(f, body)
		}
		binders := append([]BoundVar(nil), f.Binders...)
		if f.Kind == FormExists {
			return NewExists(binders, body), nil
		}
		return NewForall(binders, body), nil

	default:
		return nil, fmt.Errorf("invalid formula kind %d", f.Kind)
	}
}

// foldQuantifier resolves a quantifier whose body became constant.
// Existential quantification over an empty universe is false, universal
// over an empty universe is true.
func (in *Interpreter) foldQuantifier(f *Formula, body *Formula) (*Formula, error) {
	empty := false
	for _, binder := range f.Binders {
		n, err := in.lang.UniverseSize(binder.Type)
		if err != nil {
			// Not enumerable; keep the quantifier so interpretation
			// surfaces the error where it is actually evaluated.
			binders := append([]BoundVar(nil), f.Binders...)
			if f.Kind == FormExists {
				return NewExists(binders, body), nil
			}
			return NewForall(binders, body), nil
		}
		if n == 0 {
			empty = true
		}
	}
	if f.Kind == FormExists {
		if empty || body.Kind == FormFalse {
			return Contradiction(), nil
		}
		return Tautology(), nil
	}
	if empty || body.Kind == FormTrue {
		return Tautology(), nil
	}
	return Contradiction(), nil
}
