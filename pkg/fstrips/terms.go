// Package fstrips implements a functional STRIPS planning engine.
// This file defines Term, the expression node for values. Terms form a
// tagged variant rather than an interface hierarchy: one struct, a Kind
// tag, and switch dispatch in the hot interpretation path. Trees are
// immutable after construction; Bind produces a fresh tree.
package fstrips

import (
	"fmt"
	"strings"
)

// TermKind tags the variant a Term node represents.
type TermKind uint8

const (
	// TermConstant carries a fixed Object.
	TermConstant TermKind = iota
	// TermVariable is a bound variable resolved against a Binding.
	TermVariable
	// TermStateVar is a resolved state variable read from the state.
	TermStateVar
	// TermFluentApp applies a fluent symbol to subterms; interpreting it
	// resolves the argument tuple to a state variable and reads the state.
	TermFluentApp
	// TermStaticApp applies a static symbol to subterms; its value is a
	// pure function of the argument values.
	TermStaticApp
	// TermArith applies a builtin arithmetic operator to two subterms.
	TermArith
)

// ArithOp enumerates the builtin arithmetic operators.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
)

// String returns the operator spelling used in rendering and input.
func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return "?"
	}
}

// ArithOpByName resolves an operator spelling.
func ArithOpByName(name string) (ArithOp, bool) {
	switch name {
	case "+", "add":
		return OpAdd, true
	case "-", "sub":
		return OpSub, true
	case "*", "mul":
		return OpMul, true
	case "/", "div":
		return OpDiv, true
	case "min":
		return OpMin, true
	case "max":
		return OpMax, true
	}
	return 0, false
}

// BoundVar describes one bound variable: a scope-local id, a display
// name and a declared type.
type BoundVar struct {
	ID   int
	Name string
	Type TypeID
}

// Term is one node of an expression tree. Only the fields relevant to
// the node's Kind are populated. Bounds is the precomputed sound code
// range consulted by the CSP layer.
type Term struct {
	Kind   TermKind
	Type   TypeID
	Val    Object   // TermConstant
	Var    BoundVar // TermVariable
	SV     VarID    // TermStateVar
	Origin *Term    // TermStateVar: fluent application it resolved from
	Symbol SymbolID // TermFluentApp, TermStaticApp
	Op     ArithOp  // TermArith
	Sub    []*Term
	Bounds Interval
}

// NewConstant builds a constant term.
func NewConstant(lang *Language, o Object) *Term {
	return &Term{Kind: TermConstant, Type: lang.TypeOf(o), Val: o, Bounds: point(o.Code())}
}

// NewVariable builds a bound-variable term.
func NewVariable(lang *Language, v BoundVar) *Term {
	return &Term{Kind: TermVariable, Type: v.Type, Var: v, Bounds: typeBounds(lang, v.Type)}
}

// NewStateVariable builds a term reading one state variable. origin may
// carry the fluent application the variable was resolved from.
func NewStateVariable(lang *Language, idx *VariableIndex, v VarID, origin *Term) *Term {
	t := idx.VarType(v)
	return &Term{Kind: TermStateVar, Type: t, SV: v, Origin: origin, Bounds: typeBounds(lang, t)}
}

// NewFluentApp builds a fluent application after checking the argument
// arity and types against the symbol signature.
func NewFluentApp(lang *Language, sym SymbolID, sub []*Term) (*Term, error) {
	info := lang.Symbol(sym)
	if info == nil {
		return nil, fmt.Errorf("unknown symbol %d", sym)
	}
	if !info.Fluent {
		return nil, fmt.Errorf("symbol %q is static, use NewStaticApp", info.Name)
	}
	if err := checkSignature(lang, info, sub); err != nil {
		return nil, err
	}
	return &Term{
		Kind:   TermFluentApp,
		Type:   info.Codomain,
		Symbol: sym,
		Sub:    sub,
		Bounds: typeBounds(lang, info.Codomain),
	}, nil
}

// NewStaticApp builds a static application.
func NewStaticApp(lang *Language, sym SymbolID, sub []*Term) (*Term, error) {
	info := lang.Symbol(sym)
	if info == nil {
		return nil, fmt.Errorf("unknown symbol %d", sym)
	}
	if info.Fluent {
		return nil, fmt.Errorf("symbol %q is fluent, use NewFluentApp", info.Name)
	}
	if err := checkSignature(lang, info, sub); err != nil {
		return nil, err
	}
	return &Term{
		Kind:   TermStaticApp,
		Type:   info.Codomain,
		Symbol: sym,
		Sub:    sub,
		Bounds: typeBounds(lang, info.Codomain),
	}, nil
}

// NewArith builds an arithmetic composite over two numeric subterms.
// The bounds combine the operand bounds by interval arithmetic.
func NewArith(lang *Language, op ArithOp, lhs, rhs *Term) (*Term, error) {
	lk := lang.Type(lhs.Type)
	rk := lang.Type(rhs.Type)
	if lk == nil || rk == nil {
		return nil, fmt.Errorf("arithmetic over undeclared types")
	}
	numeric := func(k TypeKind) bool { return k == KindInt || k == KindFloat }
	if !numeric(lk.Kind) || !numeric(rk.Kind) {
		return nil, fmt.Errorf("arithmetic requires numeric operands, got %s and %s", lk.Name, rk.Name)
	}
	rt := TypeInt
	if lk.Kind == KindFloat || rk.Kind == KindFloat {
		rt = TypeFloat
	}
	return &Term{
		Kind:   TermArith,
		Type:   rt,
		Op:     op,
		Sub:    []*Term{lhs, rhs},
		Bounds: combineBounds(op, lhs.Bounds, rhs.Bounds),
	}, nil
}

func checkSignature(lang *Language, info *SymbolInfo, sub []*Term) error {
	if len(sub) != info.Arity() {
		return fmt.Errorf("symbol %q applied to %d arguments, want %d", info.Name, len(sub), info.Arity())
	}
	for i, s := range sub {
		if !argCompatible(lang, s.Type, info.Domain[i]) {
			want := lang.Type(info.Domain[i]).Name
			return fmt.Errorf("argument %d of %q has type %d, want subtype of %q", i, info.Name, s.Type, want)
		}
	}
	return nil
}

// argCompatible accepts declared subtypes, plus any int-kinded term for
// an int-kinded slot; range membership is checked when the variable is
// resolved.
func argCompatible(lang *Language, got, want TypeID) bool {
	if lang.IsSubtype(got, want) {
		return true
	}
	g, w := lang.Type(got), lang.Type(want)
	return g != nil && w != nil && g.Kind == KindInt && w.Kind == KindInt
}

// Clone returns a deep, independent copy of the tree.
func (t *Term) Clone() *Term {
	if t == nil {
		return nil
	}
	c := *t
	c.Origin = t.Origin.Clone()
	if t.Sub != nil {
		c.Sub = make([]*Term, len(t.Sub))
		for i, s := range t.Sub {
			c.Sub[i] = s.Clone()
		}
	}
	return &c
}

// Equal reports structural equality.
func (t *Term) Equal(other *Term) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind || t.Type != other.Type {
		return false
	}
	switch t.Kind {
	case TermConstant:
		return t.Val.Equal(other.Val)
	case TermVariable:
		return t.Var.ID == other.Var.ID && t.Var.Type == other.Var.Type
	case TermStateVar:
		return t.SV == other.SV
	case TermFluentApp, TermStaticApp:
		if t.Symbol != other.Symbol || len(t.Sub) != len(other.Sub) {
			return false
		}
	case TermArith:
		if t.Op != other.Op || len(t.Sub) != len(other.Sub) {
			return false
		}
	}
	for i, s := range t.Sub {
		if !s.Equal(other.Sub[i]) {
			return false
		}
	}
	return true
}

// HashCode folds the structure into a 64-bit value consistent with Equal.
func (t *Term) HashCode() uint64 {
	return t.hashInto(fnvOffset64)
}

func (t *Term) hashInto(h uint64) uint64 {
	if t == nil {
		return fnvStep(h, 0)
	}
	h = fnvStep(h, uint64(t.Kind))
	switch t.Kind {
	case TermConstant:
		h = t.Val.hash(h)
	case TermVariable:
		h = fnvStep(h, uint64(uint32(t.Var.ID)))
	case TermStateVar:
		h = fnvStep(h, uint64(uint32(t.SV)))
	case TermFluentApp, TermStaticApp:
		h = fnvStep(h, uint64(uint32(t.Symbol)))
	case TermArith:
		h = fnvStep(h, uint64(t.Op))
	}
	for _, s := range t.Sub {
		h = s.hashInto(h)
	}
	return h
}

// AllTerms appends every node of the tree to out in preorder, including
// the receiver, and returns the extended slice.
func (t *Term) AllTerms(out []*Term) []*Term {
	if t == nil {
		return out
	}
	out = append(out, t)
	for _, s := range t.Sub {
		out = s.AllTerms(out)
	}
	return out
}

// FreeVariables appends the distinct bound-variable descriptors
// occurring in the tree to out, in first-occurrence order.
func (t *Term) FreeVariables(out []BoundVar) []BoundVar {
	if t == nil {
		return out
	}
	if t.Kind == TermVariable {
		for _, v := range out {
			if v.ID == t.Var.ID {
				return out
			}
		}
		return append(out, t.Var)
	}
	for _, s := range t.Sub {
		out = s.FreeVariables(out)
	}
	return out
}

// RenderTerm renders a term using declared names.
func RenderTerm(lang *Language, idx *VariableIndex, t *Term) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TermConstant:
		return lang.ObjectName(t.Val)
	case TermVariable:
		if t.Var.Name != "" {
			return "?" + t.Var.Name
		}
		return fmt.Sprintf("?%d", t.Var.ID)
	case TermStateVar:
		if idx != nil {
			return idx.Name(t.SV)
		}
		return fmt.Sprintf("var#%d", t.SV)
	case TermFluentApp, TermStaticApp:
		name := fmt.Sprintf("sym#%d", t.Symbol)
		if info := lang.Symbol(t.Symbol); info != nil {
			name = info.Name
		}
		parts := make([]string, len(t.Sub))
		for i, s := range t.Sub {
			parts[i] = RenderTerm(lang, idx, s)
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	case TermArith:
		lhs := RenderTerm(lang, idx, t.Sub[0])
		rhs := RenderTerm(lang, idx, t.Sub[1])
		if t.Op == OpMin || t.Op == OpMax {
			return fmt.Sprintf("%s(%s, %s)", t.Op, lhs, rhs)
		}
		return fmt.Sprintf("(%s %s %s)", lhs, t.Op, rhs)
	default:
		return "<invalid>"
	}
}

// evalArith applies an arithmetic operator to two interpreted values.
// Operands must share a numeric kind; division by zero is an error.
func evalArith(op ArithOp, a, b Object) (Object, error) {
	if a.Kind() != b.Kind() {
		return Object{}, &TypeMismatchError{Context: "arithmetic", Want: a.Kind(), Got: b.Kind()}
	}
	switch a.Kind() {
	case ObjInt:
		x, _ := a.IntValue()
		y, _ := b.IntValue()
		switch op {
		case OpAdd:
			return MakeInt(x + y), nil
		case OpSub:
			return MakeInt(x - y), nil
		case OpMul:
			return MakeInt(x * y), nil
		case OpDiv:
			if y == 0 {
				return Object{}, fmt.Errorf("division by zero")
			}
			return MakeInt(x / y), nil
		case OpMin:
			if y < x {
				return MakeInt(y), nil
			}
			return MakeInt(x), nil
		case OpMax:
			if y > x {
				return MakeInt(y), nil
			}
			return MakeInt(x), nil
		}
	case ObjFloat:
		x, _ := a.FloatValue()
		y, _ := b.FloatValue()
		switch op {
		case OpAdd:
			return MakeFloat(x + y), nil
		case OpSub:
			return MakeFloat(x - y), nil
		case OpMul:
			return MakeFloat(x * y), nil
		case OpDiv:
			if y == 0 {
				return Object{}, fmt.Errorf("division by zero")
			}
			return MakeFloat(x / y), nil
		case OpMin:
			if y < x {
				return MakeFloat(y), nil
			}
			return MakeFloat(x), nil
		case OpMax:
			if y > x {
				return MakeFloat(y), nil
			}
			return MakeFloat(x), nil
		}
	default:
		return Object{}, &TypeMismatchError{Context: "arithmetic", Want: ObjInt, Got: a.Kind()}
	}
	return Object{}, fmt.Errorf("unknown arithmetic operator %d", op)
}
