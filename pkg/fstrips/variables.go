// Package fstrips implements a functional STRIPS planning engine.
// This file builds the state-variable index: the bijective mapping from
// (fluent symbol, ground argument tuple) to a dense VarID, precomputed
// once per problem.
package fstrips

import (
	"fmt"
	"strings"
)

// VarID is the dense index of a state variable.
type VarID int

// InvalidVar marks the absence of a state variable.
const InvalidVar VarID = -1

// Atom is an assignment of a value to a state variable.
type Atom struct {
	Var   VarID
	Value Object
}

// VariableData records the origin and typing of one state variable.
type VariableData struct {
	ID     VarID
	Symbol SymbolID
	Args   []Object
	Type   TypeID // codomain of the symbol
}

// symbolLayout holds the stride-based index layout of one fluent symbol:
// id(sym, a1..an) = base + Σ ordinal(ai) · stride_i.
type symbolLayout struct {
	base    VarID
	strides []int
	argType []TypeID
	count   int
}

// VariableIndex is the precomputed bijection between state variables and
// their dense ids. It is immutable after Build and safe for concurrent
// reads.
type VariableIndex struct {
	lang    *Language
	layouts map[SymbolID]*symbolLayout
	data    []*VariableData
}

// BuildVariableIndex enumerates every fluent symbol's ground instances
// over the Cartesian product of its argument universes, assigning dense
// ids in symbol order, then in lexicographic argument order.
func BuildVariableIndex(lang *Language) (*VariableIndex, error) {
	idx := &VariableIndex{lang: lang, layouts: make(map[SymbolID]*symbolLayout)}
	for _, sym := range lang.Symbols() {
		if !sym.Fluent {
			continue
		}
		layout := &symbolLayout{
			base:    VarID(len(idx.data)),
			strides: make([]int, sym.Arity()),
			argType: append([]TypeID(nil), sym.Domain...),
			count:   1,
		}
		// Row-major layout: the last argument varies fastest.
		for i := sym.Arity() - 1; i >= 0; i-- {
			size, err := lang.UniverseSize(sym.Domain[i])
			if err != nil {
				return nil, fmt.Errorf("symbol %q argument %d: %w", sym.Name, i, err)
			}
			layout.strides[i] = layout.count
			layout.count *= size
		}
		idx.layouts[sym.ID] = layout

		universes := make([][]Object, sym.Arity())
		for i, t := range sym.Domain {
			u, err := lang.ObjectsOf(t)
			if err != nil {
				return nil, fmt.Errorf("symbol %q argument %d: %w", sym.Name, i, err)
			}
			universes[i] = u
		}
		args := make([]Object, sym.Arity())
		var emit func(pos int)
		emit = func(pos int) {
			if pos == len(universes) {
				idx.data = append(idx.data, &VariableData{
					ID:     VarID(len(idx.data)),
					Symbol: sym.ID,
					Args:   append([]Object(nil), args...),
					Type:   sym.Codomain,
				})
				return
			}
			for _, o := range universes[pos] {
				args[pos] = o
				emit(pos + 1)
			}
		}
		emit(0)
	}
	return idx, nil
}

// Count returns the number of declared state variables.
func (vi *VariableIndex) Count() int { return len(vi.data) }

// Resolve maps a fluent symbol and ground argument tuple to its VarID.
func (vi *VariableIndex) Resolve(sym SymbolID, args []Object) (VarID, error) {
	layout, ok := vi.layouts[sym]
	if !ok {
		info := vi.lang.Symbol(sym)
		name := fmt.Sprintf("%d", sym)
		if info != nil {
			name = info.Name
		}
		return InvalidVar, fmt.Errorf("symbol %q is not fluent", name)
	}
	if len(args) != len(layout.strides) {
		return InvalidVar, fmt.Errorf("symbol %d applied to %d arguments, want %d", sym, len(args), len(layout.strides))
	}
	offset := 0
	for i, a := range args {
		ord, err := vi.lang.Ordinal(layout.argType[i], a)
		if err != nil {
			return InvalidVar, err
		}
		offset += ord * layout.strides[i]
	}
	return layout.base + VarID(offset), nil
}

// Decode returns the origin of a state variable.
func (vi *VariableIndex) Decode(v VarID) (*VariableData, error) {
	if v < 0 || int(v) >= len(vi.data) {
		return nil, fmt.Errorf("state variable %d out of range", v)
	}
	return vi.data[v], nil
}

// VarType returns the declared value type of a state variable.
func (vi *VariableIndex) VarType(v VarID) TypeID {
	if v < 0 || int(v) >= len(vi.data) {
		return -1
	}
	return vi.data[v].Type
}

// Variables returns all state variables in id order.
func (vi *VariableIndex) Variables() []*VariableData { return vi.data }

// SymbolRange returns the contiguous id range [base, base+count) covering
// every state variable of a fluent symbol.
func (vi *VariableIndex) SymbolRange(sym SymbolID) (VarID, int, bool) {
	layout, ok := vi.layouts[sym]
	if !ok {
		return InvalidVar, 0, false
	}
	return layout.base, layout.count, true
}

// Name renders a state variable as symbol(arg, ...).
func (vi *VariableIndex) Name(v VarID) string {
	d, err := vi.Decode(v)
	if err != nil {
		return fmt.Sprintf("var#%d", v)
	}
	sym := vi.lang.Symbol(d.Symbol)
	if len(d.Args) == 0 {
		return sym.Name
	}
	parts := make([]string, len(d.Args))
	for i, a := range d.Args {
		parts[i] = vi.lang.ObjectName(a)
	}
	return sym.Name + "(" + strings.Join(parts, ", ") + ")"
}
