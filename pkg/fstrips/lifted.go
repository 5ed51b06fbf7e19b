// Lifted applicability: each action schema's precondition compiles into
// a finite-domain CSP whose solutions are exactly the parameter
// bindings applicable in a given planning state. Schema parameters
// become CSP variables over their type universes; every fluent subterm
// gets an auxiliary variable tied to the state through a table
// constraint whose rows are rebuilt per state. Preconditions outside
// the translatable fragment (disjunction, quantifiers, external
// predicates, float arithmetic) report ErrUntranslatable and the caller
// falls back to plain ground enumeration for that schema.
package fstrips

import (
	"context"
	"errors"
	"fmt"
)

// Translation caps. A precondition needing a larger variable domain or
// derived table falls back to ground enumeration instead.
const (
	maxLiftedDomain = 1 << 16
	maxLiftedRows   = 1 << 20
)

// errLiftedUnsat aborts construction when a domain empties at build
// time; the schema is then never applicable and enumeration yields
// nothing, which is not an error.
var errLiftedUnsat = errors.New("lifted csp trivially unsatisfiable")

// cspRef is the CSP image of a term: a constant code or a variable,
// together with the object kind the code encodes.
type cspRef struct {
	v    *CspVar
	code int
	kind ObjectKind
}

func (r cspRef) isConst() bool { return r.v == nil }

// argBind describes one argument column of a symbol table: a fixed
// code that filters rows, a variable column, or a duplicate of an
// earlier argument when the same variable appears in two positions.
type argBind struct {
	v     *CspVar
	code  int
	dupOf int
}

// stateTable ties a fluent symbol's extension to CSP columns. Rows are
// rebuilt from the planning state before each enumeration.
type stateTable struct {
	table *TableConstraint
	sym   SymbolID
	args  []argBind
}

// SchemaCSP is the compiled applicability problem of one action schema.
// It is not safe for concurrent use: Refresh mutates the table rows.
type SchemaCSP struct {
	prob   *Problem
	schema *ActionSchema

	model  *CspModel
	solver *CspSolver
	params []*CspVar
	aux    []*CspVar
	tables []*stateTable

	// alwaysFalse marks preconditions that folded to the contradiction
	// at build time, e.g. over an empty parameter universe.
	alwaysFalse bool
}

// NewSchemaCSP compiles the schema's precondition. The returned error
// wraps ErrUntranslatable when the formula falls outside the
// translatable fragment.
func NewSchemaCSP(prob *Problem, schema *ActionSchema) (*SchemaCSP, error) {
	sc := &SchemaCSP{prob: prob, schema: schema, model: NewCspModel()}
	for i, t := range schema.Signature {
		values, _, err := domainValues(prob.Lang, t, typeBounds(prob.Lang, t))
		if err != nil {
			if errors.Is(err, errLiftedUnsat) {
				sc.alwaysFalse = true
				return sc, nil
			}
			return nil, fmt.Errorf("schema %q parameter %s: %w", schema.Name, schema.ParamNames[i], err)
		}
		v, err := sc.model.NewIntVar(schema.ParamNames[i], values)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
		}
		sc.params = append(sc.params, v)
	}
	if err := sc.addFormula(schema.Precondition); err != nil {
		if errors.Is(err, errLiftedUnsat) {
			sc.alwaysFalse = true
			return sc, nil
		}
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	sc.solver = NewCspSolver(sc.model)
	return sc, nil
}

// Schema returns the compiled schema.
func (sc *SchemaCSP) Schema() *ActionSchema { return sc.schema }

// SupportArity returns the number of auxiliary subterm variables; the
// support slice passed to Enumerate's yield has this length.
func (sc *SchemaCSP) SupportArity() int { return len(sc.aux) }

// domainValues maps a type universe, narrowed by an interval, to the
// sorted code list a CSP variable ranges over.
func domainValues(lang *Language, t TypeID, b Interval) ([]int, ObjectKind, error) {
	info := lang.Type(t)
	if info == nil {
		return nil, 0, fmt.Errorf("unknown type %d", t)
	}
	switch info.Kind {
	case KindFloat:
		return nil, 0, fmt.Errorf("float-typed term: %w", ErrUntranslatable)
	case KindBool:
		var values []int
		for _, c := range []int{0, 1} {
			if b.Contains(c) {
				values = append(values, c)
			}
		}
		if len(values) == 0 {
			return nil, 0, errLiftedUnsat
		}
		return values, ObjBool, nil
	case KindObject:
		values := make([]int, 0, len(info.members))
		for _, o := range info.members {
			if c := o.Code(); b.Contains(c) {
				values = append(values, c)
			}
		}
		if len(values) == 0 {
			return nil, 0, errLiftedUnsat
		}
		return values, ObjID, nil
	default: // KindInt
		lo, hi := int(info.Min), int(info.Max)
		if b.Min > lo {
			lo = b.Min
		}
		if b.Max < hi {
			hi = b.Max
		}
		if lo > hi {
			return nil, 0, errLiftedUnsat
		}
		if hi-lo+1 > maxLiftedDomain {
			return nil, 0, fmt.Errorf("integer domain [%d, %d] too wide: %w", lo, hi, ErrUntranslatable)
		}
		values := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			values = append(values, v)
		}
		return values, ObjInt, nil
	}
}

// newAux introduces an auxiliary variable for a subterm of the given
// type, narrowed by the subterm's precomputed bounds.
func (sc *SchemaCSP) newAux(name string, t TypeID, b Interval) (*CspVar, ObjectKind, error) {
	values, kind, err := domainValues(sc.prob.Lang, t, b)
	if err != nil {
		return nil, 0, err
	}
	v, err := sc.model.NewIntVar(fmt.Sprintf("%s@%d", name, len(sc.aux)), values)
	if err != nil {
		return nil, 0, err
	}
	sc.aux = append(sc.aux, v)
	return v, kind, nil
}

// bindArgs turns translated argument refs into table argument binds
// plus the distinct variable columns in argument order.
func bindArgs(refs []cspRef) ([]argBind, []*CspVar) {
	args := make([]argBind, len(refs))
	var cols []*CspVar
	for i, r := range refs {
		if r.isConst() {
			args[i] = argBind{code: r.code, dupOf: -1}
			continue
		}
		dup := -1
		for j := 0; j < i; j++ {
			if args[j].v == r.v {
				dup = j
				break
			}
		}
		args[i] = argBind{v: r.v, dupOf: dup}
		if dup < 0 {
			cols = append(cols, r.v)
		}
	}
	return args, cols
}

// addTerm translates a term, introducing auxiliary variables and table
// constraints for its fluent and static applications.
func (sc *SchemaCSP) addTerm(t *Term) (cspRef, error) {
	switch t.Kind {
	case TermConstant:
		if t.Val.Kind() == ObjFloat {
			return cspRef{}, fmt.Errorf("float constant: %w", ErrUntranslatable)
		}
		return cspRef{code: t.Val.Code(), kind: t.Val.Kind()}, nil
	case TermVariable:
		id := t.Var.ID
		if id < 0 || id >= len(sc.params) {
			// Variable bound by an inner quantifier; the fragment has
			// no quantifiers, so this term cannot be translated.
			return cspRef{}, fmt.Errorf("non-parameter variable %s: %w", t.Var.Name, ErrUntranslatable)
		}
		return cspRef{v: sc.params[id], kind: sc.prob.Lang.ValueKind(t.Var.Type)}, nil
	case TermStateVar:
		vd, err := sc.prob.Index.Decode(t.SV)
		if err != nil {
			return cspRef{}, err
		}
		refs := make([]cspRef, len(vd.Args))
		for i, a := range vd.Args {
			refs[i] = cspRef{code: a.Code(), kind: a.Kind()}
		}
		return sc.addSymbolTable(vd.Symbol, t.Type, t.Bounds, refs)
	case TermFluentApp:
		refs, err := sc.addSubterms(t.Sub)
		if err != nil {
			return cspRef{}, err
		}
		return sc.addSymbolTable(t.Symbol, t.Type, t.Bounds, refs)
	case TermStaticApp:
		return sc.addStatic(t)
	case TermArith:
		return sc.addArith(t)
	}
	return cspRef{}, fmt.Errorf("term kind %d: %w", t.Kind, ErrUntranslatable)
}

func (sc *SchemaCSP) addSubterms(sub []*Term) ([]cspRef, error) {
	refs := make([]cspRef, len(sub))
	for i, s := range sub {
		r, err := sc.addTerm(s)
		if err != nil {
			return nil, err
		}
		refs[i] = r
	}
	return refs, nil
}

// addSymbolTable introduces the auxiliary variable for one fluent
// application and posts its state-refreshed table.
func (sc *SchemaCSP) addSymbolTable(sym SymbolID, typ TypeID, b Interval, refs []cspRef) (cspRef, error) {
	info := sc.prob.Lang.Symbol(sym)
	y, kind, err := sc.newAux(info.Name, typ, b)
	if err != nil {
		return cspRef{}, err
	}
	args, cols := bindArgs(refs)
	cols = append(cols, y)
	tbl, err := NewTableConstraint(cols, nil)
	if err != nil {
		return cspRef{}, err
	}
	sc.model.AddConstraint(tbl)
	sc.tables = append(sc.tables, &stateTable{table: tbl, sym: sym, args: args})
	return cspRef{v: y, kind: kind}, nil
}

// addStatic posts the fixed graph of a static symbol. Static predicates
// are completed over their argument universes so that negated atoms see
// the false tuples; static functions stay partial, which matches the
// interpreter treating a missing tuple as "not applicable".
func (sc *SchemaCSP) addStatic(t *Term) (cspRef, error) {
	info := sc.prob.Lang.Symbol(t.Symbol)
	refs, err := sc.addSubterms(t.Sub)
	if err != nil {
		return cspRef{}, err
	}
	y, kind, err := sc.newAux(info.Name, t.Type, t.Bounds)
	if err != nil {
		return cspRef{}, err
	}
	objRows, err := sc.staticGraph(info)
	if err != nil {
		return cspRef{}, err
	}
	args, cols := bindArgs(refs)
	cols = append(cols, y)
	rows := make([][]int, 0, len(objRows))
	for _, or := range objRows {
		row, ok := projectRow(args, or[:len(or)-1], or[len(or)-1].Code(), len(cols))
		if ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return cspRef{}, errLiftedUnsat
	}
	tbl, err := NewTableConstraint(cols, rows)
	if err != nil {
		return cspRef{}, err
	}
	sc.model.AddConstraint(tbl)
	return cspRef{v: y, kind: kind}, nil
}

// staticGraph materialises a static symbol's extension as object rows
// with the value in the last column.
func (sc *SchemaCSP) staticGraph(info *SymbolInfo) ([][]Object, error) {
	lang := sc.prob.Lang
	if info.Codomain != TypeBool {
		if rows := lang.StaticRows(info.ID); rows != nil {
			return rows, nil
		}
		return sc.externalGraph(info)
	}
	// Predicate: complete the graph over the argument universes.
	size := 1
	universes := make([][]Object, info.Arity())
	for i, t := range info.Domain {
		u, err := lang.ObjectsOf(t)
		if err != nil {
			return nil, fmt.Errorf("static %q argument %d: %w", info.Name, i, ErrUntranslatable)
		}
		universes[i] = u
		size *= len(u)
		if size > maxLiftedRows {
			return nil, fmt.Errorf("static %q graph too large: %w", info.Name, ErrUntranslatable)
		}
	}
	var rows [][]Object
	args := make([]Object, info.Arity())
	var emit func(i int) error
	emit = func(i int) error {
		if i == len(universes) {
			val, err := lang.StaticValue(info.ID, args)
			if err != nil {
				return err
			}
			row := make([]Object, len(args)+1)
			copy(row, args)
			row[len(args)] = val
			rows = append(rows, row)
			return nil
		}
		for _, o := range universes[i] {
			args[i] = o
			if err := emit(i + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := emit(0); err != nil {
		return nil, err
	}
	return rows, nil
}

// externalGraph enumerates a registered external function over the
// argument universes. Tuples where the function errors are left out,
// matching the interpreter's "not applicable" treatment.
func (sc *SchemaCSP) externalGraph(info *SymbolInfo) ([][]Object, error) {
	fn, ok := lookupExternalFunction(info.Name)
	if !ok {
		return nil, errLiftedUnsat
	}
	lang := sc.prob.Lang
	size := 1
	universes := make([][]Object, info.Arity())
	for i, t := range info.Domain {
		u, err := lang.ObjectsOf(t)
		if err != nil {
			return nil, fmt.Errorf("external %q argument %d: %w", info.Name, i, ErrUntranslatable)
		}
		universes[i] = u
		size *= len(u)
		if size > maxLiftedRows {
			return nil, fmt.Errorf("external %q graph too large: %w", info.Name, ErrUntranslatable)
		}
	}
	var rows [][]Object
	args := make([]Object, info.Arity())
	var emit func(i int)
	emit = func(i int) {
		if i == len(universes) {
			val, err := fn(args)
			if err != nil {
				return
			}
			row := make([]Object, len(args)+1)
			copy(row, args)
			row[len(args)] = val
			rows = append(rows, row)
			return
		}
		for _, o := range universes[i] {
			args[i] = o
			emit(i + 1)
		}
	}
	emit(0)
	if len(rows) == 0 {
		return nil, errLiftedUnsat
	}
	return rows, nil
}

// projectRow filters one extension row against the argument binds and
// projects it onto the variable columns plus the trailing value.
func projectRow(args []argBind, tuple []Object, value int, width int) ([]int, bool) {
	row := make([]int, 0, width)
	for i, ab := range args {
		code := tuple[i].Code()
		switch {
		case ab.v == nil:
			if code != ab.code {
				return nil, false
			}
		case ab.dupOf >= 0:
			if code != tuple[ab.dupOf].Code() {
				return nil, false
			}
		default:
			row = append(row, code)
		}
	}
	return append(row, value), true
}

// addArith lowers a binary arithmetic node to an extensional table over
// the operand domains.
func (sc *SchemaCSP) addArith(t *Term) (cspRef, error) {
	l, err := sc.addTerm(t.Sub[0])
	if err != nil {
		return cspRef{}, err
	}
	r, err := sc.addTerm(t.Sub[1])
	if err != nil {
		return cspRef{}, err
	}
	if l.kind != ObjInt || r.kind != ObjInt {
		return cspRef{}, fmt.Errorf("non-integer arithmetic: %w", ErrUntranslatable)
	}
	if l.isConst() && r.isConst() {
		res, ok := intArith(t.Op, l.code, r.code)
		if !ok {
			return cspRef{}, errLiftedUnsat
		}
		return cspRef{code: res, kind: ObjInt}, nil
	}
	z, _, err := sc.newAux(t.Op.String(), t.Type, t.Bounds)
	if err != nil {
		return cspRef{}, err
	}
	lvals, rvals := refValues(l), refValues(r)
	if len(lvals)*len(rvals) > maxLiftedRows {
		return cspRef{}, fmt.Errorf("arithmetic table too large: %w", ErrUntranslatable)
	}

	var cols []*CspVar
	if !l.isConst() {
		cols = append(cols, l.v)
	}
	if !r.isConst() && r.v != l.v {
		cols = append(cols, r.v)
	}
	cols = append(cols, z)

	var rows [][]int
	for _, a := range lvals {
		for _, b := range rvals {
			if !l.isConst() && !r.isConst() && l.v == r.v && a != b {
				continue
			}
			res, ok := intArith(t.Op, a, b)
			if !ok {
				continue
			}
			if _, in := z.PosOf(res); !in {
				continue
			}
			row := make([]int, 0, len(cols))
			if !l.isConst() {
				row = append(row, a)
			}
			if !r.isConst() && r.v != l.v {
				row = append(row, b)
			}
			rows = append(rows, append(row, res))
		}
	}
	if len(rows) == 0 {
		return cspRef{}, errLiftedUnsat
	}
	tbl, err := NewTableConstraint(cols, rows)
	if err != nil {
		return cspRef{}, err
	}
	sc.model.AddConstraint(tbl)
	return cspRef{v: z, kind: ObjInt}, nil
}

func refValues(r cspRef) []int {
	if r.isConst() {
		return []int{r.code}
	}
	return r.v.Values()
}

// intArith applies an operator to int codes, reporting false when the
// result is undefined (division by zero).
func intArith(op ArithOp, a, b int) (int, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case OpMin:
		if a < b {
			return a, true
		}
		return b, true
	case OpMax:
		if a > b {
			return a, true
		}
		return b, true
	}
	return 0, false
}

// addFormula translates the precondition fragment: conjunctions of
// possibly negated relational atoms.
func (sc *SchemaCSP) addFormula(f *Formula) error {
	switch f.Kind {
	case FormTrue:
		return nil
	case FormFalse:
		return errLiftedUnsat
	case FormAnd:
		for _, sub := range f.Sub {
			if err := sc.addFormula(sub); err != nil {
				return err
			}
		}
		return nil
	case FormNot:
		if f.Body.Kind == FormAtom {
			return sc.addAtom(negateRel(f.Body.Rel), f.Body.Lhs, f.Body.Rhs)
		}
		return fmt.Errorf("negation of non-atom: %w", ErrUntranslatable)
	case FormAtom:
		return sc.addAtom(f.Rel, f.Lhs, f.Rhs)
	}
	return fmt.Errorf("formula kind %d: %w", f.Kind, ErrUntranslatable)
}

func (sc *SchemaCSP) addAtom(op RelOp, lhs, rhs *Term) error {
	l, err := sc.addTerm(lhs)
	if err != nil {
		return err
	}
	r, err := sc.addTerm(rhs)
	if err != nil {
		return err
	}
	// Mirror the interpreter's typing: equality needs matching kinds,
	// order needs integers. Anything else would raise a fatal type
	// mismatch at run time, so leave it to the ground path.
	switch op {
	case RelEQ, RelNEQ:
		if l.kind != r.kind {
			return fmt.Errorf("comparing %s with %s: %w", l.kind, r.kind, ErrUntranslatable)
		}
	default:
		if l.kind != ObjInt || r.kind != ObjInt {
			return fmt.Errorf("ordering %s with %s: %w", l.kind, r.kind, ErrUntranslatable)
		}
	}
	switch {
	case l.isConst() && r.isConst():
		if !constRel(op, l.code, r.code) {
			return errLiftedUnsat
		}
		return nil
	case r.isConst():
		sc.model.AddConstraint(NewRelConstConstraint(op, l.v, r.code))
		return nil
	case l.isConst():
		sc.model.AddConstraint(NewRelConstConstraint(flipRel(op), r.v, l.code))
		return nil
	default:
		sc.model.AddConstraint(NewRelConstraint(op, l.v, r.v))
		return nil
	}
}

func constRel(op RelOp, a, b int) bool {
	switch op {
	case RelEQ:
		return a == b
	case RelNEQ:
		return a != b
	case RelLT:
		return a < b
	case RelLEQ:
		return a <= b
	case RelGT:
		return a > b
	default:
		return a >= b
	}
}

// negateRel returns the complement comparator.
func negateRel(op RelOp) RelOp {
	switch op {
	case RelEQ:
		return RelNEQ
	case RelNEQ:
		return RelEQ
	case RelLT:
		return RelGEQ
	case RelLEQ:
		return RelGT
	case RelGT:
		return RelLEQ
	default:
		return RelLT
	}
}

// flipRel mirrors a comparator across its arguments: c op v becomes
// v flip(op) c.
func flipRel(op RelOp) RelOp {
	switch op {
	case RelLT:
		return RelGT
	case RelLEQ:
		return RelGEQ
	case RelGT:
		return RelLT
	case RelGEQ:
		return RelLEQ
	default:
		return op
	}
}

// Refresh rebuilds every state table from the given planning state.
func (sc *SchemaCSP) Refresh(s *State) error {
	for _, st := range sc.tables {
		if err := sc.refreshTable(st, s); err != nil {
			return err
		}
	}
	return nil
}

func (sc *SchemaCSP) refreshTable(st *stateTable, s *State) error {
	base, count, ok := sc.prob.Index.SymbolRange(st.sym)
	if !ok {
		name := fmt.Sprintf("%d", st.sym)
		if info := sc.prob.Lang.Symbol(st.sym); info != nil {
			name = info.Name
		}
		return fmt.Errorf("symbol %q has no state variables", name)
	}
	width := len(st.table.Vars())
	rows := make([][]int, 0, count)
	for off := 0; off < count; off++ {
		id := base + VarID(off)
		vd, err := sc.prob.Index.Decode(id)
		if err != nil {
			return err
		}
		row, ok := projectRow(st.args, vd.Args, s.Get(id).Code(), width)
		if ok {
			rows = append(rows, row)
		}
	}
	return st.table.SetRows(rows)
}

// objectFromCode reverses the code mapping for a parameter of the given
// type.
func objectFromCode(lang *Language, t TypeID, code int) Object {
	switch lang.Type(t).Kind {
	case KindBool:
		return MakeBool(code != 0)
	case KindInt:
		return MakeInt(int32(code))
	default:
		return MakeID(int32(code))
	}
}

// Enumerate yields every parameter binding applicable in the state, in
// ascending lexicographic order of the parameter codes. The support
// slice carries the auxiliary subterm values of the solution and is
// reused between calls. Enumeration stops when yield returns false.
func (sc *SchemaCSP) Enumerate(ctx context.Context, s *State, yield func(b *Binding, support []int) bool) error {
	if sc.alwaysFalse {
		return nil
	}
	if err := sc.Refresh(s); err != nil {
		return err
	}
	support := make([]int, len(sc.aux))
	return sc.solver.SolveAll(ctx, func(values []int) bool {
		b := NewBinding(len(sc.params))
		for i, pv := range sc.params {
			b.Set(i, objectFromCode(sc.prob.Lang, sc.schema.Signature[i], values[pv.ID()]))
		}
		for i, av := range sc.aux {
			support[i] = values[av.ID()]
		}
		return yield(b, support)
	})
}

// ApproxBinding refreshes the tables, runs root propagation only and
// returns the binding formed from each parameter's smallest surviving
// value. The binding is a candidate, not a guarantee; callers re-check
// it against the state.
func (sc *SchemaCSP) ApproxBinding(ctx context.Context, s *State) (*Binding, error) {
	if sc.alwaysFalse {
		return nil, fmt.Errorf("schema %q precondition is unsatisfiable: %w", sc.schema.Name, ErrCspInconsistent)
	}
	if err := sc.Refresh(s); err != nil {
		return nil, err
	}
	values, err := sc.solver.PropagateOnly(ctx)
	if err != nil {
		return nil, err
	}
	b := NewBinding(len(sc.params))
	for i, pv := range sc.params {
		b.Set(i, objectFromCode(sc.prob.Lang, sc.schema.Signature[i], values[pv.ID()]))
	}
	return b, nil
}
