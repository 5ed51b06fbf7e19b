// JSON problem ingestion. The document is the only place expression
// trees are built from raw data; everything downstream works on the
// validated in-memory Problem.
//
// The document shape:
//
//	{
//	  "language": {
//	    "types":   [{"name": "counter", "objects": ["c1", "c2"]},
//	                {"name": "val", "kind": "int", "min": 0, "max": 7}],
//	    "symbols": [{"name": "value", "domain": ["counter"],
//	                 "codomain": "val", "fluent": true}]
//	  },
//	  "init":    [{"symbol": "value", "args": ["c1"], "value": 0}],
//	  "actions": [{"name": "inc",
//	               "parameters": [{"name": "c", "type": "counter"}],
//	               "precondition": {...}, "effects": [{...}]}],
//	  "goal":       {...},
//	  "constraint": {...}
//	}
//
// Terms, formulas and effects are nested nodes tagged by "type":
// formulas are tautology, contradiction, atom, not, and, or, exists,
// forall and external; terms are constant, variable, app and arith;
// effects are assign, add and delete. Static symbols carry their
// extension in a "data" row list. Boolean state variables default to
// false; every other variable must be assigned. Malformed input
// surfaces as a ParseError locating the offending node.
package fstrips

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// LoadProblem decodes a problem document from r.
func LoadProblem(r io.Reader) (*Problem, error) {
	var doc docRoot
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	ld := &loader{}
	lang, err := ld.language(&doc.Language)
	if err != nil {
		return nil, err
	}
	idx, err := BuildVariableIndex(lang)
	if err != nil {
		return nil, &ParseError{Path: "language.symbols", Msg: err.Error()}
	}
	ld.idx = idx

	init, err := ld.initial(doc.Init)
	if err != nil {
		return nil, err
	}
	schemas := make([]*ActionSchema, len(doc.Actions))
	for i := range doc.Actions {
		schema, err := ld.action(fmt.Sprintf("actions[%d]", i), &doc.Actions[i])
		if err != nil {
			return nil, err
		}
		schemas[i] = schema
	}
	if len(doc.Goal) == 0 {
		return nil, &ParseError{Path: "goal", Msg: "missing goal formula"}
	}
	goal, err := ld.formula("goal", doc.Goal, emptyScope())
	if err != nil {
		return nil, err
	}
	var constraint *Formula
	if len(doc.Constraint) != 0 {
		constraint, err = ld.formula("constraint", doc.Constraint, emptyScope())
		if err != nil {
			return nil, err
		}
	}
	prob, err := NewProblem(lang, idx, init, schemas, goal, constraint)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	return prob, nil
}

// Document shapes. Formula, term and effect nodes decode into docNode;
// which fields matter depends on the tag.

type docRoot struct {
	Language   docLanguage       `json:"language"`
	Init       []docAssignment   `json:"init"`
	Actions    []docAction       `json:"actions"`
	Goal       json.RawMessage   `json:"goal"`
	Constraint json.RawMessage   `json:"constraint"`
}

type docLanguage struct {
	Types   []docType   `json:"types"`
	Symbols []docSymbol `json:"symbols"`
}

type docType struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Parent  string   `json:"parent"`
	Min     *int32   `json:"min"`
	Max     *int32   `json:"max"`
	Objects []string `json:"objects"`
}

type docSymbol struct {
	Name     string              `json:"name"`
	Domain   []string            `json:"domain"`
	Codomain string              `json:"codomain"`
	Fluent   bool                `json:"fluent"`
	Data     [][]json.RawMessage `json:"data"`
}

type docAssignment struct {
	Symbol string            `json:"symbol"`
	Args   []json.RawMessage `json:"args"`
	Value  json.RawMessage   `json:"value"`
}

type docAction struct {
	Name         string            `json:"name"`
	Parameters   []docParam        `json:"parameters"`
	Precondition json.RawMessage   `json:"precondition"`
	Effects      []json.RawMessage `json:"effects"`
}

type docParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type docNode struct {
	Type string `json:"type"`

	Rel string          `json:"rel"`
	Lhs json.RawMessage `json:"lhs"`
	Rhs json.RawMessage `json:"rhs"`

	Body    json.RawMessage `json:"body"`
	Binders []docParam      `json:"binders"`

	Children []json.RawMessage `json:"children"`

	Value json.RawMessage `json:"value"`
	Kind  string          `json:"kind"`

	Name   string            `json:"name"`
	Symbol string            `json:"symbol"`
	Args   []json.RawMessage `json:"args"`

	Op string `json:"op"`

	Condition json.RawMessage `json:"condition"`
}

type loader struct {
	lang *Language
	idx  *VariableIndex
}

func parseErrf(path, format string, args ...interface{}) error {
	return &ParseError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// language builds the type and symbol tables. Types must appear before
// any type that references them as parent, and before the symbols.
func (ld *loader) language(doc *docLanguage) (*Language, error) {
	lang := NewLanguage()
	ld.lang = lang
	for i, t := range doc.Types {
		path := fmt.Sprintf("language.types[%d]", i)
		if t.Name == "" {
			return nil, parseErrf(path, "type needs a name")
		}
		switch t.Kind {
		case "", "object":
			parent := TypeObject
			if t.Parent != "" {
				p, ok := lang.TypeByName(t.Parent)
				if !ok {
					return nil, parseErrf(path, "unknown parent type %q", t.Parent)
				}
				parent = p
			}
			id, err := lang.AddObjectType(t.Name, parent)
			if err != nil {
				return nil, parseErrf(path, "%v", err)
			}
			for j, name := range t.Objects {
				if _, err := lang.AddObject(name, id); err != nil {
					return nil, parseErrf(fmt.Sprintf("%s.objects[%d]", path, j), "%v", err)
				}
			}
		case "int":
			if t.Min == nil || t.Max == nil {
				return nil, parseErrf(path, "int type %q needs min and max", t.Name)
			}
			if _, err := lang.AddIntType(t.Name, *t.Min, *t.Max); err != nil {
				return nil, parseErrf(path, "%v", err)
			}
		default:
			return nil, parseErrf(path, "unknown type kind %q", t.Kind)
		}
	}
	for i, s := range doc.Symbols {
		path := fmt.Sprintf("language.symbols[%d]", i)
		domain := make([]TypeID, len(s.Domain))
		for j, name := range s.Domain {
			t, ok := lang.TypeByName(name)
			if !ok {
				return nil, parseErrf(path, "unknown domain type %q", name)
			}
			domain[j] = t
		}
		codomain, ok := lang.TypeByName(s.Codomain)
		if !ok {
			return nil, parseErrf(path, "unknown codomain type %q", s.Codomain)
		}
		sym, err := lang.AddSymbol(s.Name, domain, codomain, s.Fluent)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
		if len(s.Data) == 0 {
			continue
		}
		if s.Fluent {
			return nil, parseErrf(path, "fluent symbol %q cannot carry static data", s.Name)
		}
		rows, err := ld.staticRows(path, &s, codomain)
		if err != nil {
			return nil, err
		}
		if err := lang.SetStaticData(sym, rows); err != nil {
			return nil, parseErrf(path, "%v", err)
		}
	}
	return lang, nil
}

// staticRows parses a static symbol's extension. Predicate rows may
// omit the trailing true.
func (ld *loader) staticRows(path string, s *docSymbol, codomain TypeID) ([][]Object, error) {
	isBool := ld.lang.Type(codomain).Kind == KindBool
	rows := make([][]Object, len(s.Data))
	for i, raw := range s.Data {
		rowPath := fmt.Sprintf("%s.data[%d]", path, i)
		want := len(s.Domain) + 1
		row := make([]Object, 0, want)
		switch {
		case len(raw) == want:
		case len(raw) == len(s.Domain) && isBool:
			// Bare tuple: the value is true.
		default:
			return nil, parseErrf(rowPath, "row has %d entries, want %d", len(raw), want)
		}
		for j, cell := range raw {
			o, err := ld.literal(fmt.Sprintf("%s[%d]", rowPath, j), cell, "")
			if err != nil {
				return nil, err
			}
			row = append(row, o)
		}
		if len(row) < want {
			row = append(row, MakeBool(true))
		}
		rows[i] = row
	}
	return rows, nil
}

// initial assembles the total initial state. Boolean variables start
// false; everything else must be assigned exactly once.
func (ld *loader) initial(assignments []docAssignment) (*State, error) {
	values := make([]Object, ld.idx.Count())
	for _, vd := range ld.idx.Variables() {
		if ld.lang.Type(vd.Type).Kind == KindBool {
			values[vd.ID] = MakeBool(false)
		}
	}
	explicit := make([]bool, len(values))
	for i, a := range assignments {
		path := fmt.Sprintf("init[%d]", i)
		sym, ok := ld.lang.SymbolByName(a.Symbol)
		if !ok {
			return nil, parseErrf(path, "unknown symbol %q", a.Symbol)
		}
		args := make([]Object, len(a.Args))
		for j, cell := range a.Args {
			o, err := ld.literal(fmt.Sprintf("%s.args[%d]", path, j), cell, "")
			if err != nil {
				return nil, err
			}
			args[j] = o
		}
		v, err := ld.idx.Resolve(sym, args)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
		if explicit[v] {
			return nil, parseErrf(path, "variable %s assigned twice", ld.idx.Name(v))
		}
		explicit[v] = true
		if len(a.Value) == 0 {
			// A bare atom asserts a predicate.
			values[v] = MakeBool(true)
			continue
		}
		o, err := ld.literal(path+".value", a.Value, "")
		if err != nil {
			return nil, err
		}
		values[v] = o
	}
	return NewStateFrom(values), nil
}

func (ld *loader) action(path string, doc *docAction) (*ActionSchema, error) {
	signature := make([]TypeID, len(doc.Parameters))
	names := make([]string, len(doc.Parameters))
	params := make([]BoundVar, len(doc.Parameters))
	for i, p := range doc.Parameters {
		t, ok := ld.lang.TypeByName(p.Type)
		if !ok {
			return nil, parseErrf(fmt.Sprintf("%s.parameters[%d]", path, i), "unknown type %q", p.Type)
		}
		signature[i] = t
		names[i] = p.Name
		params[i] = BoundVar{ID: i, Name: p.Name, Type: t}
	}
	sc, err := emptyScope().extend(path+".parameters", params)
	if err != nil {
		return nil, err
	}
	var pre *Formula
	if len(doc.Precondition) != 0 {
		pre, err = ld.formula(path+".precondition", doc.Precondition, sc)
		if err != nil {
			return nil, err
		}
	}
	effects := make([]*Effect, len(doc.Effects))
	for i, raw := range doc.Effects {
		eff, err := ld.effect(fmt.Sprintf("%s.effects[%d]", path, i), raw, sc)
		if err != nil {
			return nil, err
		}
		effects[i] = eff
	}
	schema, err := NewActionSchema(doc.Name, signature, names, pre, effects)
	if err != nil {
		return nil, parseErrf(path, "%v", err)
	}
	return schema, nil
}

// scope tracks the bound variables visible at a node and the next free
// bound-variable id, so nested quantifiers never collide with action
// parameters.
type scope struct {
	vars map[string]BoundVar
	next int
}

func emptyScope() *scope {
	return &scope{vars: map[string]BoundVar{}}
}

func (sc *scope) extend(path string, binders []BoundVar) (*scope, error) {
	child := &scope{vars: make(map[string]BoundVar, len(sc.vars)+len(binders)), next: sc.next}
	for name, v := range sc.vars {
		child.vars[name] = v
	}
	for _, b := range binders {
		if b.Name == "" {
			return nil, parseErrf(path, "binder needs a name")
		}
		if _, dup := child.vars[b.Name]; dup {
			return nil, parseErrf(path, "variable %q shadows an enclosing binder", b.Name)
		}
		child.vars[b.Name] = b
		if b.ID >= child.next {
			child.next = b.ID + 1
		}
	}
	return child, nil
}

func (ld *loader) formula(path string, raw json.RawMessage, sc *scope) (*Formula, error) {
	var node docNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, parseErrf(path, "%v", err)
	}
	switch node.Type {
	case "tautology":
		return Tautology(), nil
	case "contradiction":
		return Contradiction(), nil
	case "atom":
		rel, ok := RelOpByName(node.Rel)
		if !ok {
			return nil, parseErrf(path, "unknown relation %q", node.Rel)
		}
		lhs, err := ld.term(path+".lhs", node.Lhs, sc)
		if err != nil {
			return nil, err
		}
		rhs, err := ld.term(path+".rhs", node.Rhs, sc)
		if err != nil {
			return nil, err
		}
		return NewAtom(rel, lhs, rhs), nil
	case "not":
		body, err := ld.formula(path+".body", node.Body, sc)
		if err != nil {
			return nil, err
		}
		return NewNot(body), nil
	case "and", "or":
		sub := make([]*Formula, len(node.Children))
		for i, child := range node.Children {
			f, err := ld.formula(fmt.Sprintf("%s.children[%d]", path, i), child, sc)
			if err != nil {
				return nil, err
			}
			sub[i] = f
		}
		if node.Type == "and" {
			return NewAnd(sub...), nil
		}
		if len(sub) == 0 {
			return Contradiction(), nil
		}
		return NewOr(sub...), nil
	case "exists", "forall":
		binders, child, err := ld.binders(path+".binders", node.Binders, sc)
		if err != nil {
			return nil, err
		}
		body, err := ld.formula(path+".body", node.Body, child)
		if err != nil {
			return nil, err
		}
		if node.Type == "exists" {
			return NewExists(binders, body), nil
		}
		return NewForall(binders, body), nil
	case "external":
		if node.Name == "" {
			return nil, parseErrf(path, "external formula needs a name")
		}
		args := make([]*Term, len(node.Args))
		for i, a := range node.Args {
			t, err := ld.term(fmt.Sprintf("%s.args[%d]", path, i), a, sc)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return NewExternal(node.Name, args), nil
	default:
		return nil, parseErrf(path, "unknown formula node %q", node.Type)
	}
}

func (ld *loader) binders(path string, docs []docParam, sc *scope) ([]BoundVar, *scope, error) {
	if len(docs) == 0 {
		return nil, nil, parseErrf(path, "quantifier needs binders")
	}
	binders := make([]BoundVar, len(docs))
	for i, b := range docs {
		t, ok := ld.lang.TypeByName(b.Type)
		if !ok {
			return nil, nil, parseErrf(fmt.Sprintf("%s[%d]", path, i), "unknown type %q", b.Type)
		}
		binders[i] = BoundVar{ID: sc.next + i, Name: b.Name, Type: t}
	}
	child, err := sc.extend(path, binders)
	if err != nil {
		return nil, nil, err
	}
	return binders, child, nil
}

func (ld *loader) term(path string, raw json.RawMessage, sc *scope) (*Term, error) {
	if len(raw) == 0 {
		return nil, parseErrf(path, "missing term")
	}
	var node docNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, parseErrf(path, "%v", err)
	}
	switch node.Type {
	case "constant":
		o, err := ld.literal(path+".value", node.Value, node.Kind)
		if err != nil {
			return nil, err
		}
		return NewConstant(ld.lang, o), nil
	case "variable":
		v, ok := sc.vars[node.Name]
		if !ok {
			return nil, parseErrf(path, "unbound variable %q", node.Name)
		}
		return NewVariable(ld.lang, v), nil
	case "app":
		sym, ok := ld.lang.SymbolByName(node.Symbol)
		if !ok {
			return nil, parseErrf(path, "unknown symbol %q", node.Symbol)
		}
		args := make([]*Term, len(node.Args))
		for i, a := range node.Args {
			t, err := ld.term(fmt.Sprintf("%s.args[%d]", path, i), a, sc)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		var t *Term
		var err error
		if ld.lang.Symbol(sym).Fluent {
			t, err = NewFluentApp(ld.lang, sym, args)
		} else {
			t, err = NewStaticApp(ld.lang, sym, args)
		}
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
		return t, nil
	case "arith":
		op, ok := ArithOpByName(node.Op)
		if !ok {
			return nil, parseErrf(path, "unknown arithmetic operator %q", node.Op)
		}
		lhs, err := ld.term(path+".lhs", node.Lhs, sc)
		if err != nil {
			return nil, err
		}
		rhs, err := ld.term(path+".rhs", node.Rhs, sc)
		if err != nil {
			return nil, err
		}
		t, err := NewArith(ld.lang, op, lhs, rhs)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
		return t, nil
	default:
		return nil, parseErrf(path, "unknown term node %q", node.Type)
	}
}

func (ld *loader) effect(path string, raw json.RawMessage, sc *scope) (*Effect, error) {
	var node docNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, parseErrf(path, "%v", err)
	}
	var cond *Formula
	if len(node.Condition) != 0 {
		var err error
		cond, err = ld.formula(path+".condition", node.Condition, sc)
		if err != nil {
			return nil, err
		}
	}
	lhs, err := ld.term(path+".lhs", node.Lhs, sc)
	if err != nil {
		return nil, err
	}
	var eff *Effect
	switch node.Type {
	case "assign":
		rhs, err := ld.term(path+".rhs", node.Rhs, sc)
		if err != nil {
			return nil, err
		}
		eff, err = NewFunctionalEffect(lhs, rhs, cond)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
	case "add":
		eff, err = NewAddEffect(lhs, cond)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
	case "delete":
		eff, err = NewDeleteEffect(lhs, cond)
		if err != nil {
			return nil, parseErrf(path, "%v", err)
		}
	default:
		return nil, parseErrf(path, "unknown effect node %q", node.Type)
	}
	return eff, nil
}

// literal parses a scalar: booleans, numbers, or declared object
// names. kind forces the reading when JSON's number typing is too
// coarse, e.g. "float" for an integral float constant.
func (ld *loader) literal(path string, raw json.RawMessage, kind string) (Object, error) {
	if len(raw) == 0 {
		return Object{}, parseErrf(path, "missing value")
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Object{}, parseErrf(path, "%v", err)
	}
	switch val := v.(type) {
	case bool:
		return MakeBool(val), nil
	case float64:
		if kind == "float" || math.Trunc(val) != val {
			return MakeFloat(float32(val)), nil
		}
		if val < math.MinInt32 || val > math.MaxInt32 {
			return Object{}, parseErrf(path, "integer %v out of range", val)
		}
		return MakeInt(int32(val)), nil
	case string:
		if o, ok := ld.lang.ObjectByName(val); ok {
			return o, nil
		}
		return Object{}, parseErrf(path, "unknown object %q", val)
	default:
		return Object{}, parseErrf(path, "value must be a boolean, number or object name")
	}
}
