// Package fstrips implements a functional STRIPS planning engine.
// This file defines the Language: the typed object universe and symbol
// table a problem is written against. The Language is immutable once a
// Problem has been built from it and is safe for concurrent reads.
package fstrips

import (
	"fmt"
	"sort"
	"strings"
)

// TypeID indexes a declared type inside a Language.
type TypeID int

// SymbolID indexes a declared function or predicate symbol.
type SymbolID int

// TypeKind classifies a declared type.
type TypeKind uint8

const (
	// KindObject types are finite, ordered sets of named objects.
	KindObject TypeKind = iota
	// KindBool is the builtin truth-value type.
	KindBool
	// KindInt types are bounded integer intervals.
	KindInt
	// KindFloat is the builtin float type. Floats have no enumerable
	// universe and cannot be quantified over.
	KindFloat
)

// Builtin type ids, created by NewLanguage in this order.
const (
	TypeObject TypeID = 0
	TypeBool   TypeID = 1
	TypeInt    TypeID = 2
	TypeFloat  TypeID = 3
)

// TypeInfo describes one declared type.
type TypeInfo struct {
	ID     TypeID
	Name   string
	Kind   TypeKind
	Parent TypeID // parent in the subtype chain; root object type points to itself

	// Min, Max bound KindInt types (inclusive).
	Min, Max int32

	// members lists the inhabitants of a KindObject type in declaration
	// order, including those of declared subtypes.
	members []Object
	ordinal map[int32]int // object id -> position in members
}

// SymbolInfo describes a function or predicate symbol. Predicates are
// functions with a bool codomain.
type SymbolInfo struct {
	ID       SymbolID
	Name     string
	Domain   []TypeID
	Codomain TypeID
	Fluent   bool
}

// Arity returns the number of arguments the symbol takes.
func (s *SymbolInfo) Arity() int { return len(s.Domain) }

// staticData stores the fixed extension of a static symbol: the ordered
// tuple list (for CSP table construction) and a lookup map keyed on the
// encoded argument tuple.
type staticData struct {
	rows   [][]Object // each row: args..., value
	lookup map[string]Object
}

// Language is the registry of types, objects and symbols. Build it with
// the Add* methods during load; afterwards it must not be mutated.
type Language struct {
	types   []*TypeInfo
	typeIDs map[string]TypeID

	objectNames []string        // indexed by object id
	objectTypes []TypeID        // indexed by object id
	objectIDs   map[string]int32

	symbols   []*SymbolInfo
	symbolIDs map[string]SymbolID

	statics map[SymbolID]*staticData
}

// NewLanguage creates a Language holding only the builtin types
// object, bool, int and float.
func NewLanguage() *Language {
	l := &Language{
		typeIDs:   make(map[string]TypeID),
		objectIDs: make(map[string]int32),
		symbolIDs: make(map[string]SymbolID),
		statics:   make(map[SymbolID]*staticData),
	}
	l.addType(&TypeInfo{Name: "object", Kind: KindObject, Parent: TypeObject})
	l.addType(&TypeInfo{Name: "bool", Kind: KindBool, Parent: TypeBool, Min: 0, Max: 1})
	l.addType(&TypeInfo{Name: "int", Kind: KindInt, Parent: TypeInt, Min: -1 << 30, Max: 1<<30 - 1})
	l.addType(&TypeInfo{Name: "float", Kind: KindFloat, Parent: TypeFloat})
	return l
}

func (l *Language) addType(info *TypeInfo) TypeID {
	info.ID = TypeID(len(l.types))
	if info.Kind == KindObject {
		info.ordinal = make(map[int32]int)
	}
	l.types = append(l.types, info)
	l.typeIDs[info.Name] = info.ID
	return info.ID
}

// AddObjectType declares a named object type. parent must be an object
// type; use TypeObject for a top-level type.
func (l *Language) AddObjectType(name string, parent TypeID) (TypeID, error) {
	if _, dup := l.typeIDs[name]; dup {
		return 0, fmt.Errorf("type %q already declared", name)
	}
	if p := l.Type(parent); p == nil || p.Kind != KindObject {
		return 0, fmt.Errorf("parent of object type %q must be an object type", name)
	}
	return l.addType(&TypeInfo{Name: name, Kind: KindObject, Parent: parent}), nil
}

// AddIntType declares a bounded integer type with inclusive bounds.
func (l *Language) AddIntType(name string, min, max int32) (TypeID, error) {
	if _, dup := l.typeIDs[name]; dup {
		return 0, fmt.Errorf("type %q already declared", name)
	}
	if min > max {
		return 0, fmt.Errorf("int type %q has empty range [%d, %d]", name, min, max)
	}
	return l.addType(&TypeInfo{Name: name, Kind: KindInt, Parent: TypeInt, Min: min, Max: max}), nil
}

// AddObject declares a named object of the given object type. The object
// becomes a member of that type and of every ancestor type.
func (l *Language) AddObject(name string, typ TypeID) (Object, error) {
	if _, dup := l.objectIDs[name]; dup {
		return Object{}, fmt.Errorf("object %q already declared", name)
	}
	info := l.Type(typ)
	if info == nil || info.Kind != KindObject {
		return Object{}, fmt.Errorf("object %q must belong to an object type", name)
	}
	id := int32(len(l.objectNames))
	l.objectNames = append(l.objectNames, name)
	l.objectTypes = append(l.objectTypes, typ)
	l.objectIDs[name] = id
	obj := MakeID(id)
	for t := info; ; t = l.Type(t.Parent) {
		t.ordinal[id] = len(t.members)
		t.members = append(t.members, obj)
		if t.ID == t.Parent {
			break
		}
	}
	return obj, nil
}

// AddSymbol declares a function or predicate symbol.
func (l *Language) AddSymbol(name string, domain []TypeID, codomain TypeID, fluent bool) (SymbolID, error) {
	if _, dup := l.symbolIDs[name]; dup {
		return 0, fmt.Errorf("symbol %q already declared", name)
	}
	info := &SymbolInfo{
		ID:       SymbolID(len(l.symbols)),
		Name:     name,
		Domain:   append([]TypeID(nil), domain...),
		Codomain: codomain,
		Fluent:   fluent,
	}
	l.symbols = append(l.symbols, info)
	l.symbolIDs[name] = info.ID
	return info.ID, nil
}

// SetStaticData fixes the extension of a static symbol. Each row holds
// the argument tuple followed by the symbol's value for that tuple.
// Rows are kept in the given order for deterministic CSP tables.
func (l *Language) SetStaticData(sym SymbolID, rows [][]Object) error {
	info := l.Symbol(sym)
	if info == nil {
		return fmt.Errorf("unknown symbol %d", sym)
	}
	if info.Fluent {
		return fmt.Errorf("symbol %q is fluent, cannot carry static data", info.Name)
	}
	data := &staticData{rows: rows, lookup: make(map[string]Object, len(rows))}
	for i, row := range rows {
		if len(row) != info.Arity()+1 {
			return fmt.Errorf("static row %d of %q has %d entries, want %d", i, info.Name, len(row), info.Arity()+1)
		}
		data.lookup[encodeArgs(row[:info.Arity()])] = row[info.Arity()]
	}
	l.statics[sym] = data
	return nil
}

// StaticValue evaluates a static symbol on a ground argument tuple.
// Tuples outside the declared extension of a predicate are false; for a
// function they are an error.
func (l *Language) StaticValue(sym SymbolID, args []Object) (Object, error) {
	info := l.Symbol(sym)
	if info == nil {
		return Object{}, fmt.Errorf("unknown symbol %d", sym)
	}
	data := l.statics[sym]
	if data != nil {
		if v, ok := data.lookup[encodeArgs(args)]; ok {
			return v, nil
		}
	}
	if info.Codomain == TypeBool {
		return MakeBool(false), nil
	}
	return Object{}, fmt.Errorf("static function %q undefined on %s", info.Name, renderArgs(l, args))
}

// StaticRows returns the declared extension of a static symbol in
// declaration order, or nil if none was set.
func (l *Language) StaticRows(sym SymbolID) [][]Object {
	if d := l.statics[sym]; d != nil {
		return d.rows
	}
	return nil
}

// Type returns the TypeInfo for an id, or nil if out of range.
func (l *Language) Type(id TypeID) *TypeInfo {
	if id < 0 || int(id) >= len(l.types) {
		return nil
	}
	return l.types[id]
}

// TypeByName resolves a declared type name.
func (l *Language) TypeByName(name string) (TypeID, bool) {
	id, ok := l.typeIDs[name]
	return id, ok
}

// Symbol returns the SymbolInfo for an id, or nil if out of range.
func (l *Language) Symbol(id SymbolID) *SymbolInfo {
	if id < 0 || int(id) >= len(l.symbols) {
		return nil
	}
	return l.symbols[id]
}

// SymbolByName resolves a declared symbol name.
func (l *Language) SymbolByName(name string) (SymbolID, bool) {
	id, ok := l.symbolIDs[name]
	return id, ok
}

// Symbols returns the declared symbols in declaration order.
func (l *Language) Symbols() []*SymbolInfo { return l.symbols }

// TypeOf returns the fine type of an Object: the declared type for
// object ids, the builtin type for the other kinds.
func (l *Language) TypeOf(o Object) TypeID {
	switch o.Kind() {
	case ObjBool:
		return TypeBool
	case ObjInt:
		return TypeInt
	case ObjFloat:
		return TypeFloat
	case ObjID:
		if id, err := o.IDValue(); err == nil && int(id) < len(l.objectTypes) {
			return l.objectTypes[id]
		}
	}
	return -1
}

// IsSubtype reports whether sub is t or a declared descendant of t.
// Bounded int types are subtypes of the builtin int.
func (l *Language) IsSubtype(sub, t TypeID) bool {
	for {
		if sub == t {
			return true
		}
		info := l.Type(sub)
		if info == nil || info.Parent == sub {
			return false
		}
		sub = info.Parent
	}
}

// Contains reports whether a value inhabits a type: matching kind for
// the builtins, declared membership for object types, range membership
// for bounded int types.
func (l *Language) Contains(t TypeID, o Object) bool {
	info := l.Type(t)
	if info == nil {
		return false
	}
	switch info.Kind {
	case KindBool:
		return o.Kind() == ObjBool
	case KindFloat:
		return o.Kind() == ObjFloat
	case KindInt:
		if o.Kind() != ObjInt {
			return false
		}
		if t == TypeInt {
			return true
		}
		v := o.Code()
		return v >= int(info.Min) && v <= int(info.Max)
	default:
		return o.Kind() == ObjID && l.IsSubtype(l.TypeOf(o), t)
	}
}

// ValueKind returns the object kind values of the type carry.
func (l *Language) ValueKind(t TypeID) ObjectKind {
	info := l.Type(t)
	if info == nil {
		return ObjID
	}
	switch info.Kind {
	case KindBool:
		return ObjBool
	case KindInt:
		return ObjInt
	case KindFloat:
		return ObjFloat
	default:
		return ObjID
	}
}

// ObjectsOf returns the finite, ordered universe of a type: both truth
// values for bool, the integer range for bounded int types, the declared
// members for object types. Float and the unbounded builtin int have no
// enumerable universe.
func (l *Language) ObjectsOf(t TypeID) ([]Object, error) {
	info := l.Type(t)
	if info == nil {
		return nil, fmt.Errorf("unknown type %d", t)
	}
	switch info.Kind {
	case KindBool:
		return []Object{MakeBool(false), MakeBool(true)}, nil
	case KindObject:
		return info.members, nil
	case KindInt:
		span := int64(info.Max) - int64(info.Min) + 1
		if t == TypeInt || span > 1<<20 {
			return nil, fmt.Errorf("type %q is not enumerable", info.Name)
		}
		out := make([]Object, 0, span)
		for v := info.Min; ; v++ {
			out = append(out, MakeInt(v))
			if v == info.Max {
				break
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("type %q is not enumerable", info.Name)
	}
}

// UniverseSize returns the cardinality of a type's universe without
// materialising it.
func (l *Language) UniverseSize(t TypeID) (int, error) {
	info := l.Type(t)
	if info == nil {
		return 0, fmt.Errorf("unknown type %d", t)
	}
	switch info.Kind {
	case KindBool:
		return 2, nil
	case KindObject:
		return len(info.members), nil
	case KindInt:
		span := int64(info.Max) - int64(info.Min) + 1
		if t == TypeInt || span > 1<<20 {
			return 0, fmt.Errorf("type %q is not enumerable", info.Name)
		}
		return int(span), nil
	default:
		return 0, fmt.Errorf("type %q is not enumerable", info.Name)
	}
}

// Ordinal returns the position of a value inside a type's ordered
// universe. It is the inverse of indexing into ObjectsOf.
func (l *Language) Ordinal(t TypeID, o Object) (int, error) {
	info := l.Type(t)
	if info == nil {
		return 0, fmt.Errorf("unknown type %d", t)
	}
	switch info.Kind {
	case KindBool:
		b, err := o.BoolValue()
		if err != nil {
			return 0, err
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case KindObject:
		id, err := o.IDValue()
		if err != nil {
			return 0, err
		}
		pos, ok := info.ordinal[id]
		if !ok {
			return 0, fmt.Errorf("object %s is not a member of type %q", l.ObjectName(o), info.Name)
		}
		return pos, nil
	case KindInt:
		v, err := o.IntValue()
		if err != nil {
			return 0, err
		}
		if v < info.Min || v > info.Max {
			return 0, fmt.Errorf("value %d outside type %q range [%d, %d]", v, info.Name, info.Min, info.Max)
		}
		return int(v - info.Min), nil
	default:
		return 0, fmt.Errorf("type %q is not enumerable", info.Name)
	}
}

// ObjectByName resolves a declared object name.
func (l *Language) ObjectByName(name string) (Object, bool) {
	id, ok := l.objectIDs[name]
	if !ok {
		return Object{}, false
	}
	return MakeID(id), true
}

// ObjectName renders an Object for boundary output: declared names for
// object ids, literal syntax for the primitive kinds.
func (l *Language) ObjectName(o Object) string {
	if o.Kind() == ObjID {
		if id, err := o.IDValue(); err == nil && int(id) < len(l.objectNames) {
			return l.objectNames[id]
		}
	}
	return o.String()
}

// TypeNames returns the declared type names sorted alphabetically.
// Only used by diagnostics.
func (l *Language) TypeNames() []string {
	names := make([]string, 0, len(l.typeIDs))
	for n := range l.typeIDs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// encodeArgs packs a ground argument tuple into a map key.
func encodeArgs(args []Object) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteByte(byte(a.Kind()))
		b.WriteString(fmt.Sprintf("%d|", a.Code()))
	}
	return b.String()
}

func renderArgs(l *Language, args []Object) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = l.ObjectName(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
