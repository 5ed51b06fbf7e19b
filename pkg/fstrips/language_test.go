package fstrips

import (
	"testing"
)

// Objects belong to their declared type and to every ancestor type.
func TestLanguage_SubtypeMembership(t *testing.T) {
	lang := NewLanguage()
	place := mustType(t)(lang.AddObjectType("place", TypeObject))
	room := mustType(t)(lang.AddObjectType("room", place))
	hall := mustObj(t)(lang.AddObject("hall", room))

	if !lang.IsSubtype(room, place) {
		t.Fatalf("room should be a subtype of place")
	}
	if !lang.IsSubtype(room, TypeObject) {
		t.Fatalf("room should be a subtype of object")
	}
	if lang.IsSubtype(place, room) {
		t.Fatalf("place must not be a subtype of room")
	}

	rooms, err := lang.ObjectsOf(room)
	if err != nil {
		t.Fatalf("ObjectsOf(room): %v", err)
	}
	places, err := lang.ObjectsOf(place)
	if err != nil {
		t.Fatalf("ObjectsOf(place): %v", err)
	}
	if len(rooms) != 1 || len(places) != 1 {
		t.Fatalf("universe sizes = %d, %d, want 1, 1", len(rooms), len(places))
	}
	if !places[0].Equal(hall) {
		t.Fatalf("hall missing from the parent universe")
	}
	if lang.TypeOf(hall) != room {
		t.Fatalf("TypeOf(hall) = %d, want %d", lang.TypeOf(hall), room)
	}
}

// Type membership is by kind for the builtins, by range for bounded
// ints and by the declared hierarchy for objects.
func TestLanguage_Contains(t *testing.T) {
	lang := NewLanguage()
	place := mustType(t)(lang.AddObjectType("place", TypeObject))
	room := mustType(t)(lang.AddObjectType("room", place))
	hall := mustObj(t)(lang.AddObject("hall", room))
	lvl := mustType(t)(lang.AddIntType("lvl", 0, 9))

	if !lang.Contains(place, hall) || !lang.Contains(room, hall) {
		t.Fatalf("hall should inhabit room and place")
	}
	if lang.Contains(room, MakeInt(0)) {
		t.Fatalf("an int must not inhabit an object type")
	}
	if !lang.Contains(lvl, MakeInt(0)) || !lang.Contains(lvl, MakeInt(9)) {
		t.Fatalf("range endpoints should inhabit lvl")
	}
	if lang.Contains(lvl, MakeInt(10)) {
		t.Fatalf("out-of-range int accepted by lvl")
	}
	if !lang.Contains(TypeInt, MakeInt(1<<30)) {
		t.Fatalf("builtin int must accept any integer")
	}
	if lang.Contains(TypeBool, MakeInt(1)) {
		t.Fatalf("int 1 must not inhabit bool")
	}
	if !lang.Contains(TypeBool, MakeBool(true)) {
		t.Fatalf("true should inhabit bool")
	}
}

// Duplicate declarations of types, objects and symbols are rejected.
func TestLanguage_DuplicateNames(t *testing.T) {
	lang := NewLanguage()
	mustType(t)(lang.AddObjectType("block", TypeObject))
	if _, err := lang.AddObjectType("block", TypeObject); err == nil {
		t.Fatalf("duplicate type accepted")
	}
	mustObj(t)(lang.AddObject("a", mustType(t)(lang.AddObjectType("thing", TypeObject))))
	if _, err := lang.AddObject("a", TypeObject); err == nil {
		t.Fatalf("duplicate object accepted")
	}
	mustSym(t)(lang.AddSymbol("on", nil, TypeBool, true))
	if _, err := lang.AddSymbol("on", nil, TypeBool, false); err == nil {
		t.Fatalf("duplicate symbol accepted")
	}
}

// Bounded int types enumerate their range; ordinals are offsets into it.
func TestLanguage_IntTypeUniverse(t *testing.T) {
	lang := NewLanguage()
	small := mustType(t)(lang.AddIntType("small", -2, 3))

	size, err := lang.UniverseSize(small)
	if err != nil {
		t.Fatalf("UniverseSize: %v", err)
	}
	if size != 6 {
		t.Fatalf("size = %d, want 6", size)
	}
	ord, err := lang.Ordinal(small, MakeInt(-2))
	if err != nil {
		t.Fatalf("Ordinal(-2): %v", err)
	}
	if ord != 0 {
		t.Fatalf("Ordinal(-2) = %d, want 0", ord)
	}
	ord, err = lang.Ordinal(small, MakeInt(3))
	if err != nil {
		t.Fatalf("Ordinal(3): %v", err)
	}
	if ord != 5 {
		t.Fatalf("Ordinal(3) = %d, want 5", ord)
	}
	if _, err := lang.Ordinal(small, MakeInt(4)); err == nil {
		t.Fatalf("out-of-range value accepted")
	}
	if _, err := lang.AddIntType("empty", 5, 4); err == nil {
		t.Fatalf("empty int range accepted")
	}
}

// Static predicates default to false off their extension; static
// functions are undefined there.
func TestLanguage_StaticData(t *testing.T) {
	lang := NewLanguage()
	city := mustType(t)(lang.AddObjectType("city", TypeObject))
	a := mustObj(t)(lang.AddObject("a", city))
	b := mustObj(t)(lang.AddObject("b", city))
	c := mustObj(t)(lang.AddObject("c", city))

	adjacent := mustSym(t)(lang.AddSymbol("adjacent", []TypeID{city, city}, TypeBool, false))
	if err := lang.SetStaticData(adjacent, [][]Object{
		{a, b, MakeBool(true)},
		{b, c, MakeBool(true)},
	}); err != nil {
		t.Fatalf("SetStaticData: %v", err)
	}

	v, err := lang.StaticValue(adjacent, []Object{a, b})
	if err != nil {
		t.Fatalf("StaticValue(a,b): %v", err)
	}
	if got, _ := v.BoolValue(); !got {
		t.Fatalf("adjacent(a,b) = false, want true")
	}
	v, err = lang.StaticValue(adjacent, []Object{a, c})
	if err != nil {
		t.Fatalf("StaticValue(a,c): %v", err)
	}
	if got, _ := v.BoolValue(); got {
		t.Fatalf("adjacent(a,c) = true, want false off the extension")
	}

	dist := mustSym(t)(lang.AddSymbol("dist", []TypeID{city, city}, TypeInt, false))
	if err := lang.SetStaticData(dist, [][]Object{{a, b, MakeInt(7)}}); err != nil {
		t.Fatalf("SetStaticData(dist): %v", err)
	}
	if _, err := lang.StaticValue(dist, []Object{a, c}); err == nil {
		t.Fatalf("undefined static function value accepted")
	}

	fluent := mustSym(t)(lang.AddSymbol("f", nil, TypeBool, true))
	if err := lang.SetStaticData(fluent, nil); err == nil {
		t.Fatalf("static data on a fluent accepted")
	}
}

// Static rows must carry the argument tuple plus the value.
func TestLanguage_StaticRowArity(t *testing.T) {
	lang := NewLanguage()
	city := mustType(t)(lang.AddObjectType("city", TypeObject))
	a := mustObj(t)(lang.AddObject("a", city))
	adj := mustSym(t)(lang.AddSymbol("adjacent", []TypeID{city, city}, TypeBool, false))
	if err := lang.SetStaticData(adj, [][]Object{{a, MakeBool(true)}}); err == nil {
		t.Fatalf("short static row accepted")
	}
}
