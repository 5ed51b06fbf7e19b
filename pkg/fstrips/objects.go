// Package fstrips implements a functional STRIPS planning engine.
// This file defines Object, the tagged runtime value flowing through
// states, bindings and interpretation.
package fstrips

import (
	"fmt"
	"math"
)

// ObjectKind tags the payload of an Object.
type ObjectKind uint8

const (
	// ObjInvalid is the zero Object; reading it is always an error.
	ObjInvalid ObjectKind = iota
	// ObjBool holds a truth value.
	ObjBool
	// ObjInt holds a 32-bit signed integer.
	ObjInt
	// ObjFloat holds a single-precision float.
	ObjFloat
	// ObjID holds the identifier of a typed, opaque domain object.
	ObjID
)

// String returns the kind name used in error messages.
func (k ObjectKind) String() string {
	switch k {
	case ObjBool:
		return "bool"
	case ObjInt:
		return "int"
	case ObjFloat:
		return "float"
	case ObjID:
		return "object"
	default:
		return "invalid"
	}
}

// Object is a tagged value: a boolean, a 32-bit integer, a 32-bit float
// or the id of a typed domain object. Objects are small value types and
// are copied freely; equality compares the tag pair and the raw payload.
type Object struct {
	kind ObjectKind
	num  int32
	flt  float32
}

// MakeBool builds a boolean Object.
func MakeBool(v bool) Object {
	n := int32(0)
	if v {
		n = 1
	}
	return Object{kind: ObjBool, num: n}
}

// MakeInt builds an integer Object.
func MakeInt(v int32) Object { return Object{kind: ObjInt, num: v} }

// MakeFloat builds a float Object.
func MakeFloat(v float32) Object { return Object{kind: ObjFloat, flt: v} }

// MakeID builds an Object referring to the domain object with the given id.
func MakeID(id int32) Object { return Object{kind: ObjID, num: id} }

// Kind returns the payload tag.
func (o Object) Kind() ObjectKind { return o.kind }

// IsValid reports whether the Object carries a payload.
func (o Object) IsValid() bool { return o.kind != ObjInvalid }

// BoolValue returns the boolean payload.
func (o Object) BoolValue() (bool, error) {
	if o.kind != ObjBool {
		return false, &TypeMismatchError{Context: "bool access", Want: ObjBool, Got: o.kind}
	}
	return o.num != 0, nil
}

// IntValue returns the integer payload.
func (o Object) IntValue() (int32, error) {
	if o.kind != ObjInt {
		return 0, &TypeMismatchError{Context: "int access", Want: ObjInt, Got: o.kind}
	}
	return o.num, nil
}

// FloatValue returns the float payload.
func (o Object) FloatValue() (float32, error) {
	if o.kind != ObjFloat {
		return 0, &TypeMismatchError{Context: "float access", Want: ObjFloat, Got: o.kind}
	}
	return o.flt, nil
}

// IDValue returns the domain-object id payload.
func (o Object) IDValue() (int32, error) {
	if o.kind != ObjID {
		return 0, &TypeMismatchError{Context: "object access", Want: ObjID, Got: o.kind}
	}
	return o.num, nil
}

// Equal reports payload equality. Objects of different kinds are never
// equal; in particular an int and a float never compare equal even when
// numerically identical.
func (o Object) Equal(other Object) bool {
	if o.kind != other.kind {
		return false
	}
	if o.kind == ObjFloat {
		return o.flt == other.flt
	}
	return o.num == other.num
}

// Code returns the payload coerced to a plain integer. It is the value
// novelty features and the CSP layer work with: booleans map to 0/1,
// integers and object ids to themselves, floats to their bit pattern so
// that distinct floats stay distinct.
func (o Object) Code() int {
	if o.kind == ObjFloat {
		return int(math.Float32bits(o.flt))
	}
	return int(o.num)
}

// Truthy reports whether the Object counts as "true" in a boolean
// position: false and the integer 0 are falsy, everything else truthy.
func (o Object) Truthy() bool { return o.num != 0 || o.kind == ObjFloat && o.flt != 0 }

// hash folds the Object into a 64-bit FNV-1a accumulator.
func (o Object) hash(h uint64) uint64 {
	h = fnvStep(h, uint64(o.kind))
	if o.kind == ObjFloat {
		return fnvStep(h, uint64(math.Float32bits(o.flt)))
	}
	return fnvStep(h, uint64(uint32(o.num)))
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// fnvStep folds one 64-bit word into an FNV-1a accumulator, one byte at
// a time so that the mixing matches the reference function.
func fnvStep(h, w uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= w & 0xff
		h *= fnvPrime64
		w >>= 8
	}
	return h
}

// compareObjects orders two Objects for the relational comparators.
// Returns -1, 0 or +1. Comparing values of different kinds, or of kinds
// without a natural order (opaque ids and booleans support only = / ≠,
// which the caller handles through Equal), yields a TypeMismatchError.
func compareObjects(a, b Object) (int, error) {
	if a.kind != b.kind {
		return 0, &TypeMismatchError{Context: "comparison", Want: a.kind, Got: b.kind}
	}
	switch a.kind {
	case ObjInt:
		switch {
		case a.num < b.num:
			return -1, nil
		case a.num > b.num:
			return 1, nil
		}
		return 0, nil
	case ObjFloat:
		switch {
		case a.flt < b.flt:
			return -1, nil
		case a.flt > b.flt:
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &TypeMismatchError{Context: "ordered comparison", Want: ObjInt, Got: a.kind}
	}
}

// String renders the payload for boundary output.
func (o Object) String() string {
	switch o.kind {
	case ObjBool:
		if o.num != 0 {
			return "true"
		}
		return "false"
	case ObjInt:
		return fmt.Sprintf("%d", o.num)
	case ObjFloat:
		return fmt.Sprintf("%g", o.flt)
	case ObjID:
		return fmt.Sprintf("#%d", o.num)
	default:
		return "<invalid>"
	}
}
