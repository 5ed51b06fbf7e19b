// Package fstrips implements a functional STRIPS planning engine.
// This file implements interval arithmetic over term bounds. Every term
// carries a precomputed (min, max) pair consulted by the CSP layer;
// combining rules follow standard interval arithmetic and must stay
// sound (never tighter than the true range).
package fstrips

import (
	"fmt"
	"math"
)

// Interval is an inclusive integer range over Object codes.
type Interval struct {
	Min, Max int
}

// wideInterval covers every representable 32-bit payload. Used when
// nothing tighter is known, e.g. for float-typed terms.
var wideInterval = Interval{Min: math.MinInt32, Max: math.MaxInt32}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v int) bool { return v >= iv.Min && v <= iv.Max }

// Width returns the number of values the interval spans.
func (iv Interval) Width() int64 { return int64(iv.Max) - int64(iv.Min) + 1 }

// Empty reports an inverted interval.
func (iv Interval) Empty() bool { return iv.Min > iv.Max }

func (iv Interval) String() string { return fmt.Sprintf("[%d, %d]", iv.Min, iv.Max) }

// point narrows an interval to a single value.
func point(v int) Interval { return Interval{Min: v, Max: v} }

// hull returns the convex hull of two intervals.
func hull(a, b Interval) Interval {
	return Interval{Min: minInt(a.Min, b.Min), Max: maxInt(a.Max, b.Max)}
}

// intervalSum computes [a,b] + [c,d] = [a+c, b+d], saturating at the
// 32-bit payload range.
func intervalSum(a, b Interval) Interval {
	return Interval{Min: sat(int64(a.Min) + int64(b.Min)), Max: sat(int64(a.Max) + int64(b.Max))}
}

// intervalDiff computes [a,b] - [c,d] = [a-d, b-c].
func intervalDiff(a, b Interval) Interval {
	return Interval{Min: sat(int64(a.Min) - int64(b.Max)), Max: sat(int64(a.Max) - int64(b.Min))}
}

// intervalMul bounds the product by the extrema of the corner products.
func intervalMul(a, b Interval) Interval {
	p1 := int64(a.Min) * int64(b.Min)
	p2 := int64(a.Min) * int64(b.Max)
	p3 := int64(a.Max) * int64(b.Min)
	p4 := int64(a.Max) * int64(b.Max)
	lo := p1
	hi := p1
	for _, p := range []int64{p2, p3, p4} {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return Interval{Min: sat(lo), Max: sat(hi)}
}

// intervalDiv bounds integer division. A divisor interval spanning zero
// forces the widest sound answer.
func intervalDiv(a, b Interval) Interval {
	if b.Min <= 0 && b.Max >= 0 {
		return wideInterval
	}
	q1 := int64(a.Min) / int64(b.Min)
	q2 := int64(a.Min) / int64(b.Max)
	q3 := int64(a.Max) / int64(b.Min)
	q4 := int64(a.Max) / int64(b.Max)
	lo := q1
	hi := q1
	for _, q := range []int64{q2, q3, q4} {
		if q < lo {
			lo = q
		}
		if q > hi {
			hi = q
		}
	}
	return Interval{Min: sat(lo), Max: sat(hi)}
}

// intervalMin and intervalMax bound the pointwise min/max of two ranges.
func intervalMin(a, b Interval) Interval {
	return Interval{Min: minInt(a.Min, b.Min), Max: minInt(a.Max, b.Max)}
}

func intervalMax(a, b Interval) Interval {
	return Interval{Min: maxInt(a.Min, b.Min), Max: maxInt(a.Max, b.Max)}
}

// combineBounds applies the interval rule for an arithmetic operator.
func combineBounds(op ArithOp, a, b Interval) Interval {
	switch op {
	case OpAdd:
		return intervalSum(a, b)
	case OpSub:
		return intervalDiff(a, b)
	case OpMul:
		return intervalMul(a, b)
	case OpDiv:
		return intervalDiv(a, b)
	case OpMin:
		return intervalMin(a, b)
	case OpMax:
		return intervalMax(a, b)
	default:
		return wideInterval
	}
}

// typeBounds returns the sound code range of a type: 0/1 for bool, the
// declared range for bounded ints, the id range of the member set for
// object types, and the full payload range otherwise.
func typeBounds(lang *Language, t TypeID) Interval {
	info := lang.Type(t)
	if info == nil {
		return wideInterval
	}
	switch info.Kind {
	case KindBool:
		return Interval{Min: 0, Max: 1}
	case KindInt:
		return Interval{Min: int(info.Min), Max: int(info.Max)}
	case KindObject:
		if len(info.members) == 0 {
			return Interval{Min: 0, Max: -1}
		}
		iv := Interval{Min: math.MaxInt32, Max: math.MinInt32}
		for _, o := range info.members {
			c := o.Code()
			if c < iv.Min {
				iv.Min = c
			}
			if c > iv.Max {
				iv.Max = c
			}
		}
		return iv
	default:
		return wideInterval
	}
}

func sat(v int64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
