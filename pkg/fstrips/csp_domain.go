// Package fstrips implements a functional STRIPS planning engine.
// This file implements the bitset domain backing the applicability CSP.
// A domain is a set of positions into a variable's ordered value list;
// domains are immutable, so narrowing returns fresh instances and the
// copy-on-write solver state can share them freely.
package fstrips

import (
	"fmt"
	"math/bits"
	"strings"
)

// Bitset is a fixed-capacity set of positions [0, n). Bit i of the word
// array represents position i.
type Bitset struct {
	n     int
	words []uint64
}

// NewBitsetFull returns the set {0, ..., n-1}.
func NewBitsetFull(n int) *Bitset {
	b := &Bitset{n: n, words: make([]uint64, (n+63)/64)}
	for i := 0; i < n; i++ {
		b.words[i/64] |= 1 << uint(i%64)
	}
	return b
}

// NewBitsetOf returns the set holding exactly the given positions;
// positions outside [0, n) are ignored.
func NewBitsetOf(n int, positions []int) *Bitset {
	b := &Bitset{n: n, words: make([]uint64, (n+63)/64)}
	for _, p := range positions {
		if p >= 0 && p < n {
			b.words[p/64] |= 1 << uint(p%64)
		}
	}
	return b
}

// Cap returns the position capacity n.
func (b *Bitset) Cap() int { return b.n }

// Count returns the number of positions in the set.
func (b *Bitset) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Has reports membership of a position.
func (b *Bitset) Has(p int) bool {
	if p < 0 || p >= b.n {
		return false
	}
	return (b.words[p/64]>>uint(p%64))&1 == 1
}

// IsEmpty reports whether no position remains.
func (b *Bitset) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsSingleton reports whether exactly one position remains.
func (b *Bitset) IsSingleton() bool { return b.Count() == 1 }

// SingletonPos returns the single remaining position. It panics when
// the set is not a singleton.
func (b *Bitset) SingletonPos() int {
	for i, w := range b.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	panic("SingletonPos on empty bitset")
}

// Min returns the smallest position, or -1 when empty.
func (b *Bitset) Min() int {
	for i, w := range b.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Max returns the largest position, or -1 when empty.
func (b *Bitset) Max() int {
	for i := len(b.words) - 1; i >= 0; i-- {
		if w := b.words[i]; w != 0 {
			return i*64 + 63 - bits.LeadingZeros64(w)
		}
	}
	return -1
}

// Iterate calls f for every position in ascending order.
func (b *Bitset) Iterate(f func(p int)) {
	for i, w := range b.words {
		for w != 0 {
			low := w & -w
			f(i*64 + bits.TrailingZeros64(w))
			w &^= low
		}
	}
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	return &Bitset{n: b.n, words: append([]uint64(nil), b.words...)}
}

// Remove returns a copy without the given position.
func (b *Bitset) Remove(p int) *Bitset {
	if !b.Has(p) {
		return b
	}
	c := b.Clone()
	c.words[p/64] &^= 1 << uint(p%64)
	return c
}

// Intersect returns the intersection with another set of the same
// capacity.
func (b *Bitset) Intersect(other *Bitset) *Bitset {
	c := &Bitset{n: b.n, words: make([]uint64, len(b.words))}
	for i := range b.words {
		c.words[i] = b.words[i] & other.words[i]
	}
	return c
}

// KeepAtMost returns a copy retaining only positions <= p.
func (b *Bitset) KeepAtMost(p int) *Bitset {
	if p >= b.n-1 {
		return b
	}
	c := b.Clone()
	if p < 0 {
		for i := range c.words {
			c.words[i] = 0
		}
		return c
	}
	word := (p + 1) / 64
	off := uint((p + 1) % 64)
	if word < len(c.words) {
		if off == 0 {
			c.words[word] = 0
		} else {
			c.words[word] &= (uint64(1) << off) - 1
		}
		for i := word + 1; i < len(c.words); i++ {
			c.words[i] = 0
		}
	}
	return c
}

// KeepAtLeast returns a copy retaining only positions >= p.
func (b *Bitset) KeepAtLeast(p int) *Bitset {
	if p <= 0 {
		return b
	}
	c := b.Clone()
	if p >= b.n {
		for i := range c.words {
			c.words[i] = 0
		}
		return c
	}
	word := p / 64
	off := uint(p % 64)
	for i := 0; i < word; i++ {
		c.words[i] = 0
	}
	c.words[word] &= ^((uint64(1) << off) - 1)
	return c
}

// Equal reports whether both sets hold the same positions.
func (b *Bitset) Equal(other *Bitset) bool {
	if other == nil || b.n != other.n {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders the position set.
func (b *Bitset) String() string {
	var parts []string
	b.Iterate(func(p int) { parts = append(parts, fmt.Sprintf("%d", p)) })
	return "{" + strings.Join(parts, ",") + "}"
}
