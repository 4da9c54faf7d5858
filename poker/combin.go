package poker

import "math/bits"

// Binomial returns C(n, k), the number of k-element subsets of an
// n-element set. Returns 0 when k is out of range. The results fit a
// uint64 comfortably for n <= 52.
func Binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	var c uint64 = 1
	for i := 0; i < k; i++ {
		c = c * uint64(n-i) / uint64(i+1)
	}
	return c
}

// nextSubset is Gosper's hack: the smallest integer greater than v with
// the same popcount. Undefined for v = 0.
func nextSubset(v uint64) uint64 {
	t := (v | (v - 1)) + 1
	return t | ((((t & -t) / (v & -v)) >> 1) - 1)
}

// expander scatters dense low bits into the positions of a fixed mask.
// The move masks of the parallel-suffix expand are derived from the
// mask once, so every Expand call is a fixed sequence of shifts.
type expander struct {
	mask  uint64
	moves [6]uint64
}

func newExpander(mask uint64) expander {
	e := expander{mask: mask}
	m := mask
	mk := ^mask << 1
	for i := 0; i < 6; i++ {
		mp := mk ^ (mk << 1)
		mp ^= mp << 2
		mp ^= mp << 4
		mp ^= mp << 8
		mp ^= mp << 16
		mp ^= mp << 32
		mv := mp & m
		e.moves[i] = mv
		m = (m ^ mv) | (mv >> (1 << i))
		mk &^= mp
	}
	return e
}

// Expand scatters the low popcount(mask) bits of v into the positions
// of set bits in the mask, preserving order.
func (e *expander) Expand(v uint64) uint64 {
	for i := 5; i >= 0; i-- {
		mv := e.moves[i]
		t := v << (1 << i)
		v = (v &^ mv) | (t & mv)
	}
	return v & e.mask
}

// ExpandRight scatters the low popcount(mask) bits of v into the set
// bit positions of mask, preserving order. One-shot form of expander.
func ExpandRight(v, mask uint64) uint64 {
	e := newExpander(mask)
	return e.Expand(v)
}

// CompressRight gathers the bits of x selected by mask into the low
// bits of the result, preserving order. Inverse of ExpandRight over the
// same mask.
func CompressRight(x, mask uint64) uint64 {
	x &= mask
	mk := ^mask << 1
	for i := 0; i < 6; i++ {
		mp := mk ^ (mk << 1)
		mp ^= mp << 2
		mp ^= mp << 4
		mp ^= mp << 8
		mp ^= mp << 16
		mp ^= mp << 32
		mv := mp & mask
		mask = (mask ^ mv) | (mv >> (1 << i))
		t := x & mv
		x = (x ^ t) | (t >> (1 << i))
		mk &^= mp
	}
	return x
}

// Subsets lazily enumerates every card set with exactly k cards that
// contains all of include, none of exclude, and nothing outside the
// deck. Dense k-popcount values iterate by Gosper's hack and scatter
// into the allowed universe, so no candidate is generated and filtered.
//
// The sequence is finite and not restartable; construct a new Subsets
// to enumerate again.
type Subsets struct {
	include CardSet
	exp     expander
	free    int
	width   int
	v       uint64
	done    bool
}

// NewSubsets returns an enumerator of the k-card supersets of include
// that avoid exclude. Bits set in both include and exclude are treated
// as excluded.
func NewSubsets(k int, include, exclude CardSet) *Subsets {
	include &^= exclude
	universe := FullDeck &^ exclude &^ include

	s := &Subsets{
		include: include,
		exp:     newExpander(uint64(universe)),
		free:    k - include.Count(),
		width:   universe.Count(),
	}

	if s.free < 0 || s.free > s.width {
		s.done = true
		return s
	}
	s.v = (1 << s.free) - 1
	return s
}

// Count returns the number of values the enumerator will yield in total.
func (s *Subsets) Count() uint64 {
	if s.free < 0 || s.free > s.width {
		return 0
	}
	return Binomial(s.width, s.free)
}

// Next returns the next subset, or false when the sequence is finished.
func (s *Subsets) Next() (CardSet, bool) {
	if s.done {
		return 0, false
	}

	result := CardSet(s.exp.Expand(s.v)) | s.include

	if s.v == 0 {
		s.done = true
		return result, true
	}
	next := nextSubset(s.v)
	if bits.Len64(next) > s.width {
		s.done = true
	} else {
		s.v = next
	}
	return result, true
}
