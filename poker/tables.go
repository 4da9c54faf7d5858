package poker

import "math/bits"

// Lookup tables indexed by a 13-bit ranks-present mask. Built once at
// package init; immutable afterwards, safe for concurrent readers.

const rankSetSize = 1 << NumRanks

// nBitsTable[v] is the popcount of the low 13 bits of v.
var nBitsTable = func() [rankSetSize]uint8 {
	var table [rankSetSize]uint8
	for v := range table {
		table[v] = uint8(bits.OnesCount16(uint16(v)))
	}
	return table
}()

// topCardTable[v] is the index of the most significant set bit of v,
// with topCardTable[0] = 0.
var topCardTable = func() [rankSetSize]Strength {
	var table [rankSetSize]Strength
	for v := 1; v < rankSetSize; v++ {
		table[v] = Strength(bits.Len16(uint16(v)) - 1)
	}
	return table
}()

// topFiveCardsTable[v] packs the five highest set ranks of v into the
// card slots of a Strength, top slot first, zero padded when fewer than
// five bits are set.
var topFiveCardsTable = func() [rankSetSize]Strength {
	var table [rankSetSize]Strength
	for v := 1; v < rankSetSize; v++ {
		var packed Strength
		shift := topShift
		remaining := uint16(v)
		for i := 0; i < 5 && remaining != 0; i++ {
			top := bits.Len16(remaining) - 1
			packed |= Strength(top) << shift
			shift -= cardWidth
			remaining &^= 1 << top
		}
		table[v] = packed
	}
	return table
}()

// straightTable[v] is the high card rank of the best straight in v, or
// 0 when v holds no straight. The wheel A-2-3-4-5 yields 3 (the five)
// so it ranks below a six-high straight.
var straightTable = func() [rankSetSize]Strength {
	var table [rankSetSize]Strength
	for v := 1; v < rankSetSize; v++ {
		table[v] = Strength(straightHigh(uint16(v)))
	}
	return table
}()

// straightHigh returns the high card rank of the best straight present
// in the 13-bit rank mask (0 if none). A bitwise cascade identifies
// five consecutive ranks in one pass; the wheel is the one straight the
// cascade cannot see because the ace sits at the top bit.
func straightHigh(mask uint16) uint8 {
	const wheelMask = 0x100f // A + 2-3-4-5

	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return uint8(bits.Len16(seq)-1) + 4
	}

	if mask&wheelMask == wheelMask {
		return 3
	}

	return 0
}
