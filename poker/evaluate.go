package poker

// Evaluate maps a set of 1-7 cards to its Strength. The best five card
// poker hand within the set determines the result; kickers beyond the
// five card hand are ignored.
//
// Evaluate is pure and reads only the startup-built tables, so parallel
// callers need no synchronization. Inputs outside 1-7 cards within the
// low 52 bits are a programming error and yield an undefined result.
func Evaluate(cards CardSet) Strength {
	suits := cards.SuitRanks()
	sc, sd, sh, ss := suits[Clubs], suits[Diamonds], suits[Hearts], suits[Spades]
	ranks := sc | sd | sh | ss

	nCards := cards.Count()
	nRanks := int(nBitsTable[ranks])
	nDups := nCards - nRanks

	var retval Strength

	// Flush and straight checks only matter with five distinct ranks.
	// At most one suit can hold five of at most seven cards, so the
	// first qualifying suit is the only one.
	if nRanks >= 5 {
		switch {
		case nBitsTable[ss] >= 5:
			if straightTable[ss] != 0 {
				return categoryValue(StraightFlush) | straightTable[ss]<<topShift
			}
			retval = categoryValue(Flush) | topFiveCardsTable[ss]
		case nBitsTable[sh] >= 5:
			if straightTable[sh] != 0 {
				return categoryValue(StraightFlush) | straightTable[sh]<<topShift
			}
			retval = categoryValue(Flush) | topFiveCardsTable[sh]
		case nBitsTable[sd] >= 5:
			if straightTable[sd] != 0 {
				return categoryValue(StraightFlush) | straightTable[sd]<<topShift
			}
			retval = categoryValue(Flush) | topFiveCardsTable[sd]
		case nBitsTable[sc] >= 5:
			if straightTable[sc] != 0 {
				return categoryValue(StraightFlush) | straightTable[sc]<<topShift
			}
			retval = categoryValue(Flush) | topFiveCardsTable[sc]
		default:
			if st := straightTable[ranks]; st != 0 {
				retval = categoryValue(Straight) | st<<topShift
			}
		}

		// With fewer than three duplicated cards no full house or
		// quads can beat a made flush or straight.
		if retval != 0 && nDups < 3 {
			return retval
		}
	}

	switch nDups {
	case 0:
		return categoryValue(HighCard) | topFiveCardsTable[ranks]

	case 1:
		// The xor of the suit masks clears ranks held an even number
		// of times; with one duplicate the difference is the pair.
		twoMask := ranks ^ (sc ^ sd ^ sh ^ ss)

		kickers := (topFiveCardsTable[ranks^twoMask] >> cardWidth) &
			(secondCardMask | thirdCardMask | fourthCardMask)
		return categoryValue(Pair) | topCardTable[twoMask]<<topShift | kickers

	case 2:
		twoMask := ranks ^ (sc ^ sd ^ sh ^ ss)
		if twoMask != 0 {
			// Exactly two pairs.
			rest := ranks ^ twoMask
			return categoryValue(TwoPair) |
				topFiveCardsTable[twoMask]&(topCardMask|secondCardMask) |
				topCardTable[rest]<<thirdShift
		}

		// Trips: the ranks held in at least three suits.
		threeMask := ((sc & sd) | (sh & ss)) & ((sc & sh) | (sd & ss))
		retval = categoryValue(ThreeOfAKind) | topCardTable[threeMask]<<topShift

		rest := ranks ^ threeMask
		second := topCardTable[rest]
		retval |= second << secondShift
		rest ^= 1 << second
		return retval | topCardTable[rest]<<thirdShift

	default:
		fourMask := sc & sd & sh & ss
		if fourMask != 0 {
			quad := topCardTable[fourMask]
			kicker := topCardTable[ranks^(1<<quad)]
			return categoryValue(FourOfAKind) | quad<<topShift | kicker<<secondShift
		}

		twoMask := ranks ^ (sc ^ sd ^ sh ^ ss)
		if int(nBitsTable[twoMask]) != nDups {
			// More duplication than the pairs account for: a full
			// house. The best pair may itself come from a second set
			// of trips.
			threeMask := ((sc & sd) | (sh & ss)) & ((sc & sh) | (sd & ss))
			trips := topCardTable[threeMask]
			pair := topCardTable[(twoMask|threeMask)^(1<<trips)]
			return categoryValue(FullHouse) | trips<<topShift | pair<<secondShift
		}

		// A straight or flush carried from above beats two pair.
		if retval != 0 {
			return retval
		}

		// Three pairs: the top two play, best remaining card kicks.
		top := topCardTable[twoMask]
		second := topCardTable[twoMask^(1<<top)]
		kicker := topCardTable[ranks^(1<<top)^(1<<second)]
		return categoryValue(TwoPair) | top<<topShift | second<<secondShift | kicker<<thirdShift
	}
}

// EvaluateBatch evaluates each card set and writes the results into
// out. If out is nil or too small a new slice is allocated and returned.
func EvaluateBatch(hands []CardSet, out []Strength) []Strength {
	if len(out) < len(hands) {
		out = make([]Strength, len(hands))
	} else {
		out = out[:len(hands)]
	}

	for i, hand := range hands {
		out[i] = Evaluate(hand)
	}

	return out
}
