package poker

import (
	rand "math/rand/v2"
)

// Deck is a standard 52 card deck with an explicit random source for
// deterministic shuffling.
type Deck struct {
	cards [NumCards]Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a new shuffled deck drawing from rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}
	d.Shuffle()
	return d
}

// Shuffle reshuffles the full deck using Fisher-Yates and rewinds it.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the deck, or nil when fewer remain.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealSet deals n cards as a CardSet.
func (d *Deck) DealSet(n int) CardSet {
	return NewCardSet(d.Deal(n))
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
