package poker

import (
	"testing"

	"github.com/lox/holdem-equity/internal/randutil"
)

func TestDeckDealsWholeDeck(t *testing.T) {
	t.Parallel()
	deck := NewDeck(randutil.New(1))

	seen := CardSet(0)
	for deck.Remaining() > 0 {
		card := deck.Deal(1)[0]
		if seen.Contains(card) {
			t.Fatalf("dealt %s twice", card)
		}
		seen.Add(card)
	}
	if seen != FullDeck {
		t.Errorf("deck did not cover all 52 cards")
	}
	if deck.Deal(1) != nil {
		t.Error("exhausted deck should deal nil")
	}
}

func TestDeckShuffleDeterministic(t *testing.T) {
	t.Parallel()
	a := NewDeck(randutil.New(77)).Deal(10)
	b := NewDeck(randutil.New(77)).Deal(10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed dealt different cards at %d: %s vs %s", i, a[i], b[i])
		}
	}
}
