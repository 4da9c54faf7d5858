package poker

import (
	"fmt"
	rand "math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-equity/internal/randutil"
)

// PlayerStrength records one player's showdown evaluation.
type PlayerStrength struct {
	Player   int
	Hole     CardSet
	Strength Strength
}

// Result holds win and split probabilities for an equity calculation.
// The win probabilities plus the split probability sum to 1 within
// floating point tolerance.
type Result struct {
	// Win holds each player's probability of winning outright.
	Win []float64

	// Split is the probability that the top two or more players tie.
	Split float64

	// Trials is the number of board completions evaluated.
	Trials uint64

	// Exact reports whether every completion was enumerated rather
	// than sampled.
	Exact bool

	// Categories counts, per player, how often each hand category was
	// made across the evaluated completions.
	Categories [][NumCategories]uint64
}

// Showdown evaluates every player on a complete board and returns the
// records sorted by descending strength. A split is the top two records
// sharing a strength.
func Showdown(board CardSet, holes []CardSet) ([]PlayerStrength, error) {
	if err := validateDeal(board, holes, 0); err != nil {
		return nil, err
	}
	if board.Count() != 5 {
		return nil, fmt.Errorf("showdown requires a complete board, got %d cards", board.Count())
	}

	results := make([]PlayerStrength, len(holes))
	for i, hole := range holes {
		results[i] = PlayerStrength{
			Player:   i,
			Hole:     hole,
			Strength: Evaluate(board | hole),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Strength > results[j].Strength
	})
	return results, nil
}

// Enumerate computes exact equities by evaluating every completion of
// the board. Cards in dead are never dealt. The result is deterministic.
func Enumerate(board CardSet, holes []CardSet, dead CardSet) (*Result, error) {
	if err := validateDeal(board, holes, dead); err != nil {
		return nil, err
	}

	t := newTally(len(holes))
	if err := enumerateInto(t, board, holes, dead); err != nil {
		return nil, err
	}
	return t.result(true), nil
}

// Sample estimates equities by Monte-Carlo over trials random board
// completions drawn from rng. When the exact completion count does not
// exceed trials, Sample falls back to full enumeration.
func Sample(board CardSet, holes []CardSet, dead CardSet, trials int, rng *rand.Rand) (*Result, error) {
	if err := validateDeal(board, holes, dead); err != nil {
		return nil, err
	}
	if trials <= 0 {
		return nil, fmt.Errorf("trial count must be positive, got %d", trials)
	}

	used := usedCards(board, holes, dead)
	need := 5 - board.Count()
	if exact := Binomial(52-used.Count(), need); exact <= uint64(trials) {
		t := newTally(len(holes))
		if err := enumerateInto(t, board, holes, dead); err != nil {
			return nil, err
		}
		return t.result(true), nil
	}

	t := newTally(len(holes))
	sampleInto(t, board, holes, used, trials, rng)
	return t.result(false), nil
}

// SampleParallel estimates equities like Sample but shards the trials
// across workers. Each worker owns its tally and an independent RNG
// seeded from rng; a final reduction sums the tallies, so a fixed seed
// still yields a deterministic result for a fixed worker count.
func SampleParallel(board CardSet, holes []CardSet, dead CardSet, trials, workers int, rng *rand.Rand) (*Result, error) {
	if err := validateDeal(board, holes, dead); err != nil {
		return nil, err
	}
	if trials <= 0 {
		return nil, fmt.Errorf("trial count must be positive, got %d", trials)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > 8 {
		workers = 8 // diminishing returns beyond this
	}

	used := usedCards(board, holes, dead)
	need := 5 - board.Count()
	if exact := Binomial(52-used.Count(), need); exact <= uint64(trials) {
		t := newTally(len(holes))
		if err := enumerateInto(t, board, holes, dead); err != nil {
			return nil, err
		}
		return t.result(true), nil
	}

	tallies := make([]*tally, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		share := trials / workers
		if w < trials%workers {
			share++
		}
		workerRng := randutil.Fork(rng)
		t := newTally(len(holes))
		tallies[w] = t

		g.Go(func() error {
			sampleInto(t, board, holes, used, share, workerRng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newTally(len(holes))
	for _, t := range tallies {
		total.merge(t)
	}
	return total.result(false), nil
}

// RangeEquity computes range-vs-range equity: the Cartesian product of
// non-conflicting holdings across the ranges, a sampled equity per
// combination, averaged. innerTrials defaults to 100 when zero.
func RangeEquity(board CardSet, ranges []*Range, dead CardSet, innerTrials int, rng *rand.Rand) (*Result, error) {
	if len(ranges) < 2 {
		return nil, fmt.Errorf("range equity needs at least 2 ranges, got %d", len(ranges))
	}
	switch board.Count() {
	case 0, 3, 4, 5:
	default:
		return nil, fmt.Errorf("board must have 0, 3, 4 or 5 cards, got %d", board.Count())
	}
	if board.Overlaps(dead) {
		return nil, fmt.Errorf("dead cards overlap the board")
	}
	if innerTrials <= 0 {
		innerTrials = 100
	}

	hands := make([][]CardSet, len(ranges))
	for i, r := range ranges {
		if r == nil || r.Len() == 0 {
			return nil, fmt.Errorf("range %d is empty", i)
		}
		hands[i] = r.Hands()
	}

	// Each combination contributes its probabilities with equal weight
	// regardless of whether it was enumerated or sampled.
	winSum := make([]float64, len(ranges))
	var splitSum float64
	combos := 0
	total := newTally(len(ranges))
	holes := make([]CardSet, len(ranges))

	var walk func(player int, taken CardSet) error
	walk = func(player int, taken CardSet) error {
		if player == len(ranges) {
			combos++
			used := board | dead | taken
			need := 5 - board.Count()

			t := newTally(len(ranges))
			if exact := Binomial(52-used.Count(), need); exact <= uint64(innerTrials) {
				if err := enumerateInto(t, board, holes, dead); err != nil {
					return err
				}
			} else {
				sampleInto(t, board, holes, used, innerTrials, rng)
			}

			r := t.result(false)
			for i, w := range r.Win {
				winSum[i] += w
			}
			splitSum += r.Split
			total.merge(t)
			return nil
		}
		for _, hole := range hands[player] {
			if hole.Overlaps(taken) || hole.Overlaps(board) || hole.Overlaps(dead) {
				continue
			}
			holes[player] = hole
			if err := walk(player+1, taken|hole); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0); err != nil {
		return nil, err
	}

	if combos == 0 {
		return nil, fmt.Errorf("ranges have no non-conflicting combination")
	}

	res := total.result(false)
	for i := range res.Win {
		res.Win[i] = winSum[i] / float64(combos)
	}
	res.Split = splitSum / float64(combos)
	return res, nil
}

// tally accumulates win, split and category counts. Workers each own
// one; merge sums them for the final division.
type tally struct {
	wins   []uint64
	splits uint64
	trials uint64
	cats   [][NumCategories]uint64

	strengths []Strength // scratch, reused per completion
}

func newTally(players int) *tally {
	return &tally{
		wins:      make([]uint64, players),
		cats:      make([][NumCategories]uint64, players),
		strengths: make([]Strength, players),
	}
}

// observe evaluates one complete board for all players and tallies the
// outcome.
func (t *tally) observe(full CardSet, holes []CardSet) {
	best := Strength(0)
	winner := 0
	winners := 0
	for i, hole := range holes {
		s := Evaluate(full | hole)
		t.strengths[i] = s
		switch {
		case winners == 0 || s > best:
			best, winner, winners = s, i, 1
		case s == best:
			winners++
		}
	}

	if winners == 1 {
		t.wins[winner]++
	} else {
		t.splits++
	}
	t.trials++

	for i, s := range t.strengths {
		t.cats[i][s.Category()]++
	}
}

func (t *tally) merge(other *tally) {
	for i, w := range other.wins {
		t.wins[i] += w
	}
	t.splits += other.splits
	t.trials += other.trials
	for i := range other.cats {
		for c, n := range other.cats[i] {
			t.cats[i][c] += n
		}
	}
}

func (t *tally) result(exact bool) *Result {
	res := &Result{
		Win:        make([]float64, len(t.wins)),
		Trials:     t.trials,
		Exact:      exact,
		Categories: t.cats,
	}
	if t.trials == 0 {
		return res
	}
	for i, w := range t.wins {
		res.Win[i] = float64(w) / float64(t.trials)
	}
	res.Split = float64(t.splits) / float64(t.trials)
	return res
}

// enumerateInto walks every completion of the board and tallies each.
func enumerateInto(t *tally, board CardSet, holes []CardSet, dead CardSet) error {
	used := usedCards(board, holes, dead)
	need := 5 - board.Count()

	it := NewSubsets(need, 0, used)
	if it.Count() == 0 {
		return fmt.Errorf("no board completions possible")
	}
	for completion, ok := it.Next(); ok; completion, ok = it.Next() {
		t.observe(board|completion, holes)
	}
	return nil
}

// sampleInto tallies trials random completions. A random dense value
// with the right popcount scatters through the allowed universe, so no
// rejection of overlapping cards is ever needed.
func sampleInto(t *tally, board CardSet, holes []CardSet, used CardSet, trials int, rng *rand.Rand) {
	universe := FullDeck &^ used
	s := newCompletionSampler(universe, 5-board.Count())
	for i := 0; i < trials; i++ {
		t.observe(board|s.draw(rng), holes)
	}
}

// completionSampler draws uniform k-card subsets of a fixed universe.
type completionSampler struct {
	exp   expander
	idx   []uint8
	width int
	need  int
}

func newCompletionSampler(universe CardSet, need int) *completionSampler {
	width := universe.Count()
	idx := make([]uint8, width)
	for i := range idx {
		idx[i] = uint8(i)
	}
	return &completionSampler{
		exp:   newExpander(uint64(universe)),
		idx:   idx,
		width: width,
		need:  need,
	}
}

func (s *completionSampler) draw(rng *rand.Rand) CardSet {
	// Partial Fisher-Yates: the first need entries are a uniform
	// k-subset of the dense positions.
	var dense uint64
	for i := 0; i < s.need; i++ {
		j := i + rng.IntN(s.width-i)
		s.idx[i], s.idx[j] = s.idx[j], s.idx[i]
		dense |= 1 << s.idx[i]
	}
	return CardSet(s.exp.Expand(dense))
}

// validateDeal checks the equity engine preconditions: a legal board
// size, two card holdings, and pairwise disjoint cards.
func validateDeal(board CardSet, holes []CardSet, dead CardSet) error {
	switch board.Count() {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("board must have 0, 3, 4 or 5 cards, got %d", board.Count())
	}
	if len(holes) < 1 {
		return fmt.Errorf("at least one player required")
	}

	seen := board | dead
	if board.Overlaps(dead) {
		return fmt.Errorf("dead cards overlap the board")
	}
	for i, hole := range holes {
		if hole.Count() != 2 {
			return fmt.Errorf("player %d must hold exactly 2 cards, got %d", i, hole.Count())
		}
		if hole.Overlaps(seen) {
			return fmt.Errorf("player %d holding %s overlaps cards already in play", i, hole)
		}
		seen |= hole
	}
	return nil
}

func usedCards(board CardSet, holes []CardSet, dead CardSet) CardSet {
	used := board | dead
	for _, hole := range holes {
		used |= hole
	}
	return used
}
