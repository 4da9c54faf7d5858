package poker

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// ErrRangeTooNarrow is returned by StreamRangeEquity when almost every
// iteration fails to find non-conflicting holdings across the ranges.
var ErrRangeTooNarrow = errors.New("ranges too narrow to sample")

// StreamUpdate is a snapshot of the running averages of a live
// range-vs-range calculation. Each update is a complete, consistent
// tuple; consumers never see a torn pair of win and split values.
type StreamUpdate struct {
	// Win holds each player's running win probability.
	Win []float64

	// Split is the running probability of a chopped pot.
	Split float64

	// Iterations counts completed (non-skipped) iterations so far.
	Iterations uint64

	// Skipped counts iterations abandoned because a player's range had
	// no holding left after earlier draws.
	Skipped uint64

	// Final marks the last update before the stream returns.
	Final bool
}

// StreamConfig tunes a live range-vs-range calculation. The zero value
// selects sensible defaults.
type StreamConfig struct {
	// InnerTrials is the number of sampled board completions per
	// iteration. Defaults to 100.
	InnerTrials int

	// UpdateEvery is the number of iterations between updates.
	// Defaults to 500.
	UpdateEvery int

	// MinInterval is the minimum elapsed time between updates, so a
	// fast consumer is not flooded. Defaults to 100ms.
	MinInterval time.Duration

	// Warmup is the number of draw attempts before the skip-rate check
	// engages. Defaults to 1000.
	Warmup uint64

	// MaxIterations stops the stream after that many completed
	// iterations. Zero runs until the context is cancelled.
	MaxIterations uint64

	// Clock is the time source for the update cadence. Defaults to the
	// real clock; tests inject a mock.
	Clock quartz.Clock

	// Logger, when set, receives debug logging.
	Logger *log.Logger
}

// StreamRangeEquity runs a live range-vs-range equity calculation,
// invoking emit with running averages as it converges. One holding per
// player is drawn each iteration; the player drawn first rotates every
// iteration so that narrow overlapping ranges do not systematically
// disadvantage later players. Cancellation is honored between
// iterations and surfaces as ctx.Err() after a final update.
func StreamRangeEquity(ctx context.Context, board CardSet, ranges []*Range, dead CardSet, rng *rand.Rand, cfg StreamConfig, emit func(StreamUpdate)) error {
	if len(ranges) < 2 {
		return fmt.Errorf("range equity needs at least 2 ranges, got %d", len(ranges))
	}
	switch board.Count() {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("board must have 0, 3, 4 or 5 cards, got %d", board.Count())
	}
	if board.Overlaps(dead) {
		return fmt.Errorf("dead cards overlap the board")
	}

	hands := make([][]CardSet, len(ranges))
	for i, r := range ranges {
		if r == nil || r.Len() == 0 {
			return fmt.Errorf("range %d is empty", i)
		}
		hands[i] = r.Hands()
	}

	if cfg.InnerTrials <= 0 {
		cfg.InnerTrials = 100
	}
	if cfg.UpdateEvery <= 0 {
		cfg.UpdateEvery = 500
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 100 * time.Millisecond
	}
	if cfg.Warmup == 0 {
		cfg.Warmup = 1000
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	players := len(ranges)
	t := newTally(players)
	holes := make([]CardSet, players)
	var iterations, skipped uint64
	lastEmit := clock.Now()

	snapshot := func(final bool) StreamUpdate {
		u := StreamUpdate{
			Win:        make([]float64, players),
			Iterations: iterations,
			Skipped:    skipped,
			Final:      final,
		}
		if t.trials > 0 {
			for i, w := range t.wins {
				u.Win[i] = float64(w) / float64(t.trials)
			}
			u.Split = float64(t.splits) / float64(t.trials)
		}
		return u
	}

	for {
		if err := ctx.Err(); err != nil {
			emit(snapshot(true))
			return err
		}

		// Rotate which player draws from a full range this iteration.
		first := int(iterations+skipped) % players
		taken := board | dead
		ok := true
		for j := 0; j < players; j++ {
			p := (first + j) % players
			hole, found := drawHolding(hands[p], taken, rng)
			if !found {
				ok = false
				break
			}
			holes[p] = hole
			taken |= hole
		}

		if !ok {
			skipped++
			if attempts := iterations + skipped; attempts >= cfg.Warmup &&
				skipped*100 > attempts*95 {
				if cfg.Logger != nil {
					cfg.Logger.Debug("abandoning stream",
						"skipped", skipped, "attempts", attempts)
				}
				emit(snapshot(true))
				return ErrRangeTooNarrow
			}
			continue
		}

		sampleInto(t, board, holes, taken, cfg.InnerTrials, rng)
		iterations++

		if cfg.MaxIterations > 0 && iterations >= cfg.MaxIterations {
			emit(snapshot(true))
			return nil
		}

		if iterations%uint64(cfg.UpdateEvery) == 0 && clock.Since(lastEmit) >= cfg.MinInterval {
			lastEmit = clock.Now()
			emit(snapshot(false))
		}
	}
}

// drawHolding picks a uniform holding that avoids taken, by reservoir
// sampling over the valid entries in one pass.
func drawHolding(hands []CardSet, taken CardSet, rng *rand.Rand) (CardSet, bool) {
	var chosen CardSet
	count := 0
	for _, hole := range hands {
		if hole.Overlaps(taken) {
			continue
		}
		count++
		if rng.IntN(count) == 0 {
			chosen = hole
		}
	}
	return chosen, count > 0
}
