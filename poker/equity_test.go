package poker

import (
	"math"
	"testing"

	"github.com/lox/holdem-equity/internal/randutil"
)

func mustHole(t *testing.T, s string) CardSet {
	t.Helper()
	hole, err := ParseHoleCards(s)
	if err != nil {
		t.Fatal(err)
	}
	return hole
}

func assertSumsToOne(t *testing.T, result *Result) {
	t.Helper()
	sum := result.Split
	for _, w := range result.Win {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("equities sum to %f, want 1.0", sum)
	}
}

func TestEnumerateRiverChop(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("Ac Js 7h 6h 3d")
	holes := []CardSet{mustHole(t, "AhKh"), mustHole(t, "AsKs")}

	result, err := Enumerate(board, holes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Exact || result.Trials != 1 {
		t.Fatalf("expected single exact completion, got %+v", result)
	}
	if result.Split != 1.0 {
		t.Errorf("expected certain chop, got split %f", result.Split)
	}
	assertSumsToOne(t, result)
}

func TestEnumerateDominatedTurn(t *testing.T) {
	t.Parallel()
	// Board quads reduce the hand to a kicker battle. The ace kicker
	// only ties when an ace rivers to counterfeit it: 2 of 44 rivers.
	board := MustParseCardSet("9c9d9h9s")
	holes := []CardSet{mustHole(t, "AcAd"), mustHole(t, "KcKd")}

	result, err := Enumerate(board, holes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Trials != 44 {
		t.Errorf("expected 44 rivers, got %d", result.Trials)
	}
	if result.Win[0] != 42.0/44 || result.Win[1] != 0.0 {
		t.Errorf("expected 42/44 for player 1, got %v", result.Win)
	}
	if result.Split != 2.0/44 {
		t.Errorf("expected 2/44 splits, got %f", result.Split)
	}
	assertSumsToOne(t, result)
}

func TestEnumerateDeterministic(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("2c 7d Jh")
	holes := []CardSet{mustHole(t, "AhAs"), mustHole(t, "8c8d")}

	a, err := Enumerate(board, holes, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Enumerate(board, holes, 0)
	if err != nil {
		t.Fatal(err)
	}

	if a.Trials != b.Trials || a.Split != b.Split {
		t.Fatalf("exact results differ: %+v vs %+v", a, b)
	}
	for i := range a.Win {
		if a.Win[i] != b.Win[i] {
			t.Fatalf("exact results differ at player %d", i)
		}
	}
	if want := Binomial(45, 2); a.Trials != want {
		t.Errorf("expected %d completions, got %d", want, a.Trials)
	}
	assertSumsToOne(t, a)
}

func TestEnumerateDeadCards(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("2c 7d Jh")
	holes := []CardSet{mustHole(t, "AhAs"), mustHole(t, "8c8d")}
	dead := MustParseCardSet("8h 8s")

	result, err := Enumerate(board, holes, dead)
	if err != nil {
		t.Fatal(err)
	}
	if want := Binomial(43, 2); result.Trials != want {
		t.Errorf("expected %d completions with dead cards, got %d", want, result.Trials)
	}

	// Removing the remaining eights kills player 2's set outs.
	withoutDead, err := Enumerate(board, holes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Win[1] >= withoutDead.Win[1] {
		t.Errorf("dead eights should reduce player 2 equity: %f vs %f",
			result.Win[1], withoutDead.Win[1])
	}
}

func TestSamplePreflopFavourite(t *testing.T) {
	t.Parallel()
	holes := []CardSet{mustHole(t, "AhAs"), mustHole(t, "KhKs")}
	rng := randutil.New(12345)

	result, err := Sample(0, holes, 0, 50000, rng)
	if err != nil {
		t.Fatal(err)
	}
	if result.Exact {
		t.Fatal("preflop should be sampled, not exact")
	}
	// AA vs KK is roughly 81/18 with a sliver of chops.
	if result.Win[0] < 0.76 || result.Win[0] > 0.86 {
		t.Errorf("AA equity %f outside expected band", result.Win[0])
	}
	assertSumsToOne(t, result)
}

func TestSampleFallsBackToExact(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("9c 8d 2h 5s")
	holes := []CardSet{mustHole(t, "AhAs"), mustHole(t, "KhKs")}
	rng := randutil.New(1)

	// 44 possible rivers is far below the trial budget.
	result, err := Sample(board, holes, 0, 1000, rng)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Exact {
		t.Error("expected exact fallback")
	}
	if result.Trials != 44 {
		t.Errorf("expected 44 rivers, got %d", result.Trials)
	}
}

func TestSampleSeedReproducible(t *testing.T) {
	t.Parallel()
	holes := []CardSet{mustHole(t, "AhKh"), mustHole(t, "QcQd")}

	a, err := Sample(0, holes, 0, 5000, randutil.New(99))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sample(0, holes, 0, 5000, randutil.New(99))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Win {
		if a.Win[i] != b.Win[i] {
			t.Fatalf("same seed produced different results: %v vs %v", a.Win, b.Win)
		}
	}
}

func TestSampleConvergesToExact(t *testing.T) {
	t.Parallel()
	// Preflop has C(48,5) completions, so the trial budget genuinely
	// samples rather than falling back to enumeration.
	holes := []CardSet{mustHole(t, "AhKh"), mustHole(t, "8c8d")}

	exact, err := Enumerate(0, holes, 0)
	if err != nil {
		t.Fatal(err)
	}
	sampled, err := Sample(0, holes, 0, 200000, randutil.New(7))
	if err != nil {
		t.Fatal(err)
	}
	if sampled.Exact {
		t.Fatal("expected sampled result")
	}

	// Loose statistical tolerance with a fixed seed.
	for i := range exact.Win {
		if math.Abs(exact.Win[i]-sampled.Win[i]) > 0.01 {
			t.Errorf("player %d: sampled %f vs exact %f", i, sampled.Win[i], exact.Win[i])
		}
	}
	if math.Abs(exact.Split-sampled.Split) > 0.01 {
		t.Errorf("split: sampled %f vs exact %f", sampled.Split, exact.Split)
	}
}

func TestSampleParallelMatchesSeed(t *testing.T) {
	t.Parallel()
	holes := []CardSet{mustHole(t, "AhAs"), mustHole(t, "7c6c")}

	a, err := SampleParallel(0, holes, 0, 20000, 4, randutil.New(5))
	if err != nil {
		t.Fatal(err)
	}
	b, err := SampleParallel(0, holes, 0, 20000, 4, randutil.New(5))
	if err != nil {
		t.Fatal(err)
	}

	if a.Trials != b.Trials {
		t.Fatalf("trial counts differ: %d vs %d", a.Trials, b.Trials)
	}
	for i := range a.Win {
		if a.Win[i] != b.Win[i] {
			t.Fatalf("fixed seed and worker count should reproduce: %v vs %v", a.Win, b.Win)
		}
	}
	assertSumsToOne(t, a)
}

func TestEquityPreconditions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		board string
		holes []string
		dead  string
	}{
		{"overlapping holes", "", []string{"AhAs", "AsKs"}, ""},
		{"hole overlaps board", "Ah 7c 2d", []string{"AhKh", "QcQd"}, ""},
		{"hole overlaps dead", "", []string{"AhKh", "QcQd"}, "Kh"},
		{"two card board", "Ah Kh", []string{"QcQd", "JcJd"}, ""},
		{"dead overlaps board", "Ah Kh Qh", []string{"QcQd", "JcJd"}, "Ah"},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var board, dead CardSet
			if tc.board != "" {
				board = MustParseCardSet(tc.board)
			}
			if tc.dead != "" {
				dead = MustParseCardSet(tc.dead)
			}
			holes := make([]CardSet, len(tc.holes))
			for i, h := range tc.holes {
				holes[i] = MustParseCardSet(h)
			}

			if _, err := Enumerate(board, holes, dead); err == nil {
				t.Error("Enumerate should reject the deal")
			}
			if _, err := Sample(board, holes, dead, 100, randutil.New(1)); err == nil {
				t.Error("Sample should reject the deal")
			}
		})
	}
}

func TestRangeEquity(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("Ac Js 7h 6h 3d")

	aa, err := ParseRange("AA")
	if err != nil {
		t.Fatal(err)
	}
	kk, err := ParseRange("KK")
	if err != nil {
		t.Fatal(err)
	}

	// On this river the remaining aces always beat the kings.
	result, err := RangeEquity(board, []*Range{aa, kk}, 0, 100, randutil.New(3))
	if err != nil {
		t.Fatal(err)
	}
	if result.Win[0] != 1.0 {
		t.Errorf("AA should win every combo on this river, got %f", result.Win[0])
	}

	sum := result.Win[0] + result.Win[1] + result.Split
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("range equities sum to %f", sum)
	}
}

func TestRangeEquityConflicts(t *testing.T) {
	t.Parallel()
	// Both ranges are the same single combo; every pairing conflicts.
	a, err := ParseRange("AhAs")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseRange("AhAs")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RangeEquity(0, []*Range{a, b}, 0, 10, randutil.New(1)); err == nil {
		t.Error("expected conflict error")
	}
}

func TestShowdownOrdering(t *testing.T) {
	t.Parallel()
	board := MustParseCardSet("2c 7d Jh 9s 3c")
	holes := []CardSet{
		mustHole(t, "4c4d"),
		mustHole(t, "AcAd"),
		mustHole(t, "KcKd"),
	}

	results, err := Showdown(board, holes)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Player != 1 || results[1].Player != 2 || results[2].Player != 0 {
		t.Errorf("unexpected showdown order: %+v", results)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Strength > results[i-1].Strength {
			t.Error("results must be sorted descending")
		}
	}
}
