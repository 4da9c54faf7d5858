package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-equity/internal/randutil"
	"github.com/lox/holdem-equity/poker"
)

type CLI struct {
	Hands         []string `arg:"" help:"Player hole cards, e.g. 'AcKd' 'QhJs'" required:""`
	Board         string   `short:"b" help:"Community board cards (e.g. 'Td7s8h')"`
	Dead          string   `short:"d" help:"Dead cards excluded from the deck"`
	Exact         bool     `short:"e" help:"Enumerate every board completion instead of sampling"`
	Iterations    int      `short:"i" help:"Number of Monte Carlo iterations" default:"100000"`
	Possibilities bool     `short:"p" help:"Show per-category probabilities"`
	Seed          *int64   `help:"Random seed for reproducible results"`
	Verbose       bool     `short:"v" help:"Verbose logging"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	splitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	// Dumb terminals get unstyled output.
	if termenv.ColorProfile() == termenv.Ascii {
		plain := lipgloss.NewStyle()
		headerStyle, handStyle, winStyle, splitStyle = plain, plain, plain, plain
		categoryStyle, percentStyle = plain, plain
	}

	var seed int64
	if cli.Seed != nil {
		seed = *cli.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	holes := make([]poker.CardSet, len(cli.Hands))
	for i, handStr := range cli.Hands {
		hole, err := poker.ParseHoleCards(strings.ReplaceAll(handStr, " ", ""))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing hand %d: %v\n", i+1, err)
			ctx.Exit(1)
		}
		holes[i] = hole
	}

	var board, dead poker.CardSet
	if cli.Board != "" {
		cards, err := poker.ParseCards(cli.Board)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing board: %v\n", err)
			ctx.Exit(1)
		}
		board = poker.NewCardSet(cards)
	}
	if cli.Dead != "" {
		cards, err := poker.ParseCards(cli.Dead)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing dead cards: %v\n", err)
			ctx.Exit(1)
		}
		dead = poker.NewCardSet(cards)
	}

	logger.Debug("starting calculation",
		"players", len(holes), "board", board.Count(), "seed", seed)

	startTime := time.Now()
	var result *poker.Result
	var err error
	if cli.Exact {
		result, err = poker.Enumerate(board, holes, dead)
	} else {
		result, err = poker.SampleParallel(board, holes, dead, cli.Iterations, 0, rng)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}
	duration := time.Since(startTime)

	displayResults(result, holes, board, cli.Possibilities, duration)
}

func displayResults(result *poker.Result, holes []poker.CardSet, board poker.CardSet, showPossibilities bool, duration time.Duration) {
	if board != 0 {
		fmt.Printf("%s\n", headerStyle.Render("board"))
		fmt.Printf("%s\n\n", board)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("split"))

	for i, hole := range holes {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			handStyle.Render(hole.String()),
			winStyle.Render(fmt.Sprintf("%.1f%%", result.Win[i]*100)),
			splitStyle.Render(fmt.Sprintf("%.1f%%", result.Split*100)))
	}

	w.Flush()

	if showPossibilities {
		fmt.Printf("\n")
		displayPossibilities(result, holes)
	}

	fmt.Printf("\n")
	mode := "sampled"
	if result.Exact {
		mode = "exact"
	}
	fmt.Printf("%d completions (%s) in %v\n", result.Trials, mode, duration.Truncate(time.Millisecond))
}

func displayPossibilities(result *poker.Result, holes []poker.CardSet) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s", categoryStyle.Render("hand"))
	for _, hole := range holes {
		fmt.Fprintf(w, "\t%s", handStyle.Render(hole.String()))
	}
	fmt.Fprintf(w, "\n")

	// Strongest category first.
	for c := int(poker.NumCategories) - 1; c >= 0; c-- {
		category := poker.Category(c)

		any := false
		for i := range holes {
			if result.Categories[i][c] > 0 {
				any = true
				break
			}
		}
		if !any {
			continue
		}

		fmt.Fprintf(w, "%s", categoryStyle.Render(category.String()))
		for i := range holes {
			count := result.Categories[i][c]
			if count > 0 {
				pct := float64(count) / float64(result.Trials) * 100
				fmt.Fprintf(w, "\t%s", percentStyle.Render(fmt.Sprintf("%.1f%%", pct)))
			} else {
				fmt.Fprintf(w, "\t%s", percentStyle.Render("."))
			}
		}
		fmt.Fprintf(w, "\n")
	}

	w.Flush()
}
