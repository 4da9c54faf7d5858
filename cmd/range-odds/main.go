package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-equity/internal/randutil"
	"github.com/lox/holdem-equity/poker"
)

type CLI struct {
	Ranges      []string `arg:"" help:"Player ranges, e.g. 'JJ+ AKs' '22+ A2s+'" required:""`
	Board       string   `short:"b" help:"Community board cards"`
	Dead        string   `short:"d" help:"Dead cards excluded from the deck"`
	Iterations  uint64   `short:"i" help:"Stop after this many iterations" default:"20000"`
	InnerTrials int      `help:"Sampled completions per iteration" default:"100"`
	Seed        *int64   `help:"Random seed for reproducible results"`
	Plain       bool     `help:"Line-based output instead of the live view"`
	Verbose     bool     `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli)

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	var seed int64
	if cli.Seed != nil {
		seed = *cli.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	board, dead, ranges, err := parseArgs(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(1)
	}

	cfg := poker.StreamConfig{
		InnerTrials:   cli.InnerTrials,
		MaxIterations: cli.Iterations,
		Logger:        logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fall back to plain output when there is no terminal to draw on.
	if cli.Plain || termenv.ColorProfile() == termenv.Ascii {
		err = runPlain(ctx, board, ranges, dead, seed, cfg, cli.Ranges)
	} else {
		err = runTUI(ctx, cancel, board, ranges, dead, seed, cfg, cli.Ranges)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(1)
	}
}

func parseArgs(cli *CLI) (board, dead poker.CardSet, ranges []*poker.Range, err error) {
	if cli.Board != "" {
		cards, err := poker.ParseCards(cli.Board)
		if err != nil {
			return 0, 0, nil, err
		}
		board = poker.NewCardSet(cards)
	}
	if cli.Dead != "" {
		cards, err := poker.ParseCards(cli.Dead)
		if err != nil {
			return 0, 0, nil, err
		}
		dead = poker.NewCardSet(cards)
	}

	ranges = make([]*poker.Range, len(cli.Ranges))
	for i, notation := range cli.Ranges {
		r, err := poker.ParseRange(notation)
		if err != nil {
			return 0, 0, nil, err
		}
		if r.Len() == 0 {
			return 0, 0, nil, fmt.Errorf("range %d (%q) is empty", i+1, notation)
		}
		ranges[i] = r
	}
	return board, dead, ranges, nil
}

func runPlain(ctx context.Context, board poker.CardSet, ranges []*poker.Range, dead poker.CardSet, seed int64, cfg poker.StreamConfig, labels []string) error {
	err := poker.StreamRangeEquity(ctx, board, ranges, dead, randutil.New(seed), cfg, func(u poker.StreamUpdate) {
		parts := make([]string, 0, len(u.Win)+1)
		for i, w := range u.Win {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", labels[i], w*100))
		}
		parts = append(parts, fmt.Sprintf("split %.1f%%", u.Split*100))
		fmt.Printf("iter %d: %s\n", u.Iterations, strings.Join(parts, "  "))
	})
	if errors.Is(err, poker.ErrRangeTooNarrow) {
		fmt.Println("ranges too narrow: almost every draw conflicted")
		return nil
	}
	return err
}

// Bubble Tea live view.

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	rowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	pctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type updateMsg poker.StreamUpdate

type doneMsg struct{ err error }

type model struct {
	labels  []string
	board   poker.CardSet
	spinner spinner.Model
	update  poker.StreamUpdate
	done    bool
	err     error
	cancel  context.CancelFunc
}

func newModel(labels []string, board poker.CardSet, cancel context.CancelFunc) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{labels: labels, board: board, spinner: sp, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, nil
		}
	case updateMsg:
		m.update = poker.StreamUpdate(msg)
		return m, nil
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	if m.board != 0 {
		b.WriteString(titleStyle.Render("board ") + m.board.String() + "\n\n")
	}

	for i, label := range m.labels {
		var win float64
		if i < len(m.update.Win) {
			win = m.update.Win[i]
		}
		fmt.Fprintf(&b, "%s\t%s\n",
			rowStyle.Render(label),
			pctStyle.Render(fmt.Sprintf("%5.1f%%", win*100)))
	}
	fmt.Fprintf(&b, "%s\t%s\n",
		rowStyle.Render("split"),
		pctStyle.Render(fmt.Sprintf("%5.1f%%", m.update.Split*100)))

	b.WriteString("\n")
	if m.done {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d iterations", m.update.Iterations)) + "\n")
	} else {
		b.WriteString(m.spinner.View() +
			dimStyle.Render(fmt.Sprintf(" %d iterations (q to stop)", m.update.Iterations)) + "\n")
	}

	return b.String()
}

func runTUI(ctx context.Context, cancel context.CancelFunc, board poker.CardSet, ranges []*poker.Range, dead poker.CardSet, seed int64, cfg poker.StreamConfig, labels []string) error {
	p := tea.NewProgram(newModel(labels, board, cancel))

	go func() {
		err := poker.StreamRangeEquity(ctx, board, ranges, dead, randutil.New(seed), cfg, func(u poker.StreamUpdate) {
			p.Send(updateMsg(u))
		})
		p.Send(doneMsg{err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	m := finalModel.(model)
	if errors.Is(m.err, poker.ErrRangeTooNarrow) {
		fmt.Println("ranges too narrow: almost every draw conflicted")
		return nil
	}
	if errors.Is(m.err, context.Canceled) {
		return nil
	}
	return m.err
}
