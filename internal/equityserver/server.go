package equityserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-equity/internal/randutil"
	"github.com/lox/holdem-equity/poker"
)

// Request is the message a client sends after connecting. Exactly one
// of Hands or Ranges must be set.
type Request struct {
	Board      string   `json:"board,omitempty"`
	Dead       string   `json:"dead,omitempty"`
	Hands      []string `json:"hands,omitempty"`
	Ranges     []string `json:"ranges,omitempty"`
	Iterations int      `json:"iterations,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
}

// Update is streamed back to the client. A terminal update has Final
// set; Error carries the failure reason when the stream aborts.
type Update struct {
	Win        []float64 `json:"win"`
	Split      float64   `json:"split"`
	Iterations uint64    `json:"iterations"`
	Skipped    uint64    `json:"skipped,omitempty"`
	Exact      bool      `json:"exact,omitempty"`
	Final      bool      `json:"final"`
	Error      string    `json:"error,omitempty"`
}

// Server streams equity calculations over websockets.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New creates a server from configuration.
func New(cfg *Config, logger *log.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP handler exposing the equity endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/equity", s.handleEquity)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", s.cfg.ListenAddr())
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Error("bad request", "error", err)
		return
	}

	if err := s.serveRequest(r.Context(), conn, &req); err != nil {
		s.logger.Error("equity stream failed", "error", err)
		_ = conn.WriteJSON(Update{Final: true, Error: err.Error()})
	}
}

func (s *Server) serveRequest(ctx context.Context, conn *websocket.Conn, req *Request) error {
	board, dead, err := parseBoardAndDead(req)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := randutil.New(seed)

	switch {
	case len(req.Hands) > 0 && len(req.Ranges) > 0:
		return fmt.Errorf("request must set hands or ranges, not both")

	case len(req.Hands) > 0:
		holes := make([]poker.CardSet, len(req.Hands))
		for i, h := range req.Hands {
			hole, err := poker.ParseHoleCards(h)
			if err != nil {
				return err
			}
			holes[i] = hole
		}

		iterations := req.Iterations
		if iterations <= 0 {
			iterations = 100000
		}
		result, err := poker.SampleParallel(board, holes, dead, iterations, 0, rng)
		if err != nil {
			return err
		}
		return conn.WriteJSON(Update{
			Win:        result.Win,
			Split:      result.Split,
			Iterations: result.Trials,
			Exact:      result.Exact,
			Final:      true,
		})

	case len(req.Ranges) > 0:
		ranges := make([]*poker.Range, len(req.Ranges))
		for i, notation := range req.Ranges {
			parsed, err := poker.ParseRange(notation)
			if err != nil {
				return err
			}
			ranges[i] = parsed
		}

		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// The read pump only watches for the client going away.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		interval, err := s.cfg.UpdateIntervalDuration()
		if err != nil {
			return err
		}
		cfg := poker.StreamConfig{
			InnerTrials:   s.cfg.Stream.InnerTrials,
			UpdateEvery:   s.cfg.Stream.UpdateEvery,
			MinInterval:   interval,
			MaxIterations: s.cfg.Stream.MaxIterations,
			Logger:        s.logger,
		}
		if req.Iterations > 0 {
			cfg.MaxIterations = uint64(req.Iterations)
		}

		var writeErr error
		err = poker.StreamRangeEquity(streamCtx, board, ranges, dead, rng, cfg, func(u poker.StreamUpdate) {
			if writeErr != nil {
				return
			}
			writeErr = conn.WriteJSON(Update{
				Win:        u.Win,
				Split:      u.Split,
				Iterations: u.Iterations,
				Skipped:    u.Skipped,
				Final:      u.Final,
			})
		})
		if errors.Is(err, context.Canceled) {
			// Client disconnected; not a failure.
			return nil
		}
		if err != nil {
			return err
		}
		return writeErr

	default:
		return fmt.Errorf("request must set hands or ranges")
	}
}

func parseBoardAndDead(req *Request) (board, dead poker.CardSet, err error) {
	if req.Board != "" {
		cards, err := poker.ParseCards(req.Board)
		if err != nil {
			return 0, 0, err
		}
		board = poker.NewCardSet(cards)
	}
	if req.Dead != "" {
		cards, err := poker.ParseCards(req.Dead)
		if err != nil {
			return 0, 0, err
		}
		dead = poker.NewCardSet(cards)
	}
	return board, dead, nil
}
