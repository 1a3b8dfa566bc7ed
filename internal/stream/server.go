package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/archive"
	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/game"
)

// Request types sent by clients.
const (
	RequestStart  = "start"
	RequestReplay = "replay"
	RequestStop   = "stop"
)

// Request is a client message. Start uses the decks and seed; replay uses
// GameID.
type Request struct {
	Type   string `json:"type"`
	Deck1  string `json:"deck1,omitempty"`
	Deck2  string `json:"deck2,omitempty"`
	Seed   string `json:"seed,omitempty"`
	GameID string `json:"gameId,omitempty"`
}

// Options configure a Server.
type Options struct {
	StepInterval time.Duration
	WriteTimeout time.Duration
	MaxSteps     int
}

// Server streams simulated and archived matches over WebSocket.
type Server struct {
	engine   *game.Engine
	catalog  *catalog.Catalog
	replays  archive.Source
	archive  *archive.Archive
	opts     Options
	logger   *zap.Logger
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

// NewServer creates a server. replays and store may be nil, which disables
// replay requests and archiving of finished matches.
func NewServer(engine *game.Engine, cat *catalog.Catalog, replays archive.Source, store *archive.Archive, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10000
	}
	return &Server{
		engine:  engine,
		catalog: cat,
		replays: replays,
		archive: store,
		opts:    opts,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/decks", s.serveDecks)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Wait blocks until every connection has been torn down.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) serveDecks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.catalog.DeckNames()); err != nil {
		s.logger.Warn("failed to write deck list", zap.Error(err))
	}
}

// client is one WebSocket connection. Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	send   chan Frame
	id     string
	cancel context.CancelFunc
	mu     sync.Mutex
}

// ServeWS upgrades the request and serves one client until it disconnects
// or ctx of the request ends.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan Frame, 256),
		id:   uuid.NewString(),
	}
	s.logger.Info("client connected", zap.String("client_id", c.id), zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.writePump(c)
	}()
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.readPump(ctx, c)
	}()
}

func (s *Server) readPump(ctx context.Context, c *client) {
	var streams sync.WaitGroup
	defer func() {
		c.stop()
		streams.Wait()
		close(c.send)
		s.logger.Info("client disconnected", zap.String("client_id", c.id))
	}()

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		switch req.Type {
		case RequestStart, RequestReplay:
			streamCtx := c.restart(ctx, &streams)
			streams.Add(1)
			go func(req Request) {
				defer streams.Done()
				if err := s.handle(streamCtx, c, req); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Warn("stream failed",
						zap.String("client_id", c.id),
						zap.String("request", req.Type),
						zap.Error(err),
					)
					c.push(streamCtx, Frame{Type: FrameError, GameID: req.GameID, Error: err.Error()})
				}
			}(req)
		case RequestStop:
			c.stop()
		default:
			c.push(ctx, Frame{Type: FrameError, Error: fmt.Sprintf("unknown request type %q", req.Type)})
		}
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteJSON(frame); err != nil {
			s.logger.Debug("write failed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.opts.WriteTimeout))
}

// restart cancels the running stream, if any, and returns the context of
// the next one.
func (c *client) restart(parent context.Context, streams *sync.WaitGroup) context.Context {
	c.stop()
	streams.Wait()
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx
}

func (c *client) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// push queues f unless ctx ends first.
func (c *client) push(ctx context.Context, f Frame) error {
	select {
	case c.send <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handle(ctx context.Context, c *client, req Request) error {
	pacer := NewPacer(s.engine, s.opts.StepInterval, s.opts.MaxSteps, s.logger)
	emit := func(f Frame) error { return c.push(ctx, f) }

	if req.Type == RequestReplay {
		if s.replays == nil {
			return errors.New("replays are not available")
		}
		r, err := s.replays.Load(ctx, req.GameID)
		if err != nil {
			return err
		}
		state, err := s.engine.RebuildFromReplay(r, s.catalog)
		if err != nil {
			return err
		}
		if err := emit(NewFrame(FrameStarted, state.InitialSnapshot(), nil)); err != nil {
			return err
		}
		return pacer.Replay(ctx, state, emit)
	}

	state, err := s.newMatch(req)
	if err != nil {
		return err
	}
	if err := emit(NewFrame(FrameStarted, state, nil)); err != nil {
		return err
	}
	final, err := pacer.Run(ctx, state, emit)
	if err != nil {
		return err
	}
	if s.archive != nil && s.archive.Len() > 0 {
		r, err := s.engine.NewReplay(final)
		if err != nil {
			return err
		}
		if _, err := s.archive.Store(ctx, r); err != nil {
			s.logger.Warn("archiving streamed match failed", zap.String("game_id", final.GameID), zap.Error(err))
		}
	}
	return nil
}

func (s *Server) newMatch(req Request) (*game.GameState, error) {
	d1, deck1, err := s.catalog.BuildDeck(req.Deck1)
	if err != nil {
		return nil, err
	}
	d2, deck2, err := s.catalog.BuildDeck(req.Deck2)
	if err != nil {
		return nil, err
	}
	seed := req.Seed
	if seed == "" {
		seed = uuid.NewString()
	}
	gameID := req.GameID
	if gameID == "" {
		gameID = "match-" + uuid.NewString()
	}
	return s.engine.CreateInitialGameState(gameID, deck1, deck2, d1.Faction, d2.Faction, d1.Tactics, d2.Tactics, seed)
}
