// Package server exposes squishies sessions over websockets.
//
// Each connection to /ws gets its own session. Query parameters mode and
// seed pick the game; messages are JSON objects with a "type" field.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"squishies/catalog"
	"squishies/engine"
	"squishies/engine/match"
	"squishies/types"
)

// Message types.
const (
	TypePath  = "path"
	TypeTick  = "tick"
	TypeState = "state"
	TypeEnd   = "end"
	TypeEvent = "event"
	TypeError = "error"
	TypeMatch = "match"
)

// ClientMessage is sent by the client.
type ClientMessage struct {
	Type string      `json:"type"`
	Path []types.Pos `json:"path,omitempty"`
	DtMs int         `json:"dt_ms,omitempty"`
}

// ServerMessage is pushed to the client.
type ServerMessage struct {
	Type    string              `json:"type"`
	Session string              `json:"session,omitempty"`
	State   *types.BoardState   `json:"state,omitempty"`
	Event   *engine.Event       `json:"event,omitempty"`
	Result  *engine.MatchResult `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Server creates one session per websocket connection.
type Server struct {
	cfg      engine.GameConfig
	store    engine.ScoreStore
	catalog  *catalog.Catalog
	log      *slog.Logger
	upgrader websocket.Upgrader

	// TickInterval, when positive, makes the server drive each session's
	// timers itself.
	TickInterval time.Duration

	mu    sync.Mutex
	conns map[string]*conn
}

// New returns a server starting sessions from cfg.
func New(cfg engine.GameConfig, store engine.ScoreStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		catalog:  catalog.Default(),
		log:      logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		conns:    map[string]*conn{},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/catalog", s.handleCatalog)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"sessions": s.Sessions()})
	})
	return mux
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.catalog.Entries())
}

// gameConfig applies the mode and seed query parameters to the default config.
func (s *Server) gameConfig(r *http.Request) (engine.GameConfig, error) {
	cfg := s.cfg
	q := r.URL.Query()
	if v := q.Get("mode"); v != "" {
		mode, ok := types.ParseMode(v)
		if !ok {
			return cfg, fmt.Errorf("unknown mode %q", v)
		}
		cfg.Mode = mode
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("bad seed %q", v)
		}
		cfg.Seed = seed
	}
	return cfg, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.gameConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := match.NewSession(cfg, s.store, match.WithLogger(s.log), match.WithCatalog(s.catalog))
	c := &conn{ws: ws, session: session, log: s.log.With("session", session.ID())}
	if err := session.Start(); err != nil {
		c.send(ServerMessage{Type: TypeError, Error: err.Error()})
		ws.Close()
		return
	}

	s.mu.Lock()
	s.conns[session.ID()] = c
	s.mu.Unlock()
	c.log.Info("session connected", "mode", cfg.Mode, "seed", session.Seed(), "remote", r.RemoteAddr)

	// The state message opens the stream; events emitted by Start are already in it.
	c.send(ServerMessage{Type: TypeState, Session: session.ID(), State: session.BoardState()})
	session.OnEvent(c.pushEvent)

	done := make(chan struct{})
	if s.TickInterval > 0 {
		go c.tickLoop(s.TickInterval, done)
	}

	go func() {
		defer func() {
			close(done)
			s.mu.Lock()
			delete(s.conns, session.ID())
			s.mu.Unlock()
			session.End()
			ws.Close()
			c.log.Info("session disconnected", "score", session.Score())
		}()
		c.readLoop()
	}()
}

// conn pairs a websocket with its session. Writes are serialised by writeMu
// because events may be pushed from the tick goroutine and the reader.
type conn struct {
	ws      *websocket.Conn
	session *match.Session
	log     *slog.Logger
	writeMu sync.Mutex
}

func (c *conn) send(msg ServerMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		c.log.Debug("write failed", "type", msg.Type, "error", err)
	}
}

func (c *conn) pushEvent(e engine.Event) {
	c.send(ServerMessage{Type: TypeEvent, Event: &e})
}

func (c *conn) sendError(err error) {
	c.send(ServerMessage{Type: TypeError, Error: err.Error()})
}

func (c *conn) readLoop() {
	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				c.log.Debug("read failed", "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *conn) handle(msg ClientMessage) {
	switch msg.Type {
	case TypePath:
		res, err := c.session.SubmitPath(msg.Path)
		if err != nil {
			c.sendError(err)
			return
		}
		c.send(ServerMessage{Type: TypeMatch, Result: &res})
	case TypeTick:
		if msg.DtMs <= 0 {
			c.sendError(fmt.Errorf("dt_ms must be positive"))
			return
		}
		c.session.Tick(time.Duration(msg.DtMs) * time.Millisecond)
	case TypeState:
		c.send(ServerMessage{Type: TypeState, Session: c.session.ID(), State: c.session.BoardState()})
	case TypeEnd:
		c.session.End()
		c.send(ServerMessage{Type: TypeState, Session: c.session.ID(), State: c.session.BoardState()})
	default:
		c.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (c *conn) tickLoop(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			c.session.Tick(now.Sub(last))
			last = now
		}
	}
}
