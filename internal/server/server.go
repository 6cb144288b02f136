// Package server exposes maze generation over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/mazewave/internal/config"
	"github.com/lawnchairsociety/mazewave/internal/database"
	"github.com/lawnchairsociety/mazewave/internal/logger"
	"github.com/lawnchairsociety/mazewave/internal/maze"
	"github.com/lawnchairsociety/mazewave/internal/throttle"
	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

// RunStore persists finished generation requests. *database.Database
// implements it.
type RunStore interface {
	SaveRun(run *database.Run) error
}

// Server answers generate requests on /ws. Each request runs on its own
// wave and random source inside the connection's goroutine.
type Server struct {
	cfg        config.ServerConfig
	generation config.GenerationConfig
	rules      *wfc.RuleSet[maze.Tile]
	store      RunStore

	connLimiter    *ConnLimiter
	invalidLimiter *InvalidRequestLimiter
	upgrader       websocket.Upgrader

	mu         sync.Mutex
	clients    map[*WebSocketClient]struct{}
	httpServer *http.Server
	closing    bool
	handlers   sync.WaitGroup // one per running handleConnection

	shutdownOnce sync.Once
}

// NewServer creates a server. A nil rule set means the default maze rules;
// a nil store disables run history.
func NewServer(cfg *config.Config, rules *wfc.RuleSet[maze.Tile], store RunStore) *Server {
	if rules == nil {
		rules = maze.DefaultRules()
	}

	s := &Server{
		cfg:            cfg.Server,
		generation:     cfg.Generation,
		rules:          rules,
		store:          store,
		connLimiter:    NewConnLimiter(cfg.Server.ConnectionsConfig),
		invalidLimiter: NewInvalidRequestLimiter(cfg.Server.RateLimit),
		clients:        make(map[*WebSocketClient]struct{}),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	return s
}

// Handler returns the HTTP routes: /ws for generation and /healthz for a
// connection count.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logger.Always("mazewave service listening", "address", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections, closes the open ones and waits for
// their handlers to finish, or for ctx to end. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.invalidLimiter.Stop()

		s.mu.Lock()
		s.closing = true
		httpServer := s.httpServer
		clients := make([]*WebSocketClient, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.mu.Unlock()

		if httpServer != nil {
			err = httpServer.Shutdown(ctx)
		}
		for _, c := range clients {
			c.CloseWithReason(websocket.CloseGoingAway, "server shutting down")
		}

		done := make(chan struct{})
		go func() {
			s.handlers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if err == nil {
				err = fmt.Errorf("connections still closing: %w", ctx.Err())
			}
		}
		logger.Always("mazewave service stopped", "closed_connections", len(clients))
	})
	return err
}

// handleHealth reports the service as up along with its connection counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, ips := s.connLimiter.Stats()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": total,
		"client_ips":  ips,
	})
	if err != nil {
		logger.Debug("Health response failed", "remote_addr", r.RemoteAddr, "error", err)
	}
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		logger.Warning("WebSocket upgrade failed", "client_ip", clientIP, "error", err)
		s.connLimiter.Release(clientIP)
		return
	}
	wsConn.SetReadLimit(s.cfg.MaxMessageSize)

	client := NewWebSocketClient(wsConn)
	if !s.track(client) {
		s.connLimiter.Release(clientIP)
		client.CloseWithReason(websocket.CloseGoingAway, "server shutting down")
		return
	}
	logger.Info("WebSocket connection opened", "client_ip", clientIP)

	go s.handleConnection(client, clientIP)
}

// track registers a client and its handler. It returns false once Shutdown
// has started.
func (s *Server) track(c *WebSocketClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(c *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// handleConnection serves requests from one client until it disconnects
// or gets locked out.
func (s *Server) handleConnection(client *WebSocketClient, clientIP string) {
	defer func() {
		s.untrack(client)
		s.connLimiter.Release(clientIP)
		client.Close()
		logger.Info("WebSocket connection closed", "client_ip", clientIP)
		s.handlers.Done()
	}()

	t := s.cfg.Throttle
	tracker := throttle.NewTracker(throttle.ConfigFromSeconds(t.MaxRequests, t.WindowSeconds, t.RepeatCooldownSeconds))

	for {
		data, err := client.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read failed", "client_ip", clientIP, "error", err)
			}
			return
		}

		if locked, remaining := s.invalidLimiter.IsLocked(clientIP); locked {
			s.refuse(client, fmt.Errorf("too many invalid requests, retry in %s", remaining.Round(time.Second)))
			return
		}

		req, err := parseRequest(data, s.cfg.MaxCells)
		if err != nil {
			logger.Debug("Invalid request", "client_ip", clientIP, "error", err)
			if err := client.WriteJSON(newErrorMessage(err)); err != nil {
				return
			}
			if locked, lockout := s.invalidLimiter.RecordInvalid(clientIP); locked {
				logger.Warning("Client locked out after invalid requests", "client_ip", clientIP, "lockout", lockout)
				s.refuse(client, fmt.Errorf("too many invalid requests, retry in %s", lockout.Round(time.Second)))
				return
			}
			continue
		}
		s.invalidLimiter.RecordValid(clientIP)

		if result := tracker.Check(req.key()); !result.Allowed {
			logger.Debug("Request throttled", "client_ip", clientIP, "reason", result.Reason)
			if err := client.WriteJSON(newErrorMessage(result.Err())); err != nil {
				return
			}
			continue
		}

		if err := s.generate(client, req, clientIP); err != nil {
			logger.Debug("WebSocket write failed", "client_ip", clientIP, "error", err)
			return
		}
	}
}

// refuse sends a final error message and closes the connection
func (s *Server) refuse(client *WebSocketClient, err error) {
	client.WriteJSON(newErrorMessage(err))
	client.CloseWithReason(websocket.ClosePolicyViolation, err.Error())
}

// generate runs one request and streams its steps and result to client.
// The returned error is a write failure; generation failures are reported
// to the client in the result message.
func (s *Server) generate(client *WebSocketClient, req Request, clientIP string) error {
	gen := wfc.NewGenerator(&wfc.GeneratorConfig{
		Width:       req.Width,
		Height:      req.Height,
		Seed:        req.Seed,
		MaxAttempts: s.generation.MaxAttempts,
	}, s.rules)

	var writeErr error
	if req.Trace {
		gen.Observe(func(attempt int, step wfc.Step[maze.Tile]) {
			if writeErr == nil {
				writeErr = client.WriteJSON(newStepMessage(attempt, step))
			}
		})
	}
	gen.OnFailure(func(attempt int, seed int64, err error) {
		logger.Debug("Generation attempt failed", "client_ip", clientIP, "attempt", attempt, "seed", seed, "error", err)
	})

	start := time.Now()
	result, genErr := gen.Generate()
	if writeErr != nil {
		return writeErr
	}

	msg := ResultMessage{
		Type:     TypeResult,
		Seed:     gen.Config().Seed,
		Attempts: gen.Config().MaxAttempts,
		Width:    req.Width,
		Height:   req.Height,
	}
	if genErr != nil {
		msg.Error = genErr.Error()
	} else {
		msg.OK = true
		msg.Seed = result.Seed
		msg.Attempts = result.Attempts
		msg.Grid = result.Wave.String()
	}

	logger.Info("Generation finished",
		"client_ip", clientIP,
		"width", req.Width,
		"height", req.Height,
		"ok", msg.OK,
		"attempts", msg.Attempts,
		"duration", time.Since(start))

	if s.store != nil {
		run := &database.Run{
			Seed:     msg.Seed,
			Width:    msg.Width,
			Height:   msg.Height,
			Attempts: msg.Attempts,
			OK:       msg.OK,
			Grid:     msg.Grid,
			Error:    msg.Error,
			Source:   "ws",
		}
		if err := s.store.SaveRun(run); err != nil {
			logger.Error("Failed to save run", "client_ip", clientIP, "error", err)
		} else {
			msg.RunID = run.ID
			msg.Fingerprint = run.Fingerprint
		}
	}

	return client.WriteJSON(msg)
}
