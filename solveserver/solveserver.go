// Package solveserver exposes the solving strategies over a WebSocket
// endpoint. A client connects to /solve, sends one request naming an
// algorithm and carrying a grid, and receives an acknowledgement, one
// message per replayed move, and the final strategy.
package solveserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"fruitbox/fruitboxgame"
)

// Message types sent to the client.
const (
	MessageAccepted = "accepted"
	MessageMove     = "move"
	MessageResult   = "result"
	MessageError    = "error"
)

// SolveRequest is the single message a client sends after connecting.
type SolveRequest struct {
	Algorithm string  `json:"algorithm"`
	Grid      [][]int `json:"grid"`
}

// ServerMessage is the envelope for every message sent to the client.
type ServerMessage struct {
	Type     string                   `json:"type"`
	Error    string                   `json:"error,omitempty"`
	Solver   string                   `json:"solver,omitempty"`
	Move     *fruitboxgame.MoveResult `json:"move,omitempty"`
	Strategy *fruitboxgame.Strategy   `json:"strategy,omitempty"`
	Elapsed  string                   `json:"elapsed,omitempty"`
}

// Config contains the server settings.
type Config struct {
	Addr           string
	MaxConnections int
	PingInterval   time.Duration
	SolveTimeout   time.Duration
	EnableLogging  bool
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxConnections: 64,
		PingInterval:   30 * time.Second,
		SolveTimeout:   2 * time.Minute,
	}
}

// Server serves solve requests over WebSocket connections.
type Server struct {
	config      Config
	registry    *fruitboxgame.Registry
	upgrader    websocket.Upgrader
	httpServer  *http.Server
	listener    net.Listener
	connections atomic.Int64
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	mutex       sync.Mutex
	wg          sync.WaitGroup
}

// New creates a server over the given registry, filling zero config
// fields with defaults.
func New(config Config, registry *fruitboxgame.Registry) *Server {
	def := DefaultConfig()
	if config.Addr == "" {
		config.Addr = def.Addr
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = def.MaxConnections
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.SolveTimeout <= 0 {
		config.SolveTimeout = def.SolveTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   config,
		registry: registry,
		ctx:      ctx,
		cancel:   cancel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/solve", s.handleSolve)
	s.httpServer = &http.Server{Addr: config.Addr, Handler: mux}
	return s
}

// Start begins listening. It returns once the listener is bound, so
// Addr is valid immediately after.
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return errors.New("server is already running")
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.running = true
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("solve server error: %v", err)
		}
	}()
	if s.config.EnableLogging {
		log.Printf("solve server listening on %s", listener.Addr())
	}
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and waits for in-flight connections.
func (s *Server) Stop() error {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return errors.New("server is not running")
	}
	s.running = false
	s.mutex.Unlock()

	s.cancel()
	err := s.httpServer.Close()
	s.wg.Wait()
	return err
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if s.connections.Load() >= int64(s.config.MaxConnections) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.connections.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.connections.Add(-1)
		defer conn.Close()
		s.serveConnection(conn)
	}()
}

// wsConn serializes writes so the ping loop and the response stream
// never write the connection concurrently.
type wsConn struct {
	*websocket.Conn
	writeMutex sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *Server) serveConnection(raw *websocket.Conn) {
	conn := &wsConn{Conn: raw}
	stopPing := make(chan struct{})
	defer close(stopPing)
	go s.pingLoop(conn, stopPing)

	// A client that never sends its request must not pin the
	// connection goroutine past shutdown.
	raw.SetReadDeadline(time.Now().Add(s.config.SolveTimeout))

	var req SolveRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.sendError(conn, fmt.Sprintf("bad request: %v", err))
		return
	}
	raw.SetReadDeadline(time.Time{})

	grid, err := gridFromRequest(req.Grid)
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = "dfs"
	}
	solver, err := s.registry.Lookup(algorithm)
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	if err := conn.writeJSON(ServerMessage{Type: MessageAccepted, Solver: solver.Name()}); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.config.SolveTimeout)
	defer cancel()

	start := time.Now()
	strategy, err := solver.Solve(ctx, grid)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("solve failed: %v", err))
		return
	}
	elapsed := time.Since(start)

	moves, err := fruitboxgame.Replay(grid, strategy)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("strategy failed replay: %v", err))
		return
	}
	for i := range moves {
		if err := conn.writeJSON(ServerMessage{Type: MessageMove, Move: &moves[i]}); err != nil {
			return
		}
	}

	result := ServerMessage{
		Type:     MessageResult,
		Solver:   solver.Name(),
		Strategy: &strategy,
		Elapsed:  elapsed.String(),
	}
	if err := conn.writeJSON(result); err != nil {
		return
	}
	if s.config.EnableLogging {
		log.Printf("solved with %s: score %d, %d boxes, %v",
			solver.Name(), strategy.Score, len(strategy.Boxes), elapsed)
	}
}

func (s *Server) pingLoop(conn *wsConn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) sendError(conn *wsConn, msg string) {
	conn.writeJSON(ServerMessage{Type: MessageError, Error: msg})
}

func gridFromRequest(rows [][]int) (fruitboxgame.Grid, error) {
	var g fruitboxgame.Grid
	if len(rows) != fruitboxgame.GridHeight {
		return g, fmt.Errorf("expected %d rows, got %d", fruitboxgame.GridHeight, len(rows))
	}
	for i, row := range rows {
		if len(row) != fruitboxgame.GridWidth {
			return g, fmt.Errorf("row %d: expected %d columns, got %d", i, fruitboxgame.GridWidth, len(row))
		}
		for j, value := range row {
			if value < 0 || value > 9 {
				return g, fmt.Errorf("row %d col %d: value %d out of range [0, 9]", i, j, value)
			}
			g[i][j] = value
		}
	}
	return g, nil
}
