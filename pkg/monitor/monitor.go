// Package monitor exposes the motion state over HTTP for external
// tooling. Clients poll /status for a JSON snapshot or hold a
// websocket on /ws for periodic pushes while a move is printing.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"printipi-go-migration/pkg/log"
)

// StatusSource supplies the state snapshots the server publishes.
// The motion session satisfies this through a small adapter so the
// hot stepping loop never sees the server.
type StatusSource interface {
	Snapshot() Status
}

// AxisStatus is the published state of one axis.
type AxisStatus struct {
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Pos      float64 `json:"position_mm"`
}

// Status is one published state snapshot.
type Status struct {
	Active     bool         `json:"active"`
	MoveSteps  uint64       `json:"move_steps"`
	TotalSteps uint64       `json:"total_steps"`
	Axes       []AxisStatus `json:"axes"`
	Time       time.Time    `json:"time"`
}

// Config holds monitor server settings.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":7125".
	Addr string
	// Interval between websocket pushes. Zero means 250ms.
	Interval time.Duration
	// Source supplies state snapshots.
	Source StatusSource
}

// Server publishes motion state snapshots.
type Server struct {
	source   StatusSource
	addr     string
	interval time.Duration

	httpServer *http.Server
	upgrader   websocket.Upgrader

	clients  map[uuid.UUID]*client
	clientMu sync.RWMutex

	done   chan struct{}
	logger *log.Logger
}

// New creates a monitor server. It does not listen until Start.
func New(cfg Config) *Server {
	interval := cfg.Interval
	if interval == 0 {
		interval = 250 * time.Millisecond
	}
	s := &Server{
		source:   cfg.Source,
		addr:     cfg.Addr,
		interval: interval,
		clients:  make(map[uuid.UUID]*client),
		done:     make(chan struct{}),
		logger:   log.GetLogger("monitor"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return s
}

// Start serves until Stop is called. It blocks, so callers normally
// run it in a goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.logger.Info("monitor listening on %s", s.addr)
	go s.broadcastLoop()

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes all client connections and the listener.
func (s *Server) Stop() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}

	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[uuid.UUID]*client)
	s.clientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) snapshot() Status {
	if s.source == nil {
		return Status{Time: time.Now()}
	}
	return s.source.Snapshot()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.logger.Warn("status encode: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade: %v", err)
		return
	}

	c := &client{
		id:     uuid.New(),
		conn:   conn,
		sendCh: make(chan Status, 16),
		done:   make(chan struct{}),
		logger: s.logger,
	}

	s.clientMu.Lock()
	s.clients[c.id] = c
	s.clientMu.Unlock()

	s.logger.Debug("client %s connected", c.id)
	go c.writePump()

	// Push the current state immediately so a fresh client does not
	// wait a full broadcast interval.
	c.send(s.snapshot())

	c.readPump()

	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
	s.logger.Debug("client %s disconnected", c.id)
}

// ClientCount reports the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.clientMu.RLock()
		if len(s.clients) == 0 {
			s.clientMu.RUnlock()
			continue
		}
		st := s.snapshot()
		for _, c := range s.clients {
			c.send(st)
		}
		s.clientMu.RUnlock()
	}
}

// client is one websocket connection.
type client struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan Status
	done   chan struct{}
	mu     sync.Mutex
	logger *log.Logger
}

func (c *client) send(st Status) {
	select {
	case c.sendCh <- st:
	case <-c.done:
	default:
		// Slow client, drop the snapshot. The next tick supersedes it.
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.conn.Close()
}

// readPump discards inbound frames; it exists to notice disconnects
// and keep pong handling alive.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("client %s read: %v", c.id, err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case st := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(st); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
