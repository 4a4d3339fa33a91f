// Package renderer bridges the app state to map renderer clients over
// WebSocket. Every camera, store or filter change is pushed as a full
// frame; clients send back marker selections.
package renderer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/ihza212325/trashpin/internal/geo"
	"github.com/ihza212325/trashpin/internal/model"
)

const (
	sendChSize = 256
	writeWait  = 10 * time.Second
)

// Frame is a full snapshot pushed to every connected renderer. Snapshots
// replace each other wholesale; a client never has to merge deltas.
type Frame struct {
	Type           string               `json:"type"`
	Camera         model.CameraState    `json:"camera"`
	MercatorCenter [2]float64           `json:"mercatorCenter"`
	Markers        []model.MarkerRecord `json:"markers"`
}

// NewFrame builds a frame, projecting the camera center for the tile layer.
func NewFrame(camera model.CameraState, markers []model.MarkerRecord) Frame {
	projected := geo.WebMercator(camera.Center)
	xy, _ := projected.XY()

	return Frame{
		Type:           "frame",
		Camera:         camera,
		MercatorCenter: [2]float64{xy.X, xy.Y},
		Markers:        markers,
	}
}

// SelectMessage is sent by a renderer when the user taps a marker.
type SelectMessage struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

// SelectHandler receives marker ids tapped in a renderer.
type SelectHandler func(id int)

// Server accepts renderer connections and fans frames out to them.
type Server struct {
	upgrader ws.Upgrader
	onSelect SelectHandler
	logger   *slog.Logger

	mu        sync.Mutex
	clients   map[*client]struct{}
	lastFrame []byte
	closed    bool

	httpServer *http.Server
}

// NewServer creates a renderer bridge. onSelect may be nil.
func NewServer(logger *slog.Logger, onSelect SelectHandler) *Server {
	return &Server{
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		onSelect: onSelect,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// Handler returns the WebSocket upgrade handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

// ListenAndServe serves the bridge on addr until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	srv := s.httpServer
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	last := s.lastFrame
	s.mu.Unlock()

	s.logger.Debug("Renderer connected", "remote", conn.RemoteAddr())

	// New clients get the current frame immediately.
	if last != nil {
		c.send(last, s.logger)
	}

	go s.writeLoop(c)
	go s.readLoop(c)
}

// Broadcast pushes a frame to every connected client and remembers it for
// clients that connect later.
func (s *Server) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		s.logger.Error("Failed to encode frame", "error", err)
		return
	}

	s.mu.Lock()
	s.lastFrame = data
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		c.send(data, s.logger)
	}
}

// ClientCount returns the number of connected renderers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = map[*client]struct{}{}
	srv := s.httpServer
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	if srv != nil {
		return srv.Close()
	}
	return nil
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// writeLoop drains the client's send channel. Only this goroutine writes
// to the connection.
func (s *Server) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				s.drop(c)
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				s.logger.Warn("WebSocket write error", "error", err)
				s.drop(c)
				return
			}
		}
	}
}

// readLoop routes select messages from the client to the handler.
func (s *Server) readLoop(c *client) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				s.logger.Debug("Renderer disconnected", "error", err)
				s.drop(c)
			}
			return
		}

		var sel SelectMessage
		if err := json.Unmarshal(message, &sel); err != nil {
			s.logger.Debug("Non-select message received", "raw", string(message))
			continue
		}

		if sel.Type == "select" && s.onSelect != nil {
			s.onSelect(sel.ID)
		}
	}
}

// client is one connected renderer.
type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *client) send(data []byte, logger *slog.Logger) {
	select {
	case c.sendCh <- data:
	default:
		logger.Warn("Renderer send channel full, dropping frame")
	}
}

func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteMessage(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
	)
	_ = c.conn.Close()
}
