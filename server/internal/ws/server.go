package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/codecollab/relay/server/internal/heartbeat"
	"github.com/codecollab/relay/server/internal/registry"
	"github.com/codecollab/relay/server/internal/router"
)

// Options bounds per-connection behaviour.
type Options struct {
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	SendBuffer        int
	MaxMessageSize    int64
}

// Server upgrades HTTP requests to relay connections.
type Server struct {
	registry *registry.Registry
	router   *router.Router
	opts     Options
	upgrader websocket.Upgrader
	newID    func() string     // injectable for tests
	ping     func(*Conn) error // injectable for tests
}

// pingFunc adapts a function to heartbeat.Pinger.
type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

// NewServer creates a Server that registers connections in reg and routes
// their frames through rt.
func NewServer(reg *registry.Registry, rt *router.Router, opts Options) *Server {
	return &Server{
		registry: reg,
		router:   rt,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Allow all origins; callers should apply CORS at the reverse-proxy level.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		newID: uuid.NewString,
		ping:  (*Conn).Ping,
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(s.newID(), wsConn, s.opts.SendBuffer, s.opts.WriteTimeout)
	s.registry.Register(c)
	slog.Info("ws: connection opened", "conn", c.ID(), "remote", c.RemoteAddr())

	ping := pingFunc(func() error { return s.ping(c) })
	hb := heartbeat.Start(ping, s.opts.HeartbeatInterval, func(err error) {
		slog.Warn("ws: heartbeat failed, closing connection", "conn", c.ID(), "err", err)
		c.Close() //nolint:errcheck
	})

	go c.writePump()
	s.readLoop(c, hb) // blocks until the connection closes
}

// Shutdown closes every live connection. Each one runs its own cleanup.
func (s *Server) Shutdown() {
	if n := s.registry.CloseAll(); n > 0 {
		slog.Info("ws: closed connections for shutdown", "count", n)
	}
}

// readLoop feeds inbound frames to the router and owns the connection's
// single cleanup path.
func (s *Server) readLoop(c *Conn, hb *heartbeat.Monitor) {
	sess := router.NewSession()
	defer func() {
		hb.Stop()
		s.router.Disconnect(sess, c)
		s.registry.Deregister(c)
		c.Close() //nolint:errcheck
		slog.Info("ws: connection closed", "conn", c.ID())
	}()

	c.ws.SetReadLimit(s.opts.MaxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		// Acknowledgements reset nothing; liveness is judged by ping writes.
		slog.Debug("ws: pong", "conn", c.ID())
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.Warn("ws: read error", "conn", c.ID(), "err", err)
			}
			return
		}
		s.router.Handle(sess, c, data)
	}
}
