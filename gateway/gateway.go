// Package gateway accepts downstream WebSocket clients, groups them by topic,
// routes their commands to per-topic handlers, and broadcasts device events to
// every subscriber of a topic.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/roomctl/qrcbridge/metric"
	"github.com/roomctl/qrcbridge/qrc"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // downstream clients are trusted on the control network
	},
}

// Request is one inbound client command frame.
type Request struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// Response is the uniform reply envelope for a dispatched command.
type Response struct {
	Status  string          `json:"status"`
	Command string          `json:"command"`
	Payload ResponsePayload `json:"payload"`
}

// ResponsePayload carries the human-readable outcome of a command.
type ResponsePayload struct {
	Message string `json:"message"`
}

// Handler processes one valid client request against the available upstream
// sessions and reports success plus a message for the reply envelope.
type Handler func(ctx context.Context, req Request, sessions []*qrc.Client) (ok bool, msg string)

// Gateway is the downstream WebSocket server.
type Gateway struct {
	addr     string
	router   chi.Router
	server   *http.Server
	sessions []*qrc.Client
	metrics  *metric.Metrics

	mu     sync.RWMutex
	topics map[string]*topic
}

// New creates a gateway listening on addr, dispatching against sessions.
func New(addr string, sessions []*qrc.Client, m *metric.Metrics) *Gateway {
	g := &Gateway{
		addr:     addr,
		sessions: sessions,
		metrics:  m,
		topics:   make(map[string]*topic),
	}

	r := chi.NewRouter()
	r.NotFound(g.handleUnknownPath)
	g.router = r
	g.server = &http.Server{Addr: addr, Handler: r}
	return g
}

// Route registers a topic path with its command handler.
func (g *Gateway) Route(path string, h Handler) {
	t := newTopic(path, h)
	g.mu.Lock()
	g.topics[path] = t
	g.mu.Unlock()
	g.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		g.serveTopic(t, w, r)
	})
}

// Handle mounts a plain HTTP handler on the gateway's router, e.g. /metrics.
func (g *Gateway) Handle(pattern string, h http.Handler) {
	g.router.Handle(pattern, h)
}

// Start runs the HTTP server until Shutdown.
func (g *Gateway) Start() error {
	slog.Info("Starting WebSocket gateway", "addr", g.addr)
	err := g.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains the server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down WebSocket gateway", "addr", g.addr)
	return g.server.Shutdown(ctx)
}

// handleUnknownPath upgrades just far enough to tell the client which path it
// got wrong, then hard-closes: unknown topics are a reject, not a soft error.
func (g *Gateway) handleUnknownPath(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer sock.Close()
	reply, _ := json.Marshal(map[string]string{"error": "unknown path " + r.URL.Path})
	if err := sock.WriteMessage(websocket.TextMessage, reply); err != nil {
		slog.Warn("Failed to send unknown path reply", "path", r.URL.Path, "error", err)
	}
	slog.Warn("Rejected viewer on unknown path", "path", r.URL.Path)
}

func (g *Gateway) serveTopic(t *topic, w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	v := newWSViewer(sock)
	t.add(v)
	g.metrics.Viewers.Inc()
	slog.Info("Viewer connected", "topic", t.path, "viewer", v.ID(), "addr", r.RemoteAddr)

	ctx := r.Context()

	defer func() {
		if t.remove(v) {
			g.metrics.Viewers.Dec()
		}
		v.Close()
		slog.Info("Viewer disconnected", "topic", t.path, "viewer", v.ID())
	}()

	// Late joiners get a fresh snapshot: every session reissues its change
	// group before this viewer's first poll arrives.
	for _, s := range g.sessions {
		s.ViewerJoined(ctx)
	}

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Viewer connection error", "topic", t.path, "viewer", v.ID(), "error", err)
			}
			return
		}
		slog.Debug("Viewer message received", "topic", t.path, "viewer", v.ID(), "size", len(data))

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			if err := v.SendJSON(map[string]string{"error": "invalid json"}); err != nil {
				return
			}
			continue
		}

		ok, msg := t.handler(ctx, req, g.sessions)
		status := "success"
		if !ok {
			status = "error"
		}
		g.metrics.Commands.WithLabelValues(t.path, req.Command, status).Inc()

		reply := Response{Status: status, Command: req.Command, Payload: ResponsePayload{Message: msg}}
		if err := v.SendJSON(reply); err != nil {
			slog.Warn("Failed to reply to viewer", "topic", t.path, "viewer", v.ID(), "error", err)
			return
		}
	}
}

// Notify serializes event once and writes it to every viewer currently on the
// topic. A failing socket is closed and removed without blocking the rest.
func (g *Gateway) Notify(path string, event any) {
	g.mu.RLock()
	t := g.topics[path]
	g.mu.RUnlock()
	if t == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode broadcast", "topic", path, "error", err)
		return
	}

	sent := 0
	for _, v := range t.snapshot() {
		if err := v.Send(data); err != nil {
			slog.Warn("Broadcast write failed, dropping viewer", "topic", path, "viewer", v.ID(), "error", err)
			if t.remove(v) {
				g.metrics.Viewers.Dec()
			}
			v.Close()
			continue
		}
		sent++
	}
	g.metrics.Broadcasts.WithLabelValues(path).Inc()
	slog.Debug("Broadcast delivered", "topic", path, "viewers", sent, "size", len(data))
}
