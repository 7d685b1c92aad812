package gateway

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// subscriber is one downstream connection on a topic. Writes must be safe
// under concurrent reply and broadcast traffic.
type subscriber interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// topic is one logical route and its live set of subscribers. Joins, leaves
// and broadcasts race, so the set is guarded independently of the gateway.
type topic struct {
	path    string
	handler Handler

	mu      sync.Mutex
	viewers map[subscriber]struct{}
}

func newTopic(path string, h Handler) *topic {
	return &topic{path: path, handler: h, viewers: make(map[subscriber]struct{})}
}

func (t *topic) add(v subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewers[v] = struct{}{}
}

// remove reports whether v was still a member, so callers racing on removal
// only account for it once.
func (t *topic) remove(v subscriber) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.viewers[v]; !ok {
		return false
	}
	delete(t.viewers, v)
	return true
}

func (t *topic) snapshot() []subscriber {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]subscriber, 0, len(t.viewers))
	for v := range t.viewers {
		out = append(out, v)
	}
	return out
}

// wsViewer wraps one WebSocket connection with the single-writer discipline
// gorilla requires.
type wsViewer struct {
	id   string
	sock *websocket.Conn
	wmu  sync.Mutex
}

func newWSViewer(sock *websocket.Conn) *wsViewer {
	return &wsViewer{id: "viewer-" + uuid.NewString(), sock: sock}
}

func (v *wsViewer) ID() string { return v.id }

func (v *wsViewer) Send(data []byte) error {
	v.wmu.Lock()
	defer v.wmu.Unlock()
	return v.sock.WriteMessage(websocket.TextMessage, data)
}

func (v *wsViewer) SendJSON(val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return v.Send(data)
}

func (v *wsViewer) Close() error {
	return v.sock.Close()
}
