// Package qrc turns the framed transport into a request/notification session:
// it owns request ids, the outbound send queue, the keep-alive, inbound frame
// dispatch, and the lifecycle hooks fired around (re)connection.
package qrc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roomctl/qrcbridge/conn"
	"github.com/roomctl/qrcbridge/proto"
)

// ErrQueueFull reports that the outbound queue rejected a message. One-way
// sends are otherwise fire-and-forget: enqueueing is the only observable step.
var ErrQueueFull = errors.New("outbound queue full")

// Transport is the framed byte transport the session drives. *conn.Conn
// satisfies it.
type Transport interface {
	Connect(ctx context.Context)
	Disconnect()
	Send(ctx context.Context, payload []byte, waitForResponse bool, timeout time.Duration) ([]byte, error)
	OnData(conn.DataFunc)
	OnStatus(conn.StatusFunc)
	Delimiter() byte
}

// ConnectHook runs after every successful (re)connection, typically to
// reissue change-group setup traffic.
type ConnectHook func(ctx context.Context, c *Client) error

// ChangeHandler receives each ChangeGroup.Poll notification.
type ChangeHandler func(ctx context.Context, poll proto.Poll)

// ViewerHook runs once per newly joined downstream viewer.
type ViewerHook func(ctx context.Context, c *Client) error

const defaultQueueSize = 256

// Client is the session layer over one device transport.
type Client struct {
	name              string
	transport         Transport
	heartbeatInterval time.Duration
	responseTimeout   time.Duration

	nextID atomic.Int64

	mu              sync.Mutex
	runCtx          context.Context
	queue           chan []byte
	workerCancel    context.CancelFunc
	heartbeatCancel context.CancelFunc

	hookMu         sync.RWMutex
	connectHooks   []ConnectHook
	changeHandlers []ChangeHandler
	viewerHooks    []ViewerHook
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithHeartbeatInterval sets the keep-alive period.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Client) { c.heartbeatInterval = d }
}

// WithResponseTimeout sets the deadline for correlated exchanges.
func WithResponseTimeout(d time.Duration) Option {
	return func(c *Client) { c.responseTimeout = d }
}

// New creates a session client named for logging purposes.
func New(name string, t Transport, opts ...Option) *Client {
	c := &Client{
		name:              name,
		transport:         t,
		heartbeatInterval: 15 * time.Second,
		responseTimeout:   5 * time.Second,
		queue:             make(chan []byte, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextID returns a process-unique, monotonically increasing request id.
func (c *Client) NextID() int64 {
	return c.nextID.Add(1)
}

// OnConnect registers a hook run after every successful (re)connection.
func (c *Client) OnConnect(fn ConnectHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.connectHooks = append(c.connectHooks, fn)
}

// OnChangeGroup registers a handler for ChangeGroup.Poll notifications.
func (c *Client) OnChangeGroup(fn ChangeHandler) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.changeHandlers = append(c.changeHandlers, fn)
}

// OnViewerJoined registers a hook run once per newly joined downstream viewer.
func (c *Client) OnViewerJoined(fn ViewerHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.viewerHooks = append(c.viewerHooks, fn)
}

// Run wires the transport observers and drives the connect loop. It blocks
// until ctx ends or Disconnect is called.
func (c *Client) Run(ctx context.Context) {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	c.transport.OnData(func(frame []byte) error {
		c.frameReceived(ctx, frame)
		return nil
	})
	c.transport.OnStatus(func(connected bool) error {
		c.connectionChanged(ctx, connected)
		return nil
	})

	c.transport.Connect(ctx)
}

// Disconnect tears down the transport and cancels the heartbeat and queue
// worker. Safe to call when they were never started.
func (c *Client) Disconnect() {
	c.stopTasks()
	c.transport.Disconnect()
}

func (c *Client) stopTasks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
		c.heartbeatCancel = nil
		slog.Info("Cancelling heartbeat", "session", c.name)
	}
	if c.workerCancel != nil {
		c.workerCancel()
		c.workerCancel = nil
	}
	// Pending messages are discarded, not replayed: on-connect hooks reissue
	// their own setup traffic after the next connection.
	c.queue = make(chan []byte, defaultQueueSize)
}

func (c *Client) connectionChanged(ctx context.Context, connected bool) {
	if !connected {
		c.stopTasks()
		return
	}

	c.mu.Lock()
	if c.workerCancel == nil {
		workerCtx, cancel := context.WithCancel(ctx)
		c.workerCancel = cancel
		go c.queueWorker(workerCtx, c.queue)
	}
	if c.heartbeatCancel == nil {
		hbCtx, cancel := context.WithCancel(ctx)
		c.heartbeatCancel = cancel
		go c.heartbeat(hbCtx)
		slog.Info("Sending heartbeat", "session", c.name)
	}
	c.mu.Unlock()

	c.hookMu.RLock()
	hooks := c.connectHooks
	c.hookMu.RUnlock()
	for _, hook := range hooks {
		go func(h ConnectHook) {
			if err := h(ctx, c); err != nil {
				slog.Warn("On-connect hook failed", "session", c.name, "error", err)
			}
		}(hook)
	}
}

// heartbeat enqueues a NoOp every interval, but only when the queue is idle:
// keep-alives never pile up behind a backlog.
func (c *Client) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()
	for {
		c.mu.Lock()
		queue := c.queue
		c.mu.Unlock()
		if len(queue) == 0 {
			if err := c.Send(proto.ConnectionNoOp()); err != nil {
				slog.Warn("Failed to enqueue heartbeat", "session", c.name, "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// queueWorker drains the outbound queue strictly FIFO. It is the only writer
// on the transport; a failed write drops that message and moves on.
func (c *Client) queueWorker(ctx context.Context, queue chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-queue:
			if _, err := c.transport.Send(ctx, msg, false, 0); err != nil {
				slog.Warn("Failed to send message", "session", c.name, "error", err)
			}
		}
	}
}

// Send encodes cmd and fires it into the outbound queue. It returns once
// enqueued; one-way delivery is best-effort and unobservable by design.
func (c *Client) Send(cmd proto.Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	data = append(data, c.transport.Delimiter())

	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()

	select {
	case queue <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// Call writes cmd as a correlated exchange, bypassing the queue, and returns
// the next frame parsed. The reply is matched by arrival, not by id; callers
// needing strict correlation must check the id themselves.
func (c *Client) Call(ctx context.Context, cmd proto.Command) (proto.Response, error) {
	data, err := cmd.Encode()
	if err != nil {
		return nil, err
	}
	data = append(data, c.transport.Delimiter())

	frame, err := c.transport.Send(ctx, data, true, c.responseTimeout)
	if err != nil {
		return nil, err
	}
	return proto.Parse(frame)
}

func (c *Client) frameReceived(ctx context.Context, frame []byte) {
	resp, err := proto.Parse(frame)
	if err != nil {
		slog.Error("Error decoding frame", "session", c.name, "error", err)
		return
	}

	switch r := resp.(type) {
	case *proto.Error:
		if desc, ok := r.Code.Description(); ok {
			slog.Error("Device error", "session", c.name, "code", r.Code.String(), "description", desc)
		} else {
			slog.Error("Device error", "session", c.name, "code", int(r.Code), "message", r.Message)
		}
	case *proto.Result:
		slog.Debug("Result", "session", c.name, "id", r.ID, "method", r.Method)
	case *proto.Notification:
		if r.Method != proto.MethodChangeGroupPoll {
			return
		}
		poll, err := proto.DecodePoll(r.Params)
		if err != nil {
			slog.Warn("Bad poll notification", "session", c.name, "error", err)
			return
		}
		c.hookMu.RLock()
		handlers := c.changeHandlers
		c.hookMu.RUnlock()
		for _, handler := range handlers {
			go handler(ctx, poll)
		}
	}
}

// ViewerJoined tells the session a new downstream viewer connected. Hooks run
// synchronously in registration order; a failing hook is logged and does not
// block the rest.
func (c *Client) ViewerJoined(ctx context.Context) {
	c.hookMu.RLock()
	hooks := c.viewerHooks
	c.hookMu.RUnlock()
	for _, hook := range hooks {
		if err := hook(ctx, c); err != nil {
			slog.Warn("Viewer-joined hook failed", "session", c.name, "error", err)
		}
	}
}

// Name returns the session's logging name.
func (c *Client) Name() string { return c.name }
