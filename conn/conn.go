// Package conn owns the single outbound TCP connection to the device. It
// reconnects with a fixed delay, splits the inbound byte stream on a frame
// delimiter, and serializes correlated request/response exchanges against
// the read loop.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrClosed reports that the connection was shut down.
	ErrClosed = errors.New("connection closed")
	// ErrTimeout reports that a correlated exchange saw no reply frame in
	// time. It distinguishes "device silent" from "connection down".
	ErrTimeout = errors.New("response timed out")
)

// DataFunc receives one delimiter-stripped frame. A returned error is logged
// and does not abort delivery to the remaining observers.
type DataFunc func(frame []byte) error

// StatusFunc receives connection liveness transitions.
type StatusFunc func(connected bool) error

const (
	readChunkSize = 1024
	// readSlice bounds how long the read loop holds the framing lock per
	// iteration, so a correlated Send can acquire it on an idle connection.
	readSlice = 250 * time.Millisecond
)

// Conn is the resilient framed transport. At most one live socket exists at
// a time; a new attempt only starts after the previous one has torn down.
type Conn struct {
	host           string
	port           int
	reconnectDelay time.Duration
	autoReconnect  bool
	delim          byte

	mu    sync.Mutex
	sock  net.Conn
	ready chan struct{} // closed while connected, replaced on drop

	stopping atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	// exmu is the framing channel: the read loop holds it per read slice and
	// a correlated exchange holds it for the whole write+read round trip.
	exmu sync.Mutex

	obsMu    sync.RWMutex
	onData   []DataFunc
	onStatus []StatusFunc
}

// Option adjusts a Conn at construction time.
type Option func(*Conn)

// WithReconnectDelay sets the fixed delay between connection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Conn) { c.reconnectDelay = d }
}

// WithAutoReconnect toggles the retry loop after a dropped connection.
func WithAutoReconnect(enabled bool) Option {
	return func(c *Conn) { c.autoReconnect = enabled }
}

// WithDelimiter sets the frame delimiter byte.
func WithDelimiter(d byte) Option {
	return func(c *Conn) { c.delim = d }
}

// New creates a transport for host:port. Defaults: 5s reconnect delay,
// auto-reconnect on, CRLF is not assumed - the delimiter defaults to NUL as
// the QRC protocol requires.
func New(host string, port int, opts ...Option) *Conn {
	c := &Conn{
		host:           host,
		port:           port,
		reconnectDelay: 5 * time.Second,
		autoReconnect:  true,
		delim:          0x00,
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delimiter returns the frame delimiter byte.
func (c *Conn) Delimiter() byte { return c.delim }

func (c *Conn) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// OnData registers a frame observer. Observers run in registration order.
func (c *Conn) OnData(fn DataFunc) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.onData = append(c.onData, fn)
}

// OnStatus registers a liveness observer.
func (c *Conn) OnStatus(fn StatusFunc) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.onStatus = append(c.onStatus, fn)
}

func (c *Conn) emitData(frame []byte) {
	c.obsMu.RLock()
	observers := c.onData
	c.obsMu.RUnlock()
	for _, fn := range observers {
		if err := fn(frame); err != nil {
			slog.Warn("Data observer failed", "addr", c.addr(), "error", err)
		}
	}
}

func (c *Conn) emitStatus(connected bool) {
	c.obsMu.RLock()
	observers := c.onStatus
	c.obsMu.RUnlock()
	for _, fn := range observers {
		if err := fn(connected); err != nil {
			slog.Warn("Status observer failed", "addr", c.addr(), "error", err)
		}
	}
}

// Connected reports current liveness.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *Conn) readyChan() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Conn) socket() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock
}

func (c *Conn) markConnected(sock net.Conn) {
	c.mu.Lock()
	c.sock = sock
	close(c.ready)
	c.mu.Unlock()
}

func (c *Conn) markDisconnected() {
	c.mu.Lock()
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
	c.ready = make(chan struct{})
	c.mu.Unlock()
}

// Connect runs the retry loop until Disconnect is called or ctx ends. A
// successful connection is never "returned from": the read loop runs until
// the connection drops, then the next attempt follows after the configured
// delay. Connection-level errors feed the loop and are never raised.
func (c *Conn) Connect(ctx context.Context) {
	c.wg.Add(1)
	defer c.wg.Done()

	for !c.stopping.Load() && ctx.Err() == nil {
		slog.Info("Connecting", "addr", c.addr())
		dialer := net.Dialer{}
		sock, err := dialer.DialContext(ctx, "tcp", c.addr())
		if err == nil {
			c.markConnected(sock)
			slog.Info("Connected", "addr", c.addr())
			c.emitStatus(true)

			err = c.readLoop(ctx, sock)
			c.markDisconnected()
		}

		c.emitStatus(false)
		slog.Warn("Connection ended", "addr", c.addr(), "error", err)

		if c.stopping.Load() || !c.autoReconnect {
			return
		}
		slog.Info("Reconnecting", "addr", c.addr(), "delay", c.reconnectDelay)
		select {
		case <-time.After(c.reconnectDelay):
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// readLoop splits the inbound stream into frames and fans them out in
// arrival order. It takes the framing lock per read slice so correlated
// exchanges can interleave; a deadline expiry is a transient stall, not a
// disconnect.
func (c *Conn) readLoop(ctx context.Context, sock net.Conn) error {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		if c.stopping.Load() {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		c.exmu.Lock()
		sock.SetReadDeadline(time.Now().Add(readSlice))
		n, err := sock.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			buf = c.splitFrames(buf)
		}
		c.exmu.Unlock()

		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("read loop ended: %w", err)
		}
	}
}

// splitFrames emits every complete frame in buf, dropping empty ones, and
// returns the unconsumed remainder.
func (c *Conn) splitFrames(buf []byte) []byte {
	for {
		i := indexByte(buf, c.delim)
		if i < 0 {
			return buf
		}
		frame := buf[:i]
		buf = buf[i+1:]
		if len(frame) == 0 {
			continue
		}
		slog.Debug("Received frame", "addr", c.addr(), "size", len(frame))
		c.emitData(frame)
	}
}

func indexByte(b []byte, delim byte) int {
	for i, v := range b {
		if v == delim {
			return i
		}
	}
	return -1
}

// Send writes payload once the connection is established; there is no fast
// failure before connect. With waitForResponse it holds the framing channel
// for the whole exchange and returns the next non-empty frame, or ErrTimeout
// after timeout. Bytes past that frame are discarded.
func (c *Conn) Send(ctx context.Context, payload []byte, waitForResponse bool, timeout time.Duration) ([]byte, error) {
	select {
	case <-c.readyChan():
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}

	sock := c.socket()
	if sock == nil {
		return nil, ErrClosed
	}

	c.exmu.Lock()
	defer c.exmu.Unlock()

	if _, err := sock.Write(payload); err != nil {
		return nil, fmt.Errorf("writing payload: %w", err)
	}
	slog.Debug("Sent", "addr", c.addr(), "size", len(payload))

	if !waitForResponse {
		return nil, nil
	}
	return c.readFrame(sock, timeout)
}

// readFrame reads until one non-empty frame arrives or the deadline passes.
// Caller holds the framing lock.
func (c *Conn) readFrame(sock net.Conn, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			slog.Warn("Response timed out", "addr", c.addr())
			return nil, ErrTimeout
		}
		if remaining > readSlice {
			remaining = readSlice
		}

		sock.SetReadDeadline(time.Now().Add(remaining))
		n, err := sock.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				i := indexByte(buf, c.delim)
				if i < 0 {
					break
				}
				frame := buf[:i]
				buf = buf[i+1:]
				if len(frame) > 0 {
					return frame, nil
				}
			}
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return nil, fmt.Errorf("reading response: %w", err)
		}
	}
}

// Disconnect stops the retry loop, closes the socket and waits for the
// connect loop to finish. Safe to call more than once.
func (c *Conn) Disconnect() {
	if c.stopping.Swap(true) {
		c.wg.Wait()
		return
	}
	close(c.done)
	c.markDisconnected()
	c.wg.Wait()
	slog.Info("Disconnected", "addr", c.addr())
}
