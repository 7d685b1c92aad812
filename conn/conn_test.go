package conn

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func listen(t *testing.T) (net.Listener, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return ln, host, port
}

func acceptOne(t *testing.T, ln net.Listener, into chan net.Conn) {
	t.Helper()
	go func() {
		sock, err := ln.Accept()
		if err != nil {
			return
		}
		into <- sock
	}()
}

func TestFramingChunkingInvariance(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	acceptOne(t, ln, accepted)

	c := New(host, port, WithReconnectDelay(50*time.Millisecond))
	frames := make(chan string, 16)
	c.OnData(func(b []byte) error {
		frames <- string(b)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Connect(ctx)

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
	}
	defer server.Close()

	// Three frames, delivered across uneven writes with empty frames mixed in.
	for _, chunk := range []string{"he", "llo\x00wor", "ld\x00\x00x", "yz\x00"} {
		_, err := server.Write([]byte(chunk))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	for _, want := range []string{"hello", "world", "xyz"} {
		select {
		case got := <-frames:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %q not delivered", want)
		}
	}

	c.Disconnect()
}

func TestReconnectAfterDrop(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 4)
	acceptOne(t, ln, accepted)

	c := New(host, port, WithReconnectDelay(50*time.Millisecond))
	statuses := make(chan bool, 16)
	c.OnStatus(func(connected bool) error {
		statuses <- connected
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Connect(ctx)

	var first net.Conn
	select {
	case first = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
	}
	assert.True(t, <-statuses)

	// Drop the connection server-side; exactly one reconnect should follow.
	acceptOne(t, ln, accepted)
	first.Close()

	assert.False(t, <-statuses)

	var second net.Conn
	select {
	case second = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnect attempt observed")
	}
	assert.True(t, <-statuses)
	defer second.Close()

	// After Disconnect, no further attempts occur.
	c.Disconnect()
	acceptOne(t, ln, accepted)
	select {
	case <-accepted:
		t.Fatal("unexpected connection attempt after Disconnect")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSendWaitForResponse(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	acceptOne(t, ln, accepted)

	c := New(host, port, WithReconnectDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Connect(ctx)

	server := <-accepted
	defer server.Close()

	// Echo server: read one frame, answer with one frame.
	go func() {
		buf := make([]byte, 256)
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		_ = n
		server.Write([]byte("reply\x00"))
	}()

	payload := append([]byte(`{"jsonrpc":"2.0","method":"NoOp"}`), 0)
	frame, err := c.Send(ctx, payload, true, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "reply", string(frame))

	c.Disconnect()
}

func TestSendTimeoutIsNotAnError(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	acceptOne(t, ln, accepted)

	c := New(host, port, WithReconnectDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Connect(ctx)

	server := <-accepted
	defer server.Close()

	payload := append([]byte("ping"), 0)
	frame, err := c.Send(ctx, payload, true, 200*time.Millisecond)
	assert.Nil(t, frame)
	assert.True(t, errors.Is(err, ErrTimeout), "want ErrTimeout, got %v", err)

	c.Disconnect()
}

func TestSendBlocksUntilConnected(t *testing.T) {
	c := New("127.0.0.1", 1, WithAutoReconnect(false))
	defer c.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, []byte("x"), false, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisconnectIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, host, port := listen(t)
	accepted := make(chan net.Conn, 1)
	acceptOne(t, ln, accepted)

	c := New(host, port, WithReconnectDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	go c.Connect(ctx)

	server := <-accepted

	c.Disconnect()
	c.Disconnect()
	cancel()
	server.Close()
	ln.Close()
	time.Sleep(50 * time.Millisecond)
}
