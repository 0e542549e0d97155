package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (c *fakeConn) Send(ctx context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrTransportClosed
	}
	c.sent = append(c.sent, append([]byte(nil), msg...))
	return nil
}

func (c *fakeConn) Recv(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestManagerSendsQueuedFramesOnceConnected(t *testing.T) {
	conn := &fakeConn{}
	dial := func(ctx context.Context) (Conn, error) { return conn, nil }
	m := New(DefaultConfig(), dial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	if err := m.Send([]byte{0x00, 1, 2, 3}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, time.Second, func() bool { return conn.sentCount() == 1 })
}

func TestManagerStatusTransitionsOnConnect(t *testing.T) {
	conn := &fakeConn{}
	dial := func(ctx context.Context) (Conn, error) { return conn, nil }
	m := New(DefaultConfig(), dial)

	var mu sync.Mutex
	var seen []Status
	m.OnStatus(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	})
	cancel()
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 || seen[0] != StatusConnecting || seen[1] != StatusConnected {
		t.Fatalf("status sequence = %v, want [Connecting Connected ...]", seen)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	dial := func(ctx context.Context) (Conn, error) { return conn, nil }
	m := New(DefaultConfig(), dial)

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := m.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestManagerSendAfterStopFails(t *testing.T) {
	conn := &fakeConn{}
	dial := func(ctx context.Context) (Conn, error) { return conn, nil }
	m := New(DefaultConfig(), dial)
	m.Start(context.Background())
	m.Stop()

	if err := m.Send([]byte{0x00}); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("Send after Stop = %v, want ErrTransportClosed", err)
	}
}

type echoConn struct {
	mu   sync.Mutex
	in   chan []byte
	done chan struct{}
}

func newEchoConn() *echoConn { return &echoConn{in: make(chan []byte, 4), done: make(chan struct{})} }

func (c *echoConn) Send(ctx context.Context, msg []byte) error { return nil }

func (c *echoConn) Recv(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-c.in:
		return msg, nil
	case <-c.done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *echoConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}

func TestManagerOnMessageDeliversInboundFrames(t *testing.T) {
	conn := newEchoConn()
	dial := func(ctx context.Context) (Conn, error) { return conn, nil }
	m := New(DefaultConfig(), dial)

	ch := make(chan []byte, 1)
	m.OnMessage(func(msg []byte) { ch <- msg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	conn.in <- []byte{0x02, 0xFF}

	select {
	case got := <-ch:
		if len(got) != 2 || got[0] != 0x02 || got[1] != 0xFF {
			t.Fatalf("got %v, want [0x02 0xFF]", got)
		}
	case <-time.After(time.Second):
		t.Fatal("OnMessage callback never invoked")
	}
}

func TestManagerReportLatencyInvokesCallbacks(t *testing.T) {
	m := New(DefaultConfig(), func(ctx context.Context) (Conn, error) { return &fakeConn{}, nil })
	ch := make(chan time.Duration, 1)
	m.OnLatency(func(d time.Duration) { ch <- d })

	m.ReportLatency(42 * time.Millisecond)

	select {
	case d := <-ch:
		if d != 42*time.Millisecond {
			t.Fatalf("latency = %v, want 42ms", d)
		}
	case <-time.After(time.Second):
		t.Fatal("OnLatency callback never invoked")
	}
}
