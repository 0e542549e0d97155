package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config parameterizes Manager's reconnect and backpressure policy
// (spec §4.7, §5).
type Config struct {
	DelayInitial      time.Duration // default 1s
	DelayMax          time.Duration // default 30s
	ConnectTimeout    time.Duration // default 10s
	OutboundHighWater int           // default 8
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		DelayInitial:      time.Second,
		DelayMax:          30 * time.Second,
		ConnectTimeout:    10 * time.Second,
		OutboundHighWater: 8,
	}
}

// Manager drives one endpoint's connection lifecycle: dial, reconnect
// with exponential backoff, serialize writes, and fan out status/latency
// callbacks. It owns no canvas or fingerprint-cache state; those belong
// to receiver/sender.
//
// Goroutine topology mirrors the reactor the concurrency model calls
// for: one fixed goroutine (run) owns the Conn and the outbound queue;
// Send only ever enqueues and signals, it never touches the Conn
// directly, so there is no concurrent writer.
type Manager struct {
	cfg  Config
	dial DialFunc

	queueMu sync.Mutex
	queue   *outboundQueue
	wake    chan struct{}

	statusMu sync.Mutex
	statusFn []func(Status)
	latFn    []func(time.Duration)
	msgFn    []func([]byte)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startedMu sync.Mutex
	started   bool
	stopped   bool
}

// New creates a Manager. dial is the seam a concrete transport binding
// (e.g. wstransport) fills in.
func New(cfg Config, dial DialFunc) *Manager {
	return &Manager{
		cfg:   cfg,
		dial:  dial,
		queue: newOutboundQueue(cfg.OutboundHighWater),
		wake:  make(chan struct{}, 1),
	}
}

// OnStatus registers a callback invoked on every status transition. Per
// spec §5, callbacks are invoked without holding any Manager lock, so a
// handler may safely call back into Manager.
func (m *Manager) OnStatus(fn func(Status)) {
	m.statusMu.Lock()
	m.statusFn = append(m.statusFn, fn)
	m.statusMu.Unlock()
}

// OnLatency registers a callback invoked whenever the receiver side
// reports a frame's end-to-end latency via ReportLatency.
func (m *Manager) OnLatency(fn func(time.Duration)) {
	m.statusMu.Lock()
	m.latFn = append(m.latFn, fn)
	m.statusMu.Unlock()
}

// OnMessage registers a callback invoked with every inbound message read
// off the active Conn, in receive order. Used by the receiving side of a
// session; a sender-only Manager need not register one.
func (m *Manager) OnMessage(fn func([]byte)) {
	m.statusMu.Lock()
	m.msgFn = append(m.msgFn, fn)
	m.statusMu.Unlock()
}

func (m *Manager) emitMessage(msg []byte) {
	m.statusMu.Lock()
	fns := make([]func([]byte), len(m.msgFn))
	copy(fns, m.msgFn)
	m.statusMu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

// ReportLatency feeds one observed frame latency (now_ms - ts_ms,
// computed by the caller per spec §4.7) to every OnLatency callback.
func (m *Manager) ReportLatency(d time.Duration) {
	m.statusMu.Lock()
	fns := make([]func(time.Duration), len(m.latFn))
	copy(fns, m.latFn)
	m.statusMu.Unlock()
	for _, fn := range fns {
		fn(d)
	}
}

func (m *Manager) emitStatus(s Status) {
	m.statusMu.Lock()
	fns := make([]func(Status), len(m.statusFn))
	copy(fns, m.statusFn)
	m.statusMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Start begins the reconnect loop. It returns immediately; connection
// attempts happen on an internal goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return nil
	}
	m.started = true

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run()
	return nil
}

// Stop is idempotent and prompt (spec §5): it cancels the reactor
// goroutine, waits for it to release the Conn, and transitions to
// Disconnected.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	if !m.started || m.stopped {
		m.startedMu.Unlock()
		return nil
	}
	m.stopped = true
	m.startedMu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.emitStatus(StatusDisconnected)
	return nil
}

// Send encodes no framing of its own: msg must already be a wire-encoded
// message (its first byte is the wire.Kind), so the outbound queue can
// apply spec §4.7's kind-aware drop policy.
func (m *Manager) Send(msg []byte) error {
	m.startedMu.Lock()
	stopped := m.stopped
	m.startedMu.Unlock()
	if stopped {
		return ErrTransportClosed
	}

	m.queueMu.Lock()
	m.queue.Push(msg)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

func (m *Manager) run() {
	defer m.wg.Done()
	b := newBackoff(m.cfg.DelayInitial, m.cfg.DelayMax)

	for {
		if m.ctx.Err() != nil {
			return
		}

		m.emitStatus(StatusConnecting)
		conn, err := m.dialWithTimeout()
		if err != nil {
			slog.Warn("transport: connect failed", "error", err)
			m.emitStatus(StatusFailed)
			delay := b.Next()
			select {
			case <-time.After(delay):
				continue
			case <-m.ctx.Done():
				return
			}
		}

		b.Reset()
		m.emitStatus(StatusConnected)
		m.serve(conn)

		if m.ctx.Err() != nil {
			return
		}
		m.emitStatus(StatusDisconnected)
	}
}

func (m *Manager) dialWithTimeout() (Conn, error) {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.ConnectTimeout)
	defer cancel()
	conn, err := m.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrConnectTimeout
		}
		return nil, err
	}
	return conn, nil
}

// serve drains the outbound queue onto conn and, concurrently, reads
// inbound messages off conn until the connection fails or the Manager is
// stopped. It returns once either direction fails so run can transition
// to reconnecting; the other direction's goroutine is joined before
// returning so conn is never touched after serve returns.
func (m *Manager) serve(conn Conn) {
	done := make(chan struct{})
	var readErr error
	var readWG sync.WaitGroup
	readWG.Add(1)
	go func() {
		defer readWG.Done()
		for {
			msg, err := conn.Recv(m.ctx)
			if err != nil {
				readErr = err
				close(done)
				return
			}
			m.emitMessage(msg)
		}
	}()

	writeLoop := func() {
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-done:
				return
			case <-m.wake:
			}

			for {
				m.queueMu.Lock()
				msg, ok := m.queue.Pop()
				m.queueMu.Unlock()
				if !ok {
					break
				}
				if err := conn.Send(m.ctx, msg); err != nil {
					slog.Warn("transport: send failed", "error", err)
					return
				}
			}

			if m.ctx.Err() != nil {
				return
			}
		}
	}
	writeLoop()

	conn.Close()
	readWG.Wait()
	if readErr != nil && m.ctx.Err() == nil {
		slog.Warn("transport: recv failed", "error", readErr)
	}
}
