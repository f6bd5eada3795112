package tracking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ordertrack/internal/wire"
)

// State is the observable lifecycle state of a tracking session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// ErrSessionFailed is surfaced after the reconnect budget is exhausted.
// The consumer decides whether to retry manually; the session never does.
var ErrSessionFailed = errors.New("tracking session failed after max reconnect attempts")

// Config bounds the session's reconnect behavior. MaxAttempts counts
// backed-off reconnects only; the immediate connect that precedes them is
// always free, so every delay of the doubling sequence gets its turn.
type Config struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxAttempts    int
	ConnectTimeout time.Duration
}

// DefaultConfig returns the standard reconnect policy.
func DefaultConfig() Config {
	return Config{
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		MaxAttempts:    5,
		ConnectTimeout: 10 * time.Second,
	}
}

// backoffDelay returns the wait before reconnect attempt number attempt,
// counted from zero: base, 2*base, 4*base, capped at maxDelay.
func backoffDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Session manages one long-lived subscription for one tracked order: connect,
// subscribe, receive updates, reconnect on failure with bounded exponential
// backoff, and feed every observed change to the notification dispatcher.
//
// The session owns no authoritative data; LastKnownOrder is a read cache.
type Session struct {
	transport  Transport
	dispatcher *NotificationDispatcher
	req        wire.SubscribeRequest
	cfg        Config
	logger     *slog.Logger

	mu             sync.Mutex
	state          State
	conn           Conn
	lastKnownOrder *wire.OrderSnapshot
	lastError      error
	lastUpdateAt   time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	opened    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewSession creates a tracking session for one order. The session does
// nothing until Open is called.
func NewSession(
	transport Transport,
	dispatcher *NotificationDispatcher,
	req wire.SubscribeRequest,
	cfg Config,
	logger *slog.Logger,
) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		transport:  transport,
		dispatcher: dispatcher,
		req:        req,
		cfg:        cfg,
		logger:     logger.With("component", "tracking_session", "order_id", req.OrderID),
		state:      Disconnected,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Open starts the session's event loop: it immediately attempts to connect
// and subscribe. Open returns without blocking. Calling Open twice is a no-op.
func (s *Session) Open() {
	if !s.opened.CompareAndSwap(false, true) {
		return
	}
	go s.run()
}

// Close terminates the session. Any pending reconnect timer is cancelled and
// no update is delivered once Close returns. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
	})
	if s.opened.Load() {
		<-s.done
	} else {
		s.setState(Closed)
	}
}

// Refresh re-issues the subscribe handshake on the current connection,
// re-pulling the current snapshot without tearing the session down.
// A no-op unless connected.
func (s *Session) Refresh() error {
	s.mu.Lock()
	conn := s.conn
	state := s.state
	s.mu.Unlock()

	if state != Connected || conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	defer cancel()
	return conn.Subscribe(ctx, s.req)
}

// RequestNotificationPermission asks the push channel for permission.
func (s *Session) RequestNotificationPermission(ctx context.Context) bool {
	return s.dispatcher.RequestPermission(ctx)
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastKnownOrder returns the most recently received snapshot, or nil before
// the first one arrives.
func (s *Session) LastKnownOrder() *wire.OrderSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastKnownOrder == nil {
		return nil
	}
	snapshot := *s.lastKnownOrder
	return &snapshot
}

// LastError returns the most recent transport or channel error.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// LastUpdateAt returns when the last message arrived.
func (s *Session) LastUpdateAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdateAt
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

func (s *Session) run() {
	defer close(s.done)

	attempt := 0
	for {
		if s.ctx.Err() != nil {
			s.setState(Closed)
			return
		}

		s.setState(Connecting)
		conn, err := s.connect()
		if err != nil {
			if s.ctx.Err() != nil {
				s.setState(Closed)
				return
			}

			s.setError(err)
			// the immediate connect on open (or right after a drop) is
			// free; only backed-off reconnects count toward the budget
			if attempt >= s.cfg.MaxAttempts {
				s.logger.Error("reconnect budget exhausted", "attempts", attempt, "error", err)
				s.setError(ErrSessionFailed)
				s.setState(Failed)
				return
			}

			delay := backoffDelay(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
			attempt++
			s.logger.Warn("connect failed, backing off",
				"attempt", attempt, "delay", delay, "error", err)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-s.ctx.Done():
				timer.Stop()
				s.setState(Closed)
				return
			}
			continue
		}

		attempt = 0
		s.mu.Lock()
		s.conn = conn
		s.state = Connected
		s.mu.Unlock()

		if !s.receive(conn) {
			_ = conn.Close()
			s.setState(Closed)
			return
		}

		// transport lost; loop back into reconnect
		_ = conn.Close()
		s.mu.Lock()
		s.conn = nil
		s.state = Disconnected
		s.mu.Unlock()
	}
}

// connect establishes the transport and performs the subscribe handshake
// within one bounded timeout. A timeout counts as a failed attempt.
func (s *Session) connect() (Conn, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	defer cancel()

	conn, err := s.transport.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if err = conn.Subscribe(ctx, s.req); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// receive pumps messages until the connection drops or the session closes.
// Returns false when the session was closed.
func (s *Session) receive(conn Conn) bool {
	for {
		select {
		case msg, open := <-conn.Messages():
			if !open {
				s.setError(wire.NewTransportError("connection lost", nil))
				return true
			}
			s.handle(msg)
		case <-s.ctx.Done():
			return false
		}
	}
}

func (s *Session) handle(msg wire.Message) {
	switch msg.Kind {
	case wire.KindSnapshot, wire.KindStatusChanged:
		if msg.Snapshot == nil {
			return
		}

		s.mu.Lock()
		snapshot := *msg.Snapshot
		s.lastKnownOrder = &snapshot
		s.lastUpdateAt = time.Now()
		s.mu.Unlock()

		s.dispatcher.Notify(s.ctx, snapshot, msg.Delayed)
	case wire.KindError:
		s.setError(wire.NewTransportError(msg.Error, nil))
	}
}
