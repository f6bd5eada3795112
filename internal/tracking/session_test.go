package tracking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ordertrack/internal/tracking"
	"ordertrack/internal/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a scriptable connection: tests push messages into it.
type fakeConn struct {
	mu           sync.Mutex
	messages     chan wire.Message
	subscribes   int
	subscribeErr error
	closed       bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan wire.Message, 16)}
}

func (c *fakeConn) Subscribe(_ context.Context, req wire.SubscribeRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.messages <- wire.Message{Kind: wire.KindSnapshot, Snapshot: &wire.OrderSnapshot{
		OrderID:   req.OrderID,
		Number:    "A-042",
		Status:    "pending",
		UpdatedAt: time.Now(),
	}}
	return nil
}

func (c *fakeConn) Messages() <-chan wire.Message { return c.messages }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) push(status string, delayed bool) {
	c.messages <- wire.Message{Kind: wire.KindStatusChanged, Snapshot: &wire.OrderSnapshot{
		OrderID:   "order-1",
		Number:    "A-042",
		Status:    status,
		UpdatedAt: time.Now(),
	}, Delayed: delayed}
}

func (c *fakeConn) subscribeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes
}

// fakeTransport hands out scripted connections, or fails.
type fakeTransport struct {
	mu         sync.Mutex
	conns      []*fakeConn
	connectErr error
	connects   int
}

func (t *fakeTransport) Connect(_ context.Context) (tracking.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	conn := newFakeConn()
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) connectCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

func (t *fakeTransport) latestConn() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

func fastConfig() tracking.Config {
	return tracking.Config{
		BaseDelay:      time.Millisecond,
		MaxDelay:       16 * time.Millisecond,
		MaxAttempts:    5,
		ConnectTimeout: time.Second,
	}
}

func newTestSession(transport tracking.Transport, cfg tracking.Config, inApp tracking.InAppListener) *tracking.Session {
	dispatcher := tracking.NewNotificationDispatcher(inApp, nil, nil, testLogger())
	return tracking.NewSession(
		transport,
		dispatcher,
		wire.SubscribeRequest{OrderID: "order-1", Role: "customer"},
		cfg,
		testLogger(),
	)
}

func waitForState(t *testing.T, s *tracking.Session, want tracking.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State() == want
	}, 2*time.Second, time.Millisecond, "session never reached state %s, stuck in %s", want, s.State())
}

func waitForStatus(t *testing.T, s *tracking.Session, status string) {
	t.Helper()
	require.Eventually(t, func() bool {
		last := s.LastKnownOrder()
		return last != nil && last.Status == status
	}, 2*time.Second, time.Millisecond, "session never observed status %q", status)
}

func TestSession_OpenConnectsAndSubscribes(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport, fastConfig(), nil)
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Connected)
	waitForStatus(t, s, "pending")
	assert.Equal(t, 1, transport.connectCount())
	assert.False(t, s.LastUpdateAt().IsZero())
}

func TestSession_ForwardsUpdatesToDispatcher(t *testing.T) {
	transport := &fakeTransport{}
	inApp := &inAppRecorder{}
	s := newTestSession(transport, fastConfig(), inApp.listener())
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Connected)
	transport.latestConn().push("confirmed", false)
	waitForStatus(t, s, "confirmed")

	// snapshot + update
	assert.Equal(t, 2, inApp.count())
}

func TestSession_ReconnectsAfterTransportLoss(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport, fastConfig(), nil)
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Connected)
	first := transport.latestConn()

	close(first.messages) // connection drops

	require.Eventually(t, func() bool {
		return transport.connectCount() == 2 && s.State() == tracking.Connected
	}, 2*time.Second, time.Millisecond)

	// fresh snapshot pulled on the new connection
	waitForStatus(t, s, "pending")
	assert.ErrorIs(t, s.LastError(), wire.ErrTransport)
}

func TestSession_FailsTerminallyAfterMaxAttempts(t *testing.T) {
	transport := &fakeTransport{connectErr: wire.NewTransportError("unreachable", nil)}
	s := newTestSession(transport, fastConfig(), nil)
	started := time.Now()
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Failed)

	// the immediate connect on open plus five backed-off reconnects
	assert.Equal(t, 6, transport.connectCount())
	assert.ErrorIs(t, s.LastError(), tracking.ErrSessionFailed)

	// all five delays of the doubling sequence were waited out
	// (1+2+4+8+16ms with the test config)
	assert.GreaterOrEqual(t, time.Since(started), 31*time.Millisecond)

	// terminal: no further attempts
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 6, transport.connectCount())
}

func TestSession_AttemptCounterResetsOnSuccessfulReconnect(t *testing.T) {
	transport := &fakeTransport{}
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	s := newTestSession(transport, cfg, nil)
	s.Open()
	defer s.Close()

	// drop the connection three times; each successful reconnect resets the
	// budget, so the session keeps coming back instead of failing terminally
	for drop := 1; drop <= 3; drop++ {
		expected := drop + 1
		waitForState(t, s, tracking.Connected)
		close(transport.latestConn().messages)
		require.Eventually(t, func() bool {
			return transport.connectCount() == expected && s.State() == tracking.Connected
		}, 2*time.Second, time.Millisecond)
	}

	assert.Equal(t, 4, transport.connectCount())
}

func TestSession_CloseCancelsPendingBackoffTimer(t *testing.T) {
	transport := &fakeTransport{connectErr: wire.NewTransportError("unreachable", nil)}
	cfg := fastConfig()
	cfg.BaseDelay = time.Hour // backoff the session would otherwise sleep in
	s := newTestSession(transport, cfg, nil)
	s.Open()

	require.Eventually(t, func() bool {
		return transport.connectCount() == 1
	}, 2*time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the pending backoff timer")
	}

	assert.Equal(t, tracking.Closed, s.State())
	assert.Equal(t, 1, transport.connectCount())
}

func TestSession_NoDeliveryAfterClose(t *testing.T) {
	transport := &fakeTransport{}
	inApp := &inAppRecorder{}
	s := newTestSession(transport, fastConfig(), inApp.listener())
	s.Open()
	waitForState(t, s, tracking.Connected)
	conn := transport.latestConn()

	s.Close()
	assert.Equal(t, tracking.Closed, s.State())

	before := inApp.count()
	conn.push("confirmed", false)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, inApp.count())
}

// refusingTransport connects fine but every handshake is rejected.
type refusingTransport struct{}

func (t *refusingTransport) Connect(_ context.Context) (tracking.Conn, error) {
	conn := newFakeConn()
	conn.subscribeErr = wire.NewTransportError("handshake rejected", nil)
	return conn, nil
}

func TestSession_SubscribeFailureCountsAsFailedAttempt(t *testing.T) {
	s := newTestSession(&refusingTransport{}, fastConfig(), nil)
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Failed)
	assert.ErrorIs(t, s.LastError(), tracking.ErrSessionFailed)
}

func TestSession_Refresh_RepullsSnapshotOnCurrentConnection(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSession(transport, fastConfig(), nil)
	s.Open()
	defer s.Close()

	waitForState(t, s, tracking.Connected)
	conn := transport.latestConn()
	require.Equal(t, 1, conn.subscribeCount())

	require.NoError(t, s.Refresh())
	require.Eventually(t, func() bool {
		return conn.subscribeCount() == 2
	}, 2*time.Second, time.Millisecond)

	// still the same connection
	assert.Equal(t, 1, transport.connectCount())
}
