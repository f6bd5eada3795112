package broker

import (
	"context"
	"sync"

	"ordertrack/internal/tracking"
	"ordertrack/internal/wire"
)

// LocalTransport connects tracking sessions to the broker without leaving the
// process. Used by embedded clients and by tests.
type LocalTransport struct {
	broker *Broker
}

// NewLocalTransport creates an in-process transport over the broker.
func NewLocalTransport(b *Broker) *LocalTransport {
	return &LocalTransport{broker: b}
}

// Connect establishes a new in-process connection.
func (t *LocalTransport) Connect(_ context.Context) (tracking.Conn, error) {
	return &localConn{
		broker: t.broker,
		out:    make(chan wire.Message),
		done:   make(chan struct{}),
	}, nil
}

// localConn is one in-process connection. A subscribe handshake maps to a
// broker subscription; re-subscribing (refresh) swaps the subscription and
// re-delivers a snapshot on the same connection.
type localConn struct {
	broker *Broker

	mu      sync.Mutex
	sub     *Subscription
	stop    chan struct{}
	stopped chan struct{}
	closed  bool

	out  chan wire.Message
	done chan struct{}
}

// Subscribe swaps in a fresh broker subscription. The replaced subscription's
// forwarder is stopped and joined before the new one starts, so a frame from
// the old subscription can never trail the fresh snapshot; whatever the old
// forwarder had not yet delivered is superseded by that snapshot.
func (c *localConn) Subscribe(ctx context.Context, req wire.SubscribeRequest) error {
	sub, err := c.broker.Subscribe(ctx, req)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.broker.Unsubscribe(sub)
		return wire.NewTransportError("connection closed", nil)
	}
	replaced := c.sub
	replacedStop := c.stop
	replacedStopped := c.stopped
	c.sub = sub
	c.stop = stop
	c.stopped = stopped
	c.mu.Unlock()

	if replaced != nil {
		c.broker.Unsubscribe(replaced)
		close(replacedStop)
		<-replacedStopped
	}

	go c.forward(sub, stop, stopped)
	return nil
}

func (c *localConn) Messages() <-chan wire.Message {
	return c.out
}

func (c *localConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	close(c.done)
	c.broker.Unsubscribe(sub)
	return nil
}

// forward pumps one broker subscription into the connection's stream. When
// the subscription dies while still current, the connection reports transport
// loss by closing its stream. A superseded forwarder drops its remaining
// frames instead of racing the replacement.
func (c *localConn) forward(sub *Subscription, stop, stopped chan struct{}) {
	defer close(stopped)

	for msg := range sub.Messages() {
		select {
		case <-stop:
			return
		default:
		}

		select {
		case c.out <- msg:
		case <-stop:
			return
		case <-c.done:
			c.broker.Unsubscribe(sub)
			return
		}
	}

	c.mu.Lock()
	lost := c.sub == sub && !c.closed
	if lost {
		c.closed = true
		c.sub = nil
	}
	c.mu.Unlock()

	if lost {
		close(c.out)
	}
}
