// Package broker implements the in-process update channel: one producer of
// order snapshots fans out to every tracking session subscribed to that order.
//
// The subscriber set is snapshot-iterated: a publish in flight is unaffected
// by concurrent subscribe and unsubscribe calls. Delivery is at-least-once and
// FIFO per subscriber; ordering across subscribers is not guaranteed.
package broker

import (
	"context"
	"log/slog"
	"sync"

	"ordertrack/internal/wire"
)

// DefaultSubscriberBuffer bounds how many undelivered updates one subscriber
// may accumulate before the broker drops it. A dropped subscriber observes a
// closed channel and recovers through reconnect plus snapshot-on-subscribe.
const DefaultSubscriberBuffer = 16

// SnapshotProvider supplies the current state of an order when the broker has
// no cached snapshot yet, e.g. for subscriptions arriving after a restart.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, orderID string) (wire.OrderSnapshot, error)
}

// Subscription is one subscriber's handle on an order's update stream.
// The first message on the channel is always a snapshot of the current state.
type Subscription struct {
	orderID  string
	role     string
	messages chan wire.Message
	once     sync.Once
}

// Messages returns the subscriber's update stream. The channel is closed on
// unsubscribe, on broker shutdown, or when the subscriber falls too far behind.
func (s *Subscription) Messages() <-chan wire.Message {
	return s.messages
}

// OrderID returns the order this subscription follows.
func (s *Subscription) OrderID() string {
	return s.orderID
}

func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.messages)
	})
}

// Broker keeps a per-order set of subscribers and the latest published
// snapshot of every order that has seen at least one publish.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	latest      map[string]wire.OrderSnapshot
	provider    SnapshotProvider
	bufferSize  int
	closed      bool
	logger      *slog.Logger
}

// NewBroker creates an update channel broker. The provider may be nil; then
// only orders with a cached snapshot accept subscriptions.
func NewBroker(provider SnapshotProvider, logger *slog.Logger) *Broker {
	return &Broker{
		subscribers: make(map[string]map[*Subscription]struct{}),
		latest:      make(map[string]wire.OrderSnapshot),
		provider:    provider,
		bufferSize:  DefaultSubscriberBuffer,
		logger:      logger.With("component", "broker"),
	}
}

// Subscribe registers a new subscriber for the order and immediately delivers
// the current snapshot as the first message, so a session reconnecting
// mid-lifecycle is never stuck with a stale view.
func (b *Broker) Subscribe(ctx context.Context, req wire.SubscribeRequest) (*Subscription, error) {
	b.mu.RLock()
	snapshot, cached := b.latest[req.OrderID]
	b.mu.RUnlock()

	if !cached {
		if b.provider == nil {
			return nil, wire.NewTransportError("no snapshot available for order "+req.OrderID, nil)
		}
		loaded, err := b.provider.Snapshot(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		snapshot = loaded
	}

	sub := &Subscription{
		orderID:  req.OrderID,
		role:     req.Role,
		messages: make(chan wire.Message, b.bufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, wire.NewTransportError("broker is shut down", nil)
	}

	// a publish may have landed while the provider was queried
	if fresher, ok := b.latest[req.OrderID]; ok && !fresher.UpdatedAt.Before(snapshot.UpdatedAt) {
		snapshot = fresher
	}

	if b.subscribers[req.OrderID] == nil {
		b.subscribers[req.OrderID] = make(map[*Subscription]struct{})
	}
	b.subscribers[req.OrderID][sub] = struct{}{}

	sub.messages <- wire.Message{Kind: wire.KindSnapshot, Snapshot: &snapshot}

	return sub, nil
}

// Unsubscribe removes the subscription and closes its channel. Unsubscribing
// a handle that is not currently subscribed is a no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subscribers[sub.orderID]
	if !ok {
		return
	}
	if _, subscribed := set[sub]; !subscribed {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(b.subscribers, sub.orderID)
	}
	sub.close()
}

// Publish caches the snapshot as the order's latest state and delivers a
// statusChanged message to every current subscriber of the order. Subscribers
// that cannot keep up are dropped; they recover via reconnect.
func (b *Broker) Publish(_ context.Context, snapshot wire.OrderSnapshot, delayed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return wire.NewTransportError("broker is shut down", nil)
	}

	b.latest[snapshot.OrderID] = snapshot

	msg := wire.Message{Kind: wire.KindStatusChanged, Snapshot: &snapshot, Delayed: delayed}
	for sub := range b.subscribers[snapshot.OrderID] {
		select {
		case sub.messages <- msg:
		default:
			b.logger.Warn("dropping slow subscriber",
				"order_id", snapshot.OrderID,
				"role", sub.role)
			delete(b.subscribers[snapshot.OrderID], sub)
			sub.close()
		}
	}

	return nil
}

// SubscriberCount reports how many subscribers currently follow the order.
func (b *Broker) SubscriberCount(orderID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[orderID])
}

// Close shuts the broker down and closes every subscription channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for orderID, set := range b.subscribers {
		for sub := range set {
			sub.close()
		}
		delete(b.subscribers, orderID)
	}
}
