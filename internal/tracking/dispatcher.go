package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ordertrack/internal/core/ports"
	"ordertrack/internal/wire"
)

// Notification channels, in order of preference.
const (
	channelInApp = "in_app"
	channelPush  = "push"
	channelSMS   = "sms"
)

// statusReady is the wire-level status that triggers the SMS guarantee.
const statusReady = "ready"

// InAppListener receives the in-app signal for every newly observed change.
type InAppListener func(snapshot wire.OrderSnapshot, delayed bool)

// NotificationDispatcher emits channel-specific signals for observed status
// changes, exactly once per (order, status) pair on each channel for the
// lifetime of one tracking session.
//
// The update channel delivers at-least-once, and every reconnect replays a
// snapshot, so duplicate observations are normal; the dedupe set absorbs them.
// The dedupe set is never shared across sessions: two browser tabs tracking
// the same order each notify independently.
type NotificationDispatcher struct {
	mu          sync.Mutex
	emitted     map[string]struct{}
	pushGranted bool

	inApp  InAppListener
	push   ports.PushSender
	sms    ports.SMSSender
	logger *slog.Logger
}

// NewNotificationDispatcher creates a dispatcher for one tracking session.
// The push and sms senders may be nil; those channels are then skipped.
func NewNotificationDispatcher(
	inApp InAppListener,
	push ports.PushSender,
	sms ports.SMSSender,
	logger *slog.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		emitted: make(map[string]struct{}),
		inApp:   inApp,
		push:    push,
		sms:     sms,
		logger:  logger.With("component", "notification_dispatcher"),
	}
}

// RequestPermission asks the push channel for permission. Refusal degrades the
// push channel; in-app and SMS still function.
func (d *NotificationDispatcher) RequestPermission(ctx context.Context) bool {
	if d.push == nil {
		return false
	}

	granted, err := d.push.RequestPermission(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "push permission request failed", "error", err)
		granted = false
	}

	d.mu.Lock()
	d.pushGranted = granted
	d.mu.Unlock()
	return granted
}

// Notify emits signals for one observed status. Calling it again with the
// same (order, status) pair is a no-op per channel. SMS fires only on ready
// and its failure never fails the call.
func (d *NotificationDispatcher) Notify(ctx context.Context, snapshot wire.OrderSnapshot, delayed bool) {
	dedupeKey := snapshot.OrderID + snapshot.Status
	if delayed {
		// a delay notice is a distinct user-visible event even though the
		// status itself has not moved; keyed by the revised estimate so a
		// second slip of the same status notifies again while replays of
		// one revision stay deduped
		dedupeKey += ":delayed"
		if snapshot.EstimatedReadyAt != nil {
			dedupeKey += ":" + snapshot.EstimatedReadyAt.UTC().Format(time.RFC3339Nano)
		}
	}

	if d.inApp != nil && d.markEmitted(dedupeKey, channelInApp) {
		d.inApp(snapshot, delayed)
	}

	if d.push != nil && d.pushPermitted() && d.markEmitted(dedupeKey, channelPush) {
		title := fmt.Sprintf("Order %s", snapshot.Number)
		body := fmt.Sprintf("Your order is now %s", snapshot.Status)
		if err := d.push.Send(ctx, title, body, dedupeKey); err != nil {
			d.logger.WarnContext(ctx, "push delivery failed",
				"order_id", snapshot.OrderID,
				"status", snapshot.Status,
				"error", err)
		}
	}

	if d.sms != nil && snapshot.Status == statusReady && snapshot.Phone != "" &&
		d.markEmitted(dedupeKey, channelSMS) {
		message := fmt.Sprintf("Your order %s is ready for pickup!", snapshot.Number)
		if err := d.sms.Send(ctx, snapshot.Phone, message); err != nil {
			d.logger.ErrorContext(ctx, "sms delivery failed",
				"order_id", snapshot.OrderID,
				"phone", snapshot.Phone,
				"error", err)
		}
	}
}

func (d *NotificationDispatcher) pushPermitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushGranted
}

// markEmitted records the key for the channel; reports false when the pair
// was already emitted.
func (d *NotificationDispatcher) markEmitted(dedupeKey, channel string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dedupeKey + ":" + channel
	if _, seen := d.emitted[key]; seen {
		return false
	}
	d.emitted[key] = struct{}{}
	return true
}
