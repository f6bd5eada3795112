package ports

import "context"

// SMSSender delivers a text message to a customer phone number. SMS is the
// channel-independent guarantee for the ready notification: it reaches the
// customer even when no tracking session is open.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// PushSender delivers push notifications through the host platform.
// The platform may refuse permission; that is a degraded-channel condition,
// not an error.
type PushSender interface {
	// RequestPermission asks the host platform for push permission.
	RequestPermission(ctx context.Context) (bool, error)

	// Send delivers one push notification. The dedupe tag lets the platform
	// collapse repeated notifications for the same event.
	Send(ctx context.Context, title, body, dedupeTag string) error
}
