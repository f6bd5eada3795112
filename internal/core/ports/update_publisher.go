package ports

import (
	"context"

	"ordertrack/internal/wire"
)

// UpdatePublisher relays validated order snapshots to whoever is tracking the
// order. Implementations never re-validate lifecycle rules: they relay what
// the state machine already accepted.
//
// Publishing happens after the owning transaction commits; a failed publish
// must not fail the order mutation (subscribers recover by re-pulling the
// current snapshot on reconnect).
type UpdatePublisher interface {
	// Publish delivers the snapshot to every subscriber of the order.
	// Delivery is at-least-once and FIFO per subscriber. The delayed flag
	// marks a revision that slipped past the delay tolerance.
	Publish(ctx context.Context, snapshot wire.OrderSnapshot, delayed bool) error
}
