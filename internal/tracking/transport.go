// Package tracking implements the client side of order tracking: a session
// that connects to the update channel, keeps a read cache of the order, and
// feeds every observed change to the notification dispatcher.
package tracking

import (
	"context"

	"ordertrack/internal/wire"
)

// Conn is one established connection to the update channel.
type Conn interface {
	// Subscribe issues the subscription handshake. The channel answers with a
	// snapshot message; re-issuing the handshake on a live connection re-pulls
	// the current snapshot.
	Subscribe(ctx context.Context, req wire.SubscribeRequest) error

	// Messages returns the inbound message stream. The channel closes when
	// the connection is lost or closed.
	Messages() <-chan wire.Message

	// Close releases the connection.
	Close() error
}

// Transport establishes connections to the update channel. Implementations
// exist in-process (broker) and over HTTP/SSE.
type Transport interface {
	Connect(ctx context.Context) (Conn, error)
}
