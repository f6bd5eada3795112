// Package wire defines the transport-agnostic message contract between the
// update channel and tracking sessions. Any transport (in-process, SSE, queue)
// carries exactly these message kinds.
package wire

import (
	"errors"
	"fmt"
	"time"
)

// MessageKind enumerates the three message kinds of the tracking contract.
type MessageKind string

const (
	// KindSnapshot carries the full current order state. Sent once,
	// immediately, on every successful subscribe.
	KindSnapshot MessageKind = "snapshot"

	// KindStatusChanged carries an order status change, with an optionally
	// revised ready-time estimate.
	KindStatusChanged MessageKind = "statusChanged"

	// KindError carries a channel-level error description.
	KindError MessageKind = "error"
)

// OrderSnapshot is the read projection of an order that travels over the
// tracking channel. It is produced from the authoritative aggregate after a
// validated transition; consumers never re-derive lifecycle rules from it.
type OrderSnapshot struct {
	OrderID          string     `json:"order_id"`
	Number           string     `json:"number"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	Phone            string     `json:"phone,omitempty"`
	EstimatedReadyAt *time.Time `json:"estimated_ready_at,omitempty"`
	ActualReadyAt    *time.Time `json:"actual_ready_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Message is one frame on the tracking channel.
type Message struct {
	Kind MessageKind `json:"kind"`

	// Snapshot is set for KindSnapshot and KindStatusChanged.
	Snapshot *OrderSnapshot `json:"snapshot,omitempty"`

	// Delayed marks a KindStatusChanged frame whose estimate slipped past
	// the delay tolerance, so clients surface a delay notice.
	Delayed bool `json:"delayed,omitempty"`

	// Error is set for KindError.
	Error string `json:"error,omitempty"`
}

// SubscribeRequest is the subscription handshake: which order the session
// wants updates for and what role the session plays (e.g. "customer").
type SubscribeRequest struct {
	OrderID string `json:"order_id"`
	Role    string `json:"role"`
}

// ErrTransport marks connect/send failures on the tracking channel. They are
// retried with bounded backoff by the session, never by the channel itself.
var ErrTransport = errors.New("transport error")

// TransportError is a connect or send failure with its underlying cause.
type TransportError struct {
	Message string
	Cause   error
}

// NewTransportError creates a TransportError. Cause may be nil.
func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{Message: message, Cause: cause}
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrTransport, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrTransport, e.Message)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}
