package order

import (
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/guard"
)

// ErrStatusTransitionIsNotConstructed is returned when a StatusTransition was not
// created through NewStatusTransition.
var ErrStatusTransitionIsNotConstructed = errors.New(
	"StatusTransition must be created via NewStatusTransition constructor",
)

// StatusTransition is an immutable audit record of one status change.
// It captures which order moved, from and to which status, when, and an
// optional human-readable reason. Records are never mutated after creation.
type StatusTransition struct {
	orderID    kernel.UUID
	fromStatus Status
	toStatus   Status
	occurredAt time.Time
	reason     string

	guard guard.ConstructorGuard
}

// NewStatusTransition creates an audit record for a validated status change.
// The transition itself must already have been accepted by the state machine;
// this constructor only validates record integrity, not the adjacency table.
func NewStatusTransition(
	orderID kernel.UUID,
	fromStatus, toStatus Status,
	occurredAt time.Time,
	reason string,
) (StatusTransition, error) {
	if err := errors.Join(
		orderID.Validate(),
		fromStatus.Validate(),
		toStatus.Validate(),
	); err != nil {
		return StatusTransition{}, err
	}

	return StatusTransition{
		orderID:    orderID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		occurredAt: occurredAt,
		reason:     reason,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// RestoreStatusTransition reconstructs a record from persistence without
// re-validating the adjacency table (historical records may predate rule changes).
func RestoreStatusTransition(
	orderID kernel.UUID,
	fromStatus, toStatus Status,
	occurredAt time.Time,
	reason string,
) StatusTransition {
	return StatusTransition{
		orderID:    orderID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		occurredAt: occurredAt,
		reason:     reason,
		guard:      guard.NewConstructorGuard(),
	}
}

// Validate ensures the record was created through a constructor.
func (t StatusTransition) Validate() error {
	return t.guard.Validate(ErrStatusTransitionIsNotConstructed)
}

// OrderID returns the identifier of the order that changed status.
func (t StatusTransition) OrderID() kernel.UUID {
	return t.orderID
}

// From returns the status the order moved out of.
func (t StatusTransition) From() Status {
	return t.fromStatus
}

// To returns the status the order moved into.
func (t StatusTransition) To() Status {
	return t.toStatus
}

// OccurredAt returns when the transition happened.
func (t StatusTransition) OccurredAt() time.Time {
	return t.occurredAt
}

// Reason returns the optional reason supplied with the transition.
// Empty when no reason was given.
func (t StatusTransition) Reason() string {
	return t.reason
}
