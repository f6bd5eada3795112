package order

import (
	"errors"
	"fmt"

	"ordertrack/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with an explicit adjacency table so the rule
// set is independently testable and invalid jumps (e.g. Pending -> Ready) are
// rejected rather than silently accepted.
//
// State transitions:
//
//	Pending ──> Confirmed ──> Preparing ──> Ready ──> Completed
//	   │            │             │
//	   └────────────┴─────────────┴──> Cancelled
//
// Completed and Cancelled are terminal: no transition leaves them.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status when an order is first placed.
	// The order is waiting for the restaurant to accept it.
	Pending

	// Confirmed indicates the restaurant accepted the order.
	Confirmed

	// Preparing indicates the kitchen is working on the order.
	Preparing

	// Ready indicates the order is ready for pickup or handoff to delivery.
	Ready

	// Completed indicates the order was handed to the customer.
	// This is a final state with no further transitions allowed.
	Completed

	// Cancelled indicates the order was cancelled before it was ready.
	// This is a final state with no further transitions allowed.
	Cancelled
)

// ErrInvalidTransition is the sentinel for rejected status transitions.
// Use errors.Is against it to classify; the concrete *InvalidTransitionError
// carries the attempted from/to pair.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports a transition request that is not present in
// the adjacency table. It is never retried: it indicates a logic or data bug
// in the caller, not a transient condition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// allowedTransitions is the authoritative adjacency table.
// A transition is valid if and only if the target status appears in the set
// keyed by the source status.
func allowedTransitions() map[Status]map[Status]bool {
	return map[Status]map[Status]bool{
		Pending:   {Confirmed: true, Cancelled: true},
		Confirmed: {Preparing: true, Cancelled: true},
		Preparing: {Ready: true, Cancelled: true},
		Ready:     {Completed: true},
		Completed: {},
		Cancelled: {},
	}
}

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Confirmed: "confirmed",
		Preparing: "preparing",
		Ready:     "ready",
		Completed: "completed",
		Cancelled: "cancelled",
	}
}

// StatusFromString parses a status from its wire/persistence representation.
// Returns an error for unrecognized or "unknown" input.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the defined lifecycle states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := allowedTransitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the lowercase name of the status.
// Implements fmt.Stringer and is safe to call on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// CanTransitionTo reports whether the adjacency table permits moving to the
// target status, without performing the transition.
func (s Status) CanTransitionTo(to Status) bool {
	return allowedTransitions()[s][to]
}

// TransitionTo validates a move to the target status against the adjacency table.
//
// Returns:
//   - (to, nil) when the transition is permitted
//   - (Unknown, *InvalidTransitionError) when it is not
//
// The method has no side effects; Order.Transition uses it to enforce the
// state machine before mutating the aggregate.
func (s Status) TransitionTo(to Status) (Status, error) {
	if err := to.Validate(); err != nil {
		return Unknown, err
	}
	if !s.CanTransitionTo(to) {
		return Unknown, &InvalidTransitionError{From: s, To: to}
	}
	return to, nil
}
