package commands

import (
	"errors"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand represents a request from order management to move an
// order to a new lifecycle status. The state machine decides whether the move
// is legal; the command only carries a well-formed request.
//
// Example:
//
//	cmd, err := commands.NewTransitionOrderCommand(orderID, "confirmed", "")
//	if err != nil {
//	    return err
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    if errors.Is(err, order.ErrInvalidTransition) {
//	        // programming/data error on the caller's side, never retried
//	    }
//	    return err
//	}
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	toStatus order.Status
	reason   string

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a command to request a status transition.
// The target status must parse to a defined lifecycle state; whether the
// transition is allowed from the order's current status is decided by the
// aggregate when the command is handled.
func NewTransitionOrderCommand(orderID kernel.UUID, toStatus string, reason string) (TransitionOrderCommand, error) {
	cmd := TransitionOrderCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return TransitionOrderCommand{}, err
	}
	if err := cmd.setToStatus(toStatus); err != nil {
		return TransitionOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the order to transition.
func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ToStatus returns the requested target status.
func (c TransitionOrderCommand) ToStatus() order.Status {
	return c.toStatus
}

// Reason returns the optional reason attached to the transition.
func (c TransitionOrderCommand) Reason() string {
	return c.reason
}

func (c *TransitionOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *TransitionOrderCommand) setToStatus(toStatus string) error {
	parsed, err := order.StatusFromString(toStatus)
	if err != nil {
		return err
	}
	c.toStatus = parsed
	return nil
}
