package commands

import (
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/pkg/guard"
)

var ErrReviseEstimateCommandIsNotConstructed = errors.New(
	"ReviseEstimateCommand must be created via NewReviseEstimateCommand constructor",
)

// ReviseEstimateCommand represents a request to overwrite the ready-time
// estimate of an order, e.g. when the kitchen reports a delay.
type ReviseEstimateCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	newReadyAt time.Time
	reason     string

	guard guard.ConstructorGuard
}

// NewReviseEstimateCommand creates a command to revise an order's estimate.
func NewReviseEstimateCommand(orderID kernel.UUID, newReadyAt time.Time, reason string) (ReviseEstimateCommand, error) {
	cmd := ReviseEstimateCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return ReviseEstimateCommand{}, err
	}
	if err := cmd.setNewReadyAt(newReadyAt); err != nil {
		return ReviseEstimateCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReviseEstimateCommand) Validate() error {
	return c.guard.Validate(ErrReviseEstimateCommandIsNotConstructed)
}

// OrderID returns the identifier of the order whose estimate changes.
func (c ReviseEstimateCommand) OrderID() kernel.UUID {
	return c.orderID
}

// NewReadyAt returns the revised ready-time estimate.
func (c ReviseEstimateCommand) NewReadyAt() time.Time {
	return c.newReadyAt
}

// Reason returns the reason for the revision.
func (c ReviseEstimateCommand) Reason() string {
	return c.reason
}

func (c *ReviseEstimateCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ReviseEstimateCommand) setNewReadyAt(newReadyAt time.Time) error {
	if newReadyAt.IsZero() {
		return errs.NewValueIsRequiredError("new ready time")
	}
	c.newReadyAt = newReadyAt
	return nil
}
