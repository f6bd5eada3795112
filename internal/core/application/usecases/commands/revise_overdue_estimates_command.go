package commands

import (
	"errors"

	"ordertrack/internal/pkg/guard"
)

var ErrReviseOverdueEstimatesCommandIsNotConstructed = errors.New(
	"ReviseOverdueEstimatesCommand must be created via NewReviseOverdueEstimatesCommand constructor",
)

// ReviseOverdueEstimatesCommand triggers a sweep for orders whose ready-time
// estimate has already passed while they are still in preparation. It finds
// the first such order and pushes its estimate forward, flagging the update
// as delayed for subscribers.
//
// Example:
//
//	cmd := NewReviseOverdueEstimatesCommand()
//	handler := NewReviseOverdueEstimatesCommandHandler(uowFactory, calculator, publisher, logger)
//	err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrNoOverdueOrders) {
//	    // nothing to revise this tick
//	}
type ReviseOverdueEstimatesCommand struct {
	guard guard.ConstructorGuard
}

// NewReviseOverdueEstimatesCommand creates a new command to trigger the sweep.
func NewReviseOverdueEstimatesCommand() ReviseOverdueEstimatesCommand {
	return ReviseOverdueEstimatesCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *ReviseOverdueEstimatesCommand) Validate() error {
	return c.guard.Validate(
		ErrReviseOverdueEstimatesCommandIsNotConstructed,
	)
}
