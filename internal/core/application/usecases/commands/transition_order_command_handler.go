package commands

import (
	"context"
	"log/slog"
	"time"

	"ordertrack/internal/core/ports"
)

// TransitionOrderCommandHandler applies a status transition to an order.
//
// The aggregate enforces the adjacency table; on rejection the transaction is
// rolled back and the *order.InvalidTransitionError propagates untouched to
// the caller, which must not apply the mutation. On success the order and its
// audit record commit together, then the new snapshot is published to every
// tracking session subscribed to the order.
type TransitionOrderCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.UpdatePublisher
	logger     *slog.Logger
}

// NewTransitionOrderCommandHandler creates a handler for status transitions.
func NewTransitionOrderCommandHandler(
	uowFactory UoWFactory,
	publisher ports.UpdatePublisher,
	logger *slog.Logger,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "transition_order_handler"),
	}
}

// Handle processes the transition command.
// State-machine rejections are never retried here: they indicate a bug or
// stale data on the calling side. Publish failures are logged and swallowed;
// subscribers recover the current state through snapshot-on-subscribe.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := time.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	trackedOrder, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = trackedOrder.Transition(cmd.ToStatus(), cmd.Reason(), now); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, trackedOrder); err != nil {
		return err
	}

	transitionRepo := uow.TransitionRepository()
	for _, record := range trackedOrder.Transitions() {
		if err = transitionRepo.Add(ctx, record); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if err = h.publisher.Publish(ctx, snapshotOf(trackedOrder, now), false); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish status change",
			"order_id", trackedOrder.ID().String(),
			"status", trackedOrder.Status().String(),
			"error", err)
	}

	return nil
}
