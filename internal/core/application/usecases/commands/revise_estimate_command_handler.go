package commands

import (
	"context"
	"log/slog"
	"time"

	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
)

// ReviseEstimateCommandHandler overwrites an order's ready-time estimate.
//
// Revisions within the delay tolerance are silent updates: subscribers see the
// new estimate on the next snapshot but receive no delay notification. Only
// when the revised time slips past the tolerance is the published update
// flagged as delayed.
type ReviseEstimateCommandHandler struct {
	uowFactory UoWFactory
	calculator services.EstimateCalculator
	publisher  ports.UpdatePublisher
	logger     *slog.Logger
}

// NewReviseEstimateCommandHandler creates a handler for estimate revisions.
func NewReviseEstimateCommandHandler(
	uowFactory UoWFactory,
	calculator services.EstimateCalculator,
	publisher ports.UpdatePublisher,
	logger *slog.Logger,
) ReviseEstimateCommandHandler {
	return ReviseEstimateCommandHandler{
		uowFactory: uowFactory,
		calculator: calculator,
		publisher:  publisher,
		logger:     logger.With("component", "revise_estimate_handler"),
	}
}

// Handle processes the estimate revision command.
func (h ReviseEstimateCommandHandler) Handle(ctx context.Context, cmd ReviseEstimateCommand) error {
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

	var previous time.Time
	if est := trackedOrder.EstimatedReadyAt(); est != nil {
		previous = *est
	}

	trackedOrder.SetEstimatedReadyAt(cmd.NewReadyAt())

	if err = orderRepo.Update(ctx, trackedOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	delayed := h.calculator.IsDelay(previous, cmd.NewReadyAt())

	if err = h.publisher.Publish(ctx, snapshotOf(trackedOrder, now), delayed); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish estimate revision",
			"order_id", trackedOrder.ID().String(),
			"delayed", delayed,
			"error", err)
	}

	return nil
}
