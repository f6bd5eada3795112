package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

var ErrNoOverdueOrders = errors.New("no overdue orders found")

// ReviseOverdueEstimatesCommandHandler recomputes the estimate of the first
// order that blew past its promised ready time while still preparing.
//
// Each invocation handles at most one order; the background job runs the sweep
// on a schedule, so stragglers are picked up on subsequent ticks. The
// recomputed estimate starts from the current clock, so the published update
// is always flagged as delayed.
type ReviseOverdueEstimatesCommandHandler struct {
	uowFactory UoWFactory
	calculator services.EstimateCalculator
	publisher  ports.UpdatePublisher
	logger     *slog.Logger
}

// NewReviseOverdueEstimatesCommandHandler creates a handler for the overdue sweep.
func NewReviseOverdueEstimatesCommandHandler(
	uowFactory UoWFactory,
	calculator services.EstimateCalculator,
	publisher ports.UpdatePublisher,
	logger *slog.Logger,
) ReviseOverdueEstimatesCommandHandler {
	return ReviseOverdueEstimatesCommandHandler{
		uowFactory: uowFactory,
		calculator: calculator,
		publisher:  publisher,
		logger:     logger.With("component", "revise_overdue_handler"),
	}
}

// Handle processes the overdue sweep command.
// Returns ErrNoOverdueOrders when every preparing order is still within its
// estimate; callers treat that as a no-op, not a failure.
func (h ReviseOverdueEstimatesCommandHandler) Handle(ctx context.Context, cmd ReviseOverdueEstimatesCommand) error {
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

	overdueOrder, err := orderRepo.GetFirstOverdue(ctx, now)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ErrNoOverdueOrders
	}
	if err != nil {
		return err
	}

	queueDepth, err := orderRepo.CountActive(ctx)
	if err != nil {
		return err
	}

	revised, err := h.calculator.Estimate(now, overdueOrder.PrepMinutes(), queueDepth)
	if err != nil {
		return err
	}

	overdueOrder.SetEstimatedReadyAt(revised)

	if err = orderRepo.Update(ctx, overdueOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if err = h.publisher.Publish(ctx, snapshotOf(overdueOrder, now), true); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish overdue revision",
			"order_id", overdueOrder.ID().String(),
			"error", err)
	}

	return nil
}
