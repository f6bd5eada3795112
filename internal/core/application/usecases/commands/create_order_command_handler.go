package commands

import (
	"context"
	"log/slog"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
)

// CreateOrderCommandHandler handles the business logic for order registration.
// Derives the initial ready-time estimate from the item prep times and the
// current kitchen queue depth, persists the order, and publishes the first
// snapshot to the update channel.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	calculator services.EstimateCalculator
	publisher  ports.UpdatePublisher
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order registration.
func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	calculator services.EstimateCalculator,
	publisher ports.UpdatePublisher,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		calculator: calculator,
		publisher:  publisher,
		logger:     logger.With("component", "create_order_handler"),
	}
}

// Handle processes the order creation command.
// The estimate is computed before the order is stored so subscribers that
// attach immediately after creation already see a ready time. Publication
// happens after commit; a publish failure is logged, not returned, since the
// order itself persisted successfully.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
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

	queueDepth, err := orderRepo.CountActive(ctx)
	if err != nil {
		return err
	}

	items := make([]order.Item, len(cmd.Items()))
	prepMinutes := make([]int, len(cmd.Items()))
	for i, item := range cmd.Items() {
		items[i] = order.Item{Name: item.Name, Quantity: item.Quantity, PrepMinutes: item.PrepMinutes}
		prepMinutes[i] = item.PrepMinutes
	}

	newOrder, err := order.NewOrder(cmd.OrderID(), cmd.Number(), cmd.OrderMode(), cmd.Phone(), items, now)
	if err != nil {
		return err
	}

	readyAt, err := h.calculator.Estimate(now, prepMinutes, queueDepth)
	if err != nil {
		return err
	}
	newOrder.SetEstimatedReadyAt(readyAt)

	if err = orderRepo.Add(ctx, newOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if err = h.publisher.Publish(ctx, snapshotOf(newOrder, now), false); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish order snapshot",
			"order_id", newOrder.ID().String(), "error", err)
	}

	return nil
}
