package commands_test

import (
	"testing"
	"time"

	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviseOverdueEstimatesCommandHandler_Handle_RevisesAndFlagsDelay(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	blownEstimate := time.Now().Add(-10 * time.Minute)
	trackedOrder := preparingOrderWithEstimate(t, id, blownEstimate)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("GetFirstOverdue", ctx, mock.AnythingOfType("time.Time")).Return(trackedOrder, nil).Once(),
		repo.On("CountActive", ctx).Return(3, nil).Once(),
		repo.On("Update", mock.Anything, trackedOrder).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(MockUpdatePublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("wire.OrderSnapshot"), true).Return(nil).Once()

	h := commands.NewReviseOverdueEstimatesCommandHandler(factory, services.NewEstimateCalculator(), publisher, testLogger())
	err := h.Handle(ctx, commands.NewReviseOverdueEstimatesCommand())
	require.NoError(t, err)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	publisher.AssertExpectations(t)

	require.NotNil(t, trackedOrder.EstimatedReadyAt())
	assert.True(t, trackedOrder.EstimatedReadyAt().After(blownEstimate))

	published := publisher.Calls[0].Arguments.Get(1).(wire.OrderSnapshot)
	// max prep 25m + 5m buffer + 3 queued * 3m, counted from the sweep clock
	assert.Equal(t, published.UpdatedAt.Add(39*time.Minute), *published.EstimatedReadyAt)
}

func TestReviseOverdueEstimatesCommandHandler_Handle_NoOverdueOrders(t *testing.T) {
	ctx := t.Context()

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("GetFirstOverdue", ctx, mock.AnythingOfType("time.Time")).
			Return(nil, errs.NewObjectNotFoundError("order", nil)).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(MockUpdatePublisher)
	h := commands.NewReviseOverdueEstimatesCommandHandler(factory, services.NewEstimateCalculator(), publisher, testLogger())
	err := h.Handle(ctx, commands.NewReviseOverdueEstimatesCommand())
	require.ErrorIs(t, err, commands.ErrNoOverdueOrders)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviseOverdueEstimatesCommandHandler_Handle_NotConstructed(t *testing.T) {
	ctx := t.Context()
	factory := new(MockUoWFactory)
	publisher := new(MockUpdatePublisher)
	h := commands.NewReviseOverdueEstimatesCommandHandler(factory, services.NewEstimateCalculator(), publisher, testLogger())
	err := h.Handle(ctx, commands.ReviseOverdueEstimatesCommand{})
	require.Error(t, err)
}
