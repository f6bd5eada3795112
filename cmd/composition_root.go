package cmd

import (
	"context"
	"log/slog"

	"ordertrack/internal/adapters/out/postgres"
	"ordertrack/internal/broker"
	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/tracking"
	"ordertrack/internal/wire"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	calculator services.EstimateCalculator
	broker     *broker.Broker
	smsSender  ports.SMSSender
	logger     *slog.Logger
}

func NewCompositionRoot(_ Config, gormDB *gorm.DB, smsSender ports.SMSSender, logger *slog.Logger) CompositionRoot {
	root := CompositionRoot{
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		calculator: services.NewEstimateCalculator(),
		smsSender:  smsSender,
		logger:     logger,
	}
	root.broker = broker.NewBroker(querySnapshotProvider{
		handler: queries.NewGetOrderQueryHandler(gormDB),
	}, logger)
	return root
}

func (c *CompositionRoot) UpdateBroker() *broker.Broker {
	return c.broker
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.calculator, c.broker, c.logger)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f, c.broker, c.logger)
}

func (c *CompositionRoot) CreateReviseEstimateCommandHandler() commands.ReviseEstimateCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewReviseEstimateCommandHandler(f, c.calculator, c.broker, c.logger)
}

func (c *CompositionRoot) CreateReviseOverdueEstimatesCommandHandler() commands.ReviseOverdueEstimatesCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewReviseOverdueEstimatesCommandHandler(f, c.calculator, c.broker, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

// CreateNotificationDispatcher wires a dispatcher that forwards in-app
// updates to the given listener and hands SMS jobs to the queue. Push
// delivery is not wired on the server side.
func (c *CompositionRoot) CreateNotificationDispatcher(inApp tracking.InAppListener) *tracking.NotificationDispatcher {
	return tracking.NewNotificationDispatcher(inApp, nil, c.smsSender, c.logger)
}

// CreateTrackingSession builds an in-process tracking session for one order,
// connected to the update broker. Callers own the session lifecycle: Open to
// start receiving, Close to stop.
func (c *CompositionRoot) CreateTrackingSession(orderID, role string, inApp tracking.InAppListener) *tracking.Session {
	return tracking.NewSession(
		broker.NewLocalTransport(c.broker),
		c.CreateNotificationDispatcher(inApp),
		wire.SubscribeRequest{OrderID: orderID, Role: role},
		tracking.DefaultConfig(),
		c.logger,
	)
}

// querySnapshotProvider loads the snapshot for orders without a cached
// publication, e.g. the first subscribe after a process restart.
type querySnapshotProvider struct {
	handler queries.GetOrderQueryHandler
}

func (p querySnapshotProvider) Snapshot(ctx context.Context, orderID string) (wire.OrderSnapshot, error) {
	id, err := kernel.UUIDFromString(orderID)
	if err != nil {
		return wire.OrderSnapshot{}, err
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return wire.OrderSnapshot{}, err
	}
	resp, err := p.handler.Handle(ctx, query)
	if err != nil {
		return wire.OrderSnapshot{}, err
	}

	updatedAt := resp.CreatedAt
	if len(resp.Transitions) > 0 {
		updatedAt = resp.Transitions[len(resp.Transitions)-1].OccurredAt
	}

	return wire.OrderSnapshot{
		OrderID:          resp.ID.String(),
		Number:           resp.Number,
		Mode:             resp.Mode,
		Status:           resp.Status,
		Phone:            resp.Phone,
		EstimatedReadyAt: resp.EstimatedReadyAt,
		ActualReadyAt:    resp.ActualReadyAt,
		UpdatedAt:        updatedAt,
	}, nil
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
