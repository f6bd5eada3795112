package queries

import (
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery retrieves a single order with its full transition history.
// Backs the order detail endpoint and the snapshot-on-subscribe fallback of
// the update channel.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID)
//	handler := NewGetOrderQueryHandler(db)
//
//	resp, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown order
//	}
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for one order.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the identifier of the requested order.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// TransitionView is one entry of an order's status history.
type TransitionView struct {
	From       string
	To         string
	OccurredAt time.Time
	Reason     string
}

// GetOrderQueryResponse carries the read model of one order.
type GetOrderQueryResponse struct {
	ID               kernel.UUID
	Number           string
	Mode             string
	Status           string
	Phone            string
	EstimatedReadyAt *time.Time
	ActualReadyAt    *time.Time
	CreatedAt        time.Time
	Transitions      []TransitionView
}
