package ports

import (
	"context"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// CountActive returns the number of orders still in the kitchen queue
	// (pending, confirmed, or preparing). Feeds the ready-time estimate.
	CountActive(ctx context.Context) (int, error)

	// GetFirstOverdue retrieves the first preparing order whose ready-time
	// estimate lies before asOf. Used by the estimate revision job.
	GetFirstOverdue(ctx context.Context, asOf time.Time) (*order.Order, error)
}
