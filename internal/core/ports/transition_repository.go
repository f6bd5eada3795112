package ports

import (
	"context"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// TransitionRepository defines the persistence contract for the status
// transition audit log. Records are append-only and never mutated.
type TransitionRepository interface {
	// Add persists one transition record.
	Add(ctx context.Context, record order.StatusTransition) error

	// ListByOrder retrieves the transition history of one order in
	// chronological order.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.StatusTransition, error)
}
