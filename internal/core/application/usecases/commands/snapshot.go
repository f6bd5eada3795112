package commands

import (
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/wire"
)

// snapshotOf projects an order aggregate onto the wire contract.
// Called after a committed mutation, never before.
func snapshotOf(o *order.Order, at time.Time) wire.OrderSnapshot {
	return wire.OrderSnapshot{
		OrderID:          o.ID().String(),
		Number:           o.Number(),
		Mode:             o.OrderMode().String(),
		Status:           o.Status().String(),
		Phone:            o.Phone(),
		EstimatedReadyAt: o.EstimatedReadyAt(),
		ActualReadyAt:    o.ActualReadyAt(),
		UpdatedAt:        at,
	}
}
