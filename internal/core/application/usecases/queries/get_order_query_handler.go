package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads one order and its status history straight from
// the database, bypassing the aggregate. The write side owns the invariants;
// the read side only projects rows.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single-order queries.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns an error unwrapping to
// errs.ErrObjectNotFound when the order does not exist.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	var resp GetOrderQueryResponse
	var id uuid.UUID
	var estimatedReadyAt, actualReadyAt sql.NullTime

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			mode,
			status,
			phone,
			estimated_ready_at,
			actual_ready_at,
			created_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().String()).Row()

	err := row.Scan(
		&id,
		&resp.Number,
		&resp.Mode,
		&resp.Status,
		&resp.Phone,
		&estimatedReadyAt,
		&actualReadyAt,
		&resp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("orderId", query.OrderID())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.ID = orderID
	resp.EstimatedReadyAt = timePtr(estimatedReadyAt)
	resp.ActualReadyAt = timePtr(actualReadyAt)

	transitions, err := h.loadTransitions(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.Transitions = transitions

	return resp, nil
}

func (h GetOrderQueryHandler) loadTransitions(ctx context.Context, orderID kernel.UUID) ([]TransitionView, error) {
	transitions := make([]TransitionView, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			from_status,
			to_status,
			occurred_at,
			reason
		FROM status_transitions
		WHERE order_id = ?
		ORDER BY occurred_at
	`, orderID.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var view TransitionView
		if err = rows.Scan(&view.From, &view.To, &view.OccurredAt, &view.Reason); err != nil {
			return nil, err
		}
		transitions = append(transitions, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
