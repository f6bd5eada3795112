package http

import "time"

// Error is the JSON error body returned by every failing endpoint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OrderItemRequest is one line item of a new order.
type OrderItemRequest struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	PrepMinutes int    `json:"prep_minutes"`
}

// CreateOrderRequest registers a newly placed order with the tracker.
type CreateOrderRequest struct {
	Number string             `json:"number"`
	Mode   string             `json:"mode"`
	Phone  string             `json:"phone,omitempty"`
	Items  []OrderItemRequest `json:"items"`
}

// CreateOrderResponse returns the identifier assigned to the new order.
type CreateOrderResponse struct {
	ID string `json:"id"`
}

// TransitionOrderRequest asks the state machine to move an order to a new
// lifecycle status.
type TransitionOrderRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ReviseEstimateRequest replaces an order's ready-time estimate.
type ReviseEstimateRequest struct {
	NewReadyAt time.Time `json:"new_ready_at"`
	Reason     string    `json:"reason,omitempty"`
}

// TransitionResponse is one entry of an order's status history.
type TransitionResponse struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
	Reason     string    `json:"reason,omitempty"`
}

// OrderResponse is the full read model of one order, history included.
type OrderResponse struct {
	ID               string               `json:"id"`
	Number           string               `json:"number"`
	Mode             string               `json:"mode"`
	Status           string               `json:"status"`
	Phone            string               `json:"phone,omitempty"`
	EstimatedReadyAt *time.Time           `json:"estimated_ready_at,omitempty"`
	ActualReadyAt    *time.Time           `json:"actual_ready_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	Transitions      []TransitionResponse `json:"transitions"`
}

// ActiveOrderResponse is one row of the active order board.
type ActiveOrderResponse struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	EstimatedReadyAt *time.Time `json:"estimated_ready_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
