// Package http exposes the order tracking subsystem over REST plus a
// per-order Server-Sent Events stream. Handlers translate between transport
// DTOs and application use cases; lifecycle rules stay in the domain.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ordertrack/internal/broker"
	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/wire"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler     commands.CreateOrderCommandHandler
	transitionOrderHandler commands.TransitionOrderCommandHandler
	reviseEstimateHandler  commands.ReviseEstimateCommandHandler

	// Query handlers
	getOrderHandler        queries.GetOrderQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler

	updates *broker.Broker
}

// NewServer creates an HTTP server with the required command and query
// handlers and the update broker backing the event stream.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	reviseEstimateHandler commands.ReviseEstimateCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	updates *broker.Broker,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		transitionOrderHandler: transitionOrderHandler,
		reviseEstimateHandler:  reviseEstimateHandler,
		getOrderHandler:        getOrderHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
		updates:                updates,
	}
}

// RegisterRoutes attaches all order tracking endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.GetActiveOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/transitions", s.TransitionOrder)
	api.POST("/orders/:id/estimate", s.ReviseEstimate)
	api.GET("/orders/:id/events", s.StreamOrderEvents)
}

// CreateOrder handles POST /api/v1/orders - registers a newly placed order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	items := make([]commands.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = commands.ItemInput{
			Name:        item.Name,
			Quantity:    item.Quantity,
			PrepMinutes: item.PrepMinutes,
		}
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, req.Number, req.Mode, req.Phone, items)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	if handleErr := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.JSON(http.StatusCreated, CreateOrderResponse{ID: orderID.String()})
}

// GetActiveOrders handles GET /api/v1/orders - lists every order that has not
// reached a terminal status.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetActiveOrdersQuery()

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	response := make([]ActiveOrderResponse, len(orders))
	for i, o := range orders {
		response[i] = ActiveOrderResponse{
			ID:               o.ID.String(),
			Number:           o.Number,
			Mode:             o.Mode,
			Status:           o.Status,
			EstimatedReadyAt: o.EstimatedReadyAt,
			CreatedAt:        o.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/:id - returns one order with its full
// transition history.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	resp, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	transitions := make([]TransitionResponse, len(resp.Transitions))
	for i, t := range resp.Transitions {
		transitions[i] = TransitionResponse{
			From:       t.From,
			To:         t.To,
			OccurredAt: t.OccurredAt,
			Reason:     t.Reason,
		}
	}

	return ctx.JSON(http.StatusOK, OrderResponse{
		ID:               resp.ID.String(),
		Number:           resp.Number,
		Mode:             resp.Mode,
		Status:           resp.Status,
		Phone:            resp.Phone,
		EstimatedReadyAt: resp.EstimatedReadyAt,
		ActualReadyAt:    resp.ActualReadyAt,
		CreatedAt:        resp.CreatedAt,
		Transitions:      transitions,
	})
}

// TransitionOrder handles POST /api/v1/orders/:id/transitions - requests a
// lifecycle status change. Moves not present in the state machine's
// adjacency table are rejected with 409.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	var req TransitionOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, req.Status, req.Reason)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid transition data: " + err.Error(),
		})
	}

	if handleErr := s.transitionOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ReviseEstimate handles POST /api/v1/orders/:id/estimate - replaces the
// order's ready-time estimate.
func (s *Server) ReviseEstimate(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	var req ReviseEstimateRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewReviseEstimateCommand(orderID, req.NewReadyAt, req.Reason)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid estimate data: " + err.Error(),
		})
	}

	if handleErr := s.reviseEstimateHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// StreamOrderEvents handles GET /api/v1/orders/:id/events - a Server-Sent
// Events stream of tracking messages for one order. The first frame is a
// snapshot of the current state; subsequent frames are status changes. The
// stream ends when the client disconnects or the subscription is dropped,
// and clients reconnect to resynchronize via a fresh snapshot.
func (s *Server) StreamOrderEvents(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	sub, err := s.updates.Subscribe(ctx.Request().Context(), wire.SubscribeRequest{
		OrderID: orderID.String(),
		Role:    "customer",
	})
	if err != nil {
		return writeError(ctx, err)
	}
	defer s.updates.Unsubscribe(sub)

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				// Subscription dropped by the broker; the client
				// reconnects and resynchronizes via a fresh snapshot.
				return nil
			}
			payload, marshalErr := json.Marshal(msg)
			if marshalErr != nil {
				continue
			}
			if _, writeErr := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", msg.Kind, payload); writeErr != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// writeError maps application errors onto HTTP status codes: state-machine
// rejections are conflicts, unknown orders are not found, malformed input is
// a bad request, everything else is an internal error.
func writeError(ctx echo.Context, err error) error {
	var transitionErr *order.InvalidTransitionError
	switch {
	case errors.As(err, &transitionErr):
		return ctx.JSON(http.StatusConflict, Error{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
