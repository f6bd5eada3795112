package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpadapter "ordertrack/internal/adapters/in/http"
	"ordertrack/internal/broker"
	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/wire"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memOrderRepo keeps aggregates in a map so handler tests run against the
// real command stack without a database.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*order.Order)}
}

func (r *memOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID().String()] = o
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID().String()]; !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	r.orders[o.ID().String()] = o
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return o, nil
}

func (r *memOrderRepo) CountActive(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders), nil
}

func (r *memOrderRepo) GetFirstOverdue(_ context.Context, _ time.Time) (*order.Order, error) {
	return nil, errs.NewObjectNotFoundError("order", "first overdue")
}

type memTransitionRepo struct {
	mu      sync.Mutex
	records []order.StatusTransition
}

func (r *memTransitionRepo) Add(_ context.Context, record order.StatusTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memTransitionRepo) ListByOrder(_ context.Context, _ kernel.UUID) ([]order.StatusTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]order.StatusTransition(nil), r.records...), nil
}

// memUoW satisfies the command handlers' unit of work without a real
// transaction; handler tests only care about the HTTP surface.
type memUoW struct {
	orders      *memOrderRepo
	transitions *memTransitionRepo
}

func (u *memUoW) Begin(context.Context) error    { return nil }
func (u *memUoW) Commit(context.Context) error   { return nil }
func (u *memUoW) Rollback(context.Context) error { return nil }

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return u.orders
}

func (u *memUoW) TransitionRepository() ports.TransitionRepository {
	return u.transitions
}

type memUoWFactory struct{ uow *memUoW }

func (f memUoWFactory) Create() commands.UoW { return f.uow }

type serverFixture struct {
	echo   *echo.Echo
	orders *memOrderRepo
	broker *broker.Broker
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	orders := newMemOrderRepo()
	uow := &memUoW{orders: orders, transitions: &memTransitionRepo{}}
	factory := memUoWFactory{uow: uow}
	updates := broker.NewBroker(nil, testLogger())
	t.Cleanup(updates.Close)

	calculator := services.NewEstimateCalculator()
	server := httpadapter.NewServer(
		commands.NewCreateOrderCommandHandler(factory, calculator, updates, testLogger()),
		commands.NewTransitionOrderCommandHandler(factory, updates, testLogger()),
		commands.NewReviseEstimateCommandHandler(factory, calculator, updates, testLogger()),
		queries.GetOrderQueryHandler{},
		queries.GetActiveOrdersQueryHandler{},
		updates,
	)

	e := echo.New()
	server.RegisterRoutes(e)

	return &serverFixture{echo: e, orders: orders, broker: updates}
}

func (f *serverFixture) request(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) seedOrder(t *testing.T, status order.Status) kernel.UUID {
	t.Helper()

	id := kernel.NewUUID()
	items := []order.Item{{Name: "Margherita", Quantity: 1, PrepMinutes: 25}}
	o, err := order.RestoreOrder(id, "A-17", order.ModePickup, "+15550100", items, status, nil, nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.orders.Add(context.Background(), o))
	return id
}

func TestServer_CreateOrderReturnsCreatedWithID(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodPost, "/api/v1/orders", `{
		"number": "A-17",
		"mode": "pickup",
		"phone": "+15550100",
		"items": [{"name": "Margherita", "quantity": 1, "prep_minutes": 25}]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp httpadapter.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)

	id, err := kernel.UUIDFromString(resp.ID)
	require.NoError(t, err)

	stored, err := fixture.orders.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.Pending, stored.Status())
	assert.NotNil(t, stored.EstimatedReadyAt())
}

func TestServer_CreateOrderRejectsMalformedBody(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodPost, "/api/v1/orders", `{"number":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreateOrderRejectsEmptyItems(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodPost, "/api/v1/orders", `{
		"number": "A-17",
		"mode": "pickup",
		"items": []
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_TransitionOrderReturnsNoContent(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Pending)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+id.String()+"/transitions",
		`{"status": "confirmed"}`)

	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := fixture.orders.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, stored.Status())
}

func TestServer_TransitionOrderRejectsIllegalMoveWithConflict(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Pending)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+id.String()+"/transitions",
		`{"status": "completed"}`)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp httpadapter.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusConflict, resp.Code)

	stored, err := fixture.orders.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.Pending, stored.Status())
}

func TestServer_TransitionOrderUnknownOrderReturnsNotFound(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/transitions",
		`{"status": "confirmed"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_TransitionOrderRejectsUnknownStatus(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Pending)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+id.String()+"/transitions",
		`{"status": "teleported"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_TransitionOrderRejectsMalformedID(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/not-a-uuid/transitions",
		`{"status": "confirmed"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ReviseEstimateReturnsNoContent(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Preparing)

	newReadyAt := time.Now().UTC().Add(20 * time.Minute)
	body, err := json.Marshal(httpadapter.ReviseEstimateRequest{NewReadyAt: newReadyAt, Reason: "kitchen backed up"})
	require.NoError(t, err)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+id.String()+"/estimate", string(body))

	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, getErr := fixture.orders.Get(context.Background(), id)
	require.NoError(t, getErr)
	require.NotNil(t, stored.EstimatedReadyAt())
	assert.WithinDuration(t, newReadyAt, *stored.EstimatedReadyAt(), time.Second)
}

func TestServer_ReviseEstimateRejectsZeroTime(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Preparing)

	rec := fixture.request(http.MethodPost, "/api/v1/orders/"+id.String()+"/estimate",
		`{"reason": "kitchen backed up"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StreamOrderEventsSendsSnapshotThenUpdates(t *testing.T) {
	fixture := newServerFixture(t)
	id := fixture.seedOrder(t, order.Pending)

	// Prime the broker's snapshot cache the way a committed mutation would.
	snapshot := wire.OrderSnapshot{
		OrderID:   id.String(),
		Number:    "A-17",
		Mode:      "pickup",
		Status:    "pending",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, fixture.broker.Publish(context.Background(), snapshot, false))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String()+"/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fixture.echo.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool {
		return fixture.broker.SubscriberCount(id.String()) == 1
	}, time.Second, 5*time.Millisecond)

	confirmed := snapshot
	confirmed.Status = "confirmed"
	confirmed.UpdatedAt = confirmed.UpdatedAt.Add(time.Minute)
	require.NoError(t, fixture.broker.Publish(context.Background(), confirmed, false))

	require.Eventually(t, func() bool {
		cancel()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	body := rec.Body.String()
	assert.Contains(t, body, "event: snapshot")
	assert.Contains(t, body, `"status":"pending"`)
	assert.Contains(t, body, "event: statusChanged")
	assert.Contains(t, body, `"status":"confirmed"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestServer_StreamOrderEventsRejectsMalformedID(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.request(http.MethodGet, "/api/v1/orders/not-a-uuid/events", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StreamOrderEventsUnknownOrderReturnsNotFound(t *testing.T) {
	orders := newMemOrderRepo()
	uow := &memUoW{orders: orders, transitions: &memTransitionRepo{}}
	updates := broker.NewBroker(notFoundProvider{}, testLogger())
	t.Cleanup(updates.Close)

	calculator := services.NewEstimateCalculator()
	server := httpadapter.NewServer(
		commands.NewCreateOrderCommandHandler(memUoWFactory{uow: uow}, calculator, updates, testLogger()),
		commands.NewTransitionOrderCommandHandler(memUoWFactory{uow: uow}, updates, testLogger()),
		commands.NewReviseEstimateCommandHandler(memUoWFactory{uow: uow}, calculator, updates, testLogger()),
		queries.GetOrderQueryHandler{},
		queries.GetActiveOrdersQueryHandler{},
		updates,
	)

	e := echo.New()
	server.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/events", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type notFoundProvider struct{}

func (notFoundProvider) Snapshot(_ context.Context, orderID string) (wire.OrderSnapshot, error) {
	return wire.OrderSnapshot{}, errs.NewObjectNotFoundError("orderId", orderID)
}
