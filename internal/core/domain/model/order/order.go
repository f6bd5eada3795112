package order

import (
	"errors"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Item is one line of the ordered-item list. The tracking subsystem treats the
// list as opaque apart from preparation minutes, which feed the ready-time
// estimate.
type Item struct {
	Name        string
	Quantity    int
	PrepMinutes int
}

// Order is the aggregate root for the order lifecycle. It is the sole writer of
// the order status: every change goes through Transition, which enforces the
// adjacency table in status.go and appends an immutable StatusTransition record.
//
// Order maintains these invariants:
//   - Must have a valid unique identifier and a non-empty order number
//   - Mode is pickup or delivery
//   - Must have at least one item with positive quantity and prep time
//   - Status transitions follow the adjacency table; terminal states are final
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id               kernel.UUID
	number           string
	mode             Mode
	phone            string
	items            []Item
	status           Status
	estimatedReadyAt *time.Time
	actualReadyAt    *time.Time
	createdAt        time.Time
	transitions      []StatusTransition

	isConstructed bool
}

// NewOrder creates a new Order in Pending status with validation. This is the
// only way to create a valid new order; all business invariants are checked.
//
// Example:
//
//	id := kernel.NewUUID()
//	items := []order.Item{{Name: "margherita", Quantity: 1, PrepMinutes: 15}}
//	o, err := order.NewOrder(id, "A-1042", order.ModePickup, "+15550100", items, time.Now())
//	if err != nil {
//	    // handle validation error
//	}
func NewOrder(
	id kernel.UUID,
	number string,
	mode Mode,
	phone string,
	items []Item,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setMode(mode),
		o.setPhone(phone),
		o.setItems(items),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an order from persistence with its stored status.
// Unlike NewOrder it accepts any valid status, since the stored order already
// passed through the state machine when the transitions happened.
func RestoreOrder(
	id kernel.UUID,
	number string,
	mode Mode,
	phone string,
	items []Item,
	status Status,
	estimatedReadyAt *time.Time,
	actualReadyAt *time.Time,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setMode(mode),
		o.setPhone(phone),
		o.setItems(items),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	o.status = status
	o.estimatedReadyAt = estimatedReadyAt
	o.actualReadyAt = actualReadyAt
	return o, nil
}

// Validate ensures the Order instance was properly constructed through a factory.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Number returns the human-readable order number shown to the customer.
func (o *Order) Number() string {
	return o.number
}

// OrderMode returns whether the order is for pickup or delivery.
func (o *Order) OrderMode() Mode {
	return o.mode
}

// Phone returns the customer phone number used for the SMS channel.
func (o *Order) Phone() string {
	return o.phone
}

// Items returns a copy of the ordered-item list.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Status returns the current lifecycle status of the order.
func (o *Order) Status() Status {
	return o.status
}

// EstimatedReadyAt returns the current ready-time estimate, nil if none was set.
func (o *Order) EstimatedReadyAt() *time.Time {
	return o.estimatedReadyAt
}

// ActualReadyAt returns when the order was actually completed, nil until then.
func (o *Order) ActualReadyAt() *time.Time {
	return o.actualReadyAt
}

// CreatedAt returns when the order was placed.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// Transitions returns the audit records appended during this aggregate's
// lifetime in memory. Persisted history lives in the transition repository.
func (o *Order) Transitions() []StatusTransition {
	transitions := make([]StatusTransition, len(o.transitions))
	copy(transitions, o.transitions)
	return transitions
}

// PrepMinutes returns the preparation minutes of each item, the input to the
// ready-time estimate.
func (o *Order) PrepMinutes() []int {
	minutes := make([]int, len(o.items))
	for i, item := range o.items {
		minutes[i] = item.PrepMinutes
	}
	return minutes
}

// Transition moves the order to the target status.
//
// The move is validated against the adjacency table; on rejection the order is
// left untouched and an *InvalidTransitionError (unwrapping to
// ErrInvalidTransition) describes the attempted from/to pair. On success the
// status is updated and a StatusTransition record is appended. Transitioning
// into Completed sets the actual ready time to occurredAt if it was unset.
func (o *Order) Transition(to Status, reason string, occurredAt time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.TransitionTo(to)
	if err != nil {
		return err
	}

	record, err := NewStatusTransition(o.id, o.status, newStatus, occurredAt, reason)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.transitions = append(o.transitions, record)

	if newStatus == Completed && o.actualReadyAt == nil {
		t := occurredAt
		o.actualReadyAt = &t
	}

	return nil
}

// SetEstimatedReadyAt overwrites the ready-time estimate.
// The caller (estimate engine) decides whether the revision warrants a delay
// notification; the aggregate only stores the value.
func (o *Order) SetEstimatedReadyAt(t time.Time) {
	o.estimatedReadyAt = &t
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	if number == "" {
		return errs.NewValueIsRequiredError("order number")
	}
	o.number = number
	return nil
}

func (o *Order) setMode(mode Mode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	o.mode = mode
	return nil
}

func (o *Order) setPhone(phone string) error {
	if phone == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	o.phone = phone
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if item.Name == "" {
			return errs.NewValueIsRequiredError("item name")
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause("item quantity",
				fmt.Errorf("%d is not greater than 0", item.Quantity))
		}
		if item.PrepMinutes <= 0 {
			return errs.NewValueIsInvalidErrorWithCause("item prep minutes",
				fmt.Errorf("%d is not greater than 0", item.PrepMinutes))
		}
	}
	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}
