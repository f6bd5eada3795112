package commands

import (
	"errors"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

const (
	maxItemQuantity    = 100
	maxItemPrepMinutes = 240
)

// ItemInput is one ordered line item as received from the ordering surface.
type ItemInput struct {
	Name        string
	Quantity    int
	PrepMinutes int
}

// CreateOrderCommand represents a request to register a newly placed order
// with the tracking subsystem. The order enters the lifecycle in pending
// status with a ready-time estimate derived from its items and the current
// kitchen queue depth.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	items := []commands.ItemInput{{Name: "margherita", Quantity: 1, PrepMinutes: 15}}
//	cmd, err := commands.NewCreateOrderCommand(orderID, "A-1042", "pickup", "+15550100", items)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	number  string
	mode    order.Mode
	phone   string
	items   []ItemInput

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new order.
// Validates identifier, number, mode, phone, and that at least one item with
// positive quantity and prep time is present.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	number string,
	mode string,
	phone string,
	items []ItemInput,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setNumber(number),
		cmd.setMode(mode),
		cmd.setPhone(phone),
		cmd.setItems(items),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Number returns the human-readable order number.
func (c CreateOrderCommand) Number() string {
	return c.number
}

// OrderMode returns the pickup/delivery mode.
func (c CreateOrderCommand) OrderMode() order.Mode {
	return c.mode
}

// Phone returns the customer phone number.
func (c CreateOrderCommand) Phone() string {
	return c.phone
}

// Items returns the ordered line items.
func (c CreateOrderCommand) Items() []ItemInput {
	items := make([]ItemInput, len(c.items))
	copy(items, c.items)
	return items
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setNumber(number string) error {
	if number == "" {
		return errs.NewValueIsRequiredError("order number")
	}
	c.number = number
	return nil
}

func (c *CreateOrderCommand) setMode(mode string) error {
	parsed, err := order.ModeFromString(mode)
	if err != nil {
		return err
	}
	c.mode = parsed
	return nil
}

func (c *CreateOrderCommand) setPhone(phone string) error {
	if phone == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	c.phone = phone
	return nil
}

func (c *CreateOrderCommand) setItems(items []ItemInput) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if item.Name == "" {
			return errs.NewValueIsRequiredError("item name")
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsOutOfRangeError("item quantity", item.Quantity, 1, maxItemQuantity)
		}
		if item.PrepMinutes <= 0 {
			return errs.NewValueIsOutOfRangeError("item prep minutes", item.PrepMinutes, 1, maxItemPrepMinutes)
		}
	}
	c.items = make([]ItemInput, len(items))
	copy(c.items, items)
	return nil
}
