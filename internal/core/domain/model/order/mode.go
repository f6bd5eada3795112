package order

import (
	"fmt"

	"ordertrack/internal/pkg/errs"
)

// Mode distinguishes how the customer receives the order.
type Mode string

const (
	ModePickup   Mode = "pickup"
	ModeDelivery Mode = "delivery"
)

// ModeFromString parses a mode from its wire/persistence representation.
func ModeFromString(s string) (Mode, error) {
	mode := Mode(s)
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}

// Validate checks that the mode is one of the defined values.
func (m Mode) Validate() error {
	if m != ModePickup && m != ModeDelivery {
		return errs.NewValueIsInvalidErrorWithCause("mode",
			fmt.Errorf("%q is not a valid order mode", string(m)))
	}
	return nil
}

// String returns the wire representation of the mode.
func (m Mode) String() string {
	return string(m)
}
