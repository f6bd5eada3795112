package services

import (
	"fmt"
	"time"

	"ordertrack/internal/pkg/errs"
)

// Defaults for the estimate formula. Values are tuned for a single kitchen
// line; the composition root may override them per deployment.
const (
	// DefaultFixedBuffer absorbs plating and handoff time on top of the
	// slowest item.
	DefaultFixedBuffer = 5 * time.Minute

	// DefaultPerOrderDelay is the marginal wait added by each order already
	// in the kitchen queue.
	DefaultPerOrderDelay = 3 * time.Minute

	// DefaultDelayTolerance is the minimum slip of a revised estimate that
	// warrants telling the customer. Smaller slips are rounding noise and
	// must not produce notification spam.
	DefaultDelayTolerance = 2 * time.Minute
)

// EstimateCalculator derives the ready-time estimate for an order.
//
// Estimate is a pure function of its inputs: no clock access, no hidden state.
//
//	readyAt = now + max(itemPrepMinutes) + fixedBuffer + queueDepth*perOrderDelay
//
// Example:
//
//	calc := services.NewEstimateCalculator()
//	readyAt, err := calc.Estimate(time.Now(), []int{25, 10}, 2)
//	// readyAt = now + 25m + 5m + 2*3m = now + 36m
type EstimateCalculator struct {
	fixedBuffer    time.Duration
	perOrderDelay  time.Duration
	delayTolerance time.Duration
}

// NewEstimateCalculator creates a calculator with the default buffer, per-order
// delay, and delay tolerance.
func NewEstimateCalculator() EstimateCalculator {
	return EstimateCalculator{
		fixedBuffer:    DefaultFixedBuffer,
		perOrderDelay:  DefaultPerOrderDelay,
		delayTolerance: DefaultDelayTolerance,
	}
}

// NewEstimateCalculatorWith creates a calculator with explicit parameters.
// All three durations must be non-negative.
func NewEstimateCalculatorWith(fixedBuffer, perOrderDelay, delayTolerance time.Duration) (EstimateCalculator, error) {
	if fixedBuffer < 0 {
		return EstimateCalculator{}, errs.NewValueIsInvalidErrorWithCause("fixed buffer",
			fmt.Errorf("%s is negative", fixedBuffer))
	}
	if perOrderDelay < 0 {
		return EstimateCalculator{}, errs.NewValueIsInvalidErrorWithCause("per-order delay",
			fmt.Errorf("%s is negative", perOrderDelay))
	}
	if delayTolerance < 0 {
		return EstimateCalculator{}, errs.NewValueIsInvalidErrorWithCause("delay tolerance",
			fmt.Errorf("%s is negative", delayTolerance))
	}

	return EstimateCalculator{
		fixedBuffer:    fixedBuffer,
		perOrderDelay:  perOrderDelay,
		delayTolerance: delayTolerance,
	}, nil
}

// Estimate computes the ready-time estimate for an order placed at now.
//
// itemPrepMinutes holds the preparation minutes of each ordered item; the
// slowest item dominates because the kitchen prepares items in parallel.
// queueDepth is the number of orders already in the kitchen queue.
func (c EstimateCalculator) Estimate(now time.Time, itemPrepMinutes []int, queueDepth int) (time.Time, error) {
	if len(itemPrepMinutes) == 0 {
		return time.Time{}, errs.NewValueIsRequiredError("item prep minutes")
	}
	if queueDepth < 0 {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause("queue depth",
			fmt.Errorf("%d is negative", queueDepth))
	}

	maxPrep := 0
	for _, minutes := range itemPrepMinutes {
		if minutes <= 0 {
			return time.Time{}, errs.NewValueIsInvalidErrorWithCause("item prep minutes",
				fmt.Errorf("%d is not greater than 0", minutes))
		}
		if minutes > maxPrep {
			maxPrep = minutes
		}
	}

	readyAt := now.
		Add(time.Duration(maxPrep) * time.Minute).
		Add(c.fixedBuffer).
		Add(time.Duration(queueDepth) * c.perOrderDelay)

	return readyAt, nil
}

// IsDelay reports whether replacing previous with revised slips the estimate
// far enough past the delay tolerance to warrant a customer notification.
// A nil-equivalent previous (zero time) never counts as a delay: there was
// nothing promised to slip from.
func (c EstimateCalculator) IsDelay(previous, revised time.Time) bool {
	if previous.IsZero() {
		return false
	}
	return revised.Sub(previous) > c.delayTolerance
}
