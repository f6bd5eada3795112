// Package services provides domain services that implement business logic
// that doesn't naturally belong to a single aggregate root.
//
// The package includes:
//   - EstimateCalculator: A domain service deriving and revising the ready-time
//     estimate attached to an order
//
// Domain services here are deterministic, pure functions of their inputs, which
// keeps them trivially unit-testable with literal values.
package services
