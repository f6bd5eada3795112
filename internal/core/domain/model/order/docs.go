// Package order contains the order aggregate and its lifecycle state machine.
//
// The aggregate root Order owns the authoritative status of an order. Every
// status change goes through Order.Transition, which consults the adjacency
// table in status.go and appends an immutable StatusTransition record for audit.
// No other component may mutate order status; presentation and tracking consume
// the resulting snapshots, they never re-derive transition rules.
package order
