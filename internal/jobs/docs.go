// Package jobs provides scheduled background tasks for the order tracking
// subsystem.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations.
//
// # Available Jobs
//
// 1. EstimateRevisionJob - Runs every 30 seconds to find preparing orders
// whose ready-time estimate has already passed, replace the estimate, and
// notify subscribers with a delay flag.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(reviseOverdueHandler, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// The revision job treats "no overdue orders" as the normal idle case and
// only logs unexpected failures. A failed job start stops any already
// running jobs.
package jobs
