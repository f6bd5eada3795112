package jobs

import (
	"context"
	"errors"
	"log/slog"

	"ordertrack/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// EstimateRevisionJob periodically sweeps for preparing orders whose
// ready-time estimate has already passed and pushes a revised estimate to
// their subscribers. Each tick revises at most one order; stragglers are
// picked up on the following ticks.
type EstimateRevisionJob struct {
	handler commands.ReviseOverdueEstimatesCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewEstimateRevisionJob creates a job that revises overdue estimates every
// 30 seconds.
func NewEstimateRevisionJob(handler commands.ReviseOverdueEstimatesCommandHandler, logger *slog.Logger) *EstimateRevisionJob {
	return &EstimateRevisionJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "estimate_revision_job"),
	}
}

// Start begins the overdue estimate sweep.
func (j *EstimateRevisionJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewReviseOverdueEstimatesCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			// Every order still being inside its estimate is the normal case.
			if !errors.Is(err, commands.ErrNoOverdueOrders) {
				j.logger.ErrorContext(ctx, "Estimate revision job failed", "error", err)
			}
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Estimate revision job started (running every 30 seconds)")
	return nil
}

// Stop stops the estimate revision job.
func (j *EstimateRevisionJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Estimate revision job stopped")
}
