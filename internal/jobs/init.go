package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"pcwl/territory/internal/logging"
)

// InitializeJobs registers every background job on a started scheduler.
// The caller shuts the scheduler down.
func InitializeJobs(ctx context.Context, partyExpiry *PartyExpiryJob, sweepInterval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			if err := partyExpiry.Run(ctx); err != nil {
				logging.Warn("Scheduled party expiry failed", "error", err)
			}
		}),
		gocron.WithName(partyExpiryJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register %s job: %w", partyExpiryJobName, err)
	}

	sched.Start()
	logging.Info("Background jobs started", "party_sweep_interval", sweepInterval.String())
	return sched, nil
}
