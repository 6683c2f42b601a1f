package jobs

import (
	"context"
	"time"

	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/metrics"
)

const partyExpiryJobName = "party_expiry"

// PartyExpirer ends parties whose expiry has passed.
type PartyExpirer interface {
	ExpireDueParties(ctx context.Context) (int, error)
}

// PartyExpiryJob sweeps expired parties. Lazy expiry on read stays authoritative;
// the sweep only closes parties nobody touched.
type PartyExpiryJob struct {
	expirer PartyExpirer
	metrics *metrics.MetricsRegistry
}

func NewPartyExpiryJob(expirer PartyExpirer, m *metrics.MetricsRegistry) *PartyExpiryJob {
	return &PartyExpiryJob{expirer: expirer, metrics: m}
}

// Run executes one sweep.
func (j *PartyExpiryJob) Run(ctx context.Context) error {
	start := time.Now()
	ended, err := j.expirer.ExpireDueParties(ctx)
	j.metrics.ObserveJob(partyExpiryJobName, time.Since(start).Seconds())
	if err != nil {
		logging.Error("Party expiry sweep failed", "ended", ended, "error", err)
		return err
	}
	if ended > 0 {
		logging.Info("Party expiry sweep finished", "ended", ended, "duration", time.Since(start).String())
	}
	return nil
}
