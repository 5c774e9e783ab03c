package trial

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultLeaseKey = "engine:trial:process-expired"

// Scheduler runs the processor once at start and then on every interval tick.
type Scheduler struct {
	proc     *Processor
	lease    Lease
	interval time.Duration
	leaseTTL time.Duration
	leaseKey string
	logger   zerolog.Logger
}

// NewScheduler builds a scheduler. lease may be nil.
func NewScheduler(proc *Processor, lease Lease, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ttl := interval / 2
	if ttl > time.Hour {
		ttl = time.Hour
	}
	return &Scheduler{
		proc:     proc,
		lease:    lease,
		interval: interval,
		leaseTTL: ttl,
		leaseKey: defaultLeaseKey,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("trial scheduler: started")
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single guarded run. It reports whether the processor ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if s.lease != nil {
		release, ok, err := s.lease.Acquire(ctx, s.leaseKey, s.leaseTTL)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("trial scheduler: lease unavailable, running unguarded")
		case !ok:
			s.logger.Info().Msg("trial scheduler: another run holds the lease, skipping")
			return false
		default:
			defer release()
		}
	}
	res, err := s.proc.ProcessExpiredTrials(ctx, TriggerSchedule)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", res.RunID).Msg("trial scheduler: run failed")
	}
	return true
}
