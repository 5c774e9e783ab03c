// Package trial advances expired trials to their configured destination
// class. The batch run, the per-user status check and the scheduled runner all
// go through Processor.expire so there is exactly one transition rule.
package trial

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"engine/internal/domain"
	"engine/internal/events"
	"engine/internal/policy"
)

// Triggers label where a batch run came from.
const (
	TriggerSchedule = "schedule"
	TriggerHTTP     = "http"
	TriggerManual   = "manual"
)

const (
	outcomeTransitioned = "transitioned"
	outcomeSkipped      = "skipped"
	outcomeError        = "error"
)

// Notifier receives transition events. *events.Publisher satisfies it.
type Notifier interface {
	TrialExpired(evt events.TrialExpired)
}

// Recorder observes transitions and runs. *metrics.Engine satisfies it.
type Recorder interface {
	TrialTransition(outcome string)
	TrialRun(trigger string, ok bool, elapsed time.Duration)
}

// Config tunes the processor.
type Config struct {
	// Destination is the class an expired trial moves to.
	Destination domain.UserClass
	// TrialLength is the window assumed for trials without an explicit end.
	TrialLength time.Duration
	// Concurrency bounds parallel per-user transitions within a run.
	Concurrency int
}

// Result summarises one batch run.
type Result struct {
	RunID     string
	Trigger   string
	Selected  int
	Processed int
	Skipped   int
	Errors    int
	StartedAt time.Time
	Duration  time.Duration
}

// Status is the per-user view returned by CheckUser.
type Status struct {
	UserID        string
	UserClass     domain.UserClass
	WasExpired    bool
	DaysRemaining int
	TrialEndsAt   *time.Time
}

// Processor moves expired trials out of trial.
type Processor struct {
	profiles domain.ProfileRepository
	cfg      Config
	logger   zerolog.Logger
	notifier Notifier
	recorder Recorder
	now      func() time.Time
}

// Option customises a Processor.
type Option func(*Processor)

// WithNotifier attaches a transition event sink.
func WithNotifier(n Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor validates cfg against the policy table: the destination must be
// a class the table knows and must not be trial itself.
func NewProcessor(profiles domain.ProfileRepository, table *policy.Table, cfg Config, logger zerolog.Logger, opts ...Option) (*Processor, error) {
	if profiles == nil {
		return nil, errors.New("trial: profile repository is required")
	}
	if cfg.Destination == "" {
		cfg.Destination = domain.UserClassCore
	}
	if cfg.Destination == domain.UserClassTrial || !cfg.Destination.Valid() {
		return nil, fmt.Errorf("trial: invalid destination class %q", cfg.Destination)
	}
	if !table.Knows(cfg.Destination) {
		return nil, fmt.Errorf("trial: destination class %q has no policy entry", cfg.Destination)
	}
	if cfg.TrialLength <= 0 {
		cfg.TrialLength = domain.DefaultTrialLength
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	p := &Processor{
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Destination returns the configured destination class.
func (p *Processor) Destination() domain.UserClass {
	return p.cfg.Destination
}

// ProcessExpiredTrials selects every trial whose window has closed and
// transitions each one independently. Per-user failures are counted, never
// returned. An error is returned only when selection fails or ctx ends; in the
// latter case Result still reports the users handled before the interruption.
func (p *Processor) ProcessExpiredTrials(ctx context.Context, trigger string) (Result, error) {
	began := time.Now()
	res := Result{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: p.now().UTC(),
	}
	log := p.logger.With().Str("run_id", res.RunID).Str("trigger", trigger).Logger()

	users, err := p.profiles.ListExpiredTrials(ctx, res.StartedAt, p.cfg.TrialLength)
	if err != nil {
		res.Duration = time.Since(began)
		p.recordRun(trigger, false, res.Duration)
		log.Error().Err(err).Msg("trial: select expired trials failed")
		return res, fmt.Errorf("%w: select expired trials: %w", domain.ErrStorageUnavailable, err)
	}
	res.Selected = len(users)

	var processed, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			switch p.expire(ctx, log, u, res.StartedAt) {
			case outcomeTransitioned:
				processed.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Processed = int(processed.Load())
	res.Skipped = int(skipped.Load())
	res.Errors = int(failed.Load())
	res.Duration = time.Since(began)

	if err := ctx.Err(); err != nil {
		p.recordRun(trigger, false, res.Duration)
		log.Warn().Err(err).
			Int("processed", res.Processed).
			Int("errors", res.Errors).
			Int("remaining", res.Selected-res.Processed-res.Skipped-res.Errors).
			Msg("trial: run interrupted")
		return res, err
	}

	p.recordRun(trigger, true, res.Duration)
	log.Info().
		Int("selected", res.Selected).
		Int("processed", res.Processed).
		Int("skipped", res.Skipped).
		Int("errors", res.Errors).
		Dur("duration", res.Duration).
		Msg("trial: run complete")
	return res, nil
}

// CheckUser reports a user's trial status, expiring the trial on the spot when
// its window has closed.
func (p *Processor) CheckUser(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}
	u, err := p.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Status{}, err
		}
		return Status{}, fmt.Errorf("%w: load profile: %w", domain.ErrStorageUnavailable, err)
	}
	st := Status{UserID: u.ID, UserClass: u.UserClass}
	if !u.IsTrial() {
		return st, nil
	}

	now := p.now().UTC()
	if !u.TrialExpired(now, p.cfg.TrialLength) {
		end := u.TrialEnd(p.cfg.TrialLength)
		st.TrialEndsAt = &end
		st.DaysRemaining = u.DaysRemaining(now, p.cfg.TrialLength)
		return st, nil
	}

	log := p.logger.With().Str("trigger", "status").Logger()
	switch p.expire(ctx, log, *u, now) {
	case outcomeTransitioned:
		st.UserClass = p.cfg.Destination
		st.WasExpired = true
		return st, nil
	case outcomeSkipped:
		fresh, err := p.profiles.GetByID(ctx, userID)
		if err != nil {
			return Status{}, fmt.Errorf("%w: reload profile: %w", domain.ErrStorageUnavailable, err)
		}
		st.UserClass = fresh.UserClass
		st.WasExpired = true
		return st, nil
	default:
		return Status{}, fmt.Errorf("%w: expire trial for %s", domain.ErrStorageUnavailable, userID)
	}
}

// expire is the single transition rule: one conditional write that changes the
// class and clears the trial window together.
func (p *Processor) expire(ctx context.Context, log zerolog.Logger, u domain.UserAccount, at time.Time) string {
	ok, err := p.profiles.ExpireTrial(ctx, u.ID, p.cfg.Destination, at)
	switch {
	case err != nil:
		log.Error().Err(err).Str("user_id", u.ID).Msg("trial: transition failed")
		p.recordTransition(outcomeError)
		return outcomeError
	case !ok:
		log.Debug().Str("user_id", u.ID).Msg("trial: already transitioned")
		p.recordTransition(outcomeSkipped)
		return outcomeSkipped
	}
	log.Info().
		Str("user_id", u.ID).
		Str("to", string(p.cfg.Destination)).
		Time("trial_ended_at", u.TrialEnd(p.cfg.TrialLength)).
		Msg("trial: transitioned")
	p.recordTransition(outcomeTransitioned)
	if p.notifier != nil {
		p.notifier.TrialExpired(events.TrialExpired{
			Type:      events.TypeTrialExpired,
			UserID:    u.ID,
			FromClass: string(domain.UserClassTrial),
			ToClass:   string(p.cfg.Destination),
			ExpiredAt: at,
		})
	}
	return outcomeTransitioned
}

func (p *Processor) recordTransition(outcome string) {
	if p.recorder != nil {
		p.recorder.TrialTransition(outcome)
	}
}

func (p *Processor) recordRun(trigger string, ok bool, elapsed time.Duration) {
	if p.recorder != nil {
		p.recorder.TrialRun(trigger, ok, elapsed)
	}
}
