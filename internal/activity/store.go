// Package activity counts coaching activity per user and day and serves the
// daily and weekly views dashboards chart.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"engine/internal/domain"
)

// Recorder observes increments. metrics.Engine satisfies it.
type Recorder interface {
	ActivityIncremented(activityType string, ok bool)
}

// Store validates requests and delegates counting to a repository whose
// Increment is a single atomic upsert.
type Store struct {
	repo     domain.ActivityCounterRepository
	allowed  map[domain.ActivityType]struct{}
	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the wall clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecorder attaches an increment observer.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// NewStore builds a Store accepting the given activity types; an empty list
// accepts domain.DefaultActivityTypes.
func NewStore(repo domain.ActivityCounterRepository, types []domain.ActivityType, logger zerolog.Logger, opts ...Option) *Store {
	if len(types) == 0 {
		types = domain.DefaultActivityTypes
	}
	allowed := make(map[domain.ActivityType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	s := &Store{
		repo:    repo,
		allowed: allowed,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActivityType validates raw against the configured enumeration.
func (s *Store) ActivityType(raw string) (domain.ActivityType, error) {
	t := domain.ActivityType(strings.TrimSpace(raw))
	if t == "" {
		return "", fmt.Errorf("%w: activityType is required", domain.ErrInvalidInput)
	}
	if _, ok := s.allowed[t]; !ok {
		return "", fmt.Errorf("%w: invalid activity type %q", domain.ErrInvalidInput, raw)
	}
	return t, nil
}

func validateUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}
	return userID, nil
}

// Today returns the current day in loc.
func (s *Store) Today(loc *time.Location) time.Time {
	return domain.Today(s.now(), loc)
}

// Increment records one occurrence of activityType for userID on day. A zero
// day means today in UTC. Each call counts once; retries are new occurrences.
func (s *Store) Increment(ctx context.Context, userID, activityType string, day time.Time) (int64, error) {
	id, err := validateUserID(userID)
	if err != nil {
		return 0, err
	}
	t, err := s.ActivityType(activityType)
	if err != nil {
		s.record("invalid", false)
		return 0, err
	}
	if day.IsZero() {
		day = s.Today(time.UTC)
	}
	day = domain.Day(day)

	count, err := s.repo.Increment(ctx, id, t, day)
	if err != nil {
		s.record(string(t), false)
		s.logger.Error().Err(err).
			Str("user_id", id).
			Str("activity_type", string(t)).
			Str("activity_date", day.Format(domain.DateLayout)).
			Msg("activity: increment failed")
		return 0, fmt.Errorf("%w: increment %s: %w", domain.ErrStorageUnavailable, t, err)
	}
	s.record(string(t), true)
	s.logger.Debug().
		Str("user_id", id).
		Str("activity_type", string(t)).
		Int64("count", count).
		Msg("activity: incremented")
	return count, nil
}

// Count returns the counter for the key, 0 when nothing was recorded.
func (s *Store) Count(ctx context.Context, userID, activityType string, day time.Time) (int64, error) {
	id, err := validateUserID(userID)
	if err != nil {
		return 0, err
	}
	t, err := s.ActivityType(activityType)
	if err != nil {
		return 0, err
	}
	if day.IsZero() {
		return 0, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	count, err := s.repo.Count(ctx, id, t, domain.Day(day))
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrStorageUnavailable, t, err)
	}
	return count, nil
}

// Range returns the recorded days between from and to inclusive, ascending.
// Days without activity are absent.
func (s *Store) Range(ctx context.Context, userID, activityType string, from, to time.Time) ([]domain.DailyCount, error) {
	id, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	t, err := s.ActivityType(activityType)
	if err != nil {
		return nil, err
	}
	from, to = domain.Day(from), domain.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s", domain.ErrInvalidInput,
			to.Format(domain.DateLayout), from.Format(domain.DateLayout))
	}
	rows, err := s.repo.Range(ctx, id, t, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: range %s: %w", domain.ErrStorageUnavailable, t, err)
	}
	if rows == nil {
		rows = []domain.DailyCount{}
	}
	return rows, nil
}

// Weekly returns Sunday-aligned totals for the trailing window of days ending today in loc.
func (s *Store) Weekly(ctx context.Context, userID, activityType string, days int, loc *time.Location) ([]domain.WeeklyBucket, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: timeRange must be a positive number of days", domain.ErrInvalidInput)
	}
	to := s.Today(loc)
	from := to.AddDate(0, 0, -days)
	samples, err := s.Range(ctx, userID, activityType, from, to)
	if err != nil {
		return nil, err
	}
	return AggregateWeekly(samples), nil
}

func (s *Store) record(activityType string, ok bool) {
	if s.recorder != nil {
		s.recorder.ActivityIncremented(activityType, ok)
	}
}
