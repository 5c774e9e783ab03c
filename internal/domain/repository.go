package domain

import (
	"context"
	"time"
)

// ActivityCounterRepository persists per-(user, type, day) counters.
type ActivityCounterRepository interface {
	// Increment atomically creates the counter at 1 or adds 1, returning the new value.
	Increment(ctx context.Context, userID string, activityType ActivityType, day time.Time) (int64, error)
	// Count returns 0 and no error when the counter does not exist.
	Count(ctx context.Context, userID string, activityType ActivityType, day time.Time) (int64, error)
	// Range returns recorded days in [from, to] ascending.
	Range(ctx context.Context, userID string, activityType ActivityType, from, to time.Time) ([]DailyCount, error)
}

// ProfileRepository reads and conditionally writes the entitlement fields of user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*UserAccount, error)
	// ListExpiredTrials returns trial profiles whose effective end is at or before now.
	ListExpiredTrials(ctx context.Context, now time.Time, fallback time.Duration) ([]UserAccount, error)
	// ExpireTrial moves a profile out of trial in a single write, only while it is still a
	// trial. It reports false when the profile had already left trial and ErrNotFound when it
	// no longer exists.
	ExpireTrial(ctx context.Context, userID string, to UserClass, at time.Time) (bool, error)
	// SetClass applies an external billing change and clears trial timestamps.
	SetClass(ctx context.Context, userID string, class UserClass) (*UserAccount, error)
	// StartTrial puts a profile into trial for the given window.
	StartTrial(ctx context.Context, userID string, startedAt, endsAt time.Time) (*UserAccount, error)
}
