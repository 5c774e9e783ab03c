package domain

import (
	"math"
	"time"
)

// UserClass enumerates billing/entitlement tiers.
type UserClass string

const (
	UserClassTrial           UserClass = "trial"
	UserClassCore            UserClass = "core"
	UserClassPlus            UserClass = "plus"
	UserClassPro             UserClass = "pro"
	UserClassCohort          UserClass = "cohort"
	UserClassAdmin           UserClass = "admin"
	UserClassCharlieChat     UserClass = "charlie_chat"
	UserClassCharlieChatPlus UserClass = "charlie_chat_plus"
	UserClassCharlieChatPro  UserClass = "charlie_chat_pro"
	UserClassDisabled        UserClass = "disabled"
)

// UserClasses lists every class known to the engine.
var UserClasses = []UserClass{
	UserClassTrial,
	UserClassCore,
	UserClassPlus,
	UserClassPro,
	UserClassCohort,
	UserClassAdmin,
	UserClassCharlieChat,
	UserClassCharlieChatPlus,
	UserClassCharlieChatPro,
	UserClassDisabled,
}

// Valid reports whether c is a member of the closed class enumeration.
func (c UserClass) Valid() bool {
	for _, known := range UserClasses {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultTrialLength applies when a trial profile carries no explicit end.
const DefaultTrialLength = 7 * 24 * time.Hour

// UserAccount is the slice of the profile the engine reads and writes.
type UserAccount struct {
	ID             string
	UserClass      UserClass
	TrialStartedAt *time.Time
	TrialEndsAt    *time.Time
	TrialExpiredAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTrial reports whether the account is inside a trial window.
func (u UserAccount) IsTrial() bool {
	return u.UserClass == UserClassTrial
}

// TrialEnd returns the effective end of the trial window, falling back to
// CreatedAt+fallback when no explicit end was recorded.
func (u UserAccount) TrialEnd(fallback time.Duration) time.Time {
	if u.TrialEndsAt != nil {
		return *u.TrialEndsAt
	}
	if fallback <= 0 {
		fallback = DefaultTrialLength
	}
	return u.CreatedAt.Add(fallback)
}

// TrialExpired reports whether the trial window has closed at now.
func (u UserAccount) TrialExpired(now time.Time, fallback time.Duration) bool {
	if !u.IsTrial() {
		return false
	}
	return !u.TrialEnd(fallback).After(now)
}

// DaysRemaining returns the whole days left in the trial, rounded up, never negative.
func (u UserAccount) DaysRemaining(now time.Time, fallback time.Duration) int {
	left := u.TrialEnd(fallback).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
