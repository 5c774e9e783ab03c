package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType enumerates the coaching activities that are counted per day.
type ActivityType string

const (
	ActivityOffersCreated           ActivityType = "offers_created"
	ActivityLOIsCreated             ActivityType = "lois_created"
	ActivityMarketingLettersCreated ActivityType = "marketing_letters_created"
	ActivityEmailsSent              ActivityType = "emails_sent"
	ActivityPropertySearches        ActivityType = "property_searches"
)

// DefaultActivityTypes is the closed enumeration used when configuration does not narrow it.
var DefaultActivityTypes = []ActivityType{
	ActivityOffersCreated,
	ActivityLOIsCreated,
	ActivityMarketingLettersCreated,
	ActivityEmailsSent,
	ActivityPropertySearches,
}

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// DailyCount is one stored counter value for a calendar day.
type DailyCount struct {
	Date  time.Time
	Count int64
}

// WeeklyBucket is a Sunday-aligned aggregate of daily counts.
type WeeklyBucket struct {
	WeekStart time.Time
	Count     int64
}

// Day truncates t to its calendar day in t's own location and re-anchors it at UTC
// midnight, so two days compare equal regardless of the zone they were read in.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, raw)
	}
	return t, nil
}
