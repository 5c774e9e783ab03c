package activity

import (
	"sort"
	"time"

	"engine/internal/domain"
)

// WeekStart returns the Sunday on or before day.
func WeekStart(day time.Time) time.Time {
	d := domain.Day(day)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// AggregateWeekly sums sparse daily samples into Sunday-aligned weeks. Weeks
// without samples are not synthesized. Output is ascending by week start.
func AggregateWeekly(samples []domain.DailyCount) []domain.WeeklyBucket {
	if len(samples) == 0 {
		return []domain.WeeklyBucket{}
	}
	totals := make(map[time.Time]int64, len(samples))
	for _, s := range samples {
		totals[WeekStart(s.Date)] += s.Count
	}
	buckets := make([]domain.WeeklyBucket, 0, len(totals))
	for start, count := range totals {
		buckets = append(buckets, domain.WeeklyBucket{WeekStart: start, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})
	return buckets
}
