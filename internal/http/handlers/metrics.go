package handlers

import (
	"net/http"
	"strconv"

	"engine/internal/domain"
	"engine/internal/middleware"
)

const defaultWeeklyRangeDays = 30

type weeklyPointJSON struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ActivityWeekly returns Sunday-aligned weekly totals over the trailing
// timeRange days, oldest week first. Weeks without activity are omitted.
func (a *App) ActivityWeekly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "userId parameter is required")
		return
	}
	days := defaultWeeklyRangeDays
	if raw := q.Get("timeRange"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "invalid_input", "timeRange must be a positive number of days")
			return
		}
		days = n
	}
	activityType := q.Get("activityType")
	if activityType == "" {
		activityType = string(domain.ActivityPropertySearches)
	}

	buckets, err := a.Activity.Weekly(r.Context(), userID, activityType, days, middleware.LocationFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]weeklyPointJSON, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, weeklyPointJSON{
			Date:  formatDay(b.WeekStart),
			Label: b.WeekStart.Format("Jan 2"),
			Count: b.Count,
		})
	}
	a.json(w, http.StatusOK, out)
}
