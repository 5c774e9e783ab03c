package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"engine/internal/domain"
	"engine/internal/middleware"
)

type incrementRequest struct {
	UserID       string `json:"userId"`
	ActivityType string `json:"activityType"`
	Date         string `json:"date,omitempty"`
}

type dailyCountJSON struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ActivityIncrement records one occurrence. Without a date the day is today in
// the caller's reference clock.
func (a *App) ActivityIncrement(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid payload")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.ActivityType) == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "missing userId or activityType")
		return
	}

	day := a.Activity.Today(middleware.LocationFromContext(r.Context()))
	if req.Date != "" {
		parsed, err := domain.ParseDate(req.Date)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		day = parsed
	}

	count, err := a.Activity.Increment(r.Context(), req.UserID, req.ActivityType, day)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    day.Format(domain.DateLayout),
		"count":   count,
	})
}

// ActivityDaily returns the counter for one day, 0 when nothing was recorded.
func (a *App) ActivityDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, activityType, rawDate := q.Get("userId"), q.Get("activityType"), q.Get("date")
	if userID == "" || activityType == "" || rawDate == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "missing required parameters")
		return
	}
	day, err := domain.ParseDate(rawDate)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	count, err := a.Activity.Count(r.Context(), userID, activityType, day)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int64{"count": count})
}

// ActivityRange returns the sparse ascending series between from and to.
func (a *App) ActivityRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, activityType := q.Get("userId"), q.Get("activityType")
	if userID == "" || activityType == "" || q.Get("from") == "" || q.Get("to") == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "missing required parameters")
		return
	}
	from, err := domain.ParseDate(q.Get("from"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	to, err := domain.ParseDate(q.Get("to"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rows, err := a.Activity.Range(r.Context(), userID, activityType, from, to)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDailyJSON(rows)})
}

func toDailyJSON(rows []domain.DailyCount) []dailyCountJSON {
	out := make([]dailyCountJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, dailyCountJSON{Date: row.Date.Format(domain.DateLayout), Count: row.Count})
	}
	return out
}

func formatDay(t time.Time) string {
	return t.Format(domain.DateLayout)
}
