package handlers

import (
	"context"
	"net/http"
	"time"
)

// Health reports liveness and, when a storage probe is wired, readiness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.Ping == nil {
		a.json(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.Ping(ctx); err != nil {
		a.log(r).Warn().Err(err).Msg("health: storage ping failed")
		a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": "unavailable"})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "storage": "ok"})
}
