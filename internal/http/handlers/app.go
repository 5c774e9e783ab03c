package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"engine/internal/activity"
	"engine/internal/domain"
	"engine/internal/policy"
	"engine/internal/trial"
)

// App carries the services the HTTP surface calls into.
type App struct {
	Activity   *activity.Store
	Trials     *trial.Processor
	Policy     *policy.Table
	Logger     zerolog.Logger
	CronSecret string
	Production bool
	Now        func() time.Time
	// Ping checks storage reachability for the health endpoint. Optional.
	Ping func(ctx context.Context) error
}

// NewApp wires the handler container.
func NewApp(store *activity.Store, trials *trial.Processor, table *policy.Table, cronSecret string, production bool, logger zerolog.Logger) *App {
	return &App{
		Activity:   store,
		Trials:     trials,
		Policy:     table,
		Logger:     logger,
		CronSecret: cronSecret,
		Production: production,
		Now:        time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// fail maps a service error onto the wire by its sentinel kind. Storage
// details are logged and never echoed to the caller.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "invalid_input", publicMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", publicMessage(err))
	case errors.Is(err, domain.ErrStorageUnavailable):
		a.log(r).Error().Err(err).Str("path", r.URL.Path).Msg("storage unavailable")
		a.error(w, http.StatusInternalServerError, "storage_unavailable", "storage temporarily unavailable")
	default:
		a.log(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// log prefers the request scoped logger installed by the access log middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// publicMessage drops the sentinel prefix from wrapped validation errors.
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidInput, domain.ErrNotFound} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, "not_found", "route not found")
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
