package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"engine/internal/http/handlers"
	"engine/internal/middleware"
)

// Options configures the router's cross-cutting middleware.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	Locations       middleware.LocationLookup
	Metrics         http.Handler
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.ReferenceClock(opts.Locations),
	)

	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1/activity", func(r chi.Router) {
		r.Post("/", app.ActivityIncrement)
		r.Get("/daily", app.ActivityDaily)
		r.Get("/range", app.ActivityRange)
	})
	r.Get("/v1/metrics/activity-weekly", app.ActivityWeekly)

	r.Route("/v1/trials", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.With(middleware.SharedSecret(app.CronSecret)).Post("/process-expired", app.TrialsProcessExpired)
		r.Get("/process-expired", app.TrialsProcessExpiredManual)
	})
	r.Get("/v1/users/{userId}/trial-status", app.TrialStatus)

	r.Get("/v1/capabilities", app.Capabilities)
	r.Get("/v1/capabilities/check", app.CapabilityCheck)

	return r
}
