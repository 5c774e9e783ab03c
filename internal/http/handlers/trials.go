package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"engine/internal/domain"
	"engine/internal/middleware"
	"engine/internal/trial"
)

// TrialsProcessExpired runs one batch. The route is guarded by the shared
// secret middleware.
func (a *App) TrialsProcessExpired(w http.ResponseWriter, r *http.Request) {
	a.runTrials(w, r, trial.TriggerHTTP, "")
}

// TrialsProcessExpiredManual is the GET form kept for manual runs. Production
// only accepts it with test=true and the shared secret.
func (a *App) TrialsProcessExpiredManual(w http.ResponseWriter, r *http.Request) {
	testMode := r.URL.Query().Get("test") == "true"
	if a.Production {
		if !testMode {
			a.error(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST in production")
			return
		}
		if !middleware.HasSharedSecret(r, a.CronSecret) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid scheduler secret")
			return
		}
	}
	a.runTrials(w, r, trial.TriggerManual, "test")
}

func (a *App) runTrials(w http.ResponseWriter, r *http.Request, trigger, mode string) {
	res, err := a.Trials.ProcessExpiredTrials(r.Context(), trigger)
	if err != nil {
		a.log(r).Error().Err(err).Str("run_id", res.RunID).Msg("trial processing failed")
		body := map[string]any{
			"success":   false,
			"error":     "processing_failed",
			"message":   "processing failed",
			"processed": res.Processed,
			"errors":    res.Errors,
			"timestamp": a.now().UTC().Format(time.RFC3339),
		}
		if errors.Is(err, domain.ErrStorageUnavailable) {
			body["error"] = "storage_unavailable"
		}
		a.json(w, http.StatusInternalServerError, body)
		return
	}
	body := map[string]any{
		"success":   true,
		"runId":     res.RunID,
		"processed": res.Processed,
		"skipped":   res.Skipped,
		"errors":    res.Errors,
		"timestamp": a.now().UTC().Format(time.RFC3339),
	}
	if mode != "" {
		body["mode"] = mode
	}
	a.json(w, http.StatusOK, body)
}

// TrialStatus reports a user's trial state, expiring it when due.
func (a *App) TrialStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.Trials.CheckUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	body := map[string]any{
		"userId":        st.UserID,
		"userClass":     st.UserClass,
		"displayName":   displayName(st.UserClass),
		"wasExpired":    st.WasExpired,
		"daysRemaining": st.DaysRemaining,
	}
	if st.TrialEndsAt != nil {
		body["trialEndsAt"] = st.TrialEndsAt.UTC().Format(time.RFC3339)
	}
	a.json(w, http.StatusOK, body)
}
