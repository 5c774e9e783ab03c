package handlers

import (
	"net/http"

	"engine/internal/domain"
	"engine/internal/policy"
)

func displayName(class domain.UserClass) string {
	return policy.DisplayName(class)
}

// Capabilities lists what a class may use. Unknown classes get an empty list.
func (a *App) Capabilities(w http.ResponseWriter, r *http.Request) {
	class := domain.UserClass(r.URL.Query().Get("userClass"))
	if class == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "userClass parameter is required")
		return
	}
	allowed := a.Policy.Allowed(class)
	if allowed == nil {
		allowed = []policy.Capability{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"userClass":    class,
		"displayName":  displayName(class),
		"capabilities": allowed,
	})
}

// CapabilityCheck answers a single hasCapability question.
func (a *App) CapabilityCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	class := domain.UserClass(q.Get("userClass"))
	capability := policy.Capability(q.Get("capability"))
	if class == "" || capability == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "userClass and capability are required")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"userClass":  class,
		"capability": capability,
		"allowed":    a.Policy.HasCapability(class, capability),
	})
}
