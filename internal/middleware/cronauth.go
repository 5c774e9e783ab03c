package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// CronSecretHeader is accepted alongside Authorization: Bearer.
const CronSecretHeader = "X-Cron-Secret"

// SharedSecret rejects requests that do not present secret.
func SharedSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasSharedSecret(r, secret) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid scheduler secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasSharedSecret compares the presented secret in constant time. An empty
// configured secret never matches.
func HasSharedSecret(r *http.Request, secret string) bool {
	if secret == "" || r == nil {
		return false
	}
	presented := strings.TrimSpace(r.Header.Get(CronSecretHeader))
	if presented == "" {
		auth := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return false
		}
		presented = strings.TrimSpace(token)
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
