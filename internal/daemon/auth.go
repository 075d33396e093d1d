package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// apiAuth guards the daemon API's two audiences: operators holding the
// API token and the ingest worker holding the progress webhook secret.
type apiAuth struct {
	operatorToken string
	webhookSecret string
}

// operator admits every request when no API token is configured; a
// daemon bound to localhost then trusts its bind address.
func (a apiAuth) operator(next http.HandlerFunc) http.HandlerFunc {
	if a.operatorToken == "" {
		return next
	}
	return requireBearer(a.operatorToken, next)
}

// webhook never runs open. Progress updates carry processing state for
// live jobs, so an unset secret closes the route instead of waiving auth.
func (a apiAuth) webhook(next http.HandlerFunc) http.HandlerFunc {
	if a.webhookSecret == "" {
		return func(w http.ResponseWriter, r *http.Request) {
			unauthorized(w)
		}
	}
	return requireBearer(a.webhookSecret, next)
}

func requireBearer(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			unauthorized(w)
			return
		}
		next(w, r)
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}
