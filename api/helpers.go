package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/opengig/marketplace/pkg/workflow"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// principal is the authenticated caller, extracted from the request context
// by the JWT middleware. Role is empty when the account has no profile.
type principal struct {
	UserID int64
	Role   workflow.Role
}

func principalFrom(r *http.Request) (principal, bool) {
	id, ok := r.Context().Value(CtxUserID).(int64)
	if !ok || id <= 0 {
		return principal{}, false
	}
	p := principal{UserID: id}
	if s, ok := r.Context().Value(CtxRole).(string); ok {
		if role, err := workflow.ParseRole(s); err == nil {
			p.Role = role
		}
	}
	return p, true
}

// requirePrincipal writes a 401 when the context carries no authenticated
// user.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (principal, bool) {
	p, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return principal{}, false
	}
	return p, true
}

// requireRole gates a handler on a specific role. An absent role (no
// profile) is denied, never treated as an error.
func requireRole(w http.ResponseWriter, r *http.Request, role workflow.Role) (principal, bool) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return principal{}, false
	}
	if p.Role != role {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return principal{}, false
	}
	return p, true
}
