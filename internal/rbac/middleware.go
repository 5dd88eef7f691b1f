// Package rbac provides role gates for HTTP handlers. Authorization is plain
// role equality; there is no permission matrix.
package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/shared"
)

// Session value keys written at login.
const (
	SessionKeyName = "name"
	SessionKeyRole = "role"
)

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Authenticate resolves the session into an Actor on the request context.
// Requests without an authenticated user are rejected.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.currentActor(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole ensures the current actor holds one of the given roles.
// It must be mounted after Authenticate.
func (m Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor.ID == 0 {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role gate rejected request",
					slog.String("path", r.URL.Path),
					slog.String("role", string(actor.Role)))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
			return
		})
	}
}

func (m Middleware) currentActor(r *http.Request) (shared.Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return shared.Actor{}, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return shared.Actor{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return shared.Actor{}, false
	}
	role := shared.Role(sess.Get(SessionKeyRole))
	if !role.Valid() {
		return shared.Actor{}, false
	}
	return shared.Actor{ID: id, Name: sess.Get(SessionKeyName), Role: role}, true
}
