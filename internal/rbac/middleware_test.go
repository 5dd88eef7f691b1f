package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/shared"
)

func requestWithSession(t *testing.T, userID, name string, role shared.Role) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "test_session", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
		sess.Set(SessionKeyName, name)
		sess.Set(SessionKeyRole, string(role))
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestAuthenticateResolvesActor(t *testing.T) {
	var got shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.ActorFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	Middleware{}.Authenticate(next).ServeHTTP(rec, requestWithSession(t, "7", "Ada", shared.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, shared.Actor{ID: 7, Name: "Ada", Role: shared.RoleAdmin}, got)
}

func TestAuthenticateRejectsAnonymous(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	rec := httptest.NewRecorder()
	Middleware{}.Authenticate(next).ServeHTTP(rec, requestWithSession(t, "", "", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsBogusRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	rec := httptest.NewRecorder()
	Middleware{}.Authenticate(next).ServeHTTP(rec, requestWithSession(t, "7", "Ada", "SUPERUSER"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleGates(t *testing.T) {
	gate := Middleware{}.RequireRole(shared.RoleAdmin, shared.RoleStateManager)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	agentCtx := shared.ContextWithActor(req.Context(), shared.Actor{ID: 3, Role: shared.RoleSalesAgent})
	rec := httptest.NewRecorder()
	gate(next).ServeHTTP(rec, req.WithContext(agentCtx))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)

	managerCtx := shared.ContextWithActor(req.Context(), shared.Actor{ID: 2, Role: shared.RoleStateManager})
	rec = httptest.NewRecorder()
	gate(next).ServeHTTP(rec, req.WithContext(managerCtx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}
