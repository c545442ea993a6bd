package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/models"
)

func identityEcho(t *testing.T, got *auth.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			t.Fatal("handler reached without identity in context")
		}
		*got = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	RequireAuth(tokens)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	RequireAuth(tokens)(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_CookieToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret")
	token, err := tokens.Issue("user-1", models.RoleBuyer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	RequireAuth(tokens)(identityEcho(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != "user-1" || got.Role != models.RoleBuyer {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestRequireAuth_HeaderWinsOverCookie(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret")
	headerToken, _ := tokens.Issue("header-user", models.RoleAgent)
	cookieToken, _ := tokens.Issue("cookie-user", models.RoleBuyer)

	var got auth.Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+headerToken)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookieToken})
	rec := httptest.NewRecorder()
	RequireAuth(tokens)(identityEcho(t, &got)).ServeHTTP(rec, req)

	if got.UserID != "header-user" {
		t.Fatalf("expected header token to win, resolved %q", got.UserID)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret")
	agentToken, _ := tokens.Issue("agent-1", models.RoleAgent)
	buyerToken, _ := tokens.Issue("buyer-1", models.RoleBuyer)

	handler := RequireAuth(tokens)(RequireRole(models.RoleAgent, models.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("agent: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+buyerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer: expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	handler := RequireRole(models.RoleAgent)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for anonymous callers")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRateLimit_NilClientFailsOpen(t *testing.T) {
	called := false
	handler := RateLimit(nil, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("expected request to pass through without redis")
	}
}
