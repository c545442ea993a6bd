package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler() *Handler {
	svc := NewService(newFakeUserStore())
	return NewHandler(svc, NewTokenIssuer("test-secret"), nil, nil, false)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_SignupSetsCookieAndRedirect(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.Signup, `{"fullName":"Alice Agent","email":"a@b.com","password":"password1","role":"Agent"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.User.Role != "Agent" {
		t.Fatalf("expected role Agent, got %q", body.User.Role)
	}
	if body.RedirectURL != "/dashboard/agent" {
		t.Fatalf("expected agent dashboard redirect, got %q", body.RedirectURL)
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected session cookie to be set")
	}
	if !session.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
	if session.SameSite != http.SameSiteStrictMode {
		t.Fatal("session cookie must be same-site strict")
	}
	if session.Value == "" {
		t.Fatal("session cookie must carry the token")
	}
}

func TestHandler_SignupDuplicateEmail(t *testing.T) {
	h := newTestHandler()
	body := `{"fullName":"Alice","email":"a@b.com","password":"password1","role":"Agent"}`

	if rec := postJSON(t, h.Signup, body); rec.Code != http.StatusCreated {
		t.Fatalf("first signup: expected 201, got %d", rec.Code)
	}

	rec := postJSON(t, h.Signup, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second signup: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email already exists") {
		t.Fatalf("expected duplicate email message, got %s", rec.Body.String())
	}
}

func TestHandler_LoginInvalidCredentials(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.Login, `{"email":"ghost@b.com","password":"password1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_LogoutClearsCookie(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}
