package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/keyhaven/backend/internal/httpx"
	"github.com/keyhaven/backend/internal/models"
)

// WelcomeMailer sends the post-registration welcome message.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, fullName string) error
}

// EventPublisher emits fire-and-forget domain events.
type EventPublisher interface {
	UserRegistered(ctx context.Context, user *models.User)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc           *Service
	tokens        *TokenIssuer
	mailer        WelcomeMailer
	events        EventPublisher
	secureCookies bool
}

// NewHandler wires the auth endpoints. mailer and events may be nil.
func NewHandler(svc *Service, tokens *TokenIssuer, mailer WelcomeMailer, events EventPublisher, secureCookies bool) *Handler {
	return &Handler{svc: svc, tokens: tokens, mailer: mailer, events: events, secureCookies: secureCookies}
}

// Signup creates a new user, sets the session cookie, and kicks off the
// welcome email without blocking the response.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err, "Server error during signup")
		return
	}

	token, err := h.tokens.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		log.Printf("signup: issue token: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, "Server error during signup")
		return
	}
	h.setSessionCookie(w, token, int(TokenTTL/time.Second))

	if h.mailer != nil {
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.mailer.SendWelcome(ctx, email, name); err != nil {
				log.Printf("signup: welcome email to %s: %v", email, err)
			}
		}(user.Email, user.FullName)
	}
	if h.events != nil {
		h.events.UserRegistered(r.Context(), user)
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "User registered successfully",
		"user":        user,
		"redirectUrl": DashboardURL(user.Role),
	})
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	user, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err, "Server error during login")
		return
	}

	token, err := h.tokens.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, "Server error during login")
		return
	}
	h.setSessionCookie(w, token, int(TokenTTL/time.Second))

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Logged in successfully",
		"user":        user,
		"redirectUrl": DashboardURL(user.Role),
	})
}

// Logout clears the session cookie. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized")
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "User not found")
			return
		}
		log.Printf("me: get user: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, "Server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
		MaxAge:   maxAge,
	})
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrMissingFields):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Please fill in all required fields")
	case errors.Is(err, ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Password must be at least 8 characters")
	case errors.Is(err, ErrInvalidEmail):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid email address")
	case errors.Is(err, ErrInvalidRole):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid role")
	case errors.Is(err, ErrDuplicateEmail):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeConflict, "Email already exists")
	case errors.Is(err, ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid email or password")
	default:
		log.Printf("auth: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, fallback)
	}
}
