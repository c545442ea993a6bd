package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyhaven/backend/internal/models"
)

const (
	// TokenTTL is how long a session token stays valid. There is no
	// server-side revocation; logout only clears the client cookie.
	TokenTTL = 7 * 24 * time.Hour

	// SessionCookie is the name of the http-only session cookie.
	SessionCookie = "jwt"
)

var (
	// ErrNoSecret signals the signing secret was never configured.
	ErrNoSecret = errors.New("auth: signing secret not configured")
	// ErrInvalidToken covers expiry, signature mismatch, and malformed
	// payloads alike, so callers cannot tell which check failed.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Identity is the caller resolved from a verified token. A request without
// an Identity in its context is anonymous.
type Identity struct {
	UserID string
	Role   models.Role
}

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the authenticated caller from the context.
// ok is false for anonymous requests.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// TokenIssuer mints and verifies signed session tokens bound to
// (userId, role).
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue creates an HS256 token carrying the user id and role.
func (t *TokenIssuer) Issue(userID string, role models.Role) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}
	if userID == "" || role == "" {
		return "", fmt.Errorf("auth: issue token: user id and role are required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"role":   string(role),
		"iat":    now.Unix(),
		"exp":    now.Add(TokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes and validates a token. Every failure mode maps to
// ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return Identity{}, ErrInvalidToken
	}
	roleStr, ok := claims["role"].(string)
	if !ok || !models.Role(roleStr).Valid() {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, Role: models.Role(roleStr)}, nil
}
