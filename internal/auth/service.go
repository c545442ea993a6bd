package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyhaven/backend/internal/models"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals the password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrMissingFields signals a required signup field was empty.
	ErrMissingFields = errors.New("auth: full name, email, and password are required")
	// ErrInvalidEmail signals a malformed email address.
	ErrInvalidEmail = errors.New("auth: invalid email address")
	// ErrInvalidRole signals an unknown role value.
	ErrInvalidRole = errors.New("auth: invalid role")

	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserStore defines the persistence the auth service needs. The store keeps
// emails lowercased at write time so lookups are case-insensitive.
type UserStore interface {
	Create(ctx context.Context, params CreateUserParams) (*models.User, error)
	// FindByEmailWithPassword is the only query path that returns the
	// credential hash; every other read omits it.
	FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateUserParams contains write parameters for creating users.
type CreateUserParams struct {
	FullName       string
	Email          string
	PasswordHash   string
	Role           models.Role
	ProfilePicture string
}

// Service handles registration and credential verification.
type Service struct {
	users UserStore
}

func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Register validates the signup request, hashes the credential, and creates
// the user. The role defaults to Buyer when absent.
func (s *Service) Register(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if fullName == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	role := req.Role
	if role == "" {
		role = models.RoleBuyer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	return s.users.Create(ctx, CreateUserParams{
		FullName:       fullName,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		ProfilePicture: req.ProfilePicture,
	})
}

// Login verifies the credentials and returns the user on success. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Never hand the hash back up the stack.
	user.Password = ""
	return user, nil
}

// GetUserByID retrieves a user without the credential hash.
func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// DashboardURL returns the client-side landing page for a role.
func DashboardURL(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/dashboard/admin"
	case models.RoleAgent:
		return "/dashboard/agent"
	default:
		return "/dashboard/buyer"
	}
}
