package core

import (
	"context"
	"errors"
	"time"
)

// System role names. SystemAdminRole is seeded at startup and gates
// administrative routes; DefaultUserRole is assigned on self-registration.
const (
	SystemAdminRole = "SYSTEM_ADMIN"
	DefaultUserRole = "USER"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnknownRole is returned when the requested role name does not exist.
	ErrUnknownRole = errors.New("role not found")
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so login failures are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers expired, malformed and mis-signed tokens.
	ErrTokenInvalid = errors.New("invalid token")
)

// Identity represents an authenticated account returned to handlers.
type Identity struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Role      string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// RegisteredIdentity is the projection returned after a successful registration.
type RegisteredIdentity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the login outcome. Token is empty on failure and
// Message holds the reason; the HTTP layer still answers 200 either way.
type LoginResult struct {
	Email   string
	Token   string
	Message string
}

// AuthService defines registration and authentication behaviour.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisteredIdentity, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
}
