// Package identity verifies bearer credentials and provisions accounts
// against an external identity provider.
package identity

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailRequired      = errors.New("email is required")
)

// Identity is an authenticated principal as reported by the provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Provider interface {
	// VerifyToken validates a bearer token and returns its principal.
	VerifyToken(ctx context.Context, raw string) (*Identity, error)
	// CreateAccount provisions a password account and returns its uid.
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
}

const minPasswordLength = 8

func validateCredentials(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
