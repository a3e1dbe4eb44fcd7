// Package service defines the interfaces for the external collaborators the
// use cases orchestrate: the identity provider, the entitlement backend,
// the billing SDK and the device identity source.
package service

import (
	"context"

	"scanengine/internal/domain/entity"
)

// AuthResult is the decoded response of an auth-mutating identity call.
// Success plus the issued tokens on the happy path; ErrorMessage mirrors the
// provider's error string when the call was a clean business rejection.
type AuthResult struct {
	Success      bool
	Tokens       entity.TokenSet
	ErrorMessage string
}

// SignUpInput carries the attributes forwarded on registration.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// IdentityProvider is the stateless request/response wrapper around the
// remote identity service. Every method is a single round trip with no
// internal retry; retry policy belongs to the session service. Transport
// failures and non-2xx responses are surfaced as errors unchanged.
type IdentityProvider interface {
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) (*AuthResult, error)
	ResendConfirmation(ctx context.Context, email string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)

	// Refresh exchanges a refresh token for a full replacement token set.
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)

	ForgotPassword(ctx context.Context, email string) (*AuthResult, error)
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) (*AuthResult, error)

	// GetUserInfo fetches the profile attributes for the bearer token.
	GetUserInfo(ctx context.Context, accessToken string) (map[string]string, error)

	// GuestSignUp provisions a credential-less account for a device id.
	// The device id is forwarded verbatim; deduplication is server-side.
	GuestSignUp(ctx context.Context, deviceID string) (*AuthResult, error)
}
