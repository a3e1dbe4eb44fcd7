// Package usecase defines the interfaces for the application's business
// logic, decoupling the delivery layer from the implementations.
package usecase

import (
	"context"

	"scanengine/internal/domain/entity"
)

// SignUpInput carries the registration request fields.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=128"`
}

// ConfirmSignUpInput carries the confirmation-code verification fields.
type ConfirmSignUpInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// SignInInput carries the credential sign-in fields.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ConfirmForgotPasswordInput carries the password-reset completion fields.
type ConfirmForgotPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// SessionOutput is returned by every operation that results in a live
// session.
type SessionOutput struct {
	User *entity.User `json:"user"`
}

// TokenSource is the narrow view of the session the entitlement service
// consumes: it reads identity, it never produces it.
type TokenSource interface {
	AccessToken() string
	IsAuthenticated() bool
}

// SessionUsecase owns the authentication state machine: the in-memory
// session, its durable mirror in the credential store, and the
// orchestration of the identity provider that keeps it valid.
type SessionUsecase interface {
	TokenSource

	// Initialize restores the session on process start: stored credentials
	// are validated against the identity provider, falling back to a token
	// refresh, falling back to a clean unauthenticated state.
	Initialize(ctx context.Context) error

	// Stateless pass-throughs to the identity provider; none of them mutate
	// the session.
	SignUp(ctx context.Context, input *SignUpInput) error
	ConfirmSignUp(ctx context.Context, input *ConfirmSignUpInput) error
	ResendConfirmationCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, input *ConfirmForgotPasswordInput) error

	// SignIn establishes a session from credentials. A profile-fetch
	// failure after a successful sign-in does not fail the operation.
	SignIn(ctx context.Context, input *SignInInput) (*SessionOutput, error)

	// GuestSignUp establishes a session from the device identifier, flagged
	// as a guest account.
	GuestSignUp(ctx context.Context) (*SessionOutput, error)

	// SignOut clears the session locally. It always succeeds.
	SignOut(ctx context.Context) error

	// RefreshAccessToken exchanges the refresh token for a replacement
	// token set. A rejected refresh forces a sign-out.
	RefreshAccessToken(ctx context.Context) (*SessionOutput, error)

	// Read-only session views.
	CurrentUser() *entity.User
	IsLoading() bool
}
