// Package handler contains the HTTP handlers for the engine's public surface.
package handler

import (
	"log/slog"
	"net/http"

	"scanengine/internal/delivery/http/response"
	"scanengine/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler holds dependencies for session-related handlers.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		uc:     uc,
		logger: logger,
	}
}

// SignUp handles the registration request.
func (h *SessionHandler) SignUp(c echo.Context) error {
	var input *usecase.SignUpInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign up input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.SignUp(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Sign up started, check your email for the confirmation code")
}

// ConfirmSignUp handles the confirmation-code verification request.
func (h *SessionHandler) ConfirmSignUp(c echo.Context) error {
	var input *usecase.ConfirmSignUpInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid confirmation input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ConfirmSignUp(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account confirmed")
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendConfirmationCode handles the confirmation-code resend request.
func (h *SessionHandler) ResendConfirmationCode(c echo.Context) error {
	var input *emailRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid resend input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ResendConfirmationCode(c.Request().Context(), input.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Confirmation code sent")
}

// SignIn handles the credential sign-in request.
func (h *SessionHandler) SignIn(c echo.Context) error {
	var input *usecase.SignInInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign in input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.SignIn(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Signed in")
}

// GuestSignUp handles the device-provisioned guest session request.
func (h *SessionHandler) GuestSignUp(c echo.Context) error {
	output, err := h.uc.GuestSignUp(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Guest session established")
}

// SignOut handles the sign-out request.
func (h *SessionHandler) SignOut(c echo.Context) error {
	if err := h.uc.SignOut(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Signed out")
}

// Refresh handles the token refresh request.
func (h *SessionHandler) Refresh(c echo.Context) error {
	output, err := h.uc.RefreshAccessToken(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Token refreshed")
}

// ForgotPassword handles the password-reset initiation request.
func (h *SessionHandler) ForgotPassword(c echo.Context) error {
	var input *emailRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid forgot password input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ForgotPassword(c.Request().Context(), input.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset code sent")
}

// ConfirmForgotPassword handles the password-reset completion request.
func (h *SessionHandler) ConfirmForgotPassword(c echo.Context) error {
	var input *usecase.ConfirmForgotPasswordInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password reset input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ConfirmForgotPassword(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset")
}

// Session reports the current session state: the cached user, the derived
// authenticated flag and the loading flag.
func (h *SessionHandler) Session(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]any{
		"user":            h.uc.CurrentUser(),
		"isAuthenticated": h.uc.IsAuthenticated(),
		"isLoading":       h.uc.IsLoading(),
		"accessToken":     h.uc.AccessToken(),
	}, "")
}
