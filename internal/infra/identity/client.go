// Package identity contains the HTTP client for the remote identity
// provider. The client is stateless: one request per call, no retries, no
// backoff. Retry policy and session state live in the use case layer.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"scanengine/config"
	"scanengine/internal/domain/entity"
	"scanengine/internal/domain/service"

	"github.com/pkg/errors"
)

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient is the constructor for the identity client. Every call it makes
// is bounded by the configured per-call timeout.
func NewClient(cfg *config.Config, logger *slog.Logger) service.IdentityProvider {
	return &client{
		baseURL: strings.TrimRight(cfg.Identity.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Identity.Timeout,
		},
		logger: logger,
	}
}

// authResponse is the wire shape of every auth-mutating identity endpoint.
type authResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	Error        string `json:"error,omitempty"`
}

// userInfoResponse is the wire shape of the profile fetch endpoint.
type userInfoResponse struct {
	UserAttributes map[string]string `json:"userAttributes"`
}

func (c *client) SignUp(ctx context.Context, input service.SignUpInput) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/signup", "", map[string]string{
		"email":    input.Email,
		"password": input.Password,
		"name":     input.Name,
	})
}

func (c *client) ConfirmSignUp(ctx context.Context, email, code string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/confirm", "", map[string]string{
		"email": email,
		"code":  code,
	})
}

func (c *client) ResendConfirmation(ctx context.Context, email string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/resend", "", map[string]string{
		"email": email,
	})
}

func (c *client) SignIn(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/signin", "", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/refresh", "", map[string]string{
		"refreshToken": refreshToken,
	})
}

func (c *client) ForgotPassword(ctx context.Context, email string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/forgot", "", map[string]string{
		"email": email,
	})
}

func (c *client) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/forgot/confirm", "", map[string]string{
		"email":       email,
		"code":        code,
		"newPassword": newPassword,
	})
}

// GuestSignUp forwards the device id verbatim; calling it twice for the same
// device is safe to attempt, deduplication is the provider's concern.
func (c *client) GuestSignUp(ctx context.Context, deviceID string) (*service.AuthResult, error) {
	return c.postAuth(ctx, "/auth/guest", "", map[string]string{
		"deviceId": deviceID,
	})
}

func (c *client) GetUserInfo(ctx context.Context, accessToken string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build user info request")
	}
	applyHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "identity request GET /me failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "/me"); err != nil {
		return nil, err
	}

	var decoded userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}

	return decoded.UserAttributes, nil
}

// postAuth performs one JSON round trip against an auth-mutating endpoint.
func (c *client) postAuth(ctx context.Context, path, accessToken string, payload any) (*service.AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode request for %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", path)
	}
	applyHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "identity request POST %s failed", path)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}

	var decoded authResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrapf(err, "failed to decode response for %s", path)
	}
	c.logger.Debug("identity call completed", slog.String("path", path), slog.Bool("success", decoded.Success))

	return &service.AuthResult{
		Success: decoded.Success,
		Tokens: entity.TokenSet{
			AccessToken:  decoded.AccessToken,
			RefreshToken: decoded.RefreshToken,
			IDToken:      decoded.IDToken,
		},
		ErrorMessage: decoded.Error,
	}, nil
}

// applyHeaders sets the JSON content type and, when a token is supplied, the
// bearer authorization header.
func applyHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// checkStatus surfaces non-2xx responses as errors, carrying whatever error
// message the provider included in the body.
func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var decoded authResponse
	if json.Unmarshal(body, &decoded) == nil && decoded.Error != "" {
		return errors.Errorf("identity request %s failed with status %d: %s", path, resp.StatusCode, decoded.Error)
	}

	return errors.Errorf("identity request %s failed with status %d", path, resp.StatusCode)
}
