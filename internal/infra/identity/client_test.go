package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanengine/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Identity.BaseURL = server.URL
	cfg.Identity.Timeout = 5 * time.Second

	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).(*client)
}

func TestClient_SignIn(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"idToken":      "id-1",
		})
	}))

	result, err := c.SignIn(context.Background(), "user@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "/auth/signin", gotPath)
	assert.Equal(t, "user@example.com", gotBody["email"])
	assert.True(t, result.Success)
	assert.Equal(t, "access-1", result.Tokens.AccessToken)
	assert.Equal(t, "refresh-1", result.Tokens.RefreshToken)
	assert.Equal(t, "id-1", result.Tokens.IDToken)
}

func TestClient_SignIn_ProviderRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "incorrect password",
		})
	}))

	result, err := c.SignIn(context.Background(), "user@example.com", "wrong")

	// A well-formed rejection is a result, not a transport error.
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "incorrect password", result.ErrorMessage)
}

func TestClient_SignIn_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"error": "upstream pool exhausted"})
	}))

	result, err := c.SignIn(context.Background(), "user@example.com", "secret")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "upstream pool exhausted")
}

func TestClient_GetUserInfo(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"userAttributes": map[string]string{
				"sub":   "user-1",
				"email": "user@example.com",
			},
		})
	}))

	attrs, err := c.GetUserInfo(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", attrs["sub"])
	assert.Equal(t, "user@example.com", attrs["email"])
}

func TestClient_GuestSignUp(t *testing.T) {
	var gotBody map[string]string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/guest", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"accessToken": "access-guest",
		})
	}))

	result, err := c.GuestSignUp(context.Background(), "device-123")

	require.NoError(t, err)
	assert.Equal(t, "device-123", gotBody["deviceId"])
	assert.True(t, result.Success)
}
