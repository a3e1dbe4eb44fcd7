package entitlement

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
	cfg.Entitlement.BaseURL = server.URL
	cfg.Entitlement.Timeout = 5 * time.Second

	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).(*client)
}

func TestClient_GetStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entitlements/status", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"tokenBalance": 5,
			"scanCount":    12,
			"scanLimit":    20,
		})
	}))

	status, err := c.GetStatus(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, 5, status.TokenBalance)
	assert.Equal(t, 5, status.ScansRemaining)
	assert.True(t, status.HasBalance)
	assert.True(t, status.CanScan)
	assert.Equal(t, 12, status.ScanCount)
	assert.Equal(t, 20, status.ScanLimit)
}

func TestClient_GetStatus_LegacyFieldName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"scansRemaining": 3})
	}))

	status, err := c.GetStatus(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, 3, status.TokenBalance)
	assert.True(t, status.HasBalance)
}

func TestClient_GetStatus_TokenBalanceWinsOverAlias(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tokenBalance":   7,
			"scansRemaining": 3,
		})
	}))

	status, err := c.GetStatus(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, 7, status.TokenBalance)
	assert.Equal(t, 7, status.ScansRemaining)
}

func TestClient_GetStatus_NoBalanceInResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"isPro": true})
	}))

	status, err := c.GetStatus(context.Background(), "access-1")

	require.NoError(t, err)
	assert.False(t, status.HasBalance)
	assert.False(t, status.CanScan)
	assert.True(t, status.IsPro)
}

func TestClient_CheckEligibility_ExplicitCanScan(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entitlements/eligibility", r.URL.Path)

		// Pro accounts may scan with a zero consumable balance.
		json.NewEncoder(w).Encode(map[string]any{
			"tokenBalance": 0,
			"canScan":      true,
			"isPro":        true,
		})
	}))

	status, err := c.CheckEligibility(context.Background(), "access-1")

	require.NoError(t, err)
	assert.True(t, status.CanScan)
	assert.Equal(t, 0, status.TokenBalance)
}

func TestClient_Decrement(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/entitlements/decrement", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{"tokenBalance": 4})
	}))

	status, err := c.Decrement(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, 4, status.TokenBalance)
	assert.True(t, status.HasBalance)
}

func TestClient_Decrement_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"error": "ledger maintenance"})
	}))

	status, err := c.Decrement(context.Background(), "access-1")

	require.Error(t, err)
	assert.Nil(t, status)
	assert.Contains(t, err.Error(), "ledger maintenance")
}

func TestClient_RecordPurchase(t *testing.T) {
	var gotBody map[string]string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entitlements/purchases", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.RecordPurchase(context.Background(), "access-1", "pack.10", "txn-1")

	require.NoError(t, err)
	assert.Equal(t, "pack.10", gotBody["packageId"])
	assert.Equal(t, "txn-1", gotBody["transactionId"])
}
