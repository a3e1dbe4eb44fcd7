// Package entitlement contains the HTTP client for the remote
// billing/entitlement ledger. Like the identity client it is stateless:
// one request per call, bearer token attached, failures surfaced as-is.
package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"scanengine/config"
	"scanengine/internal/domain/service"

	"github.com/pkg/errors"
)

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient is the constructor for the entitlement client.
func NewClient(cfg *config.Config, logger *slog.Logger) service.EntitlementBackend {
	return &client{
		baseURL: strings.TrimRight(cfg.Entitlement.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Entitlement.Timeout,
		},
		logger: logger,
	}
}

// statusResponse is the wire shape of every ledger endpoint. The ledger may
// answer with either field name for the balance; tokenBalance wins when both
// are present.
type statusResponse struct {
	TokenBalance   *int   `json:"tokenBalance,omitempty"`
	ScansRemaining *int   `json:"scansRemaining,omitempty"`
	CanScan        *bool  `json:"canScan,omitempty"`
	ScanCount      int    `json:"scanCount,omitempty"`
	ScanLimit      int    `json:"scanLimit,omitempty"`
	IsPro          bool   `json:"isPro,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (c *client) GetStatus(ctx context.Context, accessToken string) (*service.EntitlementStatus, error) {
	return c.roundTrip(ctx, http.MethodGet, "/entitlements/status", accessToken, nil)
}

func (c *client) CheckEligibility(ctx context.Context, accessToken string) (*service.EntitlementStatus, error) {
	return c.roundTrip(ctx, http.MethodGet, "/entitlements/eligibility", accessToken, nil)
}

func (c *client) Decrement(ctx context.Context, accessToken string) (*service.EntitlementStatus, error) {
	return c.roundTrip(ctx, http.MethodPost, "/entitlements/decrement", accessToken, map[string]any{})
}

func (c *client) RecordPurchase(ctx context.Context, accessToken, packageID, transactionID string) error {
	_, err := c.roundTrip(ctx, http.MethodPost, "/entitlements/purchases", accessToken, map[string]string{
		"packageId":     packageID,
		"transactionId": transactionID,
	})

	return err
}

// roundTrip performs a single JSON request against the ledger.
func (c *client) roundTrip(ctx context.Context, method, path, accessToken string, payload any) (*service.EntitlementStatus, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode request for %s", path)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "entitlement request %s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var decoded statusResponse
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != "" {
			return nil, errors.Errorf("entitlement request %s failed with status %d: %s", path, resp.StatusCode, decoded.Error)
		}

		return nil, errors.Errorf("entitlement request %s failed with status %d", path, resp.StatusCode)
	}

	// Acknowledgement-only endpoints answer with an empty body.
	var decoded statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to decode response for %s", path)
	}
	c.logger.Debug("entitlement call completed", slog.String("path", path))

	return toStatus(&decoded), nil
}

// toStatus maps the wire response onto the domain status, resolving the
// tokenBalance/scansRemaining alias pair.
func toStatus(decoded *statusResponse) *service.EntitlementStatus {
	status := &service.EntitlementStatus{
		ScanCount: decoded.ScanCount,
		ScanLimit: decoded.ScanLimit,
		IsPro:     decoded.IsPro,
	}

	switch {
	case decoded.TokenBalance != nil:
		status.TokenBalance = *decoded.TokenBalance
		status.HasBalance = true
	case decoded.ScansRemaining != nil:
		status.TokenBalance = *decoded.ScansRemaining
		status.HasBalance = true
	}
	status.ScansRemaining = status.TokenBalance

	if decoded.CanScan != nil {
		status.CanScan = *decoded.CanScan
	} else {
		status.CanScan = status.HasBalance && status.TokenBalance > 0
	}

	return status
}
