// Package billing contains the bridge client for the external billing
// provider. The engine treats the provider as opaque: it only reads
// success/failure and the resulting transaction identifier. Completed
// transactions are immutable and are never rolled back from here.
package billing

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
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient is the constructor for the billing bridge. Billing is optional;
// when the section is absent from config a disabled provider is returned
// and every call fails cleanly.
func NewClient(cfg *config.Config, logger *slog.Logger) service.BillingProvider {
	if cfg.Billing == nil {
		return &disabledProvider{}
	}

	return &client{
		baseURL: strings.TrimRight(cfg.Billing.BaseURL, "/"),
		apiKey:  cfg.Billing.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Billing.Timeout,
		},
		logger: logger,
	}
}

type purchaseResponse struct {
	TransactionID string `json:"transactionId"`
	PackageID     string `json:"packageId"`
	Error         string `json:"error,omitempty"`
}

type restoreResponse struct {
	Transactions []struct {
		PackageID     string `json:"packageId"`
		TransactionID string `json:"transactionId"`
	} `json:"transactions"`
	Error string `json:"error,omitempty"`
}

func (c *client) PurchasePackage(ctx context.Context, pack entity.TokenPack) (*service.PurchaseResult, error) {
	var decoded purchaseResponse
	err := c.post(ctx, "/purchase", map[string]string{"packageId": pack.PackageID}, &decoded)
	if err != nil {
		return nil, err
	}
	if decoded.TransactionID == "" {
		return nil, errors.New("billing provider returned no transaction id")
	}
	c.logger.Info("purchase completed",
		slog.String("package_id", pack.PackageID),
		slog.String("transaction_id", decoded.TransactionID))

	return &service.PurchaseResult{
		TransactionID: decoded.TransactionID,
		PackageID:     pack.PackageID,
	}, nil
}

func (c *client) RestorePurchases(ctx context.Context) (*service.LedgerSnapshot, error) {
	var decoded restoreResponse
	if err := c.post(ctx, "/restore", map[string]string{}, &decoded); err != nil {
		return nil, err
	}

	snapshot := &service.LedgerSnapshot{}
	for _, tx := range decoded.Transactions {
		snapshot.Transactions = append(snapshot.Transactions, entity.PurchaseRecord{
			PackageID:     tx.PackageID,
			TransactionID: tx.TransactionID,
		})
	}

	return snapshot, nil
}

func (c *client) post(ctx context.Context, path string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to encode request for %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "billing request POST %s failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return errors.Errorf("billing request %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response for %s", path)
	}

	return nil
}

// disabledProvider stands in when no billing section is configured.
type disabledProvider struct{}

func (*disabledProvider) PurchasePackage(context.Context, entity.TokenPack) (*service.PurchaseResult, error) {
	return nil, errors.New("billing provider is not configured")
}

func (*disabledProvider) RestorePurchases(context.Context) (*service.LedgerSnapshot, error) {
	return nil, errors.New("billing provider is not configured")
}
