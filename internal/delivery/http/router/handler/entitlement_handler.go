package handler

import (
	"log/slog"
	"net/http"

	"scanengine/internal/delivery/http/response"
	"scanengine/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// EntitlementHandler holds dependencies for entitlement-related handlers.
type EntitlementHandler struct {
	uc     usecase.EntitlementUsecase
	logger *slog.Logger
}

// NewEntitlementHandler is the constructor for EntitlementHandler, injected by Fx.
func NewEntitlementHandler(uc usecase.EntitlementUsecase, logger *slog.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		uc:     uc,
		logger: logger,
	}
}

// RefreshStatus reconciles the local balance with the remote ledger.
func (h *EntitlementHandler) RefreshStatus(c echo.Context) error {
	balance := h.uc.RefreshStatus(c.Request().Context())

	return response.Success(c, http.StatusOK, balance, "Balance refreshed")
}

// CheckEligibility answers whether a scan may start right now.
func (h *EntitlementHandler) CheckEligibility(c echo.Context) error {
	eligibility := h.uc.CheckCanScan(c.Request().Context())

	return response.Success(c, http.StatusOK, eligibility, "")
}

// RecordScan consumes one scan credit.
func (h *EntitlementHandler) RecordScan(c echo.Context) error {
	balance, err := h.uc.DecrementToken(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, balance, "Scan recorded")
}

// Purchase buys a token pack and reconciles the balance.
func (h *EntitlementHandler) Purchase(c echo.Context) error {
	var input *usecase.PurchaseInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid purchase input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	balance, err := h.uc.PurchaseTokenPack(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, balance, "Purchase completed")
}

// Restore replays prior purchases and reconciles the balance.
func (h *EntitlementHandler) Restore(c echo.Context) error {
	balance, err := h.uc.RestorePurchases(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, balance, "Purchases restored")
}

// Balance reports the cached balance without touching the ledger.
func (h *EntitlementHandler) Balance(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]int{
		"tokenBalance":   h.uc.TokenBalance(),
		"scansRemaining": h.uc.ScansRemaining(),
	}, "")
}
