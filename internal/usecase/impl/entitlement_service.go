package impl

import (
	"context"
	"log/slog"
	"sync"

	deliverycontext "scanengine/internal/delivery/context"
	"scanengine/internal/domain/entity"
	domainerrors "scanengine/internal/domain/errors"
	"scanengine/internal/domain/service"
	"scanengine/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// entitlementService implements the EntitlementUsecase interface. It keeps
// the local credit balance consistent with the remote ledger: the ledger is
// the single source of truth, the local balance is an optimistic cache.
// Concurrent decrements are deliberately not serialized; drift is corrected
// by the next RefreshStatus, which runs after every purchase and sign-in.
type entitlementService struct {
	session usecase.TokenSource
	backend service.EntitlementBackend
	billing service.BillingProvider
	logger  *slog.Logger

	mu      sync.Mutex
	balance entity.CreditBalance
}

// EntitlementServiceParams holds dependencies for entitlementService, injected by Fx.
type EntitlementServiceParams struct {
	fx.In

	Session usecase.TokenSource
	Backend service.EntitlementBackend
	Billing service.BillingProvider
	Logger  *slog.Logger
}

// NewEntitlementService is the constructor for entitlementService.
func NewEntitlementService(params EntitlementServiceParams) usecase.EntitlementUsecase {
	return &entitlementService{
		session: params.Session,
		backend: params.Backend,
		billing: params.Billing,
		logger:  params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *entitlementService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// balanceSnapshot is the explicit transaction record of an optimistic
// decrement: the values to restore when the remote side fails. It is passed
// by value to the revert step, never captured through enclosing scope.
type balanceSnapshot struct {
	tokenBalance   int
	scansRemaining int
}

// RefreshStatus overwrites the local balance with the remote one, remote
// wins unconditionally. Failure and unauthenticated both reset to zero.
func (srv *entitlementService) RefreshStatus(ctx context.Context) *entity.CreditBalance {
	if !srv.session.IsAuthenticated() {
		srv.resetBalance()

		return srv.currentBalance()
	}

	status, err := srv.backend.GetStatus(ctx, srv.session.AccessToken())
	if err != nil {
		srv.log(ctx).Warn("entitlement status fetch failed, resetting local balance", slog.Any("error", err))
		srv.resetBalance()

		return srv.currentBalance()
	}

	srv.adoptStatus(status)
	srv.log(ctx).Debug("entitlement status reconciled", slog.Int("token_balance", status.TokenBalance))

	return srv.currentBalance()
}

// CheckCanScan prefers the remote answer and falls back to the cached
// balance when the ledger is unreachable. An incorrect allow is recoverable
// (the decrement will fail or the backend enforces the true limit); an
// incorrect deny blocks a paying user.
func (srv *entitlementService) CheckCanScan(ctx context.Context) *entity.ScanEligibility {
	if !srv.session.IsAuthenticated() {
		local := srv.currentBalance()

		return &entity.ScanEligibility{
			CanScan:        local.ScansRemaining > 0,
			ScansRemaining: local.ScansRemaining,
		}
	}

	status, err := srv.backend.CheckEligibility(ctx, srv.session.AccessToken())
	if err != nil {
		local := srv.currentBalance()
		srv.log(ctx).Warn("eligibility check failed, falling back to cached balance",
			slog.Any("error", err), slog.Int("scans_remaining", local.ScansRemaining))

		return &entity.ScanEligibility{
			CanScan:        local.ScansRemaining > 0,
			ScansRemaining: local.ScansRemaining,
		}
	}

	return &entity.ScanEligibility{
		CanScan:        status.CanScan,
		ScansRemaining: status.ScansRemaining,
	}
}

// DecrementToken consumes one scan credit. The local subtraction happens
// first so the UI reflects consumption immediately; the remote ledger then
// either confirms it (possibly correcting the guess with its authoritative
// balance) or the subtraction is reverted from the snapshot taken before
// this call's own update. The balance never goes negative, and after the
// call resolves the local state equals either the server's post-decrement
// value or the pre-call value.
func (srv *entitlementService) DecrementToken(ctx context.Context) (*entity.CreditBalance, error) {
	snapshot := srv.beginOptimisticDecrement()

	if !srv.session.IsAuthenticated() {
		// No remote ledger for anonymous sessions; the local decrement is final.
		return srv.currentBalance(), nil
	}

	status, err := srv.backend.Decrement(ctx, srv.session.AccessToken())
	if err != nil {
		srv.revert(snapshot)
		srv.log(ctx).Warn("remote decrement failed, reverted local balance",
			slog.Any("error", err), slog.Int("token_balance", snapshot.tokenBalance))

		return nil, errors.Wrap(domainerrors.ErrEntitlementUnavailable, "failed to record scan on ledger")
	}

	if status.HasBalance {
		// Remote reconciliation overrides the optimistic guess.
		srv.adoptStatus(status)
	}

	return srv.currentBalance(), nil
}

// PurchaseTokenPack delegates the purchase to the billing provider, records
// the transaction on the ledger, then refreshes unconditionally: the remote
// ledger is the tie-breaker for whatever the provider and backend agreed
// on, even when our own notification call failed. The completed billing
// transaction is immutable and is never rolled back from here.
func (srv *entitlementService) PurchaseTokenPack(ctx context.Context, input *usecase.PurchaseInput) (*entity.CreditBalance, error) {
	if !srv.session.IsAuthenticated() {
		return nil, errors.Wrap(domainerrors.ErrNotAuthenticated, "purchase requires a session")
	}

	result, err := srv.billing.PurchasePackage(ctx, entity.TokenPack{
		PackageID: input.PackageID,
		Title:     input.Title,
		Credits:   input.Credits,
	})
	if err != nil {
		srv.log(ctx).Warn("purchase failed", slog.String("package_id", input.PackageID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPurchaseFailed, "billing purchase failed")
	}

	if err := srv.backend.RecordPurchase(ctx, srv.session.AccessToken(), result.PackageID, result.TransactionID); err != nil {
		// Best effort: the ledger learns about the transaction from the
		// provider as well, and the refresh below picks up the outcome.
		srv.log(ctx).Warn("failed to record purchase on ledger",
			slog.String("transaction_id", result.TransactionID), slog.Any("error", err))
	}

	return srv.RefreshStatus(ctx), nil
}

// RestorePurchases replays the provider's entitlement snapshot and syncs
// the local balance with whatever the ledger concluded.
func (srv *entitlementService) RestorePurchases(ctx context.Context) (*entity.CreditBalance, error) {
	snapshot, err := srv.billing.RestorePurchases(ctx)
	if err != nil {
		srv.log(ctx).Warn("restore purchases failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPurchaseFailed.WithDetails("restore failed"), "billing restore failed")
	}
	srv.log(ctx).Info("purchases restored", slog.Int("transactions", len(snapshot.Transactions)))

	return srv.RefreshStatus(ctx), nil
}

// TokenBalance returns the cached ledger balance.
func (srv *entitlementService) TokenBalance() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.balance.TokenBalance
}

// ScansRemaining returns the cached eligibility alias of the balance.
func (srv *entitlementService) ScansRemaining() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.balance.ScansRemaining
}

// beginOptimisticDecrement captures the pre-decrement values and applies
// the subtraction to both fields, clamped at zero.
func (srv *entitlementService) beginOptimisticDecrement() balanceSnapshot {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	snapshot := balanceSnapshot{
		tokenBalance:   srv.balance.TokenBalance,
		scansRemaining: srv.balance.ScansRemaining,
	}

	srv.balance.TokenBalance = max(0, srv.balance.TokenBalance-1)
	srv.balance.ScansRemaining = srv.balance.TokenBalance

	return snapshot
}

// revert restores the balance from the explicit snapshot.
func (srv *entitlementService) revert(snapshot balanceSnapshot) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.balance.TokenBalance = snapshot.tokenBalance
	srv.balance.ScansRemaining = snapshot.scansRemaining
}

// adoptStatus overwrites the local balance with the remote one.
func (srv *entitlementService) adoptStatus(status *service.EntitlementStatus) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.balance = entity.CreditBalance{
		TokenBalance:   max(0, status.TokenBalance),
		ScansRemaining: max(0, status.TokenBalance),
		ScanCount:      status.ScanCount,
		ScanLimit:      status.ScanLimit,
		IsPro:          status.IsPro,
	}
}

func (srv *entitlementService) resetBalance() {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.balance = entity.CreditBalance{}
}

// currentBalance returns a copy of the guarded balance.
func (srv *entitlementService) currentBalance() *entity.CreditBalance {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	balance := srv.balance

	return &balance
}
