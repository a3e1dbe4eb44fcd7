package usecase

import (
	"context"

	"scanengine/internal/domain/entity"
)

// PurchaseInput identifies the token pack the user is buying.
type PurchaseInput struct {
	PackageID string `json:"packageId" validate:"required"`
	Title     string `json:"title" validate:"omitempty,max=128"`
	Credits   int    `json:"credits" validate:"omitempty,min=0"`
}

// EntitlementUsecase owns the local credit balance and keeps it consistent
// with the remote ledger. The ledger is authoritative; the local balance is
// a cache with explicit reconciliation rules.
type EntitlementUsecase interface {
	// RefreshStatus overwrites the local balance with the remote one.
	// On remote failure, or when unauthenticated, the balance resets to
	// zero. Idempotent and safe to call repeatedly; this is the only
	// operation allowed to move the local balance backward as well as
	// forward.
	RefreshStatus(ctx context.Context) *entity.CreditBalance

	// CheckCanScan answers whether a scan may start. Remote failure falls
	// back to the cached balance rather than blocking the user.
	CheckCanScan(ctx context.Context) *entity.ScanEligibility

	// DecrementToken consumes one credit: optimistic local subtraction,
	// then remote decrement. A remote failure reverts the subtraction; a
	// response balance replaces the optimistic guess.
	DecrementToken(ctx context.Context) (*entity.CreditBalance, error)

	// PurchaseTokenPack runs the billing purchase, records it on the
	// ledger, then refreshes the balance unconditionally.
	PurchaseTokenPack(ctx context.Context, input *PurchaseInput) (*entity.CreditBalance, error)

	// RestorePurchases replays the billing provider's ledger snapshot and
	// refreshes the balance.
	RestorePurchases(ctx context.Context) (*entity.CreditBalance, error)

	// Read-only balance views.
	TokenBalance() int
	ScansRemaining() int
}
