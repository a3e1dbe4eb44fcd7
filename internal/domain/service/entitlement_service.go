package service

import (
	"context"
)

// EntitlementStatus is the remote ledger's view of the scan entitlement.
// HasBalance distinguishes "response carried no balance" from a balance of
// zero on decrement responses.
type EntitlementStatus struct {
	TokenBalance   int
	ScansRemaining int
	CanScan        bool
	HasBalance     bool

	ScanCount int
	ScanLimit int
	IsPro     bool
}

// EntitlementBackend is the stateless request/response wrapper around the
// remote billing/entitlement ledger. Per-call contract mirrors
// IdentityProvider: one request, bearer token attached, failures surfaced
// as-is, no retry.
type EntitlementBackend interface {
	// GetStatus reads the authoritative balance.
	GetStatus(ctx context.Context, accessToken string) (*EntitlementStatus, error)

	// CheckEligibility asks whether the ledger allows another scan.
	CheckEligibility(ctx context.Context, accessToken string) (*EntitlementStatus, error)

	// Decrement consumes one scan credit server-side. The response may carry
	// the post-decrement balance for reconciliation.
	Decrement(ctx context.Context, accessToken string) (*EntitlementStatus, error)

	// RecordPurchase notifies the ledger of a completed billing transaction.
	RecordPurchase(ctx context.Context, accessToken, packageID, transactionID string) error
}
