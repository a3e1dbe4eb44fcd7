package service

import (
	"context"

	"scanengine/internal/domain/entity"
)

// PurchaseResult identifies a billing transaction the provider completed.
// Once issued the transaction is immutable; this engine never rolls it back.
type PurchaseResult struct {
	TransactionID string
	PackageID     string
}

// LedgerSnapshot is the billing provider's view of previously purchased,
// still-active entitlements, returned by a restore.
type LedgerSnapshot struct {
	Transactions []entity.PurchaseRecord
}

// BillingProvider wraps the external billing SDK. Both calls are opaque to
// the engine: success/failure plus a transaction identifier is all it reads.
type BillingProvider interface {
	PurchasePackage(ctx context.Context, pack entity.TokenPack) (*PurchaseResult, error)
	RestorePurchases(ctx context.Context) (*LedgerSnapshot, error)
}
