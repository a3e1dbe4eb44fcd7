package entity

// CreditBalance is the local view of the consumable scan entitlement.
// The remote ledger is authoritative; this value is a cache that moves
// optimistically on scan consumption and is overwritten by every successful
// remote read.
type CreditBalance struct {
	TokenBalance   int // Count of scans the ledger still allows.
	ScansRemaining int // Derived alias read by eligibility checks; equals TokenBalance after reconciliation.

	// Legacy fields kept for callers of the old subscription shape.
	// They carry no invariants of their own.
	ScanCount int
	ScanLimit int
	IsPro     bool
}

// ScanEligibility is the answer to "may the user start a scan right now".
type ScanEligibility struct {
	CanScan        bool
	ScansRemaining int
}

// TokenPack identifies a purchasable bundle of scan credits.
type TokenPack struct {
	PackageID string
	Title     string
	Credits   int
}

// PurchaseRecord identifies a completed billing transaction forwarded to the
// entitlement backend to credit the ledger. It is transient; idempotency of
// crediting is the remote ledger's responsibility.
type PurchaseRecord struct {
	PackageID     string
	TransactionID string
}
