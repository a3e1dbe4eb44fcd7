// Package repository defines the persistence interfaces the use cases
// depend on, decoupled from any concrete storage technology.
package repository

import (
	"context"

	"scanengine/internal/errors"
)

// CredentialKind names one of the durable credential slots.
type CredentialKind string

// The four slots the engine persists across process restarts.
const (
	CredentialAccessToken  CredentialKind = "access_token"
	CredentialRefreshToken CredentialKind = "refresh_token"
	CredentialIDToken      CredentialKind = "id_token"
	CredentialUserProfile  CredentialKind = "user_profile"
)

// AllCredentialKinds lists every slot, in the order ClearAll removes them.
func AllCredentialKinds() []CredentialKind {
	return []CredentialKind{
		CredentialAccessToken,
		CredentialRefreshToken,
		CredentialIDToken,
		CredentialUserProfile,
	}
}

// ErrCredentialNotFound is returned by Get when the slot is empty.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore persists the current session's credentials and cached
// profile across process restarts. Pure key-value storage, no business
// logic; each operation is atomic at single-slot granularity and performs
// no retries. A storage failure is terminal for that operation and left to
// the caller to judge.
type CredentialStore interface {
	// Get reads one slot, returning ErrCredentialNotFound when it is empty.
	Get(ctx context.Context, kind CredentialKind) (string, error)

	// Set writes one slot, replacing any previous value.
	Set(ctx context.Context, kind CredentialKind, value string) error

	// Delete removes one slot. Removing an empty slot is not an error.
	Delete(ctx context.Context, kind CredentialKind) error

	// ClearAll removes every slot, best effort: a failure on one slot does
	// not stop removal of the others. The joined error reports what failed.
	ClearAll(ctx context.Context) error
}
