package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"scanengine/config"
	"scanengine/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newTestStore(t *testing.T) repository.CredentialStore {
	cfg := &config.Config{}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "credentials.db")

	lifecycle := fxtest.NewLifecycle(t)
	db, err := New(Params{Lifecycle: lifecycle, Config: cfg})
	require.NoError(t, err)
	lifecycle.RequireStart()
	t.Cleanup(func() { lifecycle.RequireStop() })

	return NewCredentialStore(db)
}

func TestCredentialStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, repository.CredentialAccessToken, "access-1"))

	value, err := store.Get(ctx, repository.CredentialAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", value)
}

func TestCredentialStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, repository.CredentialAccessToken, "access-1"))
	require.NoError(t, store.Set(ctx, repository.CredentialAccessToken, "access-2"))

	value, err := store.Get(ctx, repository.CredentialAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-2", value)
}

func TestCredentialStore_GetMissingSlot(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), repository.CredentialIDToken)

	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}

func TestCredentialStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, repository.CredentialRefreshToken, "refresh-1"))
	require.NoError(t, store.Delete(ctx, repository.CredentialRefreshToken))

	_, err := store.Get(ctx, repository.CredentialRefreshToken)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)

	// Deleting an already empty slot is not an error.
	assert.NoError(t, store.Delete(ctx, repository.CredentialRefreshToken))
}

func TestCredentialStore_ClearAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, kind := range repository.AllCredentialKinds() {
		require.NoError(t, store.Set(ctx, kind, "value-"+string(kind)))
	}

	require.NoError(t, store.ClearAll(ctx))

	for _, kind := range repository.AllCredentialKinds() {
		_, err := store.Get(ctx, kind)
		assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
	}
}

func TestCredentialStore_SurvivesReopen(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	open := func() (repository.CredentialStore, *fxtest.Lifecycle) {
		lifecycle := fxtest.NewLifecycle(t)
		db, err := New(Params{Lifecycle: lifecycle, Config: cfg})
		require.NoError(t, err)
		lifecycle.RequireStart()

		return NewCredentialStore(db), lifecycle
	}

	store, lifecycle := open()
	require.NoError(t, store.Set(ctx, repository.CredentialUserProfile, `{"sub":"user-1"}`))
	lifecycle.RequireStop()

	store, lifecycle = open()
	defer lifecycle.RequireStop()

	value, err := store.Get(ctx, repository.CredentialUserProfile)
	require.NoError(t, err)
	assert.Equal(t, `{"sub":"user-1"}`, value)
}
