package device

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *provider {
	return &provider{
		secret:       "test-secret",
		fallbackPath: filepath.Join(t.TempDir(), "device_id"),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestProvider_Derive_Deterministic(t *testing.T) {
	p := newTestProvider(t)

	first, err := p.derive("raw-machine-id")
	require.NoError(t, err)
	second, err := p.derive("raw-machine-id")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
	// The raw platform id must not be recoverable from the output.
	assert.NotContains(t, first, "raw-machine-id")
}

func TestProvider_Derive_SecretSeparatesIdentifiers(t *testing.T) {
	p := newTestProvider(t)
	other := newTestProvider(t)
	other.secret = "another-secret"

	a, err := p.derive("raw-machine-id")
	require.NoError(t, err)
	b, err := other.derive("raw-machine-id")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestProvider_FallbackIDIsPersisted(t *testing.T) {
	p := newTestProvider(t)

	first, err := p.loadOrCreateFallback()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second provider pointed at the same path reuses the stored value.
	again := newTestProvider(t)
	again.fallbackPath = p.fallbackPath

	second, err := again.loadOrCreateFallback()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
