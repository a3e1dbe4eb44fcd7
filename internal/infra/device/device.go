// Package device supplies the stable installation identifier used for
// guest account provisioning. The raw platform id never leaves the device:
// a pseudonymous identifier is derived from it with HKDF keyed by an
// app-level secret. When no platform id is available a generated identifier
// is persisted next to the credential store and reused from then on.
package device

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"scanengine/config"
	"scanengine/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// Platform identifier sources, tried in order.
var platformIDPaths = []string{
	"/etc/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

type provider struct {
	secret       string
	fallbackPath string
	logger       *slog.Logger

	once sync.Once
	id   string
	err  error
}

// NewProvider is the constructor for the device identity provider. The
// fallback identifier lives alongside the credential store.
func NewProvider(cfg *config.Config, logger *slog.Logger) service.DeviceIdentity {
	return &provider{
		secret:       cfg.Device.Secret,
		fallbackPath: filepath.Join(filepath.Dir(cfg.Storage.Path), "device_id"),
		logger:       logger,
	}
}

// DeviceID returns the derived installation identifier. The value is
// computed once per process and stable across restarts.
func (p *provider) DeviceID(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.id, p.err = p.resolve()
	})

	return p.id, p.err
}

func (p *provider) resolve() (string, error) {
	if raw, ok := readPlatformID(); ok {
		return p.derive(raw)
	}

	raw, err := p.loadOrCreateFallback()
	if err != nil {
		return "", err
	}
	p.logger.Debug("using generated fallback device id")

	return p.derive(raw)
}

// derive turns the raw identifier into a pseudonymous one via HKDF-SHA256.
func (p *provider) derive(raw string) (string, error) {
	reader := hkdf.New(sha256.New, []byte(raw), []byte(p.secret), []byte("scanengine-device-id"))
	out := make([]byte, 16)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", errors.Wrap(err, "failed to derive device id")
	}

	return hex.EncodeToString(out), nil
}

func readPlatformID() (string, bool) {
	for _, path := range platformIDPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, true
		}
	}

	return "", false
}

func (p *provider) loadOrCreateFallback() (string, error) {
	if data, err := os.ReadFile(p.fallbackPath); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(p.fallbackPath), 0o700); err != nil {
		return "", errors.Wrap(err, "failed to create device id directory")
	}
	if err := os.WriteFile(p.fallbackPath, []byte(id+"\n"), 0o600); err != nil {
		return "", errors.Wrap(err, "failed to persist fallback device id")
	}

	return id, nil
}
