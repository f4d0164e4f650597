package domain

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
)

// MasterKey is the root secret of the service. Every principal's storage keys
// are derived from it, so it never leaves the process and never appears in logs.
//
// A MasterKey is built once at startup and shared read-only afterwards.
// Close zeroes the material on shutdown.
type MasterKey struct {
	mu  sync.RWMutex
	key []byte
}

// NewMasterKey copies key into a new MasterKey. The key must be exactly size bytes.
func NewMasterKey(key []byte, size int) (*MasterKey, error) {
	if len(key) != size {
		return nil, fmt.Errorf(
			"%w: master key must be %d bytes, got %d",
			ErrInvalidMasterKey,
			size,
			len(key),
		)
	}

	k := make([]byte, len(key))
	copy(k, key)
	return &MasterKey{key: k}, nil
}

// Bytes returns a copy of the key material.
func (m *MasterKey) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]byte, len(m.key))
	copy(out, m.key)
	return out
}

// Size returns the key length in bytes.
func (m *MasterKey) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.key)
}

// Close zeroes the key material.
func (m *MasterKey) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	Zero(m.key)
	m.key = nil
}

func (m *MasterKey) String() string {
	return "[REDACTED]"
}

// LogValue keeps the key out of structured logs.
func (m *MasterKey) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// ParseMasterKeyLocation extracts the filesystem path from a file:// location.
// Both file:///abs/path and the legacy file:/abs/path forms are accepted.
func ParseMasterKeyLocation(location string) (string, error) {
	if !strings.HasPrefix(location, "file:") {
		return "", fmt.Errorf("%w: %q", ErrInvalidMasterKeyLocation, location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMasterKeyLocation, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote host %q", ErrInvalidMasterKeyLocation, u.Host)
	}

	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidMasterKeyLocation)
	}

	return path, nil
}

// KMSKeeper wraps and unwraps the master key file body with an external KMS.
// *secrets.Keeper from gocloud.dev satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
