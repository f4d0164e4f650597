// Package repository implements key stores for principal long-term secret records.
//
// Records are opaque to every implementation. PostgreSQL and MySQL share the
// kds_keys table created by the migrations; Vault uses a KV v2 mount.
package repository

import (
	"context"
	"sync"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// MemoryKeyStore keeps records in process memory. Intended for tests and single-node development.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// NewMemoryKeyStore creates an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string][]byte)}
}

// SetSharedKey stores a copy of blob under id.
func (m *MemoryKeyStore) SetSharedKey(ctx context.Context, id string, blob []byte) error {
	stored := make([]byte, len(blob))
	copy(stored, blob)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[id] = stored
	return nil
}

// GetSharedKey returns a copy of the record for id.
func (m *MemoryKeyStore) GetSharedKey(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.keys[id]
	if !ok {
		return nil, kdsDomain.ErrSecretNotFound
	}

	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// Ping always succeeds.
func (m *MemoryKeyStore) Ping(ctx context.Context) error {
	return nil
}
