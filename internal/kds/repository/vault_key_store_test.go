package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// fakeVault serves the subset of the KV v2 and sys/health APIs the key store uses.
type fakeVault struct {
	mu     sync.Mutex
	data   map[string]map[string]interface{}
	tokens []string
	sealed bool
}

func (f *fakeVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, r.Header.Get("X-Vault-Token"))

	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/v1/sys/health" {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"initialized": true, "sealed": f.sealed})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	switch r.Method {
	case http.MethodGet:
		data, ok := f.data[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"data": data, "metadata": map[string]interface{}{"version": 1}},
		})
	case http.MethodPut, http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.data[path] = payload.Data
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"version": 1}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestVaultKeyStore(t *testing.T) (*VaultKeyStore, *fakeVault) {
	t.Helper()
	fake := &fakeVault{data: make(map[string]map[string]interface{})}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewVaultKeyStore(server.URL, "root-token", "/secret/", "kds", logger)
	require.NoError(t, err)
	return store, fake
}

func TestVaultKeyStore_SetAndGet(t *testing.T) {
	store, fake := newTestVaultKeyStore(t)
	ctx := context.Background()

	blob := []byte{0x00, 0xff, 0x10, 0x20}
	require.NoError(t, store.SetSharedKey(ctx, "alice", blob))

	fake.mu.Lock()
	stored, ok := fake.data["secret/data/kds/YWxpY2U"]
	fake.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "AP8QIA==", stored["record"])

	got, err := store.GetSharedKey(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	fake.mu.Lock()
	assert.Contains(t, fake.tokens, "root-token")
	fake.mu.Unlock()
}

func TestVaultKeyStore_DotSegmentIDsStayUnderDataPath(t *testing.T) {
	store, fake := newTestVaultKeyStore(t)
	ctx := context.Background()

	ids := []string{".", "..", "../kds", "a/b", "alice"}
	for i, id := range ids {
		require.NoError(t, store.SetSharedKey(ctx, id, []byte{byte(i)}))
	}

	fake.mu.Lock()
	paths := make([]string, 0, len(fake.data))
	for path := range fake.data {
		paths = append(paths, path)
	}
	fake.mu.Unlock()

	require.Len(t, paths, len(ids))
	for _, path := range paths {
		rest, ok := strings.CutPrefix(path, "secret/data/kds/")
		require.True(t, ok, path)
		assert.NotContains(t, rest, "/")
		assert.NotContains(t, []string{".", ".."}, rest)
	}

	for i, id := range ids {
		got, err := store.GetSharedKey(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, []byte{byte(i)}, got, id)
	}
}

func TestVaultKeyStore_NotFound(t *testing.T) {
	store, _ := newTestVaultKeyStore(t)

	_, err := store.GetSharedKey(context.Background(), "nobody")
	assert.ErrorIs(t, err, kdsDomain.ErrSecretNotFound)
}

func TestVaultKeyStore_InvalidRecord(t *testing.T) {
	store, fake := newTestVaultKeyStore(t)
	fake.data["secret/data/kds/YWxpY2U"] = map[string]interface{}{"record": "%%%"}
	fake.data["secret/data/kds/Ym9i"] = map[string]interface{}{"other": "x"}

	_, err := store.GetSharedKey(context.Background(), "alice")
	assert.ErrorContains(t, err, "invalid record encoding")

	_, err = store.GetSharedKey(context.Background(), "bob")
	assert.ErrorContains(t, err, "invalid record format")
}

func TestVaultKeyStore_Ping(t *testing.T) {
	store, fake := newTestVaultKeyStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	fake.mu.Lock()
	fake.sealed = true
	fake.mu.Unlock()
	assert.Error(t, store.Ping(context.Background()))
}
