package service

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	apperrors "github.com/allisson/kds/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoader(t *testing.T, path string, kmsKeyURI string) *FileMasterKeyLoader {
	t.Helper()
	var kms KMSService
	if kmsKeyURI != "" {
		kms = NewKMSService()
	}
	l, err := NewFileMasterKeyLoader("file://"+path, 16, newTestSymmetricCrypto(t), kms, kmsKeyURI, discardLogger())
	require.NoError(t, err)
	return l
}

func TestFileMasterKeyLoader_CreatesAndReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mkey.key")
	loader := newTestLoader(t, path, "")

	mk, err := loader.LoadOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, mk.Size())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(string(body))
	require.NoError(t, err)
	assert.Equal(t, mk.Bytes(), decoded)

	again, err := loader.LoadOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, mk.Bytes(), again.Bytes())
}

func TestFileMasterKeyLoader_ReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkey.key")
	key := []byte("0123456789abcdef")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0o600))

	mk, err := newTestLoader(t, path, "").LoadOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, mk.Bytes())
}

func TestFileMasterKeyLoader_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong length", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mkey.key")
		body := base64.StdEncoding.EncodeToString(make([]byte, 15))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := newTestLoader(t, path, "").LoadOrCreate(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidMasterKey)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)

		after, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, body, string(after), "a bad key file must not be replaced")
	})

	t.Run("not base64", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mkey.key")
		require.NoError(t, os.WriteFile(path, []byte("%%%"), 0o600))

		_, err := newTestLoader(t, path, "").LoadOrCreate(ctx)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "mkey.key")
		_, err := newTestLoader(t, path, "").LoadOrCreate(ctx)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("bad location", func(t *testing.T) {
		_, err := NewFileMasterKeyLoader("/etc/kds/mkey.key", 16, newTestSymmetricCrypto(t), nil, "", discardLogger())
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidMasterKeyLocation)
	})

	t.Run("kms uri without service", func(t *testing.T) {
		_, err := NewFileMasterKeyLoader(
			"file:///tmp/k",
			16,
			newTestSymmetricCrypto(t),
			nil,
			"base64key://",
			discardLogger(),
		)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})
}

func TestFileMasterKeyLoader_KMSWrapped(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mkey.key")
	uri := generateLocalSecretsURI(t)

	mk, err := newTestLoader(t, path, uri).LoadOrCreate(ctx)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(string(body))
	require.NoError(t, err)
	assert.NotEqual(t, mk.Bytes(), raw, "file holds the KMS ciphertext")

	again, err := newTestLoader(t, path, uri).LoadOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, mk.Bytes(), again.Bytes())

	_, err = newTestLoader(t, path, generateLocalSecretsURI(t)).LoadOrCreate(ctx)
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidMasterKey)
}
