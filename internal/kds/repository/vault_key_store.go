package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// vaultRecordField is the KV field holding the base64 record.
const vaultRecordField = "record"

// VaultKeyStore stores records in a HashiCorp Vault KV v2 mount under
// <mount>/data/<dataPath>/<base64url(principal id)>.
type VaultKeyStore struct {
	client    *api.Client
	mountPath string
	dataPath  string
	logger    *slog.Logger
}

// NewVaultKeyStore creates a token-authenticated Vault client.
func NewVaultKeyStore(address, token, mountPath, dataPath string, logger *slog.Logger) (*VaultKeyStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultKeyStore{
		client:    client,
		mountPath: strings.Trim(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		logger:    logger,
	}, nil
}

// vaultKeyName encodes a principal id as a single path segment. Raw ids may
// contain "/" or be "." or "..", which Vault would resolve as path components.
func vaultKeyName(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func (v *VaultKeyStore) path(id string) string {
	if v.dataPath == "" {
		return fmt.Sprintf("%s/data/%s", v.mountPath, vaultKeyName(id))
	}
	return fmt.Sprintf("%s/data/%s/%s", v.mountPath, v.dataPath, vaultKeyName(id))
}

// SetSharedKey writes a new KV version for id.
func (v *VaultKeyStore) SetSharedKey(ctx context.Context, id string, blob []byte) error {
	path := v.path(id)
	data := map[string]interface{}{
		"data": map[string]interface{}{
			vaultRecordField: base64.StdEncoding.EncodeToString(blob),
		},
	}

	if _, err := v.client.Logical().WriteWithContext(ctx, path, data); err != nil {
		v.logger.Error("failed to write to vault", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("failed to set shared key: %w", err)
	}
	return nil
}

// GetSharedKey reads the latest KV version for id.
func (v *VaultKeyStore) GetSharedKey(ctx context.Context, id string) ([]byte, error) {
	path := v.path(id)

	secret, err := v.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		v.logger.Error("failed to read from vault", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get shared key: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, kdsDomain.ErrSecretNotFound
	}

	// A deleted KV v2 version reads back with data: null.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, kdsDomain.ErrSecretNotFound
	}

	encoded, ok := data[vaultRecordField].(string)
	if !ok {
		return nil, errors.New("invalid record format in vault data")
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid record encoding in vault data: %w", err)
	}
	return blob, nil
}

// Ping succeeds when Vault is initialized and unsealed.
func (v *VaultKeyStore) Ping(ctx context.Context) error {
	health, err := v.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized || health.Sealed {
		return fmt.Errorf("vault is not available (initialized=%t, sealed=%t)", health.Initialized, health.Sealed)
	}
	return nil
}
