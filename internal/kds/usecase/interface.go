// Package usecase implements the key distribution exchange and long-term secret management.
package usecase

import (
	"context"

	cryptoService "github.com/allisson/kds/internal/crypto/service"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// KeyStore persists opaque stored key records by principal id.
// Implementations must give last-write-wins semantics on SetSharedKey and
// must not leave a partially written record behind on failure.
type KeyStore interface {
	// SetSharedKey replaces the record for id.
	SetSharedKey(ctx context.Context, id string, blob []byte) error

	// GetSharedKey returns the record for id. Returns ErrSecretNotFound if absent.
	GetSharedKey(ctx context.Context, id string) ([]byte, error)
}

// PrincipalKeyManager protects long-term secrets at rest with keys derived from the master key.
type PrincipalKeyManager interface {
	// DeriveKeyMaterial returns the principal's storage keys. Deterministic per master key and id.
	DeriveKeyMaterial(principalID string) (cryptoService.KeyMaterial, error)

	// GetLongTermSecret loads, verifies and decrypts the principal's secret.
	// Returns ErrSecretNotFound, ErrIntegrity or ErrDecryption.
	GetLongTermSecret(ctx context.Context, principalID string) ([]byte, error)

	// SetLongTermSecret encrypts, signs and stores the principal's secret, replacing any prior record.
	SetLongTermSecret(ctx context.Context, principalID string, secret []byte) error
}

// KDSUseCase is the externally visible surface of the key distribution service.
type KDSUseCase interface {
	// GetInfo returns the service version.
	GetInfo(ctx context.Context) string

	// GetSessionKey runs one session key exchange.
	//
	// Returns ErrMalformedRequest for structural problems and ErrUnauthorized for
	// unknown principals, bad signatures or stale timestamps. Store problems
	// surface as ErrIntegrity or ErrDecryption.
	GetSessionKey(ctx context.Context, req *kdsDomain.SessionRequest) (*kdsDomain.SessionReply, error)

	// SetKey stores a principal's long-term secret.
	SetKey(ctx context.Context, principalID string, secret []byte) error
}
