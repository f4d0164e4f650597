// Package service provides the cryptographic primitives of the key distribution service:
// AEAD ciphers, HMAC signing, HKDF derivation, KMS access and master key loading.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
)

// AEAD is an authenticated cipher bound to one key.
type AEAD interface {
	// Seal returns nonce || ciphertext || tag under a fresh random nonce.
	Seal(plaintext, aad []byte) ([]byte, error)

	// Open reverses Seal. aad must match.
	Open(blob, aad []byte) ([]byte, error)
}

// AEADManager builds an AEAD for a key and algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// SymmetricCrypto bundles the keyed primitives the protocol needs: a randomized
// authenticated cipher whose output is self-contained, and a MAC.
type SymmetricCrypto interface {
	// NewKey returns size random bytes.
	NewKey(size int) ([]byte, error)

	// Encrypt returns nonce || ciphertext. Two calls with the same input differ.
	Encrypt(key, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt. Returns ErrDecryptionFailed on any authentication problem.
	Decrypt(key, blob []byte) ([]byte, error)

	// Sign returns the MAC of data under key.
	Sign(key, data []byte) []byte

	// Verify compares the MAC of data against signature in constant time.
	Verify(key, data, signature []byte) bool

	// MACSize returns the signature length.
	MACSize() int
}

// KeyDerivation is HKDF split into its two halves.
type KeyDerivation interface {
	// Extract concentrates ikm into a pseudorandom key, using salt.
	Extract(salt, ikm []byte) []byte

	// Expand stretches prk into length bytes bound to info.
	Expand(prk, info []byte, length int) ([]byte, error)
}

// MasterKeyLoader produces the process master key.
type MasterKeyLoader interface {
	LoadOrCreate(ctx context.Context) (*cryptoDomain.MasterKey, error)
}
