package service

import (
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
)

// HKDFService implements KeyDerivation with golang.org/x/crypto/hkdf.
type HKDFService struct {
	hashFn   func() hash.Hash
	hashSize int
}

// NewHKDF returns an HKDF provider for the given hash.
func NewHKDF(hashAlg cryptoDomain.HashAlgorithm) (*HKDFService, error) {
	hashFn, err := hashAlg.New()
	if err != nil {
		return nil, err
	}
	return &HKDFService{hashFn: hashFn, hashSize: hashAlg.Size()}, nil
}

// Extract is HKDF-Extract. A nil salt means a zero-filled salt of hash length.
func (h *HKDFService) Extract(salt, ikm []byte) []byte {
	return hkdf.Extract(h.hashFn, ikm, salt)
}

// Expand is HKDF-Expand. length may not exceed 255 hash blocks.
func (h *HKDFService) Expand(prk, info []byte, length int) ([]byte, error) {
	if length <= 0 || length > 255*h.hashSize {
		return nil, fmt.Errorf("%w: cannot expand to %d bytes", cryptoDomain.ErrInvalidKeySize, length)
	}

	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.Expand(h.hashFn, prk, info), out); err != nil {
		return nil, fmt.Errorf("failed to expand key: %w", err)
	}
	return out, nil
}

// KeyMaterial is a signing key and an encryption key produced by one expansion.
type KeyMaterial struct {
	SigningKey    []byte
	EncryptionKey []byte
}

// SplitKeyMaterial cuts 2*keySize bytes into a signing half followed by an encryption half.
// It panics when material has any other length.
func SplitKeyMaterial(material []byte, keySize int) KeyMaterial {
	if len(material) != 2*keySize {
		panic(fmt.Sprintf("key material must be %d bytes, got %d", 2*keySize, len(material)))
	}
	return KeyMaterial{
		SigningKey:    material[:keySize:keySize],
		EncryptionKey: material[keySize:],
	}
}

// Zero wipes both halves.
func (k KeyMaterial) Zero() {
	cryptoDomain.Zero(k.SigningKey, k.EncryptionKey)
}
