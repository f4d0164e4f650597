package domain

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// Algorithm represents the AEAD used to protect stored secrets and issued tickets.
//
// Both algorithms provide authenticated encryption, so a modified ciphertext is
// rejected instead of decrypting to garbage.
type Algorithm string

const (
	// AESGCM is AES in Galois/Counter Mode. The key selects the variant:
	// 16 bytes for AES-128, 24 for AES-192, 32 for AES-256.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305. It only accepts 32-byte keys.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ValidKeySize reports whether size is an acceptable key length for the algorithm.
func (a Algorithm) ValidKeySize(size int) bool {
	switch a {
	case AESGCM:
		return size == 16 || size == 24 || size == 32
	case ChaCha20:
		return size == 32
	default:
		return false
	}
}

// HashAlgorithm selects the hash function behind HMAC signatures and HKDF.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	SHA384 HashAlgorithm = "sha384"
	SHA512 HashAlgorithm = "sha512"
)

// New returns the hash constructor, or ErrUnsupportedHash.
func (h HashAlgorithm) New() (func() hash.Hash, error) {
	switch h {
	case SHA256:
		return sha256.New, nil
	case SHA384:
		return sha512.New384, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, ErrUnsupportedHash
	}
}

// Size returns the digest length in bytes, which is also the MAC length.
// Unknown algorithms report zero.
func (h HashAlgorithm) Size() int {
	switch h {
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}
