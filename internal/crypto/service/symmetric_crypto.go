package service

import (
	"crypto/hmac"
	"crypto/rand"
	"fmt"
	"hash"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
)

// SymmetricCryptoService implements SymmetricCrypto on top of an AEADManager and HMAC.
type SymmetricCryptoService struct {
	aeadManager AEADManager
	alg         cryptoDomain.Algorithm
	hashFn      func() hash.Hash
	macSize     int
}

// NewSymmetricCrypto validates the algorithm pair and returns a ready provider.
func NewSymmetricCrypto(
	aeadManager AEADManager,
	alg cryptoDomain.Algorithm,
	hashAlg cryptoDomain.HashAlgorithm,
) (*SymmetricCryptoService, error) {
	switch alg {
	case cryptoDomain.AESGCM, cryptoDomain.ChaCha20:
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}

	hashFn, err := hashAlg.New()
	if err != nil {
		return nil, err
	}

	return &SymmetricCryptoService{
		aeadManager: aeadManager,
		alg:         alg,
		hashFn:      hashFn,
		macSize:     hashAlg.Size(),
	}, nil
}

// NewKey returns size bytes from crypto/rand.
func (s *SymmetricCryptoService) NewKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt returns nonce || ciphertext || tag with no associated data.
func (s *SymmetricCryptoService) Encrypt(key, plaintext []byte) ([]byte, error) {
	aead, err := s.aeadManager.CreateCipher(key, s.alg)
	if err != nil {
		return nil, err
	}
	return aead.Seal(plaintext, nil)
}

// Decrypt opens a blob produced by Encrypt.
func (s *SymmetricCryptoService) Decrypt(key, blob []byte) ([]byte, error) {
	aead, err := s.aeadManager.CreateCipher(key, s.alg)
	if err != nil {
		return nil, err
	}
	return aead.Open(blob, nil)
}

// Sign returns HMAC(key, data).
func (s *SymmetricCryptoService) Sign(key, data []byte) []byte {
	mac := hmac.New(s.hashFn, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Verify recomputes the MAC and compares with hmac.Equal.
func (s *SymmetricCryptoService) Verify(key, data, signature []byte) bool {
	return hmac.Equal(s.Sign(key, data), signature)
}

// MACSize returns the HMAC output length.
func (s *SymmetricCryptoService) MACSize() int {
	return s.macSize
}
