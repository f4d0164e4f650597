package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
)

// AEADManagerService builds a fresh cipher per call. Keys differ per principal
// and per session, so nothing is cached.
type AEADManagerService struct{}

// NewAEADManager returns an AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns ErrUnsupportedAlgorithm for an unknown alg and
// ErrInvalidKeySize when alg cannot use a key of this length.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	switch alg {
	case cryptoDomain.AESGCM, cryptoDomain.ChaCha20:
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}

	if !alg.ValidKeySize(len(key)) {
		return nil, fmt.Errorf("%w: %s cannot use a %d-byte key", cryptoDomain.ErrInvalidKeySize, alg, len(key))
	}

	if alg == cryptoDomain.AESGCM {
		return newAESGCM(key)
	}
	return newChaCha20Poly1305(key)
}
