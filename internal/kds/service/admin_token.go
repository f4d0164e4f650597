package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/kds/internal/errors"
)

// AdminTokenService issues and verifies the bearer token that guards set_key.
// Only the Argon2id hash is ever configured on the server.
type AdminTokenService interface {
	// GenerateToken returns a random token and its hash.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes plainToken with Argon2id.
	HashToken(plainToken string) (string, error)

	// VerifyToken reports whether plainToken matches tokenHash.
	VerifyToken(plainToken string, tokenHash string) bool
}

type adminTokenService struct {
	hasher *pwdhash.PasswordHasher
}

// NewAdminTokenService uses the Moderate Argon2id policy.
func NewAdminTokenService() AdminTokenService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		panic(err)
	}

	return &adminTokenService{hasher: hasher}
}

func (s *adminTokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate admin token")
	}
	plainToken := base64.URLEncoding.EncodeToString(randomBytes)

	tokenHash, err := s.HashToken(plainToken)
	if err != nil {
		return "", "", err
	}
	return plainToken, tokenHash, nil
}

func (s *adminTokenService) HashToken(plainToken string) (string, error) {
	tokenHash, err := s.hasher.Hash([]byte(plainToken))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash admin token")
	}
	return tokenHash, nil
}

func (s *adminTokenService) VerifyToken(plainToken string, tokenHash string) bool {
	ok, err := s.hasher.Verify([]byte(plainToken), tokenHash)
	if err != nil {
		return false
	}
	return ok
}
