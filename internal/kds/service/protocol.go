// Package service implements the key distribution exchange on both sides of the wire.
// The server half is driven by the use case; the client half is used by the
// sign-request command and by tests.
package service

import (
	"encoding/json"
	"fmt"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	cryptoService "github.com/allisson/kds/internal/crypto/service"
	"github.com/allisson/kds/internal/kds/domain"
)

// workingKeysInfo labels the expansion of a long-term secret into its working keys.
const workingKeysInfo = "kds-working-keys-v1"

// Protocol binds the symmetric primitives and key size shared by all exchanges.
// It holds no secrets and is safe for concurrent use.
type Protocol struct {
	crypto  cryptoService.SymmetricCrypto
	kdf     cryptoService.KeyDerivation
	keySize int
}

// NewProtocol creates a Protocol.
func NewProtocol(
	crypto cryptoService.SymmetricCrypto,
	kdf cryptoService.KeyDerivation,
	keySize int,
) *Protocol {
	return &Protocol{crypto: crypto, kdf: kdf, keySize: keySize}
}

// KeySize returns the size of every signing and encryption key the protocol produces.
func (p *Protocol) KeySize() int {
	return p.keySize
}

// DeriveWorkingKeys turns a long-term secret of any length into a signing key and an
// encryption key of the configured size. Requestor, target and server all run this.
func (p *Protocol) DeriveWorkingKeys(secret []byte) (cryptoService.KeyMaterial, error) {
	if len(secret) == 0 {
		return cryptoService.KeyMaterial{}, fmt.Errorf("%w: empty secret", domain.ErrMalformedRequest)
	}

	prk := p.kdf.Extract(nil, secret)
	defer cryptoDomain.Zero(prk)

	material, err := p.kdf.Expand(prk, []byte(workingKeysInfo), 2*p.keySize)
	if err != nil {
		return cryptoService.KeyMaterial{}, err
	}
	return cryptoService.SplitKeyMaterial(material, p.keySize), nil
}

// SignRequest builds a signed session request on behalf of metadata.Requestor.
func (p *Protocol) SignRequest(secret []byte, metadata *domain.RequestMetadata) (*domain.SessionRequest, error) {
	keys, err := p.DeriveWorkingKeys(secret)
	if err != nil {
		return nil, err
	}
	defer keys.Zero()

	return &domain.SessionRequest{
		Metadata:  metadata,
		Signature: p.crypto.Sign(keys.SigningKey, metadata.Canonical()),
	}, nil
}

// VerifyRequest checks the request signature against the requestor's working signing key.
func (p *Protocol) VerifyRequest(keys cryptoService.KeyMaterial, req *domain.SessionRequest) bool {
	return p.crypto.Verify(keys.SigningKey, req.Metadata.Canonical(), req.Signature)
}

// DeriveSessionMaterial draws fresh randomness, extracts with the requestor's secret as salt
// and expands to 2*keySize bytes bound to the principals and the issue time.
func (p *Protocol) DeriveSessionMaterial(
	requestorSecret []byte,
	requestor, target string,
	issuedAt int64,
) ([]byte, error) {
	random, err := p.crypto.NewKey(p.keySize)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(random)

	prk := p.kdf.Extract(requestorSecret, random)
	defer cryptoDomain.Zero(prk)

	return p.kdf.Expand(prk, domain.SessionInfo(requestor, target, issuedAt), 2*p.keySize)
}

// SealKeyData encrypts keydata for the target.
func (p *Protocol) SealKeyData(targetKeys cryptoService.KeyMaterial, keyData *domain.KeyData) ([]byte, error) {
	return p.seal(targetKeys.EncryptionKey, keyData)
}

// SealSekStore encrypts the session bundle for the requestor.
func (p *Protocol) SealSekStore(requestorKeys cryptoService.KeyMaterial, sek *domain.SekStore) ([]byte, error) {
	return p.seal(requestorKeys.EncryptionKey, sek)
}

// SignReply sets reply.Signature over canonical(metadata) || sekstore.
func (p *Protocol) SignReply(requestorKeys cryptoService.KeyMaterial, reply *domain.SessionReply) {
	reply.Signature = p.crypto.Sign(requestorKeys.SigningKey, reply.SignedPayload())
}

// OpenReply verifies a reply with the requestor's secret and decrypts its sekstore.
func (p *Protocol) OpenReply(requestorSecret []byte, reply *domain.SessionReply) (*domain.SekStore, error) {
	keys, err := p.DeriveWorkingKeys(requestorSecret)
	if err != nil {
		return nil, err
	}
	defer keys.Zero()

	if !p.crypto.Verify(keys.SigningKey, reply.SignedPayload(), reply.Signature) {
		return nil, fmt.Errorf("%w: signature mismatch", domain.ErrInvalidReply)
	}

	var sek domain.SekStore
	if err := p.open(keys.EncryptionKey, reply.SekStore, &sek); err != nil {
		return nil, err
	}
	return &sek, nil
}

// OpenKeyData is run by the target to recover the session material from esek.
func (p *Protocol) OpenKeyData(targetSecret []byte, wrapped []byte) (*domain.KeyData, error) {
	keys, err := p.DeriveWorkingKeys(targetSecret)
	if err != nil {
		return nil, err
	}
	defer keys.Zero()

	var keyData domain.KeyData
	if err := p.open(keys.EncryptionKey, wrapped, &keyData); err != nil {
		return nil, err
	}
	if len(keyData.Key) != 2*p.keySize {
		return nil, fmt.Errorf("%w: session key has %d bytes", domain.ErrInvalidReply, len(keyData.Key))
	}
	return &keyData, nil
}

func (p *Protocol) seal(key []byte, v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	defer cryptoDomain.Zero(plaintext)

	return p.crypto.Encrypt(key, plaintext)
}

func (p *Protocol) open(key, blob []byte, v any) error {
	plaintext, err := p.crypto.Decrypt(key, blob)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
	}
	defer cryptoDomain.Zero(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
	}
	return nil
}
