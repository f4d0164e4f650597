package usecase

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	cryptoService "github.com/allisson/kds/internal/crypto/service"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// principalKeyManager stores records as HMAC(signing key, ct) || ct where
// ct = Encrypt(encryption key, secret) and both keys come from
// expand(master key, principal id, 2*key size).
type principalKeyManager struct {
	masterKey *cryptoDomain.MasterKey
	crypto    cryptoService.SymmetricCrypto
	kdf       cryptoService.KeyDerivation
	keyStore  KeyStore
	keySize   int
}

// NewPrincipalKeyManager creates a PrincipalKeyManager rooted at masterKey.
func NewPrincipalKeyManager(
	masterKey *cryptoDomain.MasterKey,
	crypto cryptoService.SymmetricCrypto,
	kdf cryptoService.KeyDerivation,
	keyStore KeyStore,
	keySize int,
) PrincipalKeyManager {
	return &principalKeyManager{
		masterKey: masterKey,
		crypto:    crypto,
		kdf:       kdf,
		keyStore:  keyStore,
		keySize:   keySize,
	}
}

func (p *principalKeyManager) DeriveKeyMaterial(principalID string) (cryptoService.KeyMaterial, error) {
	if err := kdsDomain.ValidatePrincipalID(principalID); err != nil {
		return cryptoService.KeyMaterial{}, err
	}

	mk := p.masterKey.Bytes()
	defer cryptoDomain.Zero(mk)

	material, err := p.kdf.Expand(mk, []byte(principalID), 2*p.keySize)
	if err != nil {
		return cryptoService.KeyMaterial{}, err
	}
	return cryptoService.SplitKeyMaterial(material, p.keySize), nil
}

func (p *principalKeyManager) GetLongTermSecret(ctx context.Context, principalID string) ([]byte, error) {
	keys, err := p.DeriveKeyMaterial(principalID)
	if err != nil {
		return nil, err
	}
	defer keys.Zero()

	record, err := p.keyStore.GetSharedKey(ctx, principalID)
	if err != nil {
		return nil, err
	}

	macSize := p.crypto.MACSize()
	if len(record) <= macSize {
		return nil, fmt.Errorf("%w: record for %q is too short", kdsDomain.ErrIntegrity, principalID)
	}
	signature, ciphertext := record[:macSize], record[macSize:]

	if !p.crypto.Verify(keys.SigningKey, ciphertext, signature) {
		return nil, fmt.Errorf("%w: record for %q", kdsDomain.ErrIntegrity, principalID)
	}

	secret, err := p.crypto.Decrypt(keys.EncryptionKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: record for %q", kdsDomain.ErrDecryption, principalID)
	}
	return secret, nil
}

func (p *principalKeyManager) SetLongTermSecret(ctx context.Context, principalID string, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("%w: empty secret", kdsDomain.ErrMalformedRequest)
	}

	keys, err := p.DeriveKeyMaterial(principalID)
	if err != nil {
		return err
	}
	defer keys.Zero()

	ciphertext, err := p.crypto.Encrypt(keys.EncryptionKey, secret)
	if err != nil {
		return err
	}
	signature := p.crypto.Sign(keys.SigningKey, ciphertext)

	record := make([]byte, 0, len(signature)+len(ciphertext))
	record = append(record, signature...)
	record = append(record, ciphertext...)

	return p.keyStore.SetSharedKey(ctx, principalID, record)
}
