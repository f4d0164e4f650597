package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	cryptoService "github.com/allisson/kds/internal/crypto/service"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	kdsRepository "github.com/allisson/kds/internal/kds/repository"
	kdsService "github.com/allisson/kds/internal/kds/service"
)

// KDSFixture bundles the collaborators of a key distribution service configured
// with a zero master key, AES-GCM, SHA-256 and 16-byte keys.
type KDSFixture struct {
	KeySize   int
	MasterKey *cryptoDomain.MasterKey
	Crypto    *cryptoService.SymmetricCryptoService
	KDF       *cryptoService.HKDFService
	Protocol  *kdsService.Protocol
	KeyStore  *kdsRepository.MemoryKeyStore
}

// NewKDSFixture builds a KDSFixture backed by an in-memory key store.
func NewKDSFixture(t *testing.T) *KDSFixture {
	t.Helper()

	const keySize = 16
	masterKey, err := cryptoDomain.NewMasterKey(make([]byte, keySize), keySize)
	require.NoError(t, err)
	t.Cleanup(masterKey.Close)

	crypto, err := cryptoService.NewSymmetricCrypto(
		cryptoService.NewAEADManager(),
		cryptoDomain.AESGCM,
		cryptoDomain.SHA256,
	)
	require.NoError(t, err)

	kdf, err := cryptoService.NewHKDF(cryptoDomain.SHA256)
	require.NoError(t, err)

	return &KDSFixture{
		KeySize:   keySize,
		MasterKey: masterKey,
		Crypto:    crypto,
		KDF:       kdf,
		Protocol:  kdsService.NewProtocol(crypto, kdf, keySize),
		KeyStore:  kdsRepository.NewMemoryKeyStore(),
	}
}

// StoreSecret writes a stored key record for principalID exactly as the service would:
// HMAC(signing key, ct) || ct under keys derived from the fixture's master key.
func (f *KDSFixture) StoreSecret(t *testing.T, principalID string, secret []byte) {
	t.Helper()

	material, err := f.KDF.Expand(f.MasterKey.Bytes(), []byte(principalID), 2*f.KeySize)
	require.NoError(t, err)
	keys := cryptoService.SplitKeyMaterial(material, f.KeySize)

	ciphertext, err := f.Crypto.Encrypt(keys.EncryptionKey, secret)
	require.NoError(t, err)

	record := append(f.Crypto.Sign(keys.SigningKey, ciphertext), ciphertext...)
	require.NoError(t, f.KeyStore.SetSharedKey(context.Background(), principalID, record))
}

// SignedRequest returns a request from requestor to target signed with secret at ts.
func (f *KDSFixture) SignedRequest(
	t *testing.T,
	requestor, target string,
	secret []byte,
	ts time.Time,
) *kdsDomain.SessionRequest {
	t.Helper()

	req, err := f.Protocol.SignRequest(secret, &kdsDomain.RequestMetadata{
		Requestor: requestor,
		Target:    target,
		Timestamp: ts.Unix(),
	})
	require.NoError(t, err)
	return req
}
