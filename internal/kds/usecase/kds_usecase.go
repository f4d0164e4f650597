package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	cryptoService "github.com/allisson/kds/internal/crypto/service"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	kdsService "github.com/allisson/kds/internal/kds/service"
)

// kdsUseCase implements KDSUseCase. It keeps no state between exchanges.
type kdsUseCase struct {
	keyManager PrincipalKeyManager
	protocol   *kdsService.Protocol
	ttl        int64
	now        func() time.Time
}

// NewKDSUseCase creates a KDSUseCase issuing tickets valid for ttl.
func NewKDSUseCase(
	keyManager PrincipalKeyManager,
	protocol *kdsService.Protocol,
	ttl time.Duration,
) KDSUseCase {
	return &kdsUseCase{
		keyManager: keyManager,
		protocol:   protocol,
		ttl:        int64(ttl / time.Second),
		now:        time.Now,
	}
}

func (k *kdsUseCase) GetInfo(ctx context.Context) string {
	return kdsDomain.Version
}

// GetSessionKey issues a session key shared by the requestor and the target.
//
// This method:
// 1. Validates the request structure
// 2. Resolves and decrypts the requestor's long-term secret
// 3. Verifies the request signature with the requestor's working signing key
// 4. Rejects timestamps outside [now-ttl, now+ttl]
// 5. Resolves the target's long-term secret
// 6. Derives fresh session material bound to both principals and the issue time
// 7. Wraps the session material for the target
// 8. Encrypts the session bundle for the requestor
// 9. Signs the reply metadata and bundle for the requestor
//
// Unknown principals, bad signatures and stale timestamps all return the same
// ErrUnauthorized so callers cannot enumerate principals.
func (k *kdsUseCase) GetSessionKey(
	ctx context.Context,
	req *kdsDomain.SessionRequest,
) (*kdsDomain.SessionReply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	requestor, target := req.Metadata.Requestor, req.Metadata.Target

	rkey, err := k.resolveSecret(ctx, requestor)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(rkey)

	requestorKeys, err := k.protocol.DeriveWorkingKeys(rkey)
	if err != nil {
		return nil, err
	}
	defer requestorKeys.Zero()

	if !k.protocol.VerifyRequest(requestorKeys, req) {
		return nil, kdsDomain.ErrUnauthorized
	}

	issuedAt := k.now().Unix()
	if ts := req.Metadata.Timestamp; ts < issuedAt-k.ttl || ts > issuedAt+k.ttl {
		return nil, kdsDomain.ErrUnauthorized
	}

	tkey, err := k.resolveSecret(ctx, target)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(tkey)

	targetKeys, err := k.protocol.DeriveWorkingKeys(tkey)
	if err != nil {
		return nil, err
	}
	defer targetKeys.Zero()

	material, err := k.protocol.DeriveSessionMaterial(rkey, requestor, target, issuedAt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(material)
	session := cryptoService.SplitKeyMaterial(material, k.protocol.KeySize())

	wrapped, err := k.protocol.SealKeyData(targetKeys, &kdsDomain.KeyData{
		Key:       material,
		Timestamp: issuedAt,
		TTL:       k.ttl,
	})
	if err != nil {
		return nil, err
	}

	sekstore, err := k.protocol.SealSekStore(requestorKeys, &kdsDomain.SekStore{
		SigningKey:       session.SigningKey,
		EncryptionKey:    session.EncryptionKey,
		WrappedForTarget: wrapped,
	})
	if err != nil {
		return nil, err
	}

	reply := &kdsDomain.SessionReply{
		Metadata: kdsDomain.ReplyMetadata{
			Source:      requestor,
			Destination: target,
			Expiration:  issuedAt + k.ttl,
			Encryption:  true,
		},
		SekStore: sekstore,
	}
	k.protocol.SignReply(requestorKeys, reply)

	return reply, nil
}

func (k *kdsUseCase) SetKey(ctx context.Context, principalID string, secret []byte) error {
	if err := kdsDomain.ValidatePrincipalID(principalID); err != nil {
		return err
	}
	return k.keyManager.SetLongTermSecret(ctx, principalID, secret)
}

// resolveSecret hides a missing record behind ErrUnauthorized.
func (k *kdsUseCase) resolveSecret(ctx context.Context, principalID string) ([]byte, error) {
	secret, err := k.keyManager.GetLongTermSecret(ctx, principalID)
	if err != nil {
		if errors.Is(err, kdsDomain.ErrSecretNotFound) {
			return nil, kdsDomain.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve secret: %w", err)
	}
	return secret, nil
}
