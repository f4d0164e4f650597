package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	apperrors "github.com/allisson/kds/internal/errors"
)

// kmsSchemes are the gocloud.dev drivers linked into the binary.
var kmsSchemes = []string{"awskms", "azurekeyvault", "gcpkms", "hashivault", "base64key"}

// KMSService opens the keeper that wraps the master key file body.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a keeper for one of kmsSchemes. An unknown scheme is a
// configuration error. Messages name the scheme only, as base64key:// URIs carry the key.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	scheme, err := kmsScheme(keyURI)
	if err != nil {
		return nil, err
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s keeper: %w", scheme, err)
	}
	return keeper, nil
}

func kmsScheme(keyURI string) (string, error) {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return "", apperrors.Wrap(apperrors.ErrConfiguration, "KMS_KEY_URI is not a URL")
	}
	if !slices.Contains(kmsSchemes, u.Scheme) {
		return "", apperrors.Wrapf(apperrors.ErrConfiguration, "unsupported KMS scheme %q", u.Scheme)
	}
	return u.Scheme, nil
}
