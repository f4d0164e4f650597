package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	apperrors "github.com/allisson/kds/internal/errors"
)

// masterKeyFileMode restricts the key file to its owner.
const masterKeyFileMode = 0o600

// FileMasterKeyLoader reads the master key from a local file, creating it on first start.
//
// The file holds the base64 encoding of the key. When a KMS key URI is
// configured, it holds the base64 encoding of the KMS ciphertext instead.
type FileMasterKeyLoader struct {
	path       string
	keySize    int
	crypto     SymmetricCrypto
	kmsService KMSService
	kmsKeyURI  string
	logger     *slog.Logger
}

// NewFileMasterKeyLoader parses location (file:///path) and returns a loader.
// kmsService may be nil when kmsKeyURI is empty.
func NewFileMasterKeyLoader(
	location string,
	keySize int,
	crypto SymmetricCrypto,
	kmsService KMSService,
	kmsKeyURI string,
	logger *slog.Logger,
) (*FileMasterKeyLoader, error) {
	path, err := cryptoDomain.ParseMasterKeyLocation(location)
	if err != nil {
		return nil, err
	}
	if kmsKeyURI != "" && kmsService == nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "KMS key URI set without a KMS service")
	}

	return &FileMasterKeyLoader{
		path:       path,
		keySize:    keySize,
		crypto:     crypto,
		kmsService: kmsService,
		kmsKeyURI:  kmsKeyURI,
		logger:     logger,
	}, nil
}

// Path returns the key file location on disk.
func (l *FileMasterKeyLoader) Path() string {
	return l.path
}

// LoadOrCreate returns the stored master key, generating and persisting one if the file is absent.
// A file with unreadable content or the wrong key length is a configuration error; it is never
// overwritten.
func (l *FileMasterKeyLoader) LoadOrCreate(ctx context.Context) (*cryptoDomain.MasterKey, error) {
	body, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		return l.decode(ctx, body)
	case errors.Is(err, fs.ErrNotExist):
		mk, created, err := l.create(ctx)
		if err != nil {
			return nil, err
		}
		if created {
			l.logger.Info("master key created", slog.String("path", l.path))
		}
		return mk, nil
	default:
		return nil, fmt.Errorf("%w: failed to read master key file: %v", cryptoDomain.ErrInvalidMasterKey, err)
	}
}

func (l *FileMasterKeyLoader) decode(ctx context.Context, body []byte) (*cryptoDomain.MasterKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: master key file is not valid base64", cryptoDomain.ErrInvalidMasterKey)
	}

	if l.kmsKeyURI != "" {
		keeper, err := l.kmsService.OpenKeeper(ctx, l.kmsKeyURI)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				l.logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		plain, err := keeper.Decrypt(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: KMS decrypt failed: %v", cryptoDomain.ErrInvalidMasterKey, err)
		}
		cryptoDomain.Zero(raw)
		raw = plain
	}
	defer cryptoDomain.Zero(raw)

	return cryptoDomain.NewMasterKey(raw, l.keySize)
}

// create writes a fresh key with O_EXCL. If another process won the race, its key is loaded instead.
func (l *FileMasterKeyLoader) create(ctx context.Context) (*cryptoDomain.MasterKey, bool, error) {
	key, err := l.crypto.NewKey(l.keySize)
	if err != nil {
		return nil, false, err
	}
	defer cryptoDomain.Zero(key)

	body := key
	if l.kmsKeyURI != "" {
		keeper, err := l.kmsService.OpenKeeper(ctx, l.kmsKeyURI)
		if err != nil {
			return nil, false, apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				l.logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		body, err = keeper.Encrypt(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encrypt master key with KMS: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, masterKeyFileMode)
	if errors.Is(err, fs.ErrExist) {
		existing, readErr := os.ReadFile(l.path)
		if readErr != nil {
			return nil, false, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidMasterKey, readErr)
		}
		mk, err := l.decode(ctx, existing)
		return mk, false, err
	}
	if err != nil {
		return nil, false, apperrors.Wrapf(apperrors.ErrConfiguration, "failed to create master key file %s: %v", l.path, err)
	}

	_, writeErr := f.WriteString(base64.StdEncoding.EncodeToString(body))
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(l.path)
		return nil, false, apperrors.Wrapf(
			apperrors.ErrConfiguration,
			"failed to write master key file: %v",
			errors.Join(writeErr, closeErr),
		)
	}

	mk, err := cryptoDomain.NewMasterKey(key, l.keySize)
	return mk, true, err
}
