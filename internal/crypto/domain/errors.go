package domain

import (
	"github.com/allisson/kds/internal/errors"
)

// Cryptographic operation error definitions.
//
// Algorithm and key-size problems are startup problems, so they wrap
// ErrConfiguration. Decryption failures stay unwrapped: a stored record that
// no longer decrypts is a server fault, not a client error.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrConfiguration, "unsupported algorithm")

	// ErrUnsupportedHash indicates the requested hash algorithm is not supported.
	ErrUnsupportedHash = errors.Wrap(errors.ErrConfiguration, "unsupported hash algorithm")

	// ErrInvalidKeySize indicates a key length the selected algorithm cannot use.
	ErrInvalidKeySize = errors.Wrap(errors.ErrConfiguration, "invalid key size")

	// ErrInvalidMasterKey indicates the master key file exists but its content is unusable
	// (bad base64, wrong length, KMS unwrap failure).
	ErrInvalidMasterKey = errors.Wrap(errors.ErrConfiguration, "invalid master key")

	// ErrInvalidMasterKeyLocation indicates the master key location is not a file:// URL.
	ErrInvalidMasterKeyLocation = errors.Wrap(errors.ErrConfiguration, "invalid master key location")

	// ErrDecryptionFailed indicates a ciphertext was too short or did not authenticate.
	//
	// The specific cause is not disclosed.
	ErrDecryptionFailed = errors.New("decryption failed")
)
