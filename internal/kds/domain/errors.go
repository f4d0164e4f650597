package domain

import (
	"github.com/allisson/kds/internal/errors"
)

// Key distribution error definitions.
//
// ErrUnauthorized is deliberately a single value: unknown principals, forged
// signatures and stale timestamps must be indistinguishable to the caller.
// ErrIntegrity and ErrDecryption describe the store, not the caller, and are
// reported as internal failures.
var (
	// ErrMalformedRequest indicates a request missing required fields.
	ErrMalformedRequest = errors.Wrap(errors.ErrInvalidInput, "malformed request")

	// ErrUnauthorized rejects a session key request.
	ErrUnauthorized = errors.Wrap(errors.ErrUnauthorized, "invalid request")

	// ErrSecretNotFound is returned by key stores when a principal has no record.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "shared key not found")

	// ErrIntegrity indicates a stored key record whose signature does not verify.
	ErrIntegrity = errors.New("stored key record failed integrity check")

	// ErrDecryption indicates a stored key record that verified but did not decrypt.
	ErrDecryption = errors.New("stored key record could not be decrypted")

	// ErrInvalidReply is returned to clients when a reply signature or sekstore does not check out.
	ErrInvalidReply = errors.New("invalid session reply")

	// ErrKeyExportForbidden is returned for any attempt to read a long-term secret over the API.
	ErrKeyExportForbidden = errors.Wrap(errors.ErrForbidden, "key export is not permitted")
)
