// Package domain defines the key distribution service's principals, wire records and errors.
package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPrincipalIDLength matches the width of the kds_keys.id column.
const MaxPrincipalIDLength = 256

// Version is reported by the info endpoint.
const Version = "0.0.1"

// ValidatePrincipalID rejects identifiers that cannot be stored or used as HKDF info.
func ValidatePrincipalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: principal id is empty", ErrMalformedRequest)
	}
	if len(id) > MaxPrincipalIDLength {
		return fmt.Errorf("%w: principal id longer than %d bytes", ErrMalformedRequest, MaxPrincipalIDLength)
	}
	if !utf8.ValidString(id) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: principal id contains invalid characters", ErrMalformedRequest)
	}
	return nil
}

// RequestMetadata names who is asking for a session key, for whom, and when.
// Timestamp is Unix seconds.
type RequestMetadata struct {
	Requestor string `json:"requestor"`
	Target    string `json:"target"`
	Timestamp int64  `json:"timestamp"`
}

// SessionRequest is a signed RequestMetadata.
type SessionRequest struct {
	Metadata  *RequestMetadata
	Signature []byte
}

// Validate checks structure only; signatures and freshness are checked by the exchange.
func (r *SessionRequest) Validate() error {
	if r == nil || r.Metadata == nil {
		return fmt.Errorf("%w: missing metadata", ErrMalformedRequest)
	}
	if err := ValidatePrincipalID(r.Metadata.Requestor); err != nil {
		return fmt.Errorf("requestor: %w", err)
	}
	if err := ValidatePrincipalID(r.Metadata.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if r.Metadata.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedRequest)
	}
	if len(r.Signature) == 0 {
		return fmt.Errorf("%w: missing signature", ErrMalformedRequest)
	}
	return nil
}

// ReplyMetadata travels in the clear next to the encrypted sekstore.
type ReplyMetadata struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Expiration  int64  `json:"expiration"`
	Encryption  bool   `json:"encryption"`
}

// SessionReply is what the requestor receives. SekStore is encrypted under the
// requestor's working encryption key and Signature covers metadata and SekStore.
type SessionReply struct {
	Metadata  ReplyMetadata
	SekStore  []byte
	Signature []byte
}

// SekStore is the plaintext of SessionReply.SekStore.
type SekStore struct {
	SigningKey       []byte `json:"skey"`
	EncryptionKey    []byte `json:"ekey"`
	WrappedForTarget []byte `json:"esek"`
}

// KeyData is the plaintext of SekStore.WrappedForTarget, readable only by the target.
// Key holds the full session material: signing half then encryption half.
type KeyData struct {
	Key       []byte `json:"key"`
	Timestamp int64  `json:"timestamp"`
	TTL       int64  `json:"ttl"`
}
