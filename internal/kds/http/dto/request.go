// Package dto provides data transfer objects for the key distribution HTTP API.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	customValidation "github.com/allisson/kds/internal/validation"
)

// TicketMetadata is the signed part of a ticket request.
// Timestamp is whole Unix seconds; fractional values are rejected at decode time
// because the signature covers the integer value.
type TicketMetadata struct {
	Requestor string `json:"requestor"`
	Target    string `json:"target"`
	Timestamp int64  `json:"timestamp"`
}

// Validate checks if the ticket metadata is valid.
func (m TicketMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Requestor, customValidation.PrincipalID...),
		validation.Field(&m.Target, customValidation.PrincipalID...),
		validation.Field(&m.Timestamp, validation.Required, validation.Min(int64(1))),
	)
}

// TicketRequest asks for a session key shared with metadata.target.
type TicketRequest struct {
	Metadata  *TicketMetadata `json:"metadata"`
	Signature string          `json:"signature"`
}

// Validate checks if the ticket request is valid.
func (r *TicketRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Metadata, validation.Required),
		validation.Field(&r.Signature, validation.Required, customValidation.Base64),
	)
}

// ToDomain converts a validated request. The signature is already known to be valid base64.
func (r *TicketRequest) ToDomain() *kdsDomain.SessionRequest {
	signature, _ := base64.StdEncoding.DecodeString(r.Signature)
	return &kdsDomain.SessionRequest{
		Metadata: &kdsDomain.RequestMetadata{
			Requestor: r.Metadata.Requestor,
			Target:    r.Metadata.Target,
			Timestamp: r.Metadata.Timestamp,
		},
		Signature: signature,
	}
}

// SetKeyRequest carries a principal's new long-term secret.
// Owner is read from the body on POST /v1/kds/keys and from the path on PUT.
type SetKeyRequest struct {
	Owner string `json:"owner"`
	Key   string `json:"key"`
}

// Validate checks if the set key request is valid.
func (r *SetKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Owner, customValidation.PrincipalID...),
		validation.Field(&r.Key, validation.Required, customValidation.Base64),
	)
}

// DecodedKey returns the secret bytes of a validated request.
func (r *SetKeyRequest) DecodedKey() []byte {
	key, _ := base64.StdEncoding.DecodeString(r.Key)
	return key
}
