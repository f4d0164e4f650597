package dto

import (
	"encoding/base64"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// InfoResponse reports the service version.
type InfoResponse struct {
	Version string `json:"version"`
}

// ReplyMetadataResponse is the clear-text part of a ticket reply.
type ReplyMetadataResponse struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Expiration  int64  `json:"expiration"`
	Encryption  bool   `json:"encryption"`
}

// ReplyResponse carries the encrypted sekstore and the reply signature, both base64.
type ReplyResponse struct {
	Metadata  ReplyMetadataResponse `json:"metadata"`
	SekStore  string                `json:"sekstore"`
	Signature string                `json:"signature"`
}

// TicketResponse wraps a reply the way clients expect it.
type TicketResponse struct {
	Reply ReplyResponse `json:"reply"`
}

// MapSessionReplyToResponse converts a domain reply to its wire form.
func MapSessionReplyToResponse(reply *kdsDomain.SessionReply) TicketResponse {
	return TicketResponse{
		Reply: ReplyResponse{
			Metadata: ReplyMetadataResponse{
				Source:      reply.Metadata.Source,
				Destination: reply.Metadata.Destination,
				Expiration:  reply.Metadata.Expiration,
				Encryption:  reply.Metadata.Encryption,
			},
			SekStore:  base64.StdEncoding.EncodeToString(reply.SekStore),
			Signature: base64.StdEncoding.EncodeToString(reply.Signature),
		},
	}
}

// ToDomain decodes a reply received by a client.
func (r *TicketResponse) ToDomain() (*kdsDomain.SessionReply, error) {
	sekstore, err := base64.StdEncoding.DecodeString(r.Reply.SekStore)
	if err != nil {
		return nil, err
	}
	signature, err := base64.StdEncoding.DecodeString(r.Reply.Signature)
	if err != nil {
		return nil, err
	}

	return &kdsDomain.SessionReply{
		Metadata: kdsDomain.ReplyMetadata{
			Source:      r.Reply.Metadata.Source,
			Destination: r.Reply.Metadata.Destination,
			Expiration:  r.Reply.Metadata.Expiration,
			Encryption:  r.Reply.Metadata.Encryption,
		},
		SekStore:  sekstore,
		Signature: signature,
	}, nil
}

// MapSessionRequestToTicketRequest builds the wire form of a signed request.
func MapSessionRequestToTicketRequest(req *kdsDomain.SessionRequest) TicketRequest {
	return TicketRequest{
		Metadata: &TicketMetadata{
			Requestor: req.Metadata.Requestor,
			Target:    req.Metadata.Target,
			Timestamp: req.Metadata.Timestamp,
		},
		Signature: base64.StdEncoding.EncodeToString(req.Signature),
	}
}
