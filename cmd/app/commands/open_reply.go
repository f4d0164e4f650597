package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	"github.com/allisson/kds/internal/kds/http/dto"
	kdsService "github.com/allisson/kds/internal/kds/service"
)

// openReplyOutput is what the requestor learns from a ticket reply.
// WrappedForTarget is forwarded to the target unchanged.
type openReplyOutput struct {
	Source           string `json:"source"`
	Destination      string `json:"destination"`
	Expiration       int64  `json:"expiration"`
	SigningKey       string `json:"signing_key"`
	EncryptionKey    string `json:"encryption_key"`
	WrappedForTarget string `json:"wrapped_for_target"`
}

// RunOpenReply reads a ticket response from io.Reader, verifies it with the requestor's
// secret and prints the session keys. An expired reply is still opened but flagged.
func RunOpenReply(
	protocol *kdsService.Protocol,
	io IOTuple,
	secretB64 string,
	format string,
) error {
	secret, err := decodeSecret("secret", secretB64)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(secret)

	var resp dto.TicketResponse
	if err := json.NewDecoder(io.Reader).Decode(&resp); err != nil {
		return fmt.Errorf("failed to parse ticket response: %w", err)
	}
	reply, err := resp.ToDomain()
	if err != nil {
		return fmt.Errorf("failed to decode ticket response: %w", err)
	}

	sek, err := protocol.OpenReply(secret, reply)
	if err != nil {
		return fmt.Errorf("failed to open reply: %w", err)
	}

	output := openReplyOutput{
		Source:           reply.Metadata.Source,
		Destination:      reply.Metadata.Destination,
		Expiration:       reply.Metadata.Expiration,
		SigningKey:       base64.StdEncoding.EncodeToString(sek.SigningKey),
		EncryptionKey:    base64.StdEncoding.EncodeToString(sek.EncryptionKey),
		WrappedForTarget: base64.StdEncoding.EncodeToString(sek.WrappedForTarget),
	}
	cryptoDomain.Zero(sek.SigningKey, sek.EncryptionKey)

	if format == "json" {
		return writeJSON(io.Writer, output)
	}

	_, _ = fmt.Fprintf(io.Writer, "Session %s -> %s\n", output.Source, output.Destination)
	expires := time.Unix(output.Expiration, 0).UTC()
	if time.Now().After(expires) {
		_, _ = fmt.Fprintf(io.Writer, "Expired: %s\n", expires.Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Expires: %s\n", expires.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(io.Writer, "Signing key: %s\n", output.SigningKey)
	_, _ = fmt.Fprintf(io.Writer, "Encryption key: %s\n", output.EncryptionKey)
	_, _ = fmt.Fprintf(io.Writer, "Wrapped for target: %s\n", output.WrappedForTarget)
	return nil
}
