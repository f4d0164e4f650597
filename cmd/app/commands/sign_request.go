package commands

import (
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	"github.com/allisson/kds/internal/kds/http/dto"
	kdsService "github.com/allisson/kds/internal/kds/service"
)

// RunSignRequest prints the JSON body of a POST /v1/kds/ticket request signed with the
// requestor's long-term secret. A zero timestamp means now.
func RunSignRequest(
	protocol *kdsService.Protocol,
	writer io.Writer,
	requestor string,
	target string,
	secretB64 string,
	timestamp int64,
) error {
	secret, err := decodeSecret("secret", secretB64)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(secret)

	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	req, err := protocol.SignRequest(secret, &kdsDomain.RequestMetadata{
		Requestor: requestor,
		Target:    target,
		Timestamp: timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	return writeJSON(writer, dto.MapSessionRequestToTicketRequest(req))
}
