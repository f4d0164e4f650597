package commands

import (
	"fmt"
	"io"

	kdsService "github.com/allisson/kds/internal/kds/service"
)

// RunHashAdminToken prints the ADMIN_TOKEN_HASH for token. With an empty token a random one
// is generated and printed alongside its hash.
func RunHashAdminToken(tokenService kdsService.AdminTokenService, writer io.Writer, token string) error {
	if token == "" {
		plainToken, tokenHash, err := tokenService.GenerateToken()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(writer, "# Admin bearer token, shown once\nADMIN_TOKEN=\"%s\"\n", plainToken)
		_, _ = fmt.Fprintf(writer, "ADMIN_TOKEN_HASH=\"%s\"\n", tokenHash)
		return nil
	}

	tokenHash, err := tokenService.HashToken(token)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(writer, "ADMIN_TOKEN_HASH=\"%s\"\n", tokenHash)
	return nil
}
