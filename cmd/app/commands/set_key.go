package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	kdsUseCase "github.com/allisson/kds/internal/kds/usecase"
)

// KeyGenerator produces random long-term secrets.
type KeyGenerator interface {
	NewKey(size int) ([]byte, error)
}

// setKeyOutput is the json form of set-key's result. Key is only present when it was generated.
type setKeyOutput struct {
	Owner string `json:"owner"`
	Key   string `json:"key,omitempty"`
}

// RunSetKey stores a principal's long-term secret straight into the configured key store.
// With an empty keyB64 a keySize-byte secret is generated and printed once; it cannot be
// read back from the service afterwards.
func RunSetKey(
	ctx context.Context,
	useCase kdsUseCase.KDSUseCase,
	generator KeyGenerator,
	logger *slog.Logger,
	writer io.Writer,
	owner string,
	keyB64 string,
	keySize int,
	format string,
) error {
	generated := keyB64 == ""

	var secret []byte
	var err error
	if generated {
		secret, err = generator.NewKey(keySize)
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
	} else {
		secret, err = decodeSecret("key", keyB64)
		if err != nil {
			return err
		}
	}
	defer cryptoDomain.Zero(secret)

	if err := useCase.SetKey(ctx, owner, secret); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	logger.Info("long-term key set", slog.String("owner", owner), slog.Bool("generated", generated))

	output := setKeyOutput{Owner: owner}
	if generated {
		output.Key = base64.StdEncoding.EncodeToString(secret)
	}

	if format == "json" {
		return writeJSON(writer, output)
	}

	_, _ = fmt.Fprintf(writer, "Key stored for %s\n", owner)
	if generated {
		_, _ = fmt.Fprintf(writer, "Key: %s\n", output.Key)
		_, _ = fmt.Fprintln(writer, "Hand this key to the principal now; it is not shown again.")
	}
	return nil
}
