package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
)

// MasterKeyCreator is the part of crypto/service.FileMasterKeyLoader used by create-master-key.
type MasterKeyCreator interface {
	Path() string
	LoadOrCreate(ctx context.Context) (*cryptoDomain.MasterKey, error)
}

// RunCreateMasterKey writes a new master key file with owner-only permissions.
// An existing file is never replaced: every stored key record depends on it.
// When kmsKeyURI is set the file holds the KMS ciphertext instead of the raw key.
func RunCreateMasterKey(
	ctx context.Context,
	loader MasterKeyCreator,
	writer io.Writer,
	kmsKeyURI string,
) error {
	path := loader.Path()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("master key file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to inspect master key file: %w", err)
	}

	masterKey, err := loader.LoadOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to create master key: %w", err)
	}
	size := masterKey.Size()
	masterKey.Close()

	_, _ = fmt.Fprintf(writer, "# Master key written to %s (%d bytes)\n", path, size)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "# The file is encrypted with %s; the same KMS_KEY_URI is required at startup\n", kmsKeyURI)
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	_, _ = fmt.Fprintf(writer, "KDS_MASTER_KEY=\"file://%s\"\n", path)
	_, _ = fmt.Fprintln(writer, "# Back this file up: losing it makes every stored key unreadable")

	return nil
}
