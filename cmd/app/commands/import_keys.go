package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	"github.com/allisson/kds/internal/database"
	kdsUseCase "github.com/allisson/kds/internal/kds/usecase"
)

// RunImportKeys reads a JSON object mapping owner to base64 secret and stores every entry.
//
// With a SQL key store txManager is non-nil and the import is all or nothing.
// Other stores have no transactions, so entries written before a failure stay written.
func RunImportKeys(
	ctx context.Context,
	useCase kdsUseCase.KDSUseCase,
	txManager database.TxManager,
	logger *slog.Logger,
	io IOTuple,
) error {
	entries, err := readKeyEntries(io.Reader)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no keys to import")
	}

	owners := slices.Sorted(maps.Keys(entries))

	importAll := func(ctx context.Context) error {
		for _, owner := range owners {
			secret, err := decodeSecret(fmt.Sprintf("key for %q", owner), entries[owner])
			if err != nil {
				return err
			}
			err = useCase.SetKey(ctx, owner, secret)
			cryptoDomain.Zero(secret)
			if err != nil {
				return fmt.Errorf("failed to set key for %q: %w", owner, err)
			}
		}
		return nil
	}

	if txManager != nil {
		err = txManager.WithTx(ctx, importAll)
	} else {
		err = importAll(ctx)
	}
	if err != nil {
		return err
	}

	logger.Info("keys imported", slog.Int("count", len(owners)))
	_, _ = fmt.Fprintf(io.Writer, "Imported %d keys\n", len(owners))
	return nil
}

func readKeyEntries(reader io.Reader) (map[string]string, error) {
	var entries map[string]string
	if err := json.NewDecoder(reader).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse keys JSON: %w", err)
	}
	return entries, nil
}
