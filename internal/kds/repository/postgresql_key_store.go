package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/kds/internal/database"
	apperrors "github.com/allisson/kds/internal/errors"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// PostgreSQLKeyStore implements the key store on the kds_keys table.
type PostgreSQLKeyStore struct {
	db *sql.DB
}

// NewPostgreSQLKeyStore creates a PostgreSQLKeyStore.
func NewPostgreSQLKeyStore(db *sql.DB) *PostgreSQLKeyStore {
	return &PostgreSQLKeyStore{db: db}
}

// SetSharedKey upserts the record. The single statement either replaces the row or leaves it untouched.
func (p *PostgreSQLKeyStore) SetSharedKey(ctx context.Context, id string, blob []byte) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO kds_keys (id, record, created_at, updated_at)
			  VALUES ($1, $2, NOW(), NOW())
			  ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`

	if _, err := querier.ExecContext(ctx, query, id, blob); err != nil {
		return apperrors.Wrap(err, "failed to set shared key")
	}
	return nil
}

// GetSharedKey retrieves the record for id.
func (p *PostgreSQLKeyStore) GetSharedKey(ctx context.Context, id string) ([]byte, error) {
	querier := database.GetTx(ctx, p.db)

	var blob []byte
	err := querier.QueryRowContext(ctx, `SELECT record FROM kds_keys WHERE id = $1`, id).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kdsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get shared key")
	}
	return blob, nil
}

// Ping checks the database connection.
func (p *PostgreSQLKeyStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
