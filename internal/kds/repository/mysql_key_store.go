package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/kds/internal/database"
	apperrors "github.com/allisson/kds/internal/errors"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// MySQLKeyStore implements the key store on the kds_keys table.
type MySQLKeyStore struct {
	db *sql.DB
}

// NewMySQLKeyStore creates a MySQLKeyStore.
func NewMySQLKeyStore(db *sql.DB) *MySQLKeyStore {
	return &MySQLKeyStore{db: db}
}

// SetSharedKey upserts the record.
func (m *MySQLKeyStore) SetSharedKey(ctx context.Context, id string, blob []byte) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO kds_keys (id, record, created_at, updated_at)
			  VALUES (?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE record = VALUES(record), updated_at = NOW()`

	if _, err := querier.ExecContext(ctx, query, id, blob); err != nil {
		return apperrors.Wrap(err, "failed to set shared key")
	}
	return nil
}

// GetSharedKey retrieves the record for id.
func (m *MySQLKeyStore) GetSharedKey(ctx context.Context, id string) ([]byte, error) {
	querier := database.GetTx(ctx, m.db)

	var blob []byte
	err := querier.QueryRowContext(ctx, `SELECT record FROM kds_keys WHERE id = ?`, id).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kdsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get shared key")
	}
	return blob, nil
}

// Ping checks the database connection.
func (m *MySQLKeyStore) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
