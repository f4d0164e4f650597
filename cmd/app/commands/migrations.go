package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/kds/internal/database"
)

// migrationDirs maps DB_DRIVER to its subdirectory of the migrations root.
var migrationDirs = map[string]string{
	database.DriverPostgres: "postgresql",
	database.DriverMySQL:    "mysql",
}

// migrationsSource returns the golang-migrate file source for dbDriver under root.
func migrationsSource(root, dbDriver string) (string, error) {
	dir, ok := migrationDirs[dbDriver]
	if !ok {
		return "", fmt.Errorf("migrations are only available for postgres and mysql, got %q", dbDriver)
	}
	return "file://" + filepath.ToSlash(filepath.Join(root, dir)), nil
}

// RunMigrations creates or updates the kds_keys table. steps == 0 applies every
// pending migration, a positive value applies that many and a negative value
// rolls back. Nothing to do is not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString, root string, steps int) error {
	source, err := migrationsSource(root, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", source),
		slog.Int("steps", steps),
	)

	m, err := migrate.New(source, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations completed, schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	default:
		logger.Info("migrations completed", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}
	return nil
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := m.Close()
	if sourceErr != nil || databaseErr != nil {
		logger.Error("failed to close migrate",
			slog.Any("source_error", sourceErr),
			slog.Any("database_error", databaseErr),
		)
	}
}
