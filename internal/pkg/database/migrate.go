package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// MigrationsTable records the applied schema version
const MigrationsTable = "schema_migrations"

// OpenMigrations reads NNNNNN_name.{up,down}.sql files from fsys. Duplicate versions are rejected.
func OpenMigrations(fsys fs.FS) (source.Driver, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	return src, nil
}

// Migrate applies every pending up migration of fsys and returns the resulting schema version.
// The postgres driver holds an advisory lock while it runs, so instances starting together
// apply each file once.
func Migrate(ctx context.Context, db *sqlx.DB, fsys fs.FS) (uint, error) {
	src, err := OpenMigrations(fsys)
	if err != nil {
		return 0, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		src.Close()
		return 0, fmt.Errorf("migrations connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		conn.Close()
		src.Close()
		return 0, fmt.Errorf("migrations driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		src.Close()
		return 0, fmt.Errorf("migrations init: %w", err)
	}
	// closes src and the dedicated conn, never the pool
	defer m.Close()
	m.Log = migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// migrateLogger routes migrate's progress lines to zerolog
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.Info().Str("component", "migrate").Msgf(format, v...)
}

func (migrateLogger) Verbose() bool { return false }
