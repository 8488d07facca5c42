// Package migrations embeds the SQL schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // registers sqlite:// (modernc)
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Drivers with embedded migrations; each names a directory in this package.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationFiles embed.FS

// New returns a migrator for the given storage driver and DSN.
// Postgres DSNs use the postgres:// or postgresql:// scheme; SQLite DSNs are file paths.
func New(driver, dsn string) (*migrate.Migrate, error) {
	databaseURL, err := databaseURL(driver, dsn)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrationFiles, driver)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}

	return m, nil
}

// Up applies all pending migrations. An already current schema is not an error.
func Up(driver, dsn string) error {
	m, err := New(driver, dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func databaseURL(driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, prefix) {
				return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
			}
		}

		return "", fmt.Errorf("unsupported postgres dsn scheme: %q", dsn)
	case DriverSQLite:
		return "sqlite://" + dsn, nil
	default:
		return "", fmt.Errorf("unknown storage driver %q", driver)
	}
}

func closeMigrator(m *migrate.Migrate) {
	_, _ = m.Close()
}
