package db

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func (s *SQLStorage) gooseDialect() string {
	if s.driver == DriverPostgres {
		return "postgres"
	}

	return "sqlite3"
}

// Migrate applies all pending schema migrations.
func (s *SQLStorage) Migrate() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(s.gooseDialect()); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion reports the schema version currently applied.
func (s *SQLStorage) MigrationVersion() (int64, error) {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(s.gooseDialect()); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}

	version, err := goose.GetDBVersion(s.db)
	if err != nil {
		return 0, fmt.Errorf("could not read migration version: %w", err)
	}

	return version, nil
}
