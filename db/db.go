package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Register the pgx driver for PostgreSQL deployments.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type SQLStorage struct {
	db     *sql.DB
	driver string
}

var _ Storage = (*SQLStorage)(nil)

// Open connects to the database. Schema is not touched; call Migrate for that.
func Open(driver, dsn string) (*SQLStorage, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// Every connection to ":memory:" is a separate database, and sqlite
		// serializes writers anyway.
		conn.SetMaxOpenConns(1)
	}

	slog.Debug("Opened database", "driver", driver)

	return &SQLStorage{db: conn, driver: driver}, nil
}

// NewStorageFromPath opens a SQLite database at path and brings its schema up to date.
func NewStorageFromPath(path string) (*SQLStorage, error) {
	storage, err := Open(DriverSQLite, path)
	if err != nil {
		return nil, err
	}

	if err := storage.Migrate(); err != nil {
		storage.Close()

		return nil, err
	}

	return storage, nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("could not reach database: %w", err)
	}

	return nil
}

func (s *SQLStorage) Close() {
	if err := s.db.Close(); err != nil {
		slog.Error("Could not close database", "error", err)
	}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}
