// Package database holds the SQLite-backed per-chat conversation history
// and the Store used to read and prune it.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/rublebot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// busyTimeout bounds how long a statement waits on a locked history file,
// e.g. while the maintenance task runs VACUUM.
const busyTimeout = 5 * time.Second

// connPragmas are applied by the driver to every new connection.
var connPragmas = []string{
	fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()),
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// NewDB opens the history database at path, brings the schema up to date and
// returns a pool pinned to one connection, since history writes are serialized anyway.
func NewDB(path string, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "database")

	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history database path is empty")
	}

	db, err := sqlx.Connect("sqlite", historyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	version, err := ApplyMigrations(db.DB, filePath(path), logger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close history database after migration error", "error", closeErr)
		}
		return nil, err
	}

	logger.Info("History database ready", "path", filePath(path), "schema_version", version)
	return db, nil
}

// CloseDB closes the pool, logging instead of returning the error so it can be deferred.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Failed to close history database", "error", err)
	}
}

// ApplyMigrations runs the embedded history migrations and returns the resulting schema version.
func ApplyMigrations(db *sql.DB, name string, logger *slog.Logger) (uint, error) {
	if db == nil {
		return 0, errors.New("nil database handle")
	}
	if name == "" {
		return 0, errors.New("empty database name")
	}
	if logger == nil {
		logger = slog.Default()
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{DatabaseName: name})
	if err != nil {
		return 0, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("History schema already current")
	case err != nil:
		return 0, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read history schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("history schema version %d is dirty", version)
	}
	return version, nil
}

// historyDSN turns a plain path or file: URI into a DSN carrying connPragmas,
// keeping any query parameters already present.
func historyDSN(path string) string {
	base, query := path, ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		base, query = path[:i], path[i+1:]
	}
	if !strings.HasPrefix(base, "file:") {
		base = "file:" + base
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		params = url.Values{}
	}
	for _, p := range connPragmas {
		params.Add("_pragma", p)
	}
	return base + "?" + params.Encode()
}

// filePath strips the file: scheme and query from a DSN-style path.
func filePath(path string) string {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}
	return path
}
