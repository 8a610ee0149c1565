package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationsTable keeps the schema version apart from other tools sharing the database.
const migrationsTable = "makan_schema_migrations"

// migrationResult describes what a migration run did.
type migrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// migrationDir maps a backend to its dialect directory under migrations/.
func migrationDir(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "migrations/sqlite", nil
	case schema.MySQLBackend:
		return "migrations/mysql", nil
	case schema.PostgreSQLBackend:
		return "migrations/postgresql", nil
	default:
		return "", fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}

// newDatabaseDriver wraps an open handle in the matching migrate driver.
func newDatabaseDriver(backend schema.DatabaseBackend, db *sql.DB) (database.Driver, error) {
	switch backend {
	case schema.SQLiteBackend:
		return migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		return migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		return migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// migrateTo moves the cache schema to target.
// - If target < 0, it migrates to the latest version.
// - If target == 0, it rolls back all migrations.
// - If target > 0, it migrates to the specified version.
func migrateTo(backend schema.DatabaseBackend, connStr string, target int) (migrationResult, error) {
	var result migrationResult

	dir, err := migrationDir(backend)
	if err != nil {
		return result, err
	}

	// A dedicated handle, since the migrate drivers pin a connection until closed
	db, err := sql.Open(driverName(backend), resolveConn(backend, connStr))
	if err != nil {
		return result, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return result, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := newDatabaseDriver(backend, db)
	if err != nil {
		return result, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}
	result.From = current

	switch {
	case target < 0:
		err = m.Up()
	case target == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(target))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.To = current
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate to version %d: %w", target, err)
	}

	result.Changed = true
	if v, _, verr := m.Version(); verr == nil {
		result.To = v
	}
	return result, nil
}

// MigrateCache runs database migrations for the timetable cache.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func MigrateCache(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend || backend == schema.RedisBackend {
		return fmt.Errorf("migrations are not supported for %s backend", backend)
	}

	result, err := migrateTo(backend, connStr, targetVersion)
	if err != nil {
		return err
	}

	switch {
	case !result.Changed && targetVersion < 0:
		fmt.Println("No migration needed. Database is already at the latest version.")
	case !result.Changed:
		fmt.Printf("No migration needed. Database is already at version %d\n", targetVersion)
	case targetVersion == 0:
		fmt.Printf("Successfully rolled back from version %d to version 0\n", result.From)
	default:
		fmt.Printf("Successfully migrated from version %d to version %d\n", result.From, result.To)
	}
	return nil
}
