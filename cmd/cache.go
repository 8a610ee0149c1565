package cmd

import (
	"fmt"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/internal/iocache"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("%w: invalid cache backend '%s'", contract.ErrInvalidConfiguration, backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheStoreSetupWrapper also opens the cache store for commands that read it.
func cacheStoreSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := cacheSetup(); err != nil {
		return err
	}
	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by query commands. This avoids person parsing
// and source validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the timetable cache (fewer upstream requests)",
	Long: `Manage the timetable cache that avoids refetching the same intake group.

Makan caches each fetched timetable by source, intake, group and week. Entries
stay fresh for --cache-ttl and are then fetched again.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached timetables
  migrate - Run schema migrations for SQL backends

Examples:
  # Check cache status
  makan cache status

  # Clear cache after a timetable change was announced
  makan cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached timetables",
	Long: `Delete all cached timetables from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Deletes every cached row
For Redis: Deletes every key under the makan prefix

Examples:
  # Clear SQLite cache (default)
  makan cache clear

  # Clear Redis cache (set connection string via env variable)
  MAKAN_CACHE_BACKEND=redis MAKAN_CACHE_DB_CONNECT="redis://localhost:6379/0" makan cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the timetable cache.

Displays:
- Backend type and connection status
- Total number of cached timetables
- Newest and oldest fetch timestamps
- Storage size

Examples:
  # Check cache status
  makan cache status`,
	PreRunE: cacheStoreSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetTimetableStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("no cache store for backend %s", cfg.CacheBackend))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}

// cacheMigrateCmd runs schema migrations for SQL cache backends.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the timetable cache.

Stores migrate to the latest version automatically when opened. Use this
command to inspect or roll back a schema by hand.

Examples:
  # Migrate to latest version (default)
  makan cache migrate

  # Migrate to specific version
  makan cache migrate --target-version 1

  # Rollback to initial state
  makan cache migrate --target-version 0`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateCache(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
