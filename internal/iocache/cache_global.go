package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
)

// timetableTable is the name of the table for timetable caching.
const timetableTable = "timetable_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// InitCaching initializes the global cache manager with the timetable store.
// An empty backend leaves the manager without a store.
func InitCaching(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		if backend == "" {
			return
		}
		store, err := NewCacheStore(timetableTable, backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize timetable caching: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.timetable = store
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.timetable != nil {
			_ = Manager.timetable.Close()
		}
	})
}

// ClearCache clears the cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL servers (MySQL/PostgreSQL), it deletes every row and keeps the migrated schema.
// For Redis, it deletes every key under the cache prefix.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		store, err := NewCacheStore(timetableTable, backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.(*CacheStoreImpl).clear(); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", timetableTable, err)
		}
		return nil

	case schema.RedisBackend:
		store, err := NewRedisStore(connStr, redisPrefix(timetableTable))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.clear(); err != nil {
			return fmt.Errorf("failed to clear redis cache: %w", err)
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}
