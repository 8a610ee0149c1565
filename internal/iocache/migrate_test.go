package iocache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCache_Unsupported(t *testing.T) {
	err := MigrateCache(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for none backend")

	err = MigrateCache(schema.RedisBackend, "redis://localhost:6379", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for redis backend")
}

func TestMigrateCache_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Run migration to latest version
	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	assert.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, -1))

	// Step down to version 1, then roll everything back
	assert.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 0))

	// Migrate back up to the latest version
	assert.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 2))
}

func TestMigrateTo_Result(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "result.db")

	res, err := migrateTo(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(2), res.To)

	res, err = migrateTo(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint(2), res.From)

	res, err = migrateTo(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(2), res.From)
	assert.Equal(t, uint(1), res.To)
}

func TestMigrationDir(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		dir, err := migrationDir(backend)
		require.NoError(t, err)
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 4, dir)
	}
	_, err := migrationDir(schema.RedisBackend)
	assert.Error(t, err)
}
