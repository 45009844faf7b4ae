package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteDB(t *testing.T) *DB {
	t.Helper()
	database, err := Connect(&Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestMigrate_IsIdempotent(t *testing.T) {
	database := newSQLiteDB(t)

	require.NoError(t, Migrate(database, zap.NewNop()))
	require.NoError(t, Migrate(database, zap.NewNop()))

	version, err := getCurrentVersion(database.DB)
	require.NoError(t, err)
	require.Equal(t, 2, version)
	require.True(t, database.Migrator().HasTable("history_entries"))
	require.NoError(t, database.Health())
}

func TestLoadMigrations_Ordered(t *testing.T) {
	migrations, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, 1, migrations[0].ID)
	require.Equal(t, "002_history_entries_day_index.sql", migrations[1].Filename)
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(&Config{Driver: "oracle"})
	require.Error(t, err)
}
