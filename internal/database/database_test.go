package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/model"
)

func TestOpen_SQLiteInMemory(t *testing.T) {
	m, err := Open(config.DatabaseConfig{Driver: "sqlite"}, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.InMemory)
	assert.Equal(t, "sqlite", m.Driver)
	require.NoError(t, m.Migrate())
	assert.True(t, m.DB.Migrator().HasTable(&model.Run{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.TickSample{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.ResetEvent{}))
}

func TestOpen_EmptyDriverDefaultsToSQLite(t *testing.T) {
	m, err := Open(config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, "sqlite", m.Driver)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mongo"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	m, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()

	assert.False(t, m.InMemory)
	require.NoError(t, m.Migrate())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(""))
	assert.Equal(t, "file:runs?mode=memory&cache=shared", sqliteDSN(":memory:runs"))
	assert.Equal(t, "/tmp/a.db", sqliteDSN("/tmp/a.db"))
}

func TestDump(t *testing.T) {
	m, err := Open(config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Migrate())
	require.NoError(t, m.DB.Create(&model.Run{Name: "dumped", VehicleID: "car-1"}).Error)

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "snapshot.db")
	require.NoError(t, m.Dump(path))
	// a second dump replaces the first
	require.NoError(t, m.Dump(path))

	restored, err := OpenSQLite(path)
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, restored.First(&run).Error)
	assert.Equal(t, "dumped", run.Name)

	paths, err := BackupPaths(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)
}

func TestDumpToDisk_NoPath(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	assert.ErrorContains(t, DumpToDisk(db, ""), "path not set")
}

func TestBackupPaths_MissingDir(t *testing.T) {
	_, err := BackupPaths(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
