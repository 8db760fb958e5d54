// Package database opens the GORM connections used by the SQL run recorder.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/model"
)

// Manager owns one database handle and knows how to set it up and snapshot it.
type Manager struct {
	DB       *gorm.DB
	Driver   string
	InMemory bool
	Logger   zerolog.Logger
}

// Open connects using cfg.Driver ("sqlite" or "postgres").
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*Manager, error) {
	m := &Manager{Driver: cfg.Driver, Logger: log}

	var err error
	switch cfg.Driver {
	case "postgres":
		m.DB, err = OpenPostgres(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := m.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to Postgres")
	case "sqlite", "":
		m.Driver = "sqlite"
		m.InMemory = cfg.Path == ""
		m.DB, err = OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if m.InMemory {
			log.Info().Msg("Using local SQLite DB in memory with periodic disk dump")
		} else {
			log.Info().Str("path", cfg.Path).Msg("Using local SQLite DB")
		}
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}

	return m, nil
}

// Migrate creates or updates the run tables.
func (m *Manager) Migrate() error {
	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dump snapshots an in-memory SQLite database to path.
func (m *Manager) Dump(path string) error {
	if m.Driver != "sqlite" {
		return fmt.Errorf("dump not supported for %s", m.Driver)
	}
	start := time.Now()
	if err := DumpToDisk(m.DB, path); err != nil {
		return err
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Str("path", path).Msg("Dumped memory DB to disk")
	return nil
}

// OpenPostgres returns a connection to the configured Postgres database.
func OpenPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// OpenSQLite returns a connection to a SQLite database.
// An empty path opens a private in-memory database. A path of the form
// ":memory:<name>" opens a named shared in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if path == "" || strings.HasPrefix(path, ":memory:") {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

func sqliteDSN(path string) string {
	switch {
	case path == "":
		return ":memory:"
	case strings.HasPrefix(path, ":memory:"):
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.TrimPrefix(path, ":memory:"))
	default:
		return path
	}
}

// DumpToDisk vacuums a SQLite database into a file, replacing any previous dump.
func DumpToDisk(db *gorm.DB, path string) error {
	if path == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO '" + strings.ReplaceAll(path, "'", "''") + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// BackupPaths returns the .db files in dir.
func BackupPaths(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".db" {
			paths = append(paths, filepath.Join(dir, file.Name()))
		}
	}
	return paths, nil
}
