// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/database"
	"github.com/airace/carcontrol/internal/influx"
	gormstorage "github.com/airace/carcontrol/internal/storage/gorm"
	influxstorage "github.com/airace/carcontrol/internal/storage/influx"
	"github.com/airace/carcontrol/internal/storage/memory"
	"github.com/airace/carcontrol/internal/storage/websocket"
)

// Loggers carries the two logging front ends backends are built with.
type Loggers struct {
	Slog *slog.Logger
	Zero zerolog.Logger
}

// NewBackend creates a storage backend based on configuration. "none" and
// the empty string disable recording.
func NewBackend(cfg config.StorageConfig, logs Loggers) (Backend, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(cfg.Memory), nil
	case "gorm", "sqlite", "postgres":
		dbCfg := cfg.Database
		if cfg.Type != "gorm" {
			dbCfg.Driver = cfg.Type
		}
		m, err := database.Open(dbCfg, logs.Zero)
		if err != nil {
			return nil, err
		}
		return gormstorage.New(
			gormstorage.Dependencies{DB: m.DB, Logger: logs.Slog},
			gormstorage.Config{DumpPath: dbCfg.DumpPath, DumpInterval: dbCfg.DumpInterval},
		), nil
	case "influx":
		return influxstorage.New(influx.NewManager(cfg.Influx, logs.Zero)), nil
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
			Logger: logs.Slog,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
