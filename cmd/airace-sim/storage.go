package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airace/carcontrol/internal/api"
	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/storage"
)

var errNotUploadable = errors.New("storage backend does not export run files")

func (a *app) openStorage() (storage.Backend, error) {
	cfg := config.GetStorageConfig()
	if cfg.Type == "websocket" && cfg.WebSocket.URL == "" {
		cfg.WebSocket.URL = httpToWS(config.GetAPIConfig().ServerURL) + "/api/runs"
	}

	backend, err := storage.NewBackend(cfg, storage.Loggers{Slog: a.logger, Zero: a.zlog})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if backend == nil {
		a.logger.Info("Recording disabled")
		return nil, nil
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	a.logger.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

// upload sends the exported run to the archive.
func (a *app) upload(ctx context.Context, backend storage.Backend) error {
	exported, ok := backend.(storage.Uploadable)
	if !ok {
		return errNotUploadable
	}
	apiCfg := config.GetAPIConfig()
	if apiCfg.ServerURL == "" {
		return errors.New("api.serverUrl is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		return err
	}
	if err := client.UploadExport(ctx, exported); err != nil {
		return err
	}
	a.logger.Info("Uploaded run", "file", exported.GetExportedFilePath())
	return nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
