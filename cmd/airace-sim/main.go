// Command airace-sim runs the vehicle motion controller headless, either
// driving it from a configured input source or serving commands from an
// external driver on stdin.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/logging"
	intOtel "github.com/airace/carcontrol/internal/otel"
	"github.com/airace/carcontrol/internal/sim"
)

// BuildDate can be set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// AppName names log files and OTel resources.
const AppName = "airace-sim"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds what the modes share.
type app struct {
	logs    *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	otel    *intOtel.Provider
	runner  *sim.Runner
	closers []io.Closer
	started time.Time
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.String("config-dir", ".", "directory holding "+config.ConfigName)
	fs.Int("ticks", 0, "ticks to run, 0 for the configured count")
	fs.Float64("tick-rate", 0, "ticks per simulated second")
	fs.Bool("realtime", false, "pace ticks in wall time")
	fs.String("input", "", `intent source: "cruise", "script" or "idle"`)
	fs.String("origin", "", `georeference as "longitude,latitude"`)
	fs.String("run-name", "", "name recorded with the run")
	fs.String("storage", "", "recorder: memory, gorm, sqlite, postgres, influx, websocket or none")
	fs.String("output", "", "output directory for the memory recorder")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.Bool("serve", false, "read commands from stdin instead of running an input source")
	fs.Bool("upload", false, "upload the exported run to the archive when done")
	fs.Bool("version", false, "print the version and exit")
	return fs
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, Version, BuildDate)
		return 0
	}

	a, err := setup(fs, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return 1
	}
	defer a.shutdown()

	backend, err := a.openStorage()
	if err != nil {
		a.logger.Error("Failed to set up storage", "error", err)
		return 1
	}
	if backend != nil {
		defer func() {
			if err := backend.Close(); err != nil {
				a.logger.Error("Failed to close storage", "error", err)
			}
		}()
	}

	serve, _ := fs.GetBool("serve")
	if serve {
		err = a.serve(ctx, backend, stdin, stdout)
	} else {
		err = a.simulate(ctx, backend)
	}
	if err != nil {
		a.logger.Error("Run failed", "error", err)
		return 1
	}

	if upload, _ := fs.GetBool("upload"); upload {
		if err := a.upload(ctx, backend); err != nil {
			a.logger.Error("Upload failed", "error", err)
			return 1
		}
	}
	return 0
}

// setup loads config and builds logging and OTel the way the rest of the
// program expects them.
func setup(fs *pflag.FlagSet, stderr io.Writer) (*app, error) {
	a := &app{
		logs:    logging.NewSlogManager(),
		runner:  &sim.Runner{},
		started: time.Now(),
	}

	// bootstrap logging until the config says where logs go
	a.logs.Setup(stderr, "info", nil)
	a.logger = a.logs.Logger()

	dir, _ := fs.GetString("config-dir")
	if err := config.Load(dir); err != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.logger.Info("Loaded config", "dir", dir)
	}
	if err := config.BindFlags(fs); err != nil {
		return nil, err
	}

	logCfg := config.GetLoggingConfig()
	logFile, err := logging.OpenLogFile(logCfg.LogsDir, AppName, a.started)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, logFile)

	a.otel, err = intOtel.New(config.GetOTelConfig(), logFile)
	if err != nil {
		a.logger.Error("Failed to initialize OTel provider", "error", err)
		a.otel, _ = intOtel.New(config.OTelConfig{}, nil)
	}

	opts := []logging.Option{logging.WithContext(a.runner.LogAttrs)}
	if logCfg.GraylogEnabled {
		w, err := logging.DialGraylog(logCfg.GraylogAddress)
		if err != nil {
			a.logger.Warn("Graylog unavailable, continuing without it", "error", err)
		} else {
			opts = append(opts, logging.WithGraylog(w, ""))
		}
	}

	a.logs.Setup(logFile, logCfg.Level, a.otel.LoggerProvider(), opts...)
	a.logger = a.logs.Logger()
	a.logger.Info("Logging to file", "path", logFile.Name(), "version", Version)

	level, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	a.zlog = zerolog.New(logFile).Level(level).With().Timestamp().Str("app", AppName).Logger()
	return a, nil
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.logs.Flush(ctx); err != nil {
		a.logger.Warn("Failed to flush logs", "error", err)
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down OTel", "error", err)
	}
	a.logger.Info("Shutting down", "uptime", time.Since(a.started).Round(time.Millisecond))
	_ = a.logs.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}
