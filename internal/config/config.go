package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/airace/carcontrol/internal/input"
	"github.com/airace/carcontrol/internal/motion"
)

// ConfigName is the file Load looks for in the config directory.
const ConfigName = "airace.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// DatabaseConfig holds GORM backend settings. Driver is "sqlite" or "postgres".
// An empty sqlite Path keeps the database in memory; DumpPath then receives
// periodic snapshots.
type DatabaseConfig struct {
	Driver       string
	Path         string
	DumpPath     string
	DumpInterval time.Duration
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
}

// InfluxConfig holds InfluxDB backend settings
type InfluxConfig struct {
	URL          string
	Token        string
	Org          string
	Bucket       string
	BackupPath   string
	CreateBucket bool
}

// WebSocketConfig holds streaming backend settings
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the run recorder
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	Database  DatabaseConfig
	Influx    InfluxConfig
	WebSocket WebSocketConfig
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level          string
	LogsDir        string
	GraylogEnabled bool
	GraylogAddress string
}

// APIConfig holds the recording archive endpoint
type APIConfig struct {
	ServerURL string
	APIKey    string
}

// MonitorConfig controls the run status file
type MonitorConfig struct {
	StatusFile string
	Interval   time.Duration
}

// ObstacleConfig is a circular collider placed in the arena
type ObstacleConfig struct {
	X      float64 `json:"x" mapstructure:"x"`
	Z      float64 `json:"z" mapstructure:"z"`
	Radius float64 `json:"radius" mapstructure:"radius"`
	Tag    string  `json:"tag" mapstructure:"tag"`
}

// SpawnConfig is the pose restored after a reset
type SpawnConfig struct {
	X, Y, Z float64
	Yaw     float64 // degrees
}

// SimConfig describes a headless run
type SimConfig struct {
	RunName    string
	VehicleID  string
	Tag        string
	Ticks      int
	TickRate   float64
	Realtime   bool
	BodyRadius float64

	ArenaWidth float64
	ArenaDepth float64
	Obstacles  []ObstacleConfig
	Spawn      SpawnConfig
	Origin     string // "long,lat", empty for none

	Input        string // "cruise", "script" or "idle"
	CruiseTarget float64
	Waypoints    [][]float64
	Script       []input.Segment
	ScriptLoop   bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "airace-sim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	t := motion.DefaultTuning()
	viper.SetDefault("tuning.steeringRate", t.SteeringRate)
	viper.SetDefault("tuning.brakingRate", t.BrakingRate)
	viper.SetDefault("tuning.acceleration", t.Acceleration)
	viper.SetDefault("tuning.maxForwardSpeed", t.MaxForwardSpeed)
	viper.SetDefault("tuning.maxReverseSpeed", t.MaxReverseSpeed)
	viper.SetDefault("tuning.frictionBrake", t.FrictionBrake)
	viper.SetDefault("tuning.aboutZero", t.AboutZero)
	viper.SetDefault("tuning.forceChangeRate", t.ForceChangeRate)
	viper.SetDefault("tuning.resetBrakeIntensity", t.ResetBrakeIntensity)
	viper.SetDefault("tuning.scaleForceRate", t.ScaleForceRate)
	viper.SetDefault("tuning.referenceTick", t.ReferenceTick)

	viper.SetDefault("sim.runName", "run")
	viper.SetDefault("sim.vehicleId", "car-1")
	viper.SetDefault("sim.tag", "")
	viper.SetDefault("sim.ticks", 3600)
	viper.SetDefault("sim.tickRate", 60)
	viper.SetDefault("sim.realtime", false)
	viper.SetDefault("sim.bodyRadius", 1.0)
	viper.SetDefault("sim.arena.width", 200)
	viper.SetDefault("sim.arena.depth", 200)
	viper.SetDefault("sim.spawn.x", 0)
	viper.SetDefault("sim.spawn.y", 0.5)
	viper.SetDefault("sim.spawn.z", 0)
	viper.SetDefault("sim.spawn.yaw", 0)
	viper.SetDefault("sim.origin", "")
	viper.SetDefault("sim.input", "cruise")
	viper.SetDefault("sim.cruise.targetSpeed", 0.6)
	viper.SetDefault("sim.scriptLoop", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.database.driver", "sqlite")
	viper.SetDefault("storage.database.path", "")
	viper.SetDefault("storage.database.dumpPath", "")
	viper.SetDefault("storage.database.dumpInterval", "3m")
	viper.SetDefault("storage.database.host", "localhost")
	viper.SetDefault("storage.database.port", "5432")
	viper.SetDefault("storage.database.username", "postgres")
	viper.SetDefault("storage.database.password", "postgres")
	viper.SetDefault("storage.database.database", "airace")
	viper.SetDefault("storage.influx.url", "http://localhost:8086")
	viper.SetDefault("storage.influx.token", "")
	viper.SetDefault("storage.influx.org", "airace")
	viper.SetDefault("storage.influx.bucket", "runs")
	viper.SetDefault("storage.influx.backupPath", "./recordings/influx_backup.lp.gz")
	viper.SetDefault("storage.influx.createBucket", false)
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/runs")
	viper.SetDefault("storage.websocket.secret", "")
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"log-level": "logLevel",
	"ticks":     "sim.ticks",
	"tick-rate": "sim.tickRate",
	"realtime":  "sim.realtime",
	"input":     "sim.input",
	"origin":    "sim.origin",
	"run-name":  "sim.runName",
	"storage":   "storage.type",
	"output":    "storage.memory.outputDir",
}

// BindFlags lets any of the known flags in fs override config values.
// Flags not present in fs are skipped.
func BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetTuning returns the controller constants. Keys are read one by one so a
// partial "tuning" object in the file still falls back to defaults per key.
func GetTuning() motion.Tuning {
	return motion.Tuning{
		SteeringRate:        viper.GetFloat64("tuning.steeringRate"),
		BrakingRate:         viper.GetFloat64("tuning.brakingRate"),
		Acceleration:        viper.GetFloat64("tuning.acceleration"),
		MaxForwardSpeed:     viper.GetFloat64("tuning.maxForwardSpeed"),
		MaxReverseSpeed:     viper.GetFloat64("tuning.maxReverseSpeed"),
		FrictionBrake:       viper.GetFloat64("tuning.frictionBrake"),
		AboutZero:           viper.GetFloat64("tuning.aboutZero"),
		ForceChangeRate:     viper.GetFloat64("tuning.forceChangeRate"),
		ResetBrakeIntensity: viper.GetFloat64("tuning.resetBrakeIntensity"),
		ScaleForceRate:      viper.GetBool("tuning.scaleForceRate"),
		ReferenceTick:       viper.GetFloat64("tuning.referenceTick"),
	}
}

// GetSimConfig returns the headless run settings.
func GetSimConfig() (SimConfig, error) {
	cfg := SimConfig{
		RunName:    viper.GetString("sim.runName"),
		VehicleID:  viper.GetString("sim.vehicleId"),
		Tag:        viper.GetString("sim.tag"),
		Ticks:      viper.GetInt("sim.ticks"),
		TickRate:   viper.GetFloat64("sim.tickRate"),
		Realtime:   viper.GetBool("sim.realtime"),
		BodyRadius: viper.GetFloat64("sim.bodyRadius"),
		ArenaWidth: viper.GetFloat64("sim.arena.width"),
		ArenaDepth: viper.GetFloat64("sim.arena.depth"),
		Spawn: SpawnConfig{
			X:   viper.GetFloat64("sim.spawn.x"),
			Y:   viper.GetFloat64("sim.spawn.y"),
			Z:   viper.GetFloat64("sim.spawn.z"),
			Yaw: viper.GetFloat64("sim.spawn.yaw"),
		},
		Origin:       viper.GetString("sim.origin"),
		Input:        viper.GetString("sim.input"),
		CruiseTarget: viper.GetFloat64("sim.cruise.targetSpeed"),
		ScriptLoop:   viper.GetBool("sim.scriptLoop"),
	}

	if err := viper.UnmarshalKey("sim.obstacles", &cfg.Obstacles); err != nil {
		return cfg, fmt.Errorf("parsing sim.obstacles: %w", err)
	}
	if err := viper.UnmarshalKey("sim.cruise.waypoints", &cfg.Waypoints); err != nil {
		return cfg, fmt.Errorf("parsing sim.cruise.waypoints: %w", err)
	}
	for i, wp := range cfg.Waypoints {
		if len(wp) != 2 {
			return cfg, fmt.Errorf("sim.cruise.waypoints[%d]: want [x, z], got %d values", i, len(wp))
		}
	}
	if err := viper.UnmarshalKey("sim.script", &cfg.Script); err != nil {
		return cfg, fmt.Errorf("parsing sim.script: %w", err)
	}
	return cfg, nil
}

// GetStorageConfig returns the run recorder settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		Database: DatabaseConfig{
			Driver:       viper.GetString("storage.database.driver"),
			Path:         viper.GetString("storage.database.path"),
			DumpPath:     viper.GetString("storage.database.dumpPath"),
			DumpInterval: viper.GetDuration("storage.database.dumpInterval"),
			Host:         viper.GetString("storage.database.host"),
			Port:         viper.GetString("storage.database.port"),
			Username:     viper.GetString("storage.database.username"),
			Password:     viper.GetString("storage.database.password"),
			Database:     viper.GetString("storage.database.database"),
		},
		Influx: InfluxConfig{
			URL:          viper.GetString("storage.influx.url"),
			Token:        viper.GetString("storage.influx.token"),
			Org:          viper.GetString("storage.influx.org"),
			Bucket:       viper.GetString("storage.influx.bucket"),
			BackupPath:   viper.GetString("storage.influx.backupPath"),
			CreateBucket: viper.GetBool("storage.influx.createBucket"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetLoggingConfig returns the log output settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		LogsDir:        viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetAPIConfig returns the recording archive settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}
