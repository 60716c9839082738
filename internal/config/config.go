// SPDX-License-Identifier: MIT

package config

import "time"

// Store backends understood by the daemon.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the effective daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"` // json or console
	LogService string `yaml:"logService"`

	// SchemaFile optionally points at an HCL settings declaration.
	// Empty means the built-in declaration.
	SchemaFile string `yaml:"schemaFile"`

	Store     StoreConfig     `yaml:"store"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects where setting values are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the YAML file (file), database file (sqlite) or directory (badger).
	Path             string        `yaml:"path"`
	Watch            bool          `yaml:"watch"`
	AutosaveInterval time.Duration `yaml:"autosaveInterval"`
	Redis            RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	RateLimitEnabled bool          `yaml:"rateLimitEnabled"`
	RateLimitRPM     int           `yaml:"rateLimitRPM"`
	MetricsEnabled   bool          `yaml:"metricsEnabled"`
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the configuration used when neither file nor ENV say otherwise.
func Defaults() Config {
	return Config{
		ListenAddr: ":8089",
		LogLevel:   "info",
		LogFormat:  "json",
		LogService: "appsettings",
		Store: StoreConfig{
			Backend:          BackendFile,
			Path:             "settings.yaml",
			Watch:            true,
			AutosaveInterval: 2 * time.Second,
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
				Key:  "appsettings:values",
			},
		},
		API: APIConfig{
			RateLimitEnabled: true,
			RateLimitRPM:     600,
			MetricsEnabled:   true,
			ShutdownTimeout:  10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
