// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"sync"
)

// EnvEntry binds one environment variable to a configuration path.
type EnvEntry struct {
	Path  string // User-facing YAML path (e.g. "store.backend")
	Env   string // Environment variable (e.g. "APPSETTINGS_STORE_BACKEND")
	apply func(l *Loader, cfg *Config)
}

var (
	envEntries    []EnvEntry
	envEntriesErr error
	envOnce       sync.Once
)

// EnvEntries returns the environment surface of the daemon configuration.
// It returns an error if two entries share a path or a variable name.
func EnvEntries() ([]EnvEntry, error) {
	envOnce.Do(func() {
		envEntries, envEntriesErr = buildEnvEntries()
	})
	return envEntries, envEntriesErr
}

func buildEnvEntries() ([]EnvEntry, error) {
	entries := []EnvEntry{
		// --- CORE ---
		{Path: "listenAddr", Env: "APPSETTINGS_LISTEN", apply: func(l *Loader, c *Config) { c.ListenAddr = l.envString("APPSETTINGS_LISTEN", c.ListenAddr) }},
		{Path: "logLevel", Env: "APPSETTINGS_LOG_LEVEL", apply: func(l *Loader, c *Config) { c.LogLevel = l.envString("APPSETTINGS_LOG_LEVEL", c.LogLevel) }},
		{Path: "logFormat", Env: "APPSETTINGS_LOG_FORMAT", apply: func(l *Loader, c *Config) { c.LogFormat = l.envString("APPSETTINGS_LOG_FORMAT", c.LogFormat) }},
		{Path: "logService", Env: "APPSETTINGS_LOG_SERVICE", apply: func(l *Loader, c *Config) { c.LogService = l.envString("APPSETTINGS_LOG_SERVICE", c.LogService) }},
		{Path: "schemaFile", Env: "APPSETTINGS_SCHEMA", apply: func(l *Loader, c *Config) { c.SchemaFile = l.envString("APPSETTINGS_SCHEMA", c.SchemaFile) }},

		// --- STORE ---
		{Path: "store.backend", Env: "APPSETTINGS_STORE_BACKEND", apply: func(l *Loader, c *Config) {
			c.Store.Backend = l.envString("APPSETTINGS_STORE_BACKEND", c.Store.Backend)
		}},
		{Path: "store.path", Env: "APPSETTINGS_STORE_PATH", apply: func(l *Loader, c *Config) { c.Store.Path = l.envString("APPSETTINGS_STORE_PATH", c.Store.Path) }},
		{Path: "store.watch", Env: "APPSETTINGS_STORE_WATCH", apply: func(l *Loader, c *Config) { c.Store.Watch = l.envBool("APPSETTINGS_STORE_WATCH", c.Store.Watch) }},
		{Path: "store.autosaveInterval", Env: "APPSETTINGS_AUTOSAVE_INTERVAL", apply: func(l *Loader, c *Config) {
			c.Store.AutosaveInterval = l.envDuration("APPSETTINGS_AUTOSAVE_INTERVAL", c.Store.AutosaveInterval)
		}},
		{Path: "store.redis.addr", Env: "APPSETTINGS_REDIS_ADDR", apply: func(l *Loader, c *Config) {
			c.Store.Redis.Addr = l.envString("APPSETTINGS_REDIS_ADDR", c.Store.Redis.Addr)
		}},
		{Path: "store.redis.password", Env: "APPSETTINGS_REDIS_PASSWORD", apply: func(l *Loader, c *Config) {
			c.Store.Redis.Password = l.envString("APPSETTINGS_REDIS_PASSWORD", c.Store.Redis.Password)
		}},
		{Path: "store.redis.db", Env: "APPSETTINGS_REDIS_DB", apply: func(l *Loader, c *Config) { c.Store.Redis.DB = l.envInt("APPSETTINGS_REDIS_DB", c.Store.Redis.DB) }},

		// --- API ---
		{Path: "api.rateLimitEnabled", Env: "APPSETTINGS_RATE_LIMIT_ENABLED", apply: func(l *Loader, c *Config) {
			c.API.RateLimitEnabled = l.envBool("APPSETTINGS_RATE_LIMIT_ENABLED", c.API.RateLimitEnabled)
		}},
		{Path: "api.rateLimitRPM", Env: "APPSETTINGS_RATE_LIMIT_RPM", apply: func(l *Loader, c *Config) {
			c.API.RateLimitRPM = l.envInt("APPSETTINGS_RATE_LIMIT_RPM", c.API.RateLimitRPM)
		}},
		{Path: "api.metricsEnabled", Env: "APPSETTINGS_METRICS_ENABLED", apply: func(l *Loader, c *Config) {
			c.API.MetricsEnabled = l.envBool("APPSETTINGS_METRICS_ENABLED", c.API.MetricsEnabled)
		}},

		// --- TELEMETRY ---
		{Path: "telemetry.enabled", Env: "APPSETTINGS_OTEL_ENABLED", apply: func(l *Loader, c *Config) {
			c.Telemetry.Enabled = l.envBool("APPSETTINGS_OTEL_ENABLED", c.Telemetry.Enabled)
		}},
		{Path: "telemetry.exporter", Env: "APPSETTINGS_OTEL_EXPORTER", apply: func(l *Loader, c *Config) {
			c.Telemetry.Exporter = l.envString("APPSETTINGS_OTEL_EXPORTER", c.Telemetry.Exporter)
		}},
		{Path: "telemetry.endpoint", Env: "APPSETTINGS_OTEL_ENDPOINT", apply: func(l *Loader, c *Config) {
			c.Telemetry.Endpoint = l.envString("APPSETTINGS_OTEL_ENDPOINT", c.Telemetry.Endpoint)
		}},
		{Path: "telemetry.samplingRate", Env: "APPSETTINGS_OTEL_SAMPLING_RATE", apply: func(l *Loader, c *Config) {
			c.Telemetry.SamplingRate = l.envFloat("APPSETTINGS_OTEL_SAMPLING_RATE", c.Telemetry.SamplingRate)
		}},
	}

	byPath := make(map[string]struct{}, len(entries))
	byEnv := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := byPath[e.Path]; dup {
			return nil, fmt.Errorf("duplicate env registry path: %s", e.Path)
		}
		byPath[e.Path] = struct{}{}
		if _, dup := byEnv[e.Env]; dup {
			return nil, fmt.Errorf("duplicate env registry env: %s", e.Env)
		}
		byEnv[e.Env] = struct{}{}
	}
	return entries, nil
}
