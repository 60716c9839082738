// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks a merged configuration. All problems are reported together.
func Validate(cfg Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		fail("listenAddr must not be empty")
	}

	switch cfg.LogFormat {
	case "", "json", "console":
	default:
		fail("logFormat %q is not supported (json, console)", cfg.LogFormat)
	}

	switch cfg.Store.Backend {
	case BackendFile, BackendSQLite, BackendBadger:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			fail("store.path is required for backend %q", cfg.Store.Backend)
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.Redis.Addr) == "" {
			fail("store.redis.addr is required for backend %q", cfg.Store.Backend)
		}
	case BackendMemory:
	default:
		fail("store.backend %q is not supported (file, sqlite, badger, redis, memory)", cfg.Store.Backend)
	}
	if cfg.Store.AutosaveInterval <= 0 {
		fail("store.autosaveInterval must be positive, got %s", cfg.Store.AutosaveInterval)
	}
	if cfg.Store.Redis.DB < 0 {
		fail("store.redis.db must not be negative")
	}

	if cfg.API.RateLimitEnabled && cfg.API.RateLimitRPM <= 0 {
		fail("api.rateLimitRPM must be positive when rate limiting is enabled")
	}
	if cfg.API.ShutdownTimeout <= 0 {
		fail("api.shutdownTimeout must be positive")
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			fail("telemetry.exporter %q is not supported (grpc, http)", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			fail("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		fail("telemetry.samplingRate must be within [0,1], got %g", cfg.Telemetry.SamplingRate)
	}

	return errors.Join(errs...)
}
