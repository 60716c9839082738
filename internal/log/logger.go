// SPDX-License-Identifier: MIT

// Package log holds the process-wide zerolog logger and its field names.
package log

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config describes the process logger. Zero values fall back to the
// LOG_LEVEL and LOG_SERVICE environment, then to info and "appsettings".
type Config struct {
	Level   string
	Format  string // json (default) or console
	Output  io.Writer
	Service string
	Version string
}

var base atomic.Pointer[zerolog.Logger]

func init() {
	Configure(Config{})
}

// Configure replaces the process logger. settingsd calls it once with
// defaults and again after loading its configuration.
func Configure(cfg Config) {
	zerolog.SetGlobalLevel(levelOf(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.Output != nil}
	}

	l := zerolog.New(out).With().
		Timestamp().
		Str(FieldService, firstNonEmpty(cfg.Service, os.Getenv("LOG_SERVICE"), "appsettings")).
		Str(FieldVersion, cfg.Version).
		Logger()
	base.Store(&l)
}

func levelOf(name string) zerolog.Level {
	for _, candidate := range []string{name, os.Getenv("LOG_LEVEL")} {
		if candidate == "" {
			continue
		}
		if lvl, err := zerolog.ParseLevel(strings.ToLower(candidate)); err == nil {
			return lvl
		}
		break
	}
	return zerolog.InfoLevel
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Base returns the process logger.
func Base() zerolog.Logger { return *base.Load() }

// WithComponent returns the process logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}
