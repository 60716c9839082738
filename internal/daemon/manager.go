// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
)

// ShutdownHook releases one resource. Hooks run last registered first.
type ShutdownHook func(ctx context.Context) error

// Manager owns the HTTP listener of settingsd and the ordered teardown of
// everything registered with it.
type Manager interface {
	// Start binds the listener and blocks until ctx ends or serving fails.
	Start(ctx context.Context) error
	// Shutdown stops the server, then runs the hooks. Repeated calls are no-ops.
	Shutdown(ctx context.Context) error
	RegisterShutdownHook(name string, hook ShutdownHook)
	// Addr returns the bound address, or nil until Start has bound it.
	Addr() net.Addr
}

type lifecycle uint8

const (
	stateIdle lifecycle = iota
	stateServing
	stateStopping
)

type hookEntry struct {
	name string
	fn   ShutdownHook
}

type manager struct {
	cfg     ServerConfig
	handler http.Handler
	logger  zerolog.Logger

	mu    sync.Mutex
	state lifecycle
	srv   *http.Server
	ln    net.Listener
	hooks []hookEntry
}

// NewManager validates deps and returns an idle Manager.
func NewManager(cfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &manager{
		cfg:     cfg,
		handler: deps.APIHandler,
		logger:  deps.Logger.With().Str(applog.FieldComponent, "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("start context is nil")
	}
	m.mu.Lock()
	if m.state != stateIdle {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.state = stateServing
	m.mu.Unlock()

	serveErr, err := m.serve()
	if err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	var cause error
	select {
	case cause = <-serveErr:
		m.logger.Error().Err(cause).Str(applog.FieldEvent, "api.server.failed").Msg("api server failed, shutting down")
	case <-ctx.Done():
		m.logger.Info().Str(applog.FieldEvent, "manager.signal").Msg("shutdown requested")
	}

	// The shutdown budget must outlive the cancelled start context.
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownBudget())
	defer cancel()
	return errors.Join(cause, m.Shutdown(stopCtx))
}

// serve binds the listener and serves on it in the background. The returned
// channel receives at most one error other than http.ErrServerClosed.
func (m *manager) serve() (<-chan error, error) {
	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	if m.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, m.cfg.MaxConns)
	}
	srv := &http.Server{
		Handler:           m.handler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		WriteTimeout:      m.cfg.WriteTimeout,
		IdleTimeout:       m.cfg.IdleTimeout,
		MaxHeaderBytes:    m.cfg.MaxHeaderBytes,
	}

	m.mu.Lock()
	m.ln, m.srv = ln, srv
	m.mu.Unlock()

	m.logger.Info().
		Str(applog.FieldEvent, "api.server.listening").
		Str("addr", ln.Addr().String()).
		Int("max_conns", m.cfg.MaxConns).
		Dur("shutdown_timeout", m.cfg.ShutdownTimeout).
		Msg("settings API listening")

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("serve %s: %w", ln.Addr(), err)
		}
	}()
	return errc, nil
}

func (m *manager) shutdownBudget() time.Duration {
	if m.cfg.ShutdownTimeout > 0 {
		return m.cfg.ShutdownTimeout
	}
	return 10 * time.Second
}

func (m *manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return errors.New("shutdown context is nil")
	}
	m.mu.Lock()
	switch m.state {
	case stateIdle:
		m.mu.Unlock()
		return ErrManagerNotStarted
	case stateStopping:
		m.mu.Unlock()
		return nil
	}
	m.state = stateStopping
	srv := m.srv
	hooks := make([]hookEntry, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownBudget())
	defer cancel()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server: %w", err))
		}
	}
	errs = append(errs, m.runHooks(ctx, hooks)...)

	if err := errors.Join(errs...); err != nil {
		m.logger.Error().Err(err).Str(applog.FieldEvent, "manager.stopped").Int("errors", len(errs)).Msg("shutdown finished with errors")
		return err
	}
	m.logger.Info().Str(applog.FieldEvent, "manager.stopped").Msg("shutdown complete")
	return nil
}

func (m *manager) runHooks(ctx context.Context, hooks []hookEntry) []error {
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		err := h.fn(ctx)
		ev := m.logger.Debug()
		if err != nil {
			ev = m.logger.Error().Err(err)
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
		}
		ev.Str("hook", h.name).Dur("took", time.Since(start)).Msg("shutdown hook ran")
	}
	return errs
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hookEntry{name: name, fn: hook})
}
