// SPDX-License-Identifier: MIT

// Package health serves the liveness and readiness probes of settingsd.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/appsettings/internal/log"
	"golang.org/x/sync/errgroup"
)

// Status is the state of one component or of the daemon as a whole.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) rank() int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	}
	return 0
}

// CheckResult is what a Checker reports.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// TookMS is filled in by the Manager.
	TookMS int64 `json:"tookMs"`
}

// Report is the body of both probes. Ready is only meaningful for /readyz.
type Report struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is a single component probe. Check must honour ctx.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager evaluates registered checkers concurrently.
type Manager struct {
	version string

	mu       sync.RWMutex
	checkers []Checker
}

func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds c. Checkers are reported in name order.
func (m *Manager) RegisterChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
	slices.SortStableFunc(m.checkers, func(a, b Checker) int { return strings.Compare(a.Name(), b.Name()) })
}

func (m *Manager) snapshot() []Checker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.checkers)
}

// evaluate runs every checker and folds their states into the worst one.
func (m *Manager) evaluate(ctx context.Context, checkers []Checker) (map[string]CheckResult, Status) {
	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checkers))
		overall = StatusHealthy
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checkers {
		g.Go(func() error {
			start := time.Now()
			res := c.Check(gctx)
			res.TookMS = time.Since(start).Milliseconds()

			mu.Lock()
			defer mu.Unlock()
			results[c.Name()] = res
			if res.Status.rank() > overall.rank() {
				overall = res.Status
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, overall
}

// Health reports liveness. The process counts as alive whatever its
// components say; verbose only adds their results.
func (m *Manager) Health(ctx context.Context, verbose bool) Report {
	rep := Report{Status: StatusHealthy, Ready: true, Version: m.version, Timestamp: time.Now()}
	if checkers := m.snapshot(); verbose && len(checkers) > 0 {
		rep.Checks, rep.Status = m.evaluate(ctx, checkers)
	}
	return rep
}

// Ready reports readiness. Degraded components keep the daemon ready.
func (m *Manager) Ready(ctx context.Context) Report {
	rep := Report{Status: StatusHealthy, Version: m.version, Timestamp: time.Now()}
	if checkers := m.snapshot(); len(checkers) > 0 {
		rep.Checks, rep.Status = m.evaluate(ctx, checkers)
	}
	rep.Ready = rep.Status != StatusUnhealthy
	return rep
}

// ServeHealth answers /healthz, always with 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	rep := m.Health(r.Context(), r.URL.Query().Get("verbose") == "true")
	m.write(w, r, http.StatusOK, rep, "health")
}

// ServeReady answers /readyz with 503 when any component is unhealthy.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	rep := m.Ready(r.Context())
	code := http.StatusOK
	if !rep.Ready {
		code = http.StatusServiceUnavailable
		logger := log.WithComponentFromContext(r.Context(), "health")
		logger.Warn().
			Str(log.FieldEvent, "readiness.failed").
			Str("status", string(rep.Status)).
			Msg("daemon not ready")
	}
	m.write(w, r, code, rep, "readiness")
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, code int, rep Report, probe string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "health")
		logger.Error().Err(err).
			Str(log.FieldEvent, probe+".encode_error").
			Msg("failed to encode probe response")
	}
}
