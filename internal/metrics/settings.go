// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors of the settings daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Registry metrics
	settingUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_setting_updates_total",
		Help: "Setting writes by operation and outcome",
	}, []string{"op", "outcome"}) // op=set|reset|reset_all

	settingErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_setting_errors_total",
		Help: "Rejected setting operations by error class",
	}, []string{"class"}) // class=not_found|type_mismatch|invalid_request

	registryRevision = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appsettings_registry_revision",
		Help: "Current revision of the settings registry",
	})

	overridesCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appsettings_overrides",
		Help: "Number of settings whose value differs from the default",
	})
)

// IncSettingUpdate records a write operation against the registry.
func IncSettingUpdate(op, outcome string) {
	settingUpdatesTotal.WithLabelValues(op, outcome).Inc()
}

// IncSettingError records a rejected operation by error class.
func IncSettingError(class string) { settingErrorsTotal.WithLabelValues(class).Inc() }

// RecordRegistryState publishes the registry revision and override count.
func RecordRegistryState(revision uint64, overrides int) {
	registryRevision.Set(float64(revision))
	overridesCurrent.Set(float64(overrides))
}

// RegistryRevision returns the last published revision (for testing).
func RegistryRevision() float64 {
	var m dto.Metric
	if err := registryRevision.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
