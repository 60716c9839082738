// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_store_operations_total",
		Help: "Persistence operations by backend, operation and outcome",
	}, []string{"backend", "op", "outcome"}) // op=load|save|ping

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appsettings_store_operation_duration_seconds",
		Help:    "Persistence operation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"backend", "op"})

	lastSaveTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appsettings_store_last_save_timestamp_seconds",
		Help: "Unix time of the last successful save",
	})

	persistedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appsettings_store_records",
		Help: "Number of records written by the last successful save",
	})

	applySkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_apply_skipped_total",
		Help: "Persisted records skipped while applying them to the registry",
	}, []string{"reason"}) // reason=unknown|invalid

	watcherReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appsettings_watcher_reloads_total",
		Help: "File watcher reloads by outcome",
	}, []string{"outcome"})
)

// ObserveStoreOp records one persistence call.
func ObserveStoreOp(backend, op string, d time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	storeOpsTotal.WithLabelValues(backend, op, outcome).Inc()
	storeOpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// RecordSave publishes the result of a successful save.
func RecordSave(at time.Time, records int) {
	lastSaveTimestamp.Set(float64(at.Unix()))
	persistedRecords.Set(float64(records))
}

// AddApplySkipped records skipped records by reason.
func AddApplySkipped(reason string, n int) {
	if n > 0 {
		applySkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// IncWatcherReload records a watcher-triggered reload.
func IncWatcherReload(outcome string) { watcherReloadsTotal.WithLabelValues(outcome).Inc() }
