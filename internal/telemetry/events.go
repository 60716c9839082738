// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SettingChangeMetric counts registry writes by operation and outcome.
const SettingChangeMetric = "appsettings_setting_change_total"

// SettingChange describes one write to the registry.
type SettingChange struct {
	Op       string // "set", "reset", "reset_all"
	Path     string
	Kind     string
	Outcome  string // "success" or "failure"
	Revision uint64
}

// EmitSettingChange annotates the current span and counts the change. The
// meter is looked up on every call so a provider installed later is honoured.
func EmitSettingChange(ctx context.Context, c SettingChange) {
	span := trace.SpanFromContext(ctx)
	attrs := SettingAttributes(c.Path, c.Kind)
	if c.Outcome == "success" {
		attrs = append(attrs, attribute.Int64(SettingRevisionKey, int64(c.Revision)))
	}
	span.SetAttributes(attrs...)

	meter := otel.GetMeterProvider().Meter(TracerName)
	changes, err := meter.Int64Counter(SettingChangeMetric, metric.WithDescription("Registry writes by operation and outcome"))
	if err != nil {
		return
	}
	changes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", c.Op),
		attribute.String("outcome", c.Outcome),
	))
}
