// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used across spans.
const (
	// Settings attributes
	SettingPathKey     = "setting.path"
	SettingKindKey     = "setting.kind"
	SettingRevisionKey = "setting.revision"

	// Store attributes
	StoreBackendKey = "store.backend"
	StoreRecordsKey = "store.records"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SettingAttributes describes the leaf an operation targets. Empty values are omitted.
func SettingAttributes(path, kind string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if path != "" {
		attrs = append(attrs, attribute.String(SettingPathKey, path))
	}
	if kind != "" {
		attrs = append(attrs, attribute.String(SettingKindKey, kind))
	}
	return attrs
}

// StoreAttributes describes a persistence call.
func StoreAttributes(backend string, records int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StoreBackendKey, backend),
		attribute.Int(StoreRecordsKey, records),
	}
}

// ErrorAttributes classifies a failed span.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
