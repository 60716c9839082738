// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent = "event"

	// Settings fields
	FieldSettingPath = "setting_path"
	FieldKind        = "kind"
	FieldRevision    = "revision"

	// Storage fields
	FieldBackend = "backend"
	FieldPath    = "path"

	// HTTP fields
	FieldMethod   = "method"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
