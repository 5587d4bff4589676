// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldTaskID    = "task_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldQueue     = "queue"

	// Event-sourcing fields
	FieldEventType       = "event_type"
	FieldSourceType      = "source_type"
	FieldSourceSystem    = "source_system"
	FieldWorkspaceID     = "workspace_id"
	FieldRawEventID      = "raw_event_id"
	FieldSemanticEventID = "semantic_event_id"
	FieldReducerVersion  = "reducer_version"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
