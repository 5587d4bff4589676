// SPDX-License-Identifier: MIT

// Package events turns rows appearing in upstream source tables into raw
// events, tracked by a per-source checkpoint so every row is captured exactly
// once.
package events

import (
	"encoding/json"
	"time"
)

// ScopeType scopes event-sourcing checkpoints.
type ScopeType string

// SourceType identifies an upstream source table.
type SourceType string

// SourceSystem identifies the system a source belongs to.
type SourceSystem string

// EventType identifies the kind of change a raw event records.
type EventType string

// Known sources and event types.
const (
	ScopeTypeNoteVersion ScopeType = "note_version"

	SourceTypeCognoNoteVersions SourceType = "cogno.note_versions"

	SourceSystemCogno SourceSystem = "cogno"

	EventTypeNoteVersionCreated EventType = "note_version.created"
)

// RawEventSource is the per-source ingest checkpoint.
type RawEventSource struct {
	ID           int64
	SourceType   SourceType
	SourceSystem SourceSystem
	LastEventID  string
	LastEventAt  *time.Time
	UpdatedAt    *time.Time
}

// CheckpointUpdate advances a raw event source's checkpoint.
type CheckpointUpdate struct {
	LastEventID string
	LastEventAt time.Time
}

// RawEvent is one captured upstream change. Payload holds the source row as
// JSON; IngestedAt stays NULL until a semantic reduction consumed the event.
type RawEvent struct {
	ID            int64           `json:"id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	IngestedAt    *time.Time      `json:"ingested_at"`
	SourceID      int64           `json:"source_id"`
	WorkspaceID   int64           `json:"workspace_id"`
	EventType     EventType       `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	Payload       json.RawMessage `json:"payload"`
	SourceEventID string          `json:"source_event_id"`
}

// RawEventCreate carries the fields for inserting a raw event. Payload is
// marshalled to JSON on insert; ingested_at is always written as NULL.
type RawEventCreate struct {
	SourceID      int64
	WorkspaceID   int64
	EventType     EventType
	EventVersion  int
	Payload       any
	OccurredAt    time.Time
	SourceEventID string
}

// NoteVersion mirrors one row of the upstream note_versions table. Nullable
// columns keep pointer types so the JSON payload carries explicit nulls.
type NoteVersion struct {
	ID           int64     `json:"id"`
	NoteID       int64     `json:"note_id"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Title        *string   `json:"title"`
	Text         string    `json:"text"`
	WorkspaceID  int64     `json:"workspace_id"`
	NoteFolderID *int64    `json:"note_folder_id"`
	Similarity   *float64  `json:"similarity"`
}
