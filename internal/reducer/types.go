// SPDX-License-Identifier: MIT

// Package reducer condenses raw events into deduplicated semantic events.
// Each raw event is reduced at most once; replays are absorbed by a content
// hash that is unique per (event type, workspace, inputs, payload).
package reducer

import (
	"encoding/json"
	"time"

	"github.com/ManuGH/go-service-template/internal/events"
)

// SemanticEvent is one reduced, enriched event as stored.
type SemanticEvent struct {
	ID             int64            `json:"id"`
	EventType      events.EventType `json:"event_type"`
	WorkspaceID    int64            `json:"workspace_id"`
	OccurredAt     time.Time        `json:"occurred_at"`
	CreatedAt      time.Time        `json:"created_at"`
	ReducerVersion string           `json:"reducer_version"`
	RawEventIDs    []int64          `json:"raw_event_ids"`
	Payload        json.RawMessage  `json:"payload"`
	UniqueHash     string           `json:"unique_hash"`
}

// SemanticEventCreate carries the fields for inserting a semantic event.
// Payload is marshalled to JSON on insert; UniqueHash must be precomputed
// over the same payload via ComputeUniqueHash.
type SemanticEventCreate struct {
	EventType      events.EventType
	WorkspaceID    int64
	OccurredAt     time.Time
	ReducerVersion string
	RawEventIDs    []int64
	Payload        any
	UniqueHash     string
}
