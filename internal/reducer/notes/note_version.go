// SPDX-License-Identifier: MIT

// Package notes reduces note-version raw events into enriched semantic
// events carrying a unified diff against the prior version.
package notes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ManuGH/go-service-template/internal/events"
	"github.com/ManuGH/go-service-template/internal/reducer"
)

// ReducerVersion stamps every semantic event this reducer produces.
const ReducerVersion = "1.0.0"

// diffContextLines is the unified-diff context window.
const diffContextLines = 3

// EnrichedNoteVersion is the semantic payload: the note version plus the
// unified diff from its predecessor. The first version of a note carries an
// empty diff.
type EnrichedNoteVersion struct {
	events.NoteVersion
	Diff string `json:"diff"`
}

// NoteVersionReducer reduces note_version.created raw events.
type NoteVersionReducer struct{}

// New returns the note-version reducer.
func New() NoteVersionReducer {
	return NoteVersionReducer{}
}

// EventType reports the raw event type this reducer consumes.
func (NoteVersionReducer) EventType() events.EventType {
	return events.EventTypeNoteVersionCreated
}

// Reduce parses the note version out of the raw event payload, diffs it
// against the prior version of the same note and builds the enriched
// semantic event.
func (NoteVersionReducer) Reduce(ctx context.Context, st reducer.Store, raw events.RawEvent) (reducer.SemanticEventCreate, error) {
	var nv events.NoteVersion
	if err := json.Unmarshal(raw.Payload, &nv); err != nil {
		return reducer.SemanticEventCreate{}, fmt.Errorf("parse note version payload: %w", err)
	}

	prior, err := st.PriorNoteVersion(ctx, nv.NoteID, nv.Version)
	if err != nil {
		return reducer.SemanticEventCreate{}, err
	}

	var diff string
	if prior != nil {
		diff, err = unifiedDiff(prior.Text, nv.Text)
		if err != nil {
			return reducer.SemanticEventCreate{}, fmt.Errorf("diff note %d version %d: %w", nv.NoteID, nv.Version, err)
		}
	}

	payload := EnrichedNoteVersion{NoteVersion: nv, Diff: diff}
	rawEventIDs := []int64{raw.ID}
	hash, err := reducer.ComputeUniqueHash(string(raw.EventType), nv.WorkspaceID, rawEventIDs, payload)
	if err != nil {
		return reducer.SemanticEventCreate{}, err
	}

	return reducer.SemanticEventCreate{
		EventType:      raw.EventType,
		WorkspaceID:    nv.WorkspaceID,
		OccurredAt:     raw.OccurredAt,
		ReducerVersion: ReducerVersion,
		RawEventIDs:    rawEventIDs,
		Payload:        payload,
		UniqueHash:     hash,
	}, nil
}

func unifiedDiff(previous, current string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  diffContextLines,
	})
}
