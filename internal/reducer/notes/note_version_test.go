// SPDX-License-Identifier: MIT

package notes

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/go-service-template/internal/events"
	"github.com/ManuGH/go-service-template/internal/reducer"
)

type priorStore struct {
	reducer.Store
	prior *events.NoteVersion
}

func (s priorStore) PriorNoteVersion(context.Context, int64, int) (*events.NoteVersion, error) {
	return s.prior, nil
}

func rawFor(t *testing.T, nv events.NoteVersion) events.RawEvent {
	t.Helper()
	payload, err := json.Marshal(nv)
	require.NoError(t, err)
	return events.RawEvent{
		ID:            21,
		OccurredAt:    nv.CreatedAt,
		SourceID:      1,
		WorkspaceID:   nv.WorkspaceID,
		EventType:     events.EventTypeNoteVersionCreated,
		EventVersion:  1,
		Payload:       payload,
		SourceEventID: "10",
	}
}

func TestReduceFirstVersionHasEmptyDiff(t *testing.T) {
	nv := events.NoteVersion{
		ID: 10, NoteID: 4, Version: 1,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Text:        "first draft\n",
		WorkspaceID: 7,
	}

	create, err := New().Reduce(context.Background(), priorStore{}, rawFor(t, nv))
	require.NoError(t, err)

	assert.Equal(t, events.EventTypeNoteVersionCreated, create.EventType)
	assert.Equal(t, int64(7), create.WorkspaceID)
	assert.Equal(t, ReducerVersion, create.ReducerVersion)
	assert.Equal(t, []int64{21}, create.RawEventIDs)

	payload, ok := create.Payload.(EnrichedNoteVersion)
	require.True(t, ok)
	assert.Empty(t, payload.Diff)
	assert.Equal(t, nv.Text, payload.Text)
}

func TestReduceDiffsAgainstPriorVersion(t *testing.T) {
	prior := &events.NoteVersion{
		ID: 9, NoteID: 4, Version: 1,
		Text:        "shared line\nold line\n",
		WorkspaceID: 7,
	}
	nv := events.NoteVersion{
		ID: 10, NoteID: 4, Version: 2,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Text:        "shared line\nnew line\n",
		WorkspaceID: 7,
	}

	create, err := New().Reduce(context.Background(), priorStore{prior: prior}, rawFor(t, nv))
	require.NoError(t, err)

	payload, ok := create.Payload.(EnrichedNoteVersion)
	require.True(t, ok)
	assert.Contains(t, payload.Diff, "--- previous")
	assert.Contains(t, payload.Diff, "+++ current")
	assert.Contains(t, payload.Diff, "-old line")
	assert.Contains(t, payload.Diff, "+new line")
	assert.Contains(t, payload.Diff, " shared line")
}

func TestReduceHashDeterministic(t *testing.T) {
	nv := events.NoteVersion{
		ID: 10, NoteID: 4, Version: 1,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Text:        "body\n",
		WorkspaceID: 7,
	}

	first, err := New().Reduce(context.Background(), priorStore{}, rawFor(t, nv))
	require.NoError(t, err)
	second, err := New().Reduce(context.Background(), priorStore{}, rawFor(t, nv))
	require.NoError(t, err)

	assert.Equal(t, first.UniqueHash, second.UniqueHash)
}

func TestReduceRejectsMalformedPayload(t *testing.T) {
	raw := events.RawEvent{
		ID:        21,
		EventType: events.EventTypeNoteVersionCreated,
		Payload:   json.RawMessage(`{"id": "not-a-number"}`),
	}

	_, err := New().Reduce(context.Background(), priorStore{}, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload")
}
