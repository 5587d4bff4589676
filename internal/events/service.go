// SPDX-License-Identifier: MIT

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/metrics"
)

// ErrSourceNotConfigured signals a missing checkpoint row. Sources are seeded
// by database migrations, never at runtime.
var ErrSourceNotConfigured = errors.New("raw event sources must be created via database migrations")

// Service orchestrates ingest passes over the note_versions source.
type Service struct {
	store TxStore
}

// NewService returns a service over the given store.
func NewService(store TxStore) *Service {
	return &Service{store: store}
}

// ProcessNoteVersions captures all note versions newer than the stored
// checkpoint as raw events and advances the checkpoint, all in one
// transaction. It returns the IDs of newly created raw events; versions seen
// before count as duplicates and yield no ID.
func (s *Service) ProcessNoteVersions(ctx context.Context) ([]int64, error) {
	logger := log.WithComponentFromContext(ctx, "events")

	var newIDs []int64
	err := s.store.InTx(ctx, func(st Store) error {
		src, err := st.RawEventSource(ctx, SourceTypeCognoNoteVersions, SourceSystemCogno)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("raw event source not found for %s/%s: %w",
				SourceTypeCognoNoteVersions, SourceSystemCogno, ErrSourceNotConfigured)
		}

		lastEventID, err := strconv.ParseInt(src.LastEventID, 10, 64)
		if err != nil {
			return fmt.Errorf("parse checkpoint last_event_id %q: %w", src.LastEventID, err)
		}

		versions, err := st.NoteVersionsSince(ctx, lastEventID)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			logger.Info().
				Str(log.FieldEvent, "ingest.empty").
				Msg("no new note versions to process")
			return nil
		}

		inserted := 0
		duplicates := 0
		for _, nv := range versions {
			id, created, err := st.CreateRawEvent(ctx, RawEventCreate{
				SourceID:      src.ID,
				WorkspaceID:   nv.WorkspaceID,
				EventType:     EventTypeNoteVersionCreated,
				EventVersion:  1,
				Payload:       nv,
				OccurredAt:    nv.CreatedAt,
				SourceEventID: strconv.FormatInt(nv.ID, 10),
			})
			if err != nil {
				return fmt.Errorf("create raw event for note version %d: %w", nv.ID, err)
			}
			if !created {
				duplicates++
				logger.Debug().
					Str(log.FieldEvent, "ingest.duplicate").
					Int64("note_version_id", nv.ID).
					Msg("raw event already exists, skipping")
				continue
			}
			inserted++
			newIDs = append(newIDs, id)
		}

		// versions are ordered by id ASC, so the last one carries the max id.
		// The checkpoint only advances when every insert above succeeded.
		last := versions[len(versions)-1]
		if err := st.UpdateCheckpoint(ctx, src.ID, CheckpointUpdate{
			LastEventID: strconv.FormatInt(last.ID, 10),
			LastEventAt: last.CreatedAt,
		}); err != nil {
			return err
		}

		metrics.RecordRawEvents(inserted, duplicates)
		metrics.SetIngestCheckpoint(last.ID)
		logger.Info().
			Str(log.FieldEvent, "ingest.complete").
			Int("processed", len(versions)).
			Int("inserted", inserted).
			Int("duplicates", duplicates).
			Int64("last_event_id", last.ID).
			Time("last_event_at", last.CreatedAt).
			Msg("processed note versions")
		return nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "ingest.failed").
			Msg("ingest transaction rolled back")
		return nil, err
	}
	return newIDs, nil
}
