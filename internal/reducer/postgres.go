// SPDX-License-Identifier: MIT

package reducer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ManuGH/go-service-template/internal/db"
	"github.com/ManuGH/go-service-template/internal/events"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore is the PostgreSQL-backed TxStore.
type PGStore struct {
	db  *db.DB
	now func() time.Time
}

// NewPGStore returns a store running against the given pool.
func NewPGStore(database *db.DB) *PGStore {
	return &PGStore{db: database, now: time.Now}
}

// InTx runs fn against a transaction-scoped store.
func (s *PGStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgStore{q: tx, now: s.now})
	})
}

type pgStore struct {
	q   querier
	now func() time.Time
}

const rawEventColumns = `id, occurred_at, ingested_at, source_id, workspace_id,
       event_type, event_version, payload, source_event_id`

func scanRawEvent(row pgx.Row) (events.RawEvent, error) {
	var ev events.RawEvent
	err := row.Scan(
		&ev.ID, &ev.OccurredAt, &ev.IngestedAt, &ev.SourceID, &ev.WorkspaceID,
		&ev.EventType, &ev.EventVersion, &ev.Payload, &ev.SourceEventID,
	)
	return ev, err
}

func (s *pgStore) RawEvent(ctx context.Context, id int64) (*events.RawEvent, error) {
	ev, err := scanRawEvent(s.q.QueryRow(ctx, `
		SELECT `+rawEventColumns+`
		FROM cognition.raw_events
		WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query raw event %d: %w", id, err)
	}
	return &ev, nil
}

func (s *pgStore) RawEventsByIDs(ctx context.Context, ids []int64) ([]events.RawEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+rawEventColumns+`
		FROM cognition.raw_events
		WHERE id = ANY($1)
		ORDER BY id ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query raw events by ids: %w", err)
	}
	defer rows.Close()
	return collectRawEvents(rows)
}

func (s *pgStore) UnprocessedRawEvents(ctx context.Context, limit int) ([]events.RawEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+rawEventColumns+`
		FROM cognition.raw_events
		WHERE ingested_at IS NULL
		ORDER BY id ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed raw events: %w", err)
	}
	defer rows.Close()
	return collectRawEvents(rows)
}

func collectRawEvents(rows pgx.Rows) ([]events.RawEvent, error) {
	var out []events.RawEvent
	for rows.Next() {
		ev, err := scanRawEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raw event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw events: %w", err)
	}
	return out, nil
}

func (s *pgStore) PriorNoteVersion(ctx context.Context, noteID int64, version int) (*events.NoteVersion, error) {
	var nv events.NoteVersion
	err := s.q.QueryRow(ctx, `
		SELECT id, note_id, version, created_at, title, text,
		       workspace_id, note_folder_id, similarity
		FROM public.note_versions
		WHERE note_id = $1 AND version < $2
		ORDER BY version DESC
		LIMIT 1`,
		noteID, version,
	).Scan(
		&nv.ID, &nv.NoteID, &nv.Version, &nv.CreatedAt, &nv.Title, &nv.Text,
		&nv.WorkspaceID, &nv.NoteFolderID, &nv.Similarity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query prior note version: %w", err)
	}
	return &nv, nil
}

func (s *pgStore) CreateSemanticEvent(ctx context.Context, ev SemanticEventCreate) (int64, bool, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return 0, false, fmt.Errorf("marshal semantic event payload: %w", err)
	}

	var id int64
	err = s.q.QueryRow(ctx, `
		INSERT INTO cognition.semantic_events
			(event_type, workspace_id, occurred_at, created_at,
			 reducer_version, raw_event_ids, payload, unique_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (unique_hash) DO NOTHING
		RETURNING id`,
		string(ev.EventType), ev.WorkspaceID, ev.OccurredAt, s.now(),
		ev.ReducerVersion, ev.RawEventIDs, string(payload), ev.UniqueHash,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert semantic event: %w", err)
	}
	return id, true, nil
}

func (s *pgStore) MarkIngested(ctx context.Context, rawEventIDs []int64) error {
	if len(rawEventIDs) == 0 {
		return nil
	}
	_, err := s.q.Exec(ctx, `
		UPDATE cognition.raw_events
		SET ingested_at = $1
		WHERE id = ANY($2)`,
		s.now(), rawEventIDs,
	)
	if err != nil {
		return fmt.Errorf("mark raw events ingested: %w", err)
	}
	return nil
}
