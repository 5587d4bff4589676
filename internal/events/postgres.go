// SPDX-License-Identifier: MIT

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ManuGH/go-service-template/internal/db"
)

// querier is satisfied by pgx pools and transactions alike.
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

func (s *pgStore) RawEventSource(ctx context.Context, sourceType SourceType, sourceSystem SourceSystem) (*RawEventSource, error) {
	var src RawEventSource
	err := s.q.QueryRow(ctx, `
		SELECT id, source_type, source_system, last_event_id, last_event_at, updated_at
		FROM cognition.raw_event_sources
		WHERE source_type = $1 AND source_system = $2`,
		string(sourceType), string(sourceSystem),
	).Scan(&src.ID, &src.SourceType, &src.SourceSystem, &src.LastEventID, &src.LastEventAt, &src.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query raw event source: %w", err)
	}
	return &src, nil
}

func (s *pgStore) NoteVersionsSince(ctx context.Context, lastEventID int64) ([]NoteVersion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, note_id, version, created_at, title, text,
		       workspace_id, note_folder_id, similarity
		FROM public.note_versions
		WHERE id > $1
		ORDER BY id ASC`,
		lastEventID,
	)
	if err != nil {
		return nil, fmt.Errorf("query note versions: %w", err)
	}
	defer rows.Close()

	var versions []NoteVersion
	for rows.Next() {
		var nv NoteVersion
		if err := rows.Scan(
			&nv.ID, &nv.NoteID, &nv.Version, &nv.CreatedAt, &nv.Title, &nv.Text,
			&nv.WorkspaceID, &nv.NoteFolderID, &nv.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan note version: %w", err)
		}
		versions = append(versions, nv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note versions: %w", err)
	}
	return versions, nil
}

func (s *pgStore) CreateRawEvent(ctx context.Context, ev RawEventCreate) (int64, bool, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return 0, false, fmt.Errorf("marshal raw event payload: %w", err)
	}

	// ingested_at stays NULL; the semantic reducer sets it once consumed.
	var id int64
	err = s.q.QueryRow(ctx, `
		INSERT INTO cognition.raw_events
			(occurred_at, ingested_at, source_id, workspace_id,
			 event_type, event_version, payload, source_event_id)
		VALUES ($1, NULL, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_id, source_event_id) DO NOTHING
		RETURNING id`,
		ev.OccurredAt, ev.SourceID, ev.WorkspaceID,
		string(ev.EventType), ev.EventVersion, string(payload), ev.SourceEventID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert raw event: %w", err)
	}
	return id, true, nil
}

func (s *pgStore) UpdateCheckpoint(ctx context.Context, sourceID int64, upd CheckpointUpdate) error {
	_, err := s.q.Exec(ctx, `
		UPDATE cognition.raw_event_sources
		SET last_event_id = $1,
		    last_event_at = $2,
		    updated_at = $3
		WHERE id = $4`,
		upd.LastEventID, upd.LastEventAt, s.now(), sourceID,
	)
	if err != nil {
		return fmt.Errorf("update checkpoint: %w", err)
	}
	return nil
}
