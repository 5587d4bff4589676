// SPDX-License-Identifier: MIT

package events

import "context"

// Store is the data access contract for one ingest transaction.
// RawEventSource returns nil when no checkpoint row exists. CreateRawEvent
// reports (id, true) on insert and (0, false) when the event already existed.
type Store interface {
	RawEventSource(ctx context.Context, sourceType SourceType, sourceSystem SourceSystem) (*RawEventSource, error)
	NoteVersionsSince(ctx context.Context, lastEventID int64) ([]NoteVersion, error)
	CreateRawEvent(ctx context.Context, ev RawEventCreate) (int64, bool, error)
	UpdateCheckpoint(ctx context.Context, sourceID int64, upd CheckpointUpdate) error
}

// TxStore runs a function against a transaction-scoped Store, committing when
// fn returns nil and rolling back otherwise.
type TxStore interface {
	InTx(ctx context.Context, fn func(Store) error) error
}
