// SPDX-License-Identifier: MIT

package reducer

import (
	"context"

	"github.com/ManuGH/go-service-template/internal/events"
)

// Store is the data access contract for one reduction transaction.
// RawEvent and PriorNoteVersion return nil when no row exists.
// CreateSemanticEvent reports (id, true) on insert and (0, false) when the
// unique hash already existed.
type Store interface {
	RawEvent(ctx context.Context, id int64) (*events.RawEvent, error)
	RawEventsByIDs(ctx context.Context, ids []int64) ([]events.RawEvent, error)
	UnprocessedRawEvents(ctx context.Context, limit int) ([]events.RawEvent, error)
	PriorNoteVersion(ctx context.Context, noteID int64, version int) (*events.NoteVersion, error)
	CreateSemanticEvent(ctx context.Context, ev SemanticEventCreate) (int64, bool, error)
	MarkIngested(ctx context.Context, rawEventIDs []int64) error
}

// TxStore runs a function against a transaction-scoped Store, committing when
// fn returns nil and rolling back otherwise.
type TxStore interface {
	InTx(ctx context.Context, fn func(Store) error) error
}
