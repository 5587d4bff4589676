// SPDX-License-Identifier: MIT

package reducer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/go-service-template/internal/events"
	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/metrics"
	"github.com/ManuGH/go-service-template/internal/telemetry"
)

// ErrRawEventNotFound signals a reduction request for an id with no row.
var ErrRawEventNotFound = errors.New("raw event not found")

// Reducer turns one raw event into a semantic event. Implementations are
// registered per event type and must be deterministic: the same raw event
// reduces to the same unique hash on every run.
type Reducer interface {
	EventType() events.EventType
	Reduce(ctx context.Context, st Store, raw events.RawEvent) (SemanticEventCreate, error)
}

// Service orchestrates semantic reduction of raw events.
type Service struct {
	store    TxStore
	reducers map[events.EventType]Reducer
}

// NewService returns a service dispatching to the given reducers.
func NewService(store TxStore, reducers ...Reducer) *Service {
	m := make(map[events.EventType]Reducer, len(reducers))
	for _, r := range reducers {
		m[r.EventType()] = r
	}
	return &Service{store: store, reducers: m}
}

// ProcessEvent reduces one raw event in a single transaction. Raw events of
// unknown type are logged and left untouched; known events are reduced,
// inserted (or recognized as replays via the unique hash) and their inputs
// marked ingested either way, so a replayed task converges to the same state.
func (s *Service) ProcessEvent(ctx context.Context, rawEventID int64) error {
	ctx, span := telemetry.Tracer("reducer").Start(ctx, "reducer.process_event")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "reducer")
	start := time.Now()

	err := s.store.InTx(ctx, func(st Store) error {
		raw, err := st.RawEvent(ctx, rawEventID)
		if err != nil {
			return err
		}
		if raw == nil {
			return fmt.Errorf("raw event %d: %w", rawEventID, ErrRawEventNotFound)
		}
		span.SetAttributes(telemetry.PipelineAttributes(raw.ID, raw.WorkspaceID, string(raw.EventType))...)

		red, ok := s.reducers[raw.EventType]
		if !ok {
			metrics.RecordReduction(metrics.ResultSkipped)
			logger.Warn().
				Str(log.FieldEvent, "reduce.skipped").
				Int64(log.FieldRawEventID, raw.ID).
				Str(log.FieldEventType, string(raw.EventType)).
				Msg("no reducer registered for event type")
			return nil
		}

		create, err := red.Reduce(ctx, st, *raw)
		if err != nil {
			return fmt.Errorf("reduce raw event %d: %w", raw.ID, err)
		}

		id, created, err := st.CreateSemanticEvent(ctx, create)
		if err != nil {
			return err
		}
		if created {
			metrics.RecordReduction(metrics.ResultCreated)
			logger.Info().
				Str(log.FieldEvent, "reduce.created").
				Int64(log.FieldRawEventID, raw.ID).
				Int64(log.FieldSemanticEventID, id).
				Str(log.FieldReducerVersion, create.ReducerVersion).
				Msg("semantic event created")
		} else {
			metrics.RecordReduction(metrics.ResultDuplicate)
			logger.Info().
				Str(log.FieldEvent, "reduce.duplicate").
				Int64(log.FieldRawEventID, raw.ID).
				Msg("semantic event already exists")
		}

		// Mark inputs consumed on duplicates too: a replayed task must not
		// leave its raw events eligible for reclaim forever.
		return st.MarkIngested(ctx, create.RawEventIDs)
	})
	metrics.ObserveReductionDuration(time.Since(start))
	if err != nil {
		span.SetAttributes(telemetry.ErrorAttributes("reduction_failed")...)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "reduce.failed").
			Int64(log.FieldRawEventID, rawEventID).
			Msg("reduction transaction rolled back")
		return err
	}
	return nil
}

// UnprocessedRawEventIDs lists raw events that never completed a reduction,
// oldest first. The worker's reclaim loop re-enqueues them.
func (s *Service) UnprocessedRawEventIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	err := s.store.InTx(ctx, func(st Store) error {
		raws, err := st.UnprocessedRawEvents(ctx, limit)
		if err != nil {
			return err
		}
		for _, raw := range raws {
			ids = append(ids, raw.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
