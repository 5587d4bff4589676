// SPDX-License-Identifier: MIT

// Package worker runs the background pipeline: a beat loop that ingests new
// note versions, a pool of consumers that reduce queued raw events, and a
// reclaim loop that re-enqueues events whose reduction never completed.
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/metrics"
	"github.com/ManuGH/go-service-template/internal/queue"
	"github.com/ManuGH/go-service-template/internal/telemetry"
)

const (
	// dequeueBlock bounds one blocking pop so consumers notice cancellation.
	dequeueBlock = 5 * time.Second

	// reclaimBatchLimit caps how many stale events one reclaim pass re-enqueues.
	reclaimBatchLimit = 100
)

// Ingestor captures new upstream rows as raw events.
type Ingestor interface {
	ProcessNoteVersions(ctx context.Context) ([]int64, error)
}

// Processor reduces raw events and reports the ones still unprocessed.
type Processor interface {
	ProcessEvent(ctx context.Context, rawEventID int64) error
	UnprocessedRawEventIDs(ctx context.Context, limit int) ([]int64, error)
}

// TaskQueue is the queue surface the runner needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
	Dequeue(ctx context.Context, block time.Duration) (*queue.Task, error)
	Len(ctx context.Context) (int64, error)
}

// Config holds the runner's tuning knobs.
type Config struct {
	Concurrency       int
	IngestInterval    time.Duration
	ReclaimInterval   time.Duration
	TaskTimeLimit     time.Duration
	TaskSoftTimeLimit time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.IngestInterval <= 0 {
		c.IngestInterval = time.Minute
	}
	if c.ReclaimInterval <= 0 {
		c.ReclaimInterval = 5 * time.Minute
	}
	if c.TaskTimeLimit <= 0 {
		c.TaskTimeLimit = 30 * time.Minute
	}
	if c.TaskSoftTimeLimit <= 0 || c.TaskSoftTimeLimit > c.TaskTimeLimit {
		c.TaskSoftTimeLimit = c.TaskTimeLimit
	}
	return c
}

// Runner drives the background loops.
type Runner struct {
	cfg       Config
	ingestor  Ingestor
	processor Processor
	queue     TaskQueue

	ingestBusy atomic.Bool
	lastIngest atomic.Value // time.Time of the last successful ingest
}

// NewRunner wires the pipeline's loops together.
func NewRunner(cfg Config, ingestor Ingestor, processor Processor, q TaskQueue) *Runner {
	return &Runner{
		cfg:       cfg.withDefaults(),
		ingestor:  ingestor,
		processor: processor,
		queue:     q,
	}
}

// LastSuccessfulIngest reports when an ingest pass last completed. ok is
// false until the first success.
func (r *Runner) LastSuccessfulIngest() (time.Time, bool) {
	ts, ok := r.lastIngest.Load().(time.Time)
	return ts, ok
}

// Run starts all loops and blocks until ctx is cancelled and every loop has
// drained.
func (r *Runner) Run(ctx context.Context) error {
	logger := log.WithComponent("worker")
	logger.Info().
		Str(log.FieldEvent, "worker.start").
		Int("concurrency", r.cfg.Concurrency).
		Dur("ingest_interval", r.cfg.IngestInterval).
		Dur("reclaim_interval", r.cfg.ReclaimInterval).
		Msg("worker runtime starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.beatLoop(ctx) })
	g.Go(func() error { return r.reclaimLoop(ctx) })
	for i := 0; i < r.cfg.Concurrency; i++ {
		id := i
		g.Go(func() error { return r.consumeLoop(ctx, id) })
	}

	err := g.Wait()
	logger.Info().Str(log.FieldEvent, "worker.stopped").Msg("worker runtime stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// beatLoop runs an ingest pass immediately and then on every tick. Passes
// overlapping a slow predecessor are skipped, not queued up.
func (r *Runner) beatLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.IngestInterval)
	defer ticker.Stop()

	r.tryIngest(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tryIngest(ctx)
		}
	}
}

func (r *Runner) tryIngest(ctx context.Context) {
	if !r.ingestBusy.CompareAndSwap(false, true) {
		return
	}
	defer r.ingestBusy.Store(false)

	jobID := uuid.New().String()
	ctx = log.ContextWithJobID(ctx, jobID)
	logger := log.WithComponentFromContext(ctx, "worker")

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.TaskTimeLimit)
	defer cancel()

	runCtx, span := telemetry.Tracer("worker").Start(runCtx, "worker.ingest")
	defer span.End()

	start := time.Now()
	ids, err := r.ingestor.ProcessNoteVersions(runCtx)
	if err != nil {
		metrics.RecordIngestRun(metrics.StatusError)
		span.SetAttributes(telemetry.JobAttributes("ingest", metrics.StatusError,
			time.Since(start).Milliseconds())...)
		span.SetAttributes(telemetry.ErrorAttributes("ingest_failed")...)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "beat.ingest_failed").
			Msg("ingest pass failed")
		return
	}
	metrics.RecordIngestRun(metrics.StatusSuccess)
	span.SetAttributes(telemetry.JobAttributes("ingest", metrics.StatusSuccess,
		time.Since(start).Milliseconds())...)
	r.lastIngest.Store(time.Now())

	// Enqueue after the ingest transaction committed. Failures here are not
	// fatal: the reclaim loop picks up anything that never reached the queue.
	r.enqueueReductions(runCtx, ids, "beat")

	if n, err := r.queue.Len(runCtx); err == nil {
		logger.Debug().
			Str(log.FieldEvent, "beat.queue_depth").
			Int64("depth", n).
			Msg("queue depth after ingest")
	}
}

func (r *Runner) enqueueReductions(ctx context.Context, ids []int64, origin string) {
	logger := log.WithComponentFromContext(ctx, "worker")
	for _, id := range ids {
		task := queue.Task{
			Type:       queue.TaskTypeSemanticReduction,
			RawEventID: id,
			EnqueuedAt: time.Now().UTC(),
		}
		if err := r.queue.Enqueue(ctx, task); err != nil {
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, origin+".enqueue_failed").
				Int64(log.FieldRawEventID, id).
				Msg("failed to enqueue reduction task")
		}
	}
}

// consumeLoop pops tasks and reduces them until ctx is cancelled.
func (r *Runner) consumeLoop(ctx context.Context, id int) error {
	logger := log.WithComponent("worker").With().Int("consumer", id).Logger()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		task, err := r.queue.Dequeue(ctx, dequeueBlock)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "consume.dequeue_failed").
				Msg("dequeue failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		r.handleTask(ctx, logger, *task)
	}
}

func (r *Runner) handleTask(ctx context.Context, logger zerolog.Logger, task queue.Task) {
	if task.Type != queue.TaskTypeSemanticReduction {
		logger.Warn().
			Str(log.FieldEvent, "consume.unknown_task").
			Str("task_type", task.Type).
			Msg("dropping task of unknown type")
		return
	}

	taskID := uuid.New().String()
	taskCtx, cancel := context.WithTimeout(log.ContextWithTaskID(ctx, taskID), r.cfg.TaskTimeLimit)
	defer cancel()

	soft := time.AfterFunc(r.cfg.TaskSoftTimeLimit, func() {
		logger.Warn().
			Str(log.FieldEvent, "consume.soft_limit").
			Int64(log.FieldRawEventID, task.RawEventID).
			Dur("soft_limit", r.cfg.TaskSoftTimeLimit).
			Msg("reduction exceeded soft time limit")
	})
	defer soft.Stop()

	if err := r.processor.ProcessEvent(taskCtx, task.RawEventID); err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "consume.failed").
			Int64(log.FieldRawEventID, task.RawEventID).
			Msg("reduction failed")
	}
}

// reclaimLoop periodically re-enqueues raw events whose reduction never
// completed, covering crashes between queue and commit.
func (r *Runner) reclaimLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.reclaimOnce(ctx)
		}
	}
}

func (r *Runner) reclaimOnce(ctx context.Context) {
	logger := log.WithComponent("worker")

	ids, err := r.processor.UnprocessedRawEventIDs(ctx, reclaimBatchLimit)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "reclaim.query_failed").
			Msg("failed to list unprocessed raw events")
		return
	}
	if len(ids) == 0 {
		return
	}

	logger.Info().
		Str(log.FieldEvent, "reclaim.requeue").
		Int("count", len(ids)).
		Msg("re-enqueueing unprocessed raw events")
	r.enqueueReductions(ctx, ids, "reclaim")
}
