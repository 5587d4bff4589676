// SPDX-License-Identifier: MIT

// Package queue provides the Redis-backed task queue between the ingest
// scheduler and the reduction consumers. Tasks are JSON on a single list,
// pushed left and popped right, so the queue is FIFO.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/metrics"
)

// Name is the reduction queue's Redis key.
const Name = "semantic_reducer"

// TaskTypeSemanticReduction identifies reduction tasks.
const TaskTypeSemanticReduction = "semantic_reduction"

// Task is one queued unit of work.
type Task struct {
	Type       string    `json:"type"`
	RawEventID int64     `json:"raw_event_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a Redis list queue.
type Queue struct {
	client *redis.Client
	name   string
	logger zerolog.Logger
}

// New connects to Redis using the given URL and verifies the connection
// with a ping before returning.
func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.WithComponent("queue")
	logger.Info().
		Str(log.FieldEvent, "queue.connected").
		Str("addr", opts.Addr).
		Str(log.FieldQueue, Name).
		Msg("connected to redis queue")

	return &Queue{client: client, name: Name, logger: logger}, nil
}

// Enqueue pushes one task onto the queue.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	err = q.client.LPush(ctx, q.name, data).Err()
	metrics.RecordQueueOp("enqueue", err)
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue pops the oldest task, blocking up to block. It returns (nil, nil)
// when the queue stayed empty for the whole window.
func (q *Queue) Dequeue(ctx context.Context, block time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, block, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordQueueOp("dequeue", err)
		return nil, fmt.Errorf("dequeue task: %w", err)
	}
	metrics.RecordQueueOp("dequeue", nil)

	// BRPOP returns (key, value).
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		q.logger.Warn().
			Err(err).
			Str(log.FieldEvent, "queue.malformed_task").
			Msg("dropping task that failed to decode")
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// Len reports the number of pending tasks and refreshes the depth gauge.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	metrics.SetQueueDepth(n)
	return n, nil
}

// Ping verifies connectivity, for readiness checks.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
