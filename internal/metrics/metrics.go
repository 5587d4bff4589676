// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus collectors shared by the API and
// worker processes. All collectors live in the app namespace and register
// on the default registry via promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for result/status dimensions.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	ResultInserted  = "inserted"
	ResultDuplicate = "duplicate"
	ResultCreated   = "created"
	ResultSkipped   = "skipped"
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_ingest_runs_total",
		Help: "Ingest passes over the note_versions source by outcome",
	}, []string{"status"})

	rawEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_raw_events_total",
		Help: "Raw events written during ingest, by result",
	}, []string{"result"})

	ingestCheckpoint = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_ingest_checkpoint",
		Help: "Last note version id the ingest checkpoint advanced to",
	})

	reductions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_reductions_total",
		Help: "Semantic reduction outcomes, by result",
	}, []string{"result"})

	reductionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "app_reduction_duration_seconds",
		Help:    "Time spent reducing one raw event",
		Buckets: prometheus.DefBuckets,
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_queue_depth",
		Help: "Pending tasks on the reduction queue",
	})

	queueOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_queue_operations_total",
		Help: "Queue operations by kind and outcome",
	}, []string{"op", "status"})
)

// RecordIngestRun counts one completed ingest pass.
func RecordIngestRun(status string) {
	ingestRuns.WithLabelValues(status).Inc()
}

// RecordRawEvents counts the raw events written by one ingest pass.
func RecordRawEvents(inserted, duplicates int) {
	rawEvents.WithLabelValues(ResultInserted).Add(float64(inserted))
	rawEvents.WithLabelValues(ResultDuplicate).Add(float64(duplicates))
}

// SetIngestCheckpoint records the checkpoint position after an ingest pass.
func SetIngestCheckpoint(lastEventID int64) {
	ingestCheckpoint.Set(float64(lastEventID))
}

// RecordReduction counts one semantic reduction outcome.
func RecordReduction(result string) {
	reductions.WithLabelValues(result).Inc()
}

// ObserveReductionDuration records how long one reduction took.
func ObserveReductionDuration(d time.Duration) {
	reductionDuration.Observe(d.Seconds())
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int64) {
	queueDepth.Set(float64(n))
}

// RecordQueueOp counts one queue operation.
func RecordQueueOp(op string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	queueOps.WithLabelValues(op, status).Inc()
}
