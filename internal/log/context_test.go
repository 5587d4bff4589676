// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{name: "nil context", ctx: nil, requestID: "test-id-123", want: "test-id-123"},
		{name: "background context", ctx: context.Background(), requestID: "req-456", want: "req-456"},
		{name: "empty request ID", ctx: context.Background(), requestID: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			if got := RequestIDFromContext(ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextWithJobID(t *testing.T) {
	ctx := ContextWithJobID(context.Background(), "ingest-1")
	if got := JobIDFromContext(ctx); got != "ingest-1" {
		t.Errorf("JobIDFromContext() = %v, want ingest-1", got)
	}
	if got := JobIDFromContext(context.Background()); got != "" {
		t.Errorf("JobIDFromContext() on empty context = %v, want empty", got)
	}
}

func TestContextWithTaskID(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		taskID string
	}{
		{name: "nil context", ctx: nil, taskID: "task-9"},
		{name: "background context", ctx: context.Background(), taskID: "task-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithTaskID(tt.ctx, tt.taskID)
			if got := TaskIDFromContext(ctx); got != tt.taskID {
				t.Errorf("TaskIDFromContext() = %v, want %v", got, tt.taskID)
			}
		})
	}
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "nil context", ctx: nil, want: ""},
		{name: "context without request ID", ctx: context.Background(), want: ""},
		{name: "context with wrong type", ctx: context.WithValue(context.Background(), requestIDKey, 123), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestIDFromContext(tt.ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	buf := captureLogger(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithJobID(ctx, "job-456")
	correlated := WithContext(ctx, Base())
	correlated.Info().Msg("correlated")

	entry := parseLine(t, buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("expected request_id req-123, got %v", entry["request_id"])
	}
	if entry["job_id"] != "job-456" {
		t.Errorf("expected job_id job-456, got %v", entry["job_id"])
	}

	// Without correlation fields the logger is returned unchanged.
	plain := WithContext(context.Background(), Base())
	if plain.GetLevel() != Base().GetLevel() {
		t.Error("logger level should be preserved")
	}
}

func TestWithComponentFromContext(t *testing.T) {
	buf := captureLogger(t)

	ctx := ContextWithJobID(context.Background(), "job-7")
	worker := WithComponentFromContext(ctx, "worker")
	worker.Info().Msg("tick")

	entry := parseLine(t, buf)
	if entry["component"] != "worker" {
		t.Errorf("expected component worker, got %v", entry["component"])
	}
	if entry["job_id"] != "job-7" {
		t.Errorf("expected job_id job-7, got %v", entry["job_id"])
	}
}

func TestWithTraceContext(t *testing.T) {
	// No span: base logger, no panic.
	logger := WithTraceContext(context.Background())
	if logger.GetLevel() > zerolog.PanicLevel {
		t.Error("expected valid logger without trace")
	}

	// Noop tracer produces an invalid span context; no trace fields expected.
	noopTracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := noopTracer.Start(context.Background(), "test-span")
	defer span.End()
	logger = WithTraceContext(ctx)
	if logger.GetLevel() > zerolog.PanicLevel {
		t.Error("expected valid logger with noop span")
	}

	t.Run("WithValidSpan", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

		var buf bytes.Buffer
		saved := base
		base = zerolog.New(&buf)
		t.Cleanup(func() { base = saved })

		traced := WithTraceContext(ctx)
		traced.Info().Msg("test with trace")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log output: %v", err)
		}
		if entry["trace_id"] != traceID.String() {
			t.Errorf("expected trace_id %s, got %v", traceID, entry["trace_id"])
		}
		if entry["span_id"] != spanID.String() {
			t.Errorf("expected span_id %s, got %v", spanID, entry["span_id"])
		}
	})
}
