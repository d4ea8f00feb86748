package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestNoopImplementationsDiscardEverything(t *testing.T) {
	logger := NewNoopLogger()
	require.NotPanics(t, func() {
		logger.Debug(context.Background(), "debug", "k", "v")
		logger.Info(context.Background(), "info")
		logger.Warn(context.Background(), "warn")
		logger.Error(context.Background(), "error", "err", "boom")
	})

	metrics := NewNoopMetrics()
	require.NotPanics(t, func() {
		metrics.IncCounter("c", 1, "tag", "v")
		metrics.RecordTimer("t", time.Millisecond, "tag", "v")
		metrics.RecordGauge("g", 1.0, "tag", "v")
	})

	tracer := NewNoopTracer()
	ctx, span := tracer.Start(context.Background(), "op")
	require.Equal(t, context.Background(), ctx)
	require.NotPanics(t, func() {
		span.AddEvent("event")
		span.SetStatus(codes.Ok, "")
		span.RecordError(nil)
		span.End()
	})
	require.NotNil(t, tracer.Span(context.Background()))
}

func TestZerologLoggerWritesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	logger := NewZerologLogger(base)

	logger.Info(context.Background(), "turn started", "correlation_id", "abc-123")

	out := buf.String()
	require.Contains(t, out, "turn started")
	require.Contains(t, out, "abc-123")
}

func TestZerologLoggerPrefersContextLogger(t *testing.T) {
	var baseBuf, ctxBuf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&baseBuf))

	ctxLogger := zerolog.New(&ctxBuf)
	ctx := ctxLogger.WithContext(context.Background())

	logger.Warn(ctx, "from context logger")

	require.Contains(t, ctxBuf.String(), "from context logger")
	require.Empty(t, baseBuf.String())
}

func TestZerologLoggerHandlesOddKeyvalsAndBadKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Error(context.Background(), "oops", 42, "value-with-non-string-key", "trailing")

	out := buf.String()
	require.Contains(t, out, "badkey")
	require.Contains(t, out, "trailing")
}

func TestOTelMetricsAndTracerDoNotPanicWithoutConfiguredProviders(t *testing.T) {
	metrics := NewOTelMetrics()
	require.NotPanics(t, func() {
		metrics.IncCounter("executor.step.total", 1, "action", "send_email", "outcome", "succeeded")
		metrics.RecordTimer("executor.step.duration", 5*time.Millisecond, "action", "send_email")
		metrics.RecordGauge("queue.depth", 3)
	})

	tracer := NewOTelTracer()
	ctx, span := tracer.Start(context.Background(), "executor.action.send_email")
	require.NotPanics(t, func() {
		span.AddEvent("dispatched", "attempt", 1)
		span.RecordError(nil)
		span.SetStatus(codes.Error, "boom")
		span.End()
	})
	require.NotNil(t, tracer.Span(ctx))
}
