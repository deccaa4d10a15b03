package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitializeAndShutdown(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.ExporterType = ExporterNone

	require.NoError(t, Initialize(ctx, cfg))
	t.Cleanup(func() { _ = Shutdown(ctx) })

	assert.Error(t, Initialize(ctx, cfg), "second Initialize must fail")

	spanCtx, span := InstrumentChunk(ctx, 320)
	assert.Len(t, TraceID(spanCtx), 32)
	span.End()

	require.NoError(t, Shutdown(ctx))
	require.NoError(t, Shutdown(ctx))

	// the provider can be installed again after shutdown
	require.NoError(t, Initialize(ctx, cfg))
}

func TestInitializeUnsupportedExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExporterType = "zipkin"
	assert.Error(t, Initialize(context.Background(), cfg))
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestRecordError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer(TracerName).Start(context.Background(), "chunk")
	RecordError(span, nil)
	RecordError(span, errors.New("device gone"))
	AddEvent(span, "playout.armed", ChunkAttrs(640, 320, 320, 8320, 480000)...)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "device gone", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 2)
	assert.Equal(t, "playout.armed", ended[0].Events()[1].Name)
}
