package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentConnection starts the span covering a producer connection's lifetime.
func InstrumentConnection(ctx context.Context, connID, remoteAddr string) (context.Context, trace.Span) {
	return StartSpan(ctx, "producer.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(ConnectionAttrs(connID, remoteAddr)...),
	)
}

// InstrumentChunk starts the span covering the ingest of one chunk.
func InstrumentChunk(ctx context.Context, bytes int) (context.Context, trace.Span) {
	return StartSpan(ctx, "playout.ingest_chunk",
		trace.WithAttributes(attribute.Int(AttrChunkBytes, bytes)),
	)
}
