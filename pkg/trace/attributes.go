package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	// Playout attributes
	AttrChunkBytes      = "playout.chunk.bytes"
	AttrChunkSamples    = "playout.chunk.samples"
	AttrSamplesWritten  = "playout.samples.written"
	AttrSamplesDropped  = "playout.samples.dropped"
	AttrBufferedSamples = "playout.buffer.samples"
	AttrBufferCapacity  = "playout.buffer.capacity"
	AttrPlaybackState   = "playout.state"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioChannels   = "audio.channels"

	// Connection attributes
	AttrConnectionID     = "connection.id"
	AttrConnectionRemote = "connection.remote_addr"
)

// ChunkAttrs describes the result of ingesting one chunk.
func ChunkAttrs(bytes, samples, written, buffered, capacity int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrChunkBytes, bytes),
		attribute.Int(AttrChunkSamples, samples),
		attribute.Int(AttrSamplesWritten, written),
		attribute.Int(AttrSamplesDropped, samples-written),
		attribute.Int(AttrBufferedSamples, buffered),
		attribute.Int(AttrBufferCapacity, capacity),
	}
}

// AudioAttrs describes the stream format.
func AudioAttrs(sampleRate, channels int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioChannels, channels),
	}
}

// ConnectionAttrs identifies a producer connection.
func ConnectionAttrs(connID, remoteAddr string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrConnectionID, connID),
		attribute.String(AttrConnectionRemote, remoteAddr),
	}
}
