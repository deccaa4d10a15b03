package playback

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/audio"
	"github.com/realtime-ai/streamplayout/pkg/trace"
)

type chunk struct {
	ctx  context.Context
	data []byte
}

// ingester converts submitted chunks and writes them into the ring buffer on
// a single goroutine, in submission order.
type ingester struct {
	rb     *audio.RingBuffer[float32]
	ctrl   *StateController
	logger *zap.Logger

	queue   chan chunk
	closing chan struct{}
	done    chan struct{}

	// mu guards queue against close while Submit is sending.
	mu     sync.RWMutex
	closed bool

	// levelMu makes a chunk's write and threshold check one step with
	// respect to exclusive. Lock order: levelMu, then Player.mu.
	levelMu sync.Mutex

	chunks         atomic.Uint64
	droppedSamples atomic.Uint64
	truncatedBytes atomic.Uint64
}

func newIngester(rb *audio.RingBuffer[float32], ctrl *StateController, queueSize int, logger *zap.Logger) *ingester {
	in := &ingester{
		rb:      rb,
		ctrl:    ctrl,
		logger:  logger,
		queue:   make(chan chunk, queueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go in.run()
	return in
}

// submit enqueues a copy of data. It blocks while the queue is full.
func (in *ingester) submit(ctx context.Context, data []byte) error {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if in.closed {
		return ErrClosed
	}

	c := chunk{ctx: ctx, data: append([]byte(nil), data...)}
	select {
	case in.queue <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-in.closing:
		return ErrClosed
	}
}

// close stops accepting chunks, lets the worker finish the queued ones and
// waits for it to exit.
func (in *ingester) close() {
	close(in.closing)

	in.mu.Lock()
	in.closed = true
	close(in.queue)
	in.mu.Unlock()

	<-in.done
}

// exclusive runs fn while no chunk is between its buffer write and its
// threshold check.
func (in *ingester) exclusive(fn func()) {
	in.levelMu.Lock()
	defer in.levelMu.Unlock()
	fn()
}

func (in *ingester) run() {
	defer close(in.done)

	for c := range in.queue {
		in.process(c)
	}
}

func (in *ingester) process(c chunk) {
	_, span := trace.InstrumentChunk(c.ctx, len(c.data))
	defer span.End()

	if len(c.data)%audio.BytesPerSample != 0 {
		in.truncatedBytes.Add(1)
	}

	samples := audio.PCM16ToFloat32(c.data)

	in.levelMu.Lock()
	written := in.rb.Write(samples)
	buffered := in.rb.AvailableToRead()
	armed := in.ctrl.Observe(buffered)
	in.levelMu.Unlock()

	in.chunks.Add(1)
	if dropped := len(samples) - written; dropped > 0 {
		in.droppedSamples.Add(uint64(dropped))
		in.logger.Warn("ring buffer full, dropping samples",
			zap.Int("samples", len(samples)),
			zap.Int("written", written),
			zap.Int("dropped", dropped),
		)
	}

	span.SetAttributes(trace.ChunkAttrs(len(c.data), len(samples), written, buffered, in.rb.Capacity())...)

	in.logger.Debug("chunk ingested",
		zap.Int("samples", len(samples)),
		zap.Int("written", written),
		zap.Int("buffered", buffered),
		zap.Int("capacity", in.rb.Capacity()),
	)

	if armed {
		trace.AddEvent(span, "playout.armed")
	}
}
