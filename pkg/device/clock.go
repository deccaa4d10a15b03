package device

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/playback"
)

// Sink receives each period rendered by a Clock device as interleaved frames.
// The slice is reused by the next period.
type Sink interface {
	WriteFrames(frames []float32) error
	Close() error
}

type discardSink struct{}

func (discardSink) WriteFrames([]float32) error { return nil }
func (discardSink) Close() error                { return nil }

type clockDevice struct {
	r      *playback.Renderer
	sink   Sink
	logger *zap.Logger

	channels int
	period   time.Duration
	buf      []float32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClock returns a factory for a device that renders one period per
// period duration on its own goroutine and passes it to sink. A nil sink
// discards the audio. The sink is closed with the device.
func NewClock(sink Sink, logger *zap.Logger) playback.DeviceFactory {
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(cfg playback.DeviceConfig, r *playback.Renderer) (playback.Device, error) {
		period := time.Duration(cfg.PeriodFrames) * time.Second / time.Duration(cfg.SampleRate)
		return &clockDevice{
			r:        r,
			sink:     sink,
			logger:   logger,
			channels: cfg.Channels,
			period:   period,
			buf:      make([]float32, cfg.PeriodFrames*cfg.Channels),
		}, nil
	}
}

func (d *clockDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
	return nil
}

// run renders on a ticker finer than the period and catches up on the
// period schedule, so ticker jitter does not accumulate into drift.
func (d *clockDevice) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(d.period/4, time.Millisecond))
	defer ticker.Stop()

	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for !now.Before(next) {
				next = next.Add(d.period)
				d.r.RenderInterleaved(d.buf, d.channels)
				if err := d.sink.WriteFrames(d.buf); err != nil {
					d.logger.Warn("clock device sink write failed", zap.Error(err))
				}
			}
		}
	}
}

func (d *clockDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return nil
	}
	d.cancel()
	<-d.done
	d.cancel = nil
	return nil
}

func (d *clockDevice) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	return d.sink.Close()
}
