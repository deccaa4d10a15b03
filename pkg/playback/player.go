// Package playback implements gapless playout of a live PCM16 stream.
//
// A Player decouples a producer pushing variably sized chunks from an audio
// device pulling fixed-size periods:
//
//	producer -> Submit -> ingest worker -> RingBuffer[float32] -> Renderer -> device
//
// The ingest worker runs off the device thread and may block, allocate and
// log. The Renderer runs on the device thread and does none of those; when the
// buffer runs dry it renders silence.
//
// Usage:
//
//	p, err := playback.New(playback.DefaultConfig(), logger)
//	if err != nil { ... }
//	if err := p.Attach(device.NewMalgo(logger)); err != nil {
//		logger.Warn("no audio output", zap.Error(err))
//	}
//	p.Submit(pcm)
//	...
//	p.Destroy()
package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/audio"
	"github.com/realtime-ai/streamplayout/pkg/trace"
)

// Device is an audio output driven by a Renderer.
type Device interface {
	// Start begins invoking the renderer once per period.
	Start() error
	// Stop pauses rendering. The device can be started again.
	Stop() error
	// Close stops the device and releases its resources. No render call
	// happens after Close returns.
	Close() error
}

// DeviceFactory opens a Device that pulls its frames from r.
type DeviceFactory func(cfg DeviceConfig, r *Renderer) (Device, error)

// Stats is a snapshot of a Player's counters.
type Stats struct {
	State          string `json:"state"`
	Buffered       int    `json:"buffered"`
	Capacity       int    `json:"capacity"`
	Armed          bool   `json:"armed"`
	Threshold      int    `json:"threshold"`
	Chunks         uint64 `json:"chunks"`
	DroppedSamples uint64 `json:"dropped_samples"`
	TruncatedBytes uint64 `json:"truncated_bytes"`
	RenderedFrames uint64 `json:"rendered_frames"`
	UnderrunFrames uint64 `json:"underrun_frames"`
	DeviceRunning  bool   `json:"device_running"`
}

// Player is one playback session. It owns the ring buffer; the Renderer and
// the device only borrow it, and Destroy tears the device down before
// returning.
type Player struct {
	cfg    Config
	logger *zap.Logger

	rb       *audio.RingBuffer[float32]
	ctrl     *StateController
	renderer *Renderer
	ingest   *ingester

	// mu serializes device lifecycle changes.
	mu      sync.Mutex
	device  Device
	running bool

	closed atomic.Bool
}

// New creates a Player and starts its ingest worker. No audio is produced
// until a device is attached.
func New(cfg Config, logger *zap.Logger) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Player{
		cfg:    cfg,
		logger: logger,
		rb:     audio.NewRingBuffer[float32](cfg.BufferSamples()),
	}
	p.ctrl = NewStateController(cfg.ThresholdSamples(), p.onArmed)
	p.renderer = newRenderer(p.rb, cfg.PeriodFrames())
	p.ingest = newIngester(p.rb, p.ctrl, cfg.QueueSize, logger)

	logger.Info("player created",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Int("capacity", p.rb.Capacity()),
		zap.Int("threshold", p.ctrl.Threshold()),
	)
	return p, nil
}

// Submit queues one chunk of little-endian PCM16 mono audio. The chunk is
// copied, so the caller may reuse it. A trailing odd byte is dropped unless
// Config.StrictChunks is set, in which case the chunk is rejected.
func (p *Player) Submit(data []byte) error {
	return p.SubmitContext(context.Background(), data)
}

// SubmitContext is Submit with a context for tracing and for giving up while
// the ingest queue is full.
func (p *Player) SubmitContext(ctx context.Context, data []byte) error {
	if p.cfg.StrictChunks {
		if err := audio.ValidatePCM16(data); err != nil {
			return err
		}
	}
	return p.ingest.submit(ctx, data)
}

// Attach opens a device with factory and, unless Config.StartOnArm defers
// it, starts it. A previously attached device is closed first. Failures are
// wrapped in ErrDeviceStart; the Player stays usable and Attach may be
// retried.
func (p *Player) Attach(factory DeviceFactory) error {
	if p.closed.Load() {
		return ErrClosed
	}

	_, span := trace.StartSpan(context.Background(), "playout.attach")
	defer span.End()
	span.SetAttributes(trace.AudioAttrs(p.cfg.SampleRate, p.cfg.Channels)...)

	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.detachLocked()

	dev, err := factory(p.cfg.deviceConfig(), p.renderer)
	if err != nil {
		p.logger.Warn("failed to open output device", zap.Error(err))
		err = fmt.Errorf("%w: %w", ErrDeviceStart, err)
		trace.RecordError(span, err)
		return err
	}
	p.device = dev

	if p.cfg.StartOnArm && p.ctrl.State() != StateArmed {
		p.logger.Info("output device attached, waiting for buffer to arm")
		return nil
	}

	if err := p.startLocked(); err != nil {
		_ = p.detachLocked()
		trace.RecordError(span, err)
		return err
	}
	return nil
}

// Detach stops and closes the attached device, if any.
func (p *Player) Detach() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detachLocked()
}

func (p *Player) startLocked() error {
	if p.device == nil || p.running {
		return nil
	}
	if err := p.device.Start(); err != nil {
		p.logger.Warn("failed to start output device", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDeviceStart, err)
	}
	p.running = true
	p.logger.Info("output device started")
	return nil
}

func (p *Player) stopLocked() {
	if p.device == nil || !p.running {
		return
	}
	if err := p.device.Stop(); err != nil {
		p.logger.Warn("failed to stop output device", zap.Error(err))
	}
	p.running = false
}

func (p *Player) detachLocked() error {
	if p.device == nil {
		return nil
	}
	p.running = false
	err := p.device.Close()
	p.device = nil
	if err != nil {
		p.logger.Warn("failed to close output device", zap.Error(err))
		return fmt.Errorf("close output device: %w", err)
	}
	return nil
}

// onArmed runs on the ingest worker when the buffer crosses the threshold.
func (p *Player) onArmed(buffered int) {
	p.logger.Info("accumulated enough audio, starting playback",
		zap.Int("buffered", buffered),
		zap.Int("threshold", p.ctrl.Threshold()),
	)

	if !p.cfg.StartOnArm || p.closed.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl.State() != StateArmed {
		return
	}
	if err := p.startLocked(); err != nil {
		p.logger.Warn("playback armed but device did not start", zap.Error(err))
	}
}

// Stop discards all buffered audio and returns to StateIdle. Playback arms
// again once the threshold is crossed. Each queued chunk is either discarded
// as a whole or lands after the reset and counts toward the next arming.
func (p *Player) Stop() {
	if p.closed.Load() {
		return
	}

	p.ingest.exclusive(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.cfg.StartOnArm {
			p.stopLocked()
		}
		p.rb.Reset()
		p.ctrl.Reset()
	})

	p.logger.Info("playback stopped, buffer cleared")
}

// Destroy stops the ingest worker and closes the device. The Player cannot be
// used afterwards; further calls return ErrClosed.
func (p *Player) Destroy() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	p.ingest.close()

	p.mu.Lock()
	err := p.detachLocked()
	p.mu.Unlock()

	p.logger.Info("player destroyed")
	return err
}

// State returns the current playback state.
func (p *Player) State() State {
	return p.ctrl.State()
}

// Buffered returns the number of samples waiting to be rendered.
func (p *Player) Buffered() int {
	return p.rb.AvailableToRead()
}

// Renderer returns the pull side of the player, for devices built outside a
// DeviceFactory.
func (p *Player) Renderer() *Renderer {
	return p.renderer
}

// Config returns the player configuration.
func (p *Player) Config() Config {
	return p.cfg
}

// Stats returns a snapshot of the player counters.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	state := p.ctrl.State()
	return Stats{
		State:          state.String(),
		Armed:          state == StateArmed,
		Buffered:       p.rb.AvailableToRead(),
		Capacity:       p.rb.Capacity(),
		Threshold:      p.ctrl.Threshold(),
		Chunks:         p.ingest.chunks.Load(),
		DroppedSamples: p.ingest.droppedSamples.Load(),
		TruncatedBytes: p.ingest.truncatedBytes.Load(),
		RenderedFrames: p.renderer.RenderedFrames(),
		UnderrunFrames: p.renderer.UnderrunFrames(),
		DeviceRunning:  running,
	}
}
