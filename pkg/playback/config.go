package playback

import (
	"fmt"
	"time"

	"github.com/realtime-ai/streamplayout/pkg/audio"
)

const (
	// DefaultSampleRate is the stream sample rate in Hz.
	DefaultSampleRate = 16000
	// DefaultChannels is the number of device output channels. The stream itself is mono.
	DefaultChannels = 1
	// DefaultBufferDuration is how much audio the ring buffer can hold.
	DefaultBufferDuration = 30 * time.Second
	// DefaultArmThreshold is how much audio must be buffered before playback is armed.
	DefaultArmThreshold = 500 * time.Millisecond
	// DefaultPeriod is the device render period.
	DefaultPeriod = 20 * time.Millisecond
	// DefaultQueueSize is the number of chunks that may wait for the ingest worker.
	DefaultQueueSize = 64

	// MaxSampleRate and MaxBufferDuration bound the ring buffer allocation.
	MaxSampleRate     = 384000
	MaxBufferDuration = time.Hour
)

// Config configures a Player.
type Config struct {
	SampleRate     int           // stream and device sample rate
	Channels       int           // device output channels; every channel gets the same sample
	BufferDuration time.Duration // ring buffer capacity
	ArmThreshold   time.Duration // buffered audio required to arm playback
	Period         time.Duration // device render period
	QueueSize      int           // pending chunks before Submit blocks

	// StrictChunks rejects odd-length chunks with audio.ErrOddLength instead
	// of dropping the trailing byte.
	StrictChunks bool

	// StartOnArm defers starting the device until playback is armed, and
	// pauses it again on Stop.
	StartOnArm bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:     DefaultSampleRate,
		Channels:       DefaultChannels,
		BufferDuration: DefaultBufferDuration,
		ArmThreshold:   DefaultArmThreshold,
		Period:         DefaultPeriod,
		QueueSize:      DefaultQueueSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0, c.SampleRate > MaxSampleRate:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrInvalidConfig, c.Channels)
	case c.BufferDuration > MaxBufferDuration, c.BufferSamples() <= 0:
		return fmt.Errorf("%w: buffer duration %s", ErrInvalidConfig, c.BufferDuration)
	case c.ArmThreshold < 0:
		return fmt.Errorf("%w: arm threshold %s", ErrInvalidConfig, c.ArmThreshold)
	case c.ThresholdSamples() >= c.BufferSamples():
		return fmt.Errorf("%w: arm threshold %s does not fit in buffer %s",
			ErrInvalidConfig, c.ArmThreshold, c.BufferDuration)
	case c.PeriodFrames() <= 0:
		return fmt.Errorf("%w: period %s", ErrInvalidConfig, c.Period)
	case c.QueueSize < 0:
		return fmt.Errorf("%w: queue size %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}

// BufferSamples returns the ring buffer capacity in samples.
func (c Config) BufferSamples() int {
	return audio.SamplesFor(c.SampleRate, c.BufferDuration)
}

// ThresholdSamples returns the arming threshold in samples.
func (c Config) ThresholdSamples() int {
	return audio.SamplesFor(c.SampleRate, c.ArmThreshold)
}

// PeriodFrames returns the number of frames in one device period.
func (c Config) PeriodFrames() int {
	return audio.SamplesFor(c.SampleRate, c.Period)
}

// DeviceConfig is what a DeviceFactory needs to open an output device.
type DeviceConfig struct {
	SampleRate   int
	Channels     int
	PeriodFrames int
}

func (c Config) deviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate:   c.SampleRate,
		Channels:     c.Channels,
		PeriodFrames: c.PeriodFrames(),
	}
}
