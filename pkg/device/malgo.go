//go:build cgo

package device

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/playback"
)

type malgoDevice struct {
	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	logger *zap.Logger
}

// NewMalgo returns a factory opening the default playback device in 32-bit
// float format. The data callback only calls Renderer.RenderF32LE.
func NewMalgo(logger *zap.Logger) playback.DeviceFactory {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(cfg playback.DeviceConfig, r *playback.Renderer) (playback.Device, error) {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
			logger.Debug("miniaudio", zap.String("message", message))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize context: %w", err)
		}

		deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(cfg.Channels)
		deviceConfig.SampleRate = uint32(cfg.SampleRate)
		deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
		deviceConfig.Alsa.NoMMap = 1

		channels := cfg.Channels
		dev, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
			Data: func(outputSamples, _ []byte, framecount uint32) {
				r.RenderF32LE(outputSamples, int(framecount), channels)
			},
		})
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("failed to initialize playback device: %w", err)
		}

		logger.Info("playback device opened",
			zap.Int("sample_rate", cfg.SampleRate),
			zap.Int("channels", cfg.Channels),
			zap.Int("period_frames", cfg.PeriodFrames),
		)

		return &malgoDevice{ctx: ctx, dev: dev, logger: logger}, nil
	}
}

func (d *malgoDevice) Start() error {
	if err := d.dev.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (d *malgoDevice) Stop() error {
	if err := d.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	return nil
}

// Close stops the device; miniaudio guarantees no data callback runs after Uninit.
func (d *malgoDevice) Close() error {
	d.dev.Uninit()

	err := d.ctx.Uninit()
	d.ctx.Free()
	if err != nil {
		return fmt.Errorf("failed to uninitialize context: %w", err)
	}
	d.logger.Info("playback device closed")
	return nil
}
