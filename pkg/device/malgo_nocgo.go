//go:build !cgo

package device

import (
	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/playback"
)

// NewMalgo returns a factory that always fails: miniaudio needs cgo.
func NewMalgo(logger *zap.Logger) playback.DeviceFactory {
	return func(playback.DeviceConfig, *playback.Renderer) (playback.Device, error) {
		return nil, ErrUnavailable
	}
}
