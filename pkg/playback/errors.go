package playback

import "errors"

var (
	// ErrClosed is returned by operations on a destroyed Player.
	ErrClosed = errors.New("playback: player is closed")

	// ErrDeviceStart wraps failures to create or start the output device.
	// Playback stays silent until Attach succeeds.
	ErrDeviceStart = errors.New("playback: output device failed to start")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("playback: invalid config")
)
