// Package device provides output devices for a playback.Player.
//
// Malgo opens the system playback device through miniaudio and renders from
// the driver's callback thread. Clock renders on a ticker at the device
// period and hands each period to a Sink, for headless hosts; WAVSink records
// those periods to a WAV file.
package device

import "errors"

// ErrUnavailable is returned by NewMalgo factories in builds without cgo.
var ErrUnavailable = errors.New("device: audio backend not available in this build")
