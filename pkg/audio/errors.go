package audio

import "errors"

// ErrOddLength is returned by ValidatePCM16 when a PCM16 buffer has a dangling byte.
var ErrOddLength = errors.New("audio: pcm16 data has odd length")
