package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// BytesPerSample is the size of one 16-bit PCM sample.
	BytesPerSample = 2

	// pcm16Scale maps int16 onto [-1.0, 1.0).
	pcm16Scale = 32768.0
)

// PCM16ToFloat32 converts little-endian signed 16-bit PCM into normalized
// float32 samples. A trailing odd byte is ignored.
func PCM16ToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/BytesPerSample)
	DecodePCM16Into(out, data)
	return out
}

// DecodePCM16Into decodes as many samples as fit in dst and returns the count.
// It never allocates.
func DecodePCM16Into(dst []float32, data []byte) int {
	n := len(data) / BytesPerSample
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		dst[i] = float32(s) / pcm16Scale
	}
	return n
}

// ValidatePCM16 reports whether data holds a whole number of samples.
func ValidatePCM16(data []byte) error {
	if len(data)%BytesPerSample != 0 {
		return fmt.Errorf("%w (got %d bytes)", ErrOddLength, len(data))
	}
	return nil
}

// Float32ToPCM16 converts normalized samples back to little-endian PCM16,
// clamping values outside [-1.0, 1.0].
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(Float32ToInt16(s)))
	}
	return out
}

// Float32ToInt16 converts one normalized sample to int16 with clamping.
func Float32ToInt16(s float32) int16 {
	v := math.Round(float64(s) * pcm16Scale)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
