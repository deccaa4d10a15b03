package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCM16ToFloat32(t *testing.T) {
	// 0, 32767, -32768, -1 little-endian
	data := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0xFF, 0xFF}

	got := PCM16ToFloat32(data)
	require.Len(t, got, 4)
	assert.Equal(t, float32(0), got[0])
	assert.InDelta(t, 0.99997, got[1], 1e-5)
	assert.Equal(t, float32(-1), got[2])
	assert.InDelta(t, -0.0000305, got[3], 1e-7)
}

func TestPCM16ToFloat32_OddLength(t *testing.T) {
	got := PCM16ToFloat32([]byte{0x00, 0x40, 0x12})
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.5), got[0])

	assert.Empty(t, PCM16ToFloat32([]byte{0x7F}))
	assert.Empty(t, PCM16ToFloat32(nil))
}

func TestDecodePCM16Into(t *testing.T) {
	data := Float32ToPCM16([]float32{0.25, -0.25, 0.5})

	t.Run("dst larger than input", func(t *testing.T) {
		dst := make([]float32, 8)
		n := DecodePCM16Into(dst, data)
		assert.Equal(t, 3, n)
		assert.Equal(t, []float32{0.25, -0.25, 0.5}, dst[:n])
	})

	t.Run("dst smaller than input", func(t *testing.T) {
		dst := make([]float32, 2)
		n := DecodePCM16Into(dst, data)
		assert.Equal(t, 2, n)
		assert.Equal(t, []float32{0.25, -0.25}, dst)
	})
}

func TestValidatePCM16(t *testing.T) {
	assert.NoError(t, ValidatePCM16(nil))
	assert.NoError(t, ValidatePCM16(make([]byte, 4)))

	err := ValidatePCM16(make([]byte, 5))
	assert.True(t, errors.Is(err, ErrOddLength))
}

func TestFloat32ToInt16_Clamps(t *testing.T) {
	assert.Equal(t, int16(32767), Float32ToInt16(1.5))
	assert.Equal(t, int16(-32768), Float32ToInt16(-2))
	assert.Equal(t, int16(16384), Float32ToInt16(0.5))
	assert.Equal(t, int16(0), Float32ToInt16(0))
}
