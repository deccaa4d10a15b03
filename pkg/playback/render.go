package playback

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/realtime-ai/streamplayout/pkg/audio"
)

const bytesPerFloat32 = 4

// Renderer is the pull side of a Player. The output device calls one of the
// Render methods once per period from its own thread.
//
// Render methods never allocate, log or block beyond the ring buffer lock, and
// always produce exactly the requested number of frames: buffered samples
// first, then 0.0 for the frames the buffer could not supply.
//
// RenderInterleaved and RenderF32LE share a scratch slice and must not be
// called concurrently with each other. Render has no such restriction.
type Renderer struct {
	rb      *audio.RingBuffer[float32]
	scratch []float32

	renderedFrames atomic.Uint64
	underrunFrames atomic.Uint64
}

func newRenderer(rb *audio.RingBuffer[float32], scratchFrames int) *Renderer {
	if scratchFrames <= 0 {
		scratchFrames = 1
	}
	return &Renderer{
		rb:      rb,
		scratch: make([]float32, scratchFrames),
	}
}

// Render fills out with mono samples.
func (r *Renderer) Render(out []float32) {
	n := r.rb.ReadInto(out)
	clear(out[n:])

	r.renderedFrames.Add(uint64(len(out)))
	if missing := len(out) - n; missing > 0 {
		r.underrunFrames.Add(uint64(missing))
	}
}

// RenderInterleaved fills out with len(out)/channels frames, copying each
// sample to every channel of its frame. Trailing slots that do not make up a
// whole frame are zeroed.
func (r *Renderer) RenderInterleaved(out []float32, channels int) {
	if channels <= 1 {
		r.Render(out)
		return
	}

	frames := len(out) / channels
	clear(out[frames*channels:])

	for done := 0; done < frames; {
		mono := r.scratch[:min(frames-done, len(r.scratch))]
		r.Render(mono)
		for i, s := range mono {
			frame := out[(done+i)*channels : (done+i+1)*channels]
			for c := range frame {
				frame[c] = s
			}
		}
		done += len(mono)
	}
}

// RenderF32LE writes frameCount interleaved frames of little-endian float32
// into out, as expected by a device opened in 32-bit float format. frameCount
// is clamped to what out can hold.
func (r *Renderer) RenderF32LE(out []byte, frameCount, channels int) {
	if channels <= 0 {
		channels = 1
	}
	frameSize := channels * bytesPerFloat32
	if fit := len(out) / frameSize; frameCount > fit {
		frameCount = fit
	}

	for done := 0; done < frameCount; {
		mono := r.scratch[:min(frameCount-done, len(r.scratch))]
		r.Render(mono)
		for i, s := range mono {
			bits := math.Float32bits(s)
			base := (done + i) * frameSize
			for c := 0; c < channels; c++ {
				binary.LittleEndian.PutUint32(out[base+c*bytesPerFloat32:], bits)
			}
		}
		done += len(mono)
	}
}

// RenderedFrames returns the total number of frames rendered.
func (r *Renderer) RenderedFrames() uint64 {
	return r.renderedFrames.Load()
}

// UnderrunFrames returns the total number of frames rendered as silence
// because the buffer was empty.
func (r *Renderer) UnderrunFrames() uint64 {
	return r.underrunFrames.Load()
}
