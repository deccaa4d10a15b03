package device

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/realtime-ai/streamplayout/pkg/audio"
)

// WAVSink records rendered frames as 16-bit PCM WAV.
type WAVSink struct {
	enc *wav.Encoder
	buf *goaudio.IntBuffer
}

var _ Sink = (*WAVSink)(nil)

// NewWAVSink creates a sink writing to w. The WAV header is finalized on Close.
func NewWAVSink(w io.WriteSeeker, sampleRate, channels int) *WAVSink {
	return &WAVSink{
		enc: wav.NewEncoder(w, sampleRate, 16, channels, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: 16,
		},
	}
}

// WriteFrames appends interleaved frames to the file.
func (s *WAVSink) WriteFrames(frames []float32) error {
	s.buf.Data = s.buf.Data[:0]
	for _, v := range frames {
		s.buf.Data = append(s.buf.Data, int(audio.Float32ToInt16(v)))
	}
	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("write wav frames: %w", err)
	}
	return nil
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (s *WAVSink) Close() error {
	if err := s.enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
