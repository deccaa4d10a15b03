package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func TestNewRingBuffer(t *testing.T) {
	// 30s at 16kHz = 480000 samples
	rb := NewRingBuffer[float32](SamplesFor(16000, 30*time.Second))
	assert.Equal(t, 480000, rb.Capacity())
	assert.Equal(t, 0, rb.AvailableToRead())
	assert.Equal(t, 480000, rb.AvailableToWrite())

	assert.Panics(t, func() { NewRingBuffer[int](0) })
}

func TestRingBuffer_EmptyRead(t *testing.T) {
	rb := NewRingBuffer[int](8)

	v, ok := rb.Read()
	assert.False(t, ok)
	assert.Zero(t, v)

	dst := make([]int, 4)
	assert.Equal(t, 0, rb.ReadInto(dst))
}

func TestRingBuffer_FIFOAcrossWrites(t *testing.T) {
	rb := NewRingBuffer[int](10)

	require.Equal(t, 3, rb.Write(seq(0, 3)))
	require.Equal(t, 4, rb.Write(seq(3, 4)))

	var got []int
	for {
		v, ok := rb.Read()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, seq(0, 7), got)
}

func TestRingBuffer_Wraparound(t *testing.T) {
	rb := NewRingBuffer[int](5)

	require.Equal(t, 4, rb.Write(seq(0, 4)))
	dst := make([]int, 3)
	require.Equal(t, 3, rb.ReadInto(dst))
	assert.Equal(t, seq(0, 3), dst)

	// writePos is at 4, so this wraps
	require.Equal(t, 4, rb.Write(seq(4, 4)))
	assert.Equal(t, 5, rb.AvailableToRead())

	out := make([]int, 5)
	require.Equal(t, 5, rb.ReadInto(out))
	assert.Equal(t, seq(3, 5), out)
}

func TestRingBuffer_NoOverflow(t *testing.T) {
	rb := NewRingBuffer[int](100)

	written := rb.Write(seq(0, 130))
	assert.Equal(t, 100, written)
	assert.Equal(t, 100, rb.AvailableToRead())
	assert.Equal(t, 0, rb.AvailableToWrite())

	// full buffer rejects further writes
	assert.Equal(t, 0, rb.Write([]int{999}))

	out := make([]int, 200)
	n := rb.ReadInto(out)
	assert.Equal(t, 100, n)
	assert.Equal(t, seq(0, 100), out[:n])
}

func TestRingBuffer_PartialWriteNearFull(t *testing.T) {
	rb := NewRingBuffer[int](10)

	require.Equal(t, 8, rb.Write(seq(0, 8)))
	assert.Equal(t, 2, rb.Write(seq(8, 5)))

	out := make([]int, 10)
	require.Equal(t, 10, rb.ReadInto(out))
	assert.Equal(t, seq(0, 10), out)
}

func TestRingBuffer_CapacityInvariant(t *testing.T) {
	rb := NewRingBuffer[int](7)
	check := func() {
		assert.Equal(t, rb.Capacity(), rb.AvailableToRead()+rb.AvailableToWrite())
	}

	steps := []struct {
		write int
		read  int
	}{
		{3, 0}, {5, 2}, {0, 4}, {9, 1}, {2, 7}, {1, 1},
	}
	next := 0
	for _, s := range steps {
		next += rb.Write(seq(next, s.write))
		check()
		rb.ReadInto(make([]int, s.read))
		check()
	}
}

func TestRingBuffer_Reset(t *testing.T) {
	rb := NewRingBuffer[int](16)

	rb.Write(seq(0, 10))
	rb.ReadInto(make([]int, 3))
	rb.Reset()

	assert.Equal(t, 0, rb.AvailableToRead())
	assert.Equal(t, 16, rb.AvailableToWrite())
	_, ok := rb.Read()
	assert.False(t, ok)

	// buffer is reusable at the same capacity
	assert.Equal(t, 16, rb.Write(seq(100, 20)))
	v, ok := rb.Read()
	require.True(t, ok)
	assert.Equal(t, 100, v)
}

func TestRingBuffer_ConcurrentWritersOneReader(t *testing.T) {
	const (
		writers   = 8
		perWriter = 5000
	)
	rb := NewRingBuffer[int](1024)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// tag = writer*perWriter + index, strictly increasing per writer
			pending := seq(w*perWriter, perWriter)
			for len(pending) > 0 {
				n := rb.Write(pending)
				pending = pending[n:]
				if n == 0 {
					time.Sleep(10 * time.Microsecond)
				}
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	lastSeen := make([]int, writers)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	received := 0
	buf := make([]int, 256)

	drain := func() {
		n := rb.ReadInto(buf)
		for _, tag := range buf[:n] {
			w, idx := tag/perWriter, tag%perWriter
			require.Greater(t, idx, lastSeen[w], "writer %d out of order", w)
			lastSeen[w] = idx
		}
		received += n
		require.LessOrEqual(t, received, writers*perWriter)
		assert.Equal(t, rb.Capacity(), rb.AvailableToRead()+rb.AvailableToWrite())
	}

	for {
		select {
		case <-done:
			for rb.AvailableToRead() > 0 {
				drain()
			}
			assert.Equal(t, writers*perWriter, received)
			for w := range lastSeen {
				assert.Equal(t, perWriter-1, lastSeen[w])
			}
			return
		default:
			drain()
		}
	}
}

func TestSamplesFor(t *testing.T) {
	assert.Equal(t, 480000, SamplesFor(16000, 30*time.Second))
	assert.Equal(t, 1500, SamplesFor(1000, 1500*time.Millisecond))
	assert.Equal(t, 441, SamplesFor(44100, 10*time.Millisecond))
	assert.Equal(t, 0, SamplesFor(16000, time.Microsecond))

	// rate times nanoseconds would overflow int64 here
	assert.Equal(t, 221360928884514, SamplesFor(48000, time.Duration(1<<62)))
}
