// Package audio hands a pull-based mono sample source to an output device.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource fills dst with mono samples.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader encodes a mono source as interleaved little-endian float32
// frames, copying each sample to every output channel.
type StreamReader struct {
	mu       sync.Mutex
	source   SampleSource
	channels int
	buf      []float32
	frames   int64
}

func NewStreamReader(source SampleSource, channels int) *StreamReader {
	return &StreamReader{source: source, channels: max(channels, 1)}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return 0, io.EOF
	}
	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	r.buf = r.buf[:frames]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		u := math.Float32bits(v)
		for c := 0; c < r.channels; c++ {
			binary.LittleEndian.PutUint32(p[(i*r.channels+c)*4:], u)
		}
	}
	r.frames += int64(frames)
	return frames * frameBytes, nil
}

// Frames is the number of frames handed out so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }
