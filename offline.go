package muse

import (
	"errors"

	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
)

// MaxRenderSeconds bounds an offline render, effect tails included.
const MaxRenderSeconds = request.MaxDuration + 120

var ErrRenderTooLong = errors.New("render exceeds the maximum length")

// Render plays notes offline and returns every sample until the session
// finishes.
func Render(notes []request.Note, opts ...Option) ([]float32, error) {
	s := NewSession(opts...)
	if err := s.PlayNotes(notes); err != nil {
		return nil, err
	}
	limit := int(MaxRenderSeconds * float64(s.SampleRate()))
	out := make([]float32, 0, int(s.Remaining()*float64(s.SampleRate()))+1)
	for x := range s.Samples() {
		if len(out) == limit {
			return out, ErrRenderTooLong
		}
		out = append(out, float32(x))
	}
	return out, nil
}

// RenderSamples renders exactly seconds of audio, cutting off or padding
// with silence.
func RenderSamples(notes []request.Note, seconds float64, opts ...Option) ([]float32, error) {
	s := NewSession(opts...)
	if err := s.PlayNotes(notes); err != nil {
		return nil, err
	}
	out := make([]float32, int(float64(s.SampleRate())*seconds))
	s.Process(out)
	return out, nil
}

// Mono averages interleaved frames down to one channel.
func Mono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	out := make([]float32, len(samples)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
