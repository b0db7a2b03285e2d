package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"
)

type rampSource struct {
	mu    sync.Mutex
	next  float32
	limit int
	n     int
}

func (s *rampSource) Process(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
		s.n++
	}
}

func (s *rampSource) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit > 0 && s.n >= s.limit
}

func sampleAt(p []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
}

func TestStreamReaderChannels(t *testing.T) {
	for _, channels := range []int{1, 2} {
		r := NewStreamReader(&rampSource{}, channels)
		p := make([]byte, 4*channels*3+3) // trailing partial frame ignored
		n, err := r.Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if n != 4*channels*3 {
			t.Fatalf("channels=%d: n = %d", channels, n)
		}
		for f := 0; f < 3; f++ {
			for c := 0; c < channels; c++ {
				if got, want := sampleAt(p, f*channels+c), float32(f)*0.25; got != want {
					t.Fatalf("channels=%d frame %d ch %d = %g, want %g", channels, f, c, got, want)
				}
			}
		}
		if r.Frames() != 3 {
			t.Fatalf("frames = %d", r.Frames())
		}
	}
}

func TestStreamReaderEOF(t *testing.T) {
	r := NewStreamReader(&rampSource{limit: 4}, 2)
	p := make([]byte, 8*4)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if n, err := r.Read(p); !errors.Is(err, io.EOF) || n != 0 {
		t.Fatalf("second read = %d, %v; want 0, EOF", n, err)
	}
	if n, _ := r.Read(make([]byte, 4)); n != 0 {
		t.Fatal("short buffer should read nothing")
	}
}

func TestNullSinkDrains(t *testing.T) {
	src := &rampSource{limit: 10 * nullChunk}
	s := NewNullSink(44100, src, false)
	if s.IsPlaying() {
		t.Fatal("sink should start paused")
	}
	s.Play()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("null sink did not drain source")
	}
	if !src.Finished() {
		t.Fatal("source not finished")
	}
	if s.IsPlaying() {
		t.Fatal("sink still playing after EOF")
	}
	if pos := s.Position(); pos < 200*time.Millisecond {
		t.Fatalf("position = %v", pos)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestNullSinkStopWhilePaused(t *testing.T) {
	s := NewNullSink(44100, &rampSource{}, false)
	done := make(chan error)
	go func() { done <- s.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked")
	}
	if err := s.Stop(); err != nil {
		t.Fatal("second Stop:", err)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		err  bool
	}{
		{"", BackendEbiten, false},
		{"Oto", BackendOto, false},
		{"none", BackendNull, false},
		{"alsa", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, %v", tt.in, got, err)
		}
	}
	if BackendNull.String() != "null" {
		t.Error(BackendNull.String())
	}
}
