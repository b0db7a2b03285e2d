package audio

import (
	"fmt"
	"strings"
	"time"
)

// Sink is a running output stream.
type Sink interface {
	Play()
	Pause()
	IsPlaying() bool
	// Position is how much audio the device has consumed.
	Position() time.Duration
	Stop() error
}

type Backend int

const (
	BackendEbiten Backend = iota
	BackendOto
	BackendNull
)

func (b Backend) String() string {
	switch b {
	case BackendEbiten:
		return "ebiten"
	case BackendOto:
		return "oto"
	case BackendNull:
		return "null"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ebiten":
		return BackendEbiten, nil
	case "oto":
		return BackendOto, nil
	case "null", "none":
		return BackendNull, nil
	}
	return 0, fmt.Errorf("unknown audio backend %q (want ebiten, oto or null)", s)
}

// Open starts a sink of the given kind pulling from source. The sink is
// created paused.
func Open(b Backend, sampleRate int, source SampleSource) (Sink, error) {
	switch b {
	case BackendEbiten:
		return NewPlayer(sampleRate, source)
	case BackendOto:
		return NewOtoPlayer(sampleRate, source)
	case BackendNull:
		return NewNullSink(sampleRate, source, false), nil
	}
	return nil, fmt.Errorf("unknown audio backend %v", b)
}

func framesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
