package audio

import (
	"errors"
	"io"
	"sync"
	"time"
)

const nullChunk = 1024

// NullSink consumes a source without a device, either as fast as possible
// or paced to wall-clock time.
type NullSink struct {
	reader     *StreamReader
	sampleRate int
	realtime   bool

	mu      sync.Mutex
	playing bool
	wake    chan struct{}
	done    chan struct{}
	stop    chan struct{}
	stopped bool
}

func NewNullSink(sampleRate int, source SampleSource, realtime bool) *NullSink {
	s := &NullSink{
		reader:     NewStreamReader(source, 1),
		sampleRate: sampleRate,
		realtime:   realtime,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		stop:       make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *NullSink) run() {
	defer close(s.done)
	buf := make([]byte, nullChunk*4)
	chunk := framesToDuration(nullChunk, s.sampleRate)
	for {
		if !s.IsPlaying() {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		select {
		case <-s.stop:
			return
		default:
		}
		if _, err := s.reader.Read(buf); errors.Is(err, io.EOF) {
			s.mu.Lock()
			s.playing = false
			s.mu.Unlock()
			return
		}
		if s.realtime {
			time.Sleep(chunk)
		}
	}
}

func (s *NullSink) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *NullSink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *NullSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *NullSink) Position() time.Duration {
	return framesToDuration(s.reader.Frames(), s.sampleRate)
}

// Done is closed once the source has finished or the sink was stopped.
func (s *NullSink) Done() <-chan struct{} { return s.done }

func (s *NullSink) Stop() error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		s.playing = false
		close(s.stop)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}
