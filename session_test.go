package muse

import (
	"math"
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/mixer"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

const sr = 44100

func ptr[T any](v T) *T { return &v }

func sine(freq, amp, dur float64, channel int) voice.Request {
	req := voice.NewRequest(synth.Params{
		Osc:       synth.Sine{},
		Frequency: freq,
		Amplitude: amp,
		Duration:  dur,
		Envelope:  envelope.Params{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3},
	})
	req.Channel = channel
	return req
}

func drain(s *Session) (n int, peak float64) {
	for x := range s.Samples() {
		n++
		peak = math.Max(peak, math.Abs(x))
	}
	return n, peak
}

func TestSessionEndsWithLastVoice(t *testing.T) {
	s := NewSession()
	s.Play(sine(440, 0.5, 1, 0))
	n, peak := drain(s)
	if n < sr-100 || n > sr+50 {
		t.Fatalf("rendered %d samples, want about %d", n, sr)
	}
	if peak < 0.45 || peak > 0.5 {
		t.Fatalf("peak = %g, want about 0.5", peak)
	}
	if !s.Finished() {
		t.Fatal("session not finished")
	}
	if _, ok := s.NextSample(); ok {
		t.Fatal("NextSample after finish should report false")
	}
}

func TestEmptySessionFinished(t *testing.T) {
	s := NewSession()
	if !s.Finished() {
		t.Fatal("session with nothing to play should be finished")
	}
	buf := []float32{1, 1, 1}
	s.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %g, want silence", i, v)
		}
	}
}

func TestSessionPanCollapse(t *testing.T) {
	centre := NewSession()
	centre.Play(sine(440, 0.5, 0.2, 0))
	_, want := drain(centre)

	left := NewSession(WithMixer(func(m *mixer.Mixer) { m.SetPan(1, -1) }))
	left.Play(sine(440, 0.5, 0.2, 1))
	_, got := drain(left)

	if math.Abs(got-want/2) > 1e-9 {
		t.Fatalf("hard-left peak = %g, want half of %g", got, want)
	}
}

func TestSessionMuteAndSolo(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mixer.Mixer)
		want  bool // audible
	}{
		{"muted", func(m *mixer.Mixer) { m.SetMute(2, true) }, false},
		{"other channel soloed", func(m *mixer.Mixer) { m.SetSolo(3, true) }, false},
		{"own channel soloed", func(m *mixer.Mixer) { m.SetSolo(2, true) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(WithMixer(tt.setup))
			s.Play(sine(440, 0.5, 0.1, 2))
			_, peak := drain(s)
			if (peak > 0.1) != tt.want {
				t.Fatalf("peak = %g, audible want %v", peak, tt.want)
			}
		})
	}
}

func TestSessionWaitsForEffectTail(t *testing.T) {
	s := NewSession(WithMixer(func(m *mixer.Mixer) {
		m.AddMasterEffect(effects.DefaultSpec(effects.KindReverb))
	}))
	s.Play(sine(440, 0.5, 0.1, 0))
	tail := s.Mixer().TailSeconds()
	if tail <= 0 {
		t.Fatal("reverb should report a tail")
	}
	if rem := s.Remaining(); rem < 0.1+tail-0.01 {
		t.Fatalf("remaining = %g, want at least %g", rem, 0.1+tail)
	}
	n, _ := drain(s)
	want := int((0.1 + tail) * sr)
	if n < want-100 || n > want+50 {
		t.Fatalf("rendered %d samples, want about %d", n, want)
	}
}

func TestPlayNotesAllOrNothing(t *testing.T) {
	s := NewSession()
	notes := []request.Note{
		{Note: ptr(60), Duration: 0.1},
		{Note: ptr(200), Duration: 0.1},
	}
	if err := s.PlayNotes(notes); err == nil {
		t.Fatal("expected validation error")
	}
	if !s.Finished() {
		t.Fatal("invalid batch must not schedule anything")
	}
}

func TestPlayNotesSchedulesFromClock(t *testing.T) {
	s := NewSession()
	if err := s.PlayNotes([]request.Note{{Note: ptr(69), Start: 0.01, Duration: 0.05}}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 441; i++ {
		if x, _ := s.NextSample(); x != 0 {
			t.Fatalf("sample %d = %g before start", i, x)
		}
	}
	if s.ActiveVoices() != 0 {
		t.Fatal("voice started early")
	}
	s.NextSample()
	if s.ActiveVoices() != 1 {
		t.Fatalf("active = %d at start time", s.ActiveVoices())
	}
}

func TestSamplesBreakResumes(t *testing.T) {
	s := NewSession()
	s.Play(sine(220, 0.3, 0.05, 0))
	taken := 0
	for range s.Samples() {
		taken++
		if taken == 100 {
			break
		}
	}
	rest, _ := drain(s)
	if total := taken + rest; total < int(0.05*sr)-20 || total > int(0.05*sr)+2 {
		t.Fatalf("total samples = %d", total)
	}
}

func TestTakePeakResets(t *testing.T) {
	s := NewSession()
	s.Play(sine(440, 0.5, 0.1, 0))
	buf := make([]float32, 2048)
	s.Process(buf)
	if p := s.TakePeak(); p < 0.3 {
		t.Fatalf("peak = %g", p)
	}
	if p := s.TakePeak(); p != 0 {
		t.Fatalf("peak after take = %g", p)
	}
}

func TestOutOfRangeChannelIsHeard(t *testing.T) {
	for _, tc := range []struct {
		channel, want int
	}{
		{20, request.MaxChannel},
		{-3, 0},
	} {
		s := NewSession()
		req := sine(440, 0.5, 0.2, tc.channel)
		req.Note = 69
		s.Play(req)
		if vs := s.Voices(); len(vs) != 1 || vs[0].Channel != tc.want {
			t.Fatalf("channel %d: voices = %+v, want one on channel %d", tc.channel, vs, tc.want)
		}
		_, peak := drain(s)
		if peak < 0.3 {
			t.Fatalf("channel %d: peak = %g, want the voice in the mix", tc.channel, peak)
		}

		s = NewSession()
		s.Play(req)
		if n := s.ReleaseNote(69, tc.channel); n != 1 {
			t.Fatalf("channel %d: ReleaseNote released %d voices, want 1", tc.channel, n)
		}
	}
}
