// Package score turns Standard MIDI Files into timed note descriptors.
package score

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
)

// DrumChannel is the General MIDI percussion channel (10, zero based 9).
const DrumChannel = 9

// MinNoteDuration is given to notes whose off event shares the on tick.
const MinNoteDuration = 0.01

var ErrNoNotes = errors.New("midi file contains no notes")

// Options controls how channels map to sounds.
type Options struct {
	// Presets assigns a preset to a channel. Channels without an entry play
	// as plain notes with the default sine voice.
	Presets map[int]string
	// Drums maps DrumChannel keys to the built-in percussion presets.
	Drums bool
	// Transpose shifts every melodic key by this many semitones.
	Transpose int
}

// DefaultOptions maps the GM drum channel and leaves the rest unassigned.
func DefaultOptions() Options {
	return Options{Drums: true}
}

// gmDrums maps General MIDI percussion keys to presets.
var gmDrums = map[uint8]string{
	35: "kick_808",
	36: "kick_punchy",
	37: "snare_tight",
	38: "snare_tight",
	40: "snare_tight",
	42: "hihat_closed",
	44: "hihat_closed",
	46: "hihat_open",
	49: "crash",
	51: "crash",
	52: "crash",
	55: "crash",
	57: "crash",
}

type noteKey struct {
	track   int
	channel uint8
	key     uint8
}

type pending struct {
	start    int64
	velocity uint8
}

// ReadFile decodes the SMF at path.
func ReadFile(path string, opts Options) ([]request.Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	notes, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return notes, nil
}

// Decode reads an SMF from r and returns its notes ordered by start time.
// Tempo changes are honoured. A note left sounding at the end of the file
// stops at the last event.
func Decode(r io.Reader, opts Options) ([]request.Note, error) {
	open := make(map[noteKey][]pending)
	var (
		notes []request.Note
		last  int64
	)
	rd := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		last = max(last, te.AbsMicroSeconds)
		msg := midi.Message(te.Event.Message)
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			k := noteKey{te.TrackNo, ch, key}
			open[k] = append(open[k], pending{te.AbsMicroSeconds, vel})
		case msg.GetNoteEnd(&ch, &key):
			k := noteKey{te.TrackNo, ch, key}
			stack := open[k]
			if len(stack) == 0 {
				return
			}
			p := stack[0]
			open[k] = stack[1:]
			if n, ok := opts.note(ch, key, p.velocity, p.start, te.AbsMicroSeconds); ok {
				notes = append(notes, n)
			}
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}
	for k, stack := range open {
		for _, p := range stack {
			if n, ok := opts.note(k.channel, k.key, p.velocity, p.start, last); ok {
				notes = append(notes, n)
			}
		}
	}
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}
	slices.SortStableFunc(notes, func(a, b request.Note) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Channel, b.Channel); c != 0 {
			return c
		}
		return cmp.Compare(keyOf(a), keyOf(b))
	})
	return notes, nil
}

func (o Options) note(ch, key, vel uint8, startUS, endUS int64) (request.Note, bool) {
	n := request.Note{
		Channel:  int(ch),
		Start:    float64(startUS) / 1e6,
		Duration: float64(endUS-startUS) / 1e6,
		Velocity: ptr(int(vel)),
	}
	n.Duration = min(max(n.Duration, MinNoteDuration), request.MaxDuration)

	if ch == DrumChannel && o.Drums {
		name, ok := gmDrums[key]
		if !ok {
			return request.Note{}, false
		}
		n.Preset = name
		return n, true
	}
	k := int(key) + o.Transpose
	if k < 0 || k > request.MaxMIDI {
		return request.Note{}, false
	}
	n.Note = ptr(k)
	n.Preset = o.Presets[int(ch)]
	return n, true
}

func keyOf(n request.Note) int {
	if n.Note == nil {
		return -1
	}
	return *n.Note
}

func ptr[T any](v T) *T { return &v }
