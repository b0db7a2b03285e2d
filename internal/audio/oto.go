package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays a source through a mono float32 oto context.
type OtoPlayer struct {
	mu         sync.Mutex
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
}

var (
	otoOnce       sync.Once
	otoContext    *oto.Context
	otoErr        error
	otoSampleRate int
)

// oto allows one context per process.
func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

func NewOtoPlayer(sampleRate int, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, 1)
	return &OtoPlayer{
		player:     ctx.NewPlayer(reader),
		reader:     reader,
		sampleRate: sampleRate,
	}, nil
}

func (p *OtoPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Play()
	}
}

func (p *OtoPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
}

func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// Position is the frames read minus what oto still holds in its buffer.
func (p *OtoPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	frames := p.reader.Frames()
	if p.player != nil {
		frames -= int64(p.player.BufferedSize() / 4)
	}
	return framesToDuration(max(frames, 0), p.sampleRate)
}

func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
