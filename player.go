package midisynth

import (
	"errors"
	"sync"

	intaudio "github.com/cbegin/midisynth-go/internal/audio"
)

// Player plays one finished Result through the system audio device.
type Player struct {
	mu     sync.Mutex
	res    *Result
	stream *intaudio.Buffer
	audio  *intaudio.Player
	volume float64
	done   chan struct{}
}

func NewPlayer(res *Result) (*Player, error) {
	if res == nil || res.SampleRate <= 0 {
		return nil, errors.New("player: result has no sample rate")
	}
	return &Player{res: res, volume: 1}, nil
}

// Play starts playback from the beginning, replacing any current playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Stop()
		p.audio = nil
	}
	if p.done != nil {
		close(p.done)
	}
	src := intaudio.NewBuffer(p.res.Samples)
	src.SetVolume(p.volume)
	a, err := intaudio.NewPlayer(p.res.SampleRate, src)
	if err != nil {
		p.done = nil
		return err
	}
	done := make(chan struct{})
	p.stream, p.audio, p.done = src, a, done
	go func() {
		select {
		case <-src.Done():
			p.finish(done)
		case <-done:
		}
	}()
	a.Play()
	return nil
}

func (p *Player) finish(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done {
		return
	}
	close(done)
	p.done = nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	return err
}

// Wait blocks until the current playback ends or is stopped. It returns immediately
// if nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.stream != nil {
		p.stream.SetVolume(volume)
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Position returns the playback position in frames, or 0 when idle.
func (p *Player) Position() int {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int(a.Position().Seconds() * float64(p.res.SampleRate))
}
