// Package audio plays finished renders on the system audio device.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

const bytesPerFrame = 8 // two little-endian float32 samples

// Buffer streams an interleaved stereo render once as the float32 byte stream the
// audio context consumes. Volume changes apply from the next Read.
type Buffer struct {
	samples []float64
	pos     atomic.Int64 // next sample index
	volume  atomic.Uint64
	done    chan struct{}
	once    sync.Once
}

func NewBuffer(samples []float64) *Buffer {
	b := &Buffer{samples: samples, done: make(chan struct{})}
	b.SetVolume(1)
	return b
}

func (b *Buffer) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	pos := int(b.pos.Load())
	n := min(frames*2, len(b.samples)-pos)
	vol := b.Volume()
	for i := 0; i < n; i++ {
		s := float32(b.samples[pos+i] * vol)
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	pos += n
	b.pos.Store(int64(pos))
	if pos >= len(b.samples) {
		b.finish()
		return n * 4, io.EOF
	}
	return n * 4, nil
}

// Close ends the stream early.
func (b *Buffer) Close() error {
	b.finish()
	return nil
}

func (b *Buffer) finish() { b.once.Do(func() { close(b.done) }) }

// Done is closed once the last sample is read or the buffer is closed.
func (b *Buffer) Done() <-chan struct{} { return b.done }

func (b *Buffer) SetVolume(v float64) {
	b.volume.Store(math.Float64bits(math.Max(v, 0)))
}

func (b *Buffer) Volume() float64 {
	return math.Float64frombits(b.volume.Load())
}

// Frame returns the stereo frame the next Read starts at.
func (b *Buffer) Frame() int { return int(b.pos.Load()) / 2 }

// Player drives one stream through the shared audio context.
type Player struct {
	player *ebitaudio.Player
	stream io.ReadCloser
}

var (
	contextOnce sync.Once
	sharedCtx   *ebitaudio.Context
	sharedRate  int
)

// The context is process-wide and keeps the first sample rate asked of it.
func audioContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		sharedRate = sampleRate
		sharedCtx = ebitaudio.NewContext(sampleRate)
	})
	if sharedRate != sampleRate {
		return nil, fmt.Errorf("audio context runs at %d Hz, cannot play %d Hz", sharedRate, sampleRate)
	}
	return sharedCtx, nil
}

func NewPlayer(sampleRate int, stream io.ReadCloser) (*Player, error) {
	ctx, err := audioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, stream: stream}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position is what the listener hears now.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.stream.Close()
}
