package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func decode(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func TestBufferPlaysOnce(t *testing.T) {
	b := NewBuffer([]float64{0.5, -0.5, 0.25, -0.25, 1, -1})
	p := make([]byte, 16)
	n, err := b.Read(p)
	if n != 16 || err != nil {
		t.Fatalf("first read = %d, %v", n, err)
	}
	if got := decode(p); got[0] != 0.5 || got[3] != -0.25 {
		t.Fatalf("first block = %v", got)
	}
	if b.Frame() != 2 {
		t.Fatalf("frame = %d", b.Frame())
	}
	b.SetVolume(0.5)
	n, err = b.Read(p)
	if n != 8 || !errors.Is(err, io.EOF) {
		t.Fatalf("final read = %d, %v", n, err)
	}
	if got := decode(p[:n]); got[0] != 0.5 || got[1] != -0.5 {
		t.Fatalf("scaled tail = %v", got)
	}
	select {
	case <-b.Done():
	default:
		t.Fatal("done not closed")
	}
	if n, err := b.Read(p); n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("exhausted read = %d, %v", n, err)
	}
}

func TestBufferShortRead(t *testing.T) {
	b := NewBuffer([]float64{1, 1})
	if n, err := b.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("short read = %d, %v", n, err)
	}
}

func TestBufferCloseEndsStream(t *testing.T) {
	b := NewBuffer(make([]float64, 100))
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-b.Done():
	default:
		t.Fatal("close should signal done")
	}
	b.Close()
}

func TestNegativeVolumeIsSilent(t *testing.T) {
	b := NewBuffer([]float64{1, 1})
	b.SetVolume(-3)
	if b.Volume() != 0 {
		t.Fatalf("volume = %f", b.Volume())
	}
}
