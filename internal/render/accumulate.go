package render

import "sync"

// accumulator is the shared output buffer, split into fixed-width stripes with
// one lock each so channel groups only contend where their spans overlap.
type accumulator struct {
	buf    []float64
	stripe int // samples per stripe
	locks  []sync.Mutex
}

func newAccumulator(frames, blockFrames int) *accumulator {
	if blockFrames <= 0 {
		blockFrames = 4096
	}
	stripe := blockFrames * 2
	n := (frames*2 + stripe - 1) / stripe
	return &accumulator{
		buf:    make([]float64, frames*2),
		stripe: stripe,
		locks:  make([]sync.Mutex, max(n, 1)),
	}
}

// add sums src into the buffer starting at frame.
func (a *accumulator) add(frame int, src []float64) {
	off := frame * 2
	end := min(off+len(src), len(a.buf))
	for start := off; start < end; {
		s := start / a.stripe
		stop := min((s+1)*a.stripe, end)
		a.locks[s].Lock()
		dst := a.buf[start:stop]
		part := src[start-off : stop-off]
		for i := range dst {
			dst[i] += part[i]
		}
		a.locks[s].Unlock()
		start = stop
	}
}
