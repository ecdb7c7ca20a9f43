package osc

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-audio/wav"
)

// TableLoader reads a single-cycle table from path.
type TableLoader func(path string) ([]float64, error)

// TableCache maps file paths to immutable single-cycle tables. Lookups may run
// concurrently; concurrent misses on one path may both load it and the last store
// wins, which is harmless because loading is deterministic.
type TableCache struct {
	mu     sync.RWMutex
	tables map[string][]float64
	load   TableLoader
}

// NewTableCache creates a cache. A nil loader reads WAV files.
func NewTableCache(load TableLoader) *TableCache {
	if load == nil {
		load = LoadWAVTable
	}
	return &TableCache{tables: make(map[string][]float64), load: load}
}

// Get returns the cached table for path, loading it on first use.
func (c *TableCache) Get(path string) ([]float64, error) {
	c.mu.RLock()
	t, ok := c.tables[path]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("wavetable %s: empty table", path)
	}
	c.mu.Lock()
	c.tables[path] = t
	c.mu.Unlock()
	return t, nil
}

// Len returns the number of cached tables.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// LoadWAVTable decodes a WAV file into a mono table normalized to [-1,1]. Multi-channel
// files are averaged.
func LoadWAVTable(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wavetable %s: invalid WAV file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavetable %s: %w", path, err)
	}
	channels := int(d.NumChans)
	if channels <= 0 {
		channels = 1
	}
	bitDepth := int(d.BitDepth)
	if bitDepth <= 0 {
		return nil, errors.New("wavetable " + path + ": unknown bit depth")
	}
	scale := math.Pow(2, float64(bitDepth-1))
	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = clamp(sum/float64(channels)/scale, -1, 1)
	}
	return out, nil
}
