package midisynth

import (
	"errors"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV encodes res as 16-bit stereo PCM.
func WriteWAV(w io.WriteSeeker, res *Result) error {
	if res == nil || res.SampleRate <= 0 {
		return errors.New("wav: result has no sample rate")
	}
	enc := wav.NewEncoder(w, res.SampleRate, wavBitDepth, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: res.SampleRate},
		Data:           make([]int, len(res.Samples)),
		SourceBitDepth: wavBitDepth,
	}
	for i, s := range res.Samples {
		buf.Data[i] = pcm16(s)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func pcm16(s float64) int {
	if math.IsNaN(s) {
		return 0
	}
	s = math.Max(-1, math.Min(1, s))
	return int(math.Round(s * math.MaxInt16))
}
