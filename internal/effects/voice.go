package effects

// ReverbParams configures the per-note reverb send.
type ReverbParams struct {
	Enabled  bool    `json:"enabled"`
	Amount   float64 `json:"amount"`
	RoomSize float64 `json:"room_size"`
	Feedback float64 `json:"feedback"`
}

// ChorusParams configures the per-note chorus send.
type ChorusParams struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
	DelayMs float64 `json:"delay_ms"`
	DepthMs float64 `json:"depth_ms"`
	RateHz  float64 `json:"rate_hz"`
}

// PhaserParams configures the per-note phaser.
type PhaserParams struct {
	Enabled  bool    `json:"enabled"`
	Stages   int     `json:"stages"`
	RateHz   float64 `json:"rate_hz"`
	Depth    float64 `json:"depth"`
	Feedback float64 `json:"feedback"`
	Mix      float64 `json:"mix"`
}

// FlangerParams configures the per-note flanger.
type FlangerParams struct {
	Enabled bool    `json:"enabled"`
	RateHz  float64 `json:"rate_hz"`
	Depth   float64 `json:"depth"`
	Mix     float64 `json:"mix"`
}

// NoteParams groups the per-note effects.
type NoteParams struct {
	Reverb  ReverbParams  `json:"reverb"`
	Chorus  ChorusParams  `json:"chorus"`
	Phaser  PhaserParams  `json:"phaser"`
	Flanger FlangerParams `json:"flanger"`
}

// DefaultNoteParams has every effect disabled with usable settings.
func DefaultNoteParams() NoteParams {
	return NoteParams{
		Reverb:  ReverbParams{Amount: 0.3, RoomSize: 0.5, Feedback: 0.7},
		Chorus:  ChorusParams{Amount: 0.4, DelayMs: 15, DepthMs: 4, RateHz: 0.8},
		Phaser:  PhaserParams{Stages: 4, RateHz: 0.5, Depth: 0.7, Feedback: 0.4, Mix: 0.5},
		Flanger: FlangerParams{RateHz: 0.25, Depth: 0.7, Mix: 0.5},
	}
}

// Any reports whether any per-note effect is enabled.
func (p NoteParams) Any() bool {
	return p.Reverb.Enabled || p.Chorus.Enabled || p.Phaser.Enabled || p.Flanger.Enabled
}

// Voice runs the per-note effects in fixed order: reverb send, chorus send,
// phaser, flanger. It is owned by one note.
type Voice struct {
	p       NoteParams
	reverb  *Reverb
	chorus  *Chorus
	phaser  *Phaser
	flanger *Flanger
}

// NewVoice builds the enabled effects. It returns nil when nothing is enabled.
func NewVoice(p NoteParams, sampleRate int) *Voice {
	if !p.Any() {
		return nil
	}
	v := &Voice{p: p}
	if p.Reverb.Enabled {
		v.reverb = NewReverb(sampleRate, p.Reverb.RoomSize, p.Reverb.Feedback)
	}
	if p.Chorus.Enabled {
		v.chorus = NewChorus(sampleRate, p.Chorus.DelayMs, p.Chorus.DepthMs, p.Chorus.RateHz)
	}
	if p.Phaser.Enabled {
		v.phaser = NewPhaser(sampleRate, p.Phaser.Stages, p.Phaser.RateHz, p.Phaser.Depth, p.Phaser.Feedback, p.Phaser.Mix)
	}
	if p.Flanger.Enabled {
		v.flanger = NewFlanger(p.Flanger.RateHz, p.Flanger.Depth, p.Flanger.Mix)
	}
	return v
}

// Process applies the chain to one sample at time t seconds, with the channel's
// current sends. A nil Voice passes x through.
func (v *Voice) Process(x, t, reverbSend, chorusSend float64) float64 {
	if v == nil {
		return x
	}
	out := x
	if v.reverb != nil {
		wet := v.reverb.Process(x)
		if reverbSend > 0 {
			out += wet * reverbSend * v.p.Reverb.Amount
		}
	}
	if v.chorus != nil {
		wet := v.chorus.Process(x, t)
		if chorusSend > 0 {
			out += wet * chorusSend * v.p.Chorus.Amount
		}
	}
	if v.phaser != nil {
		out = v.phaser.Process(out, t)
	}
	if v.flanger != nil {
		out = v.flanger.Process(out, t)
	}
	return out
}
