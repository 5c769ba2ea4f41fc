// Package audio synthesizes the short cue tones played when a stacking
// attempt is judged.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate is the rate every cue is rendered at.
const SampleRate = beep.SampleRate(48000)

// Cue identifies a sound.
type Cue int

const (
	CueSuccess Cue = iota
	CueFailure
	CueSpawn
)

func (c Cue) String() string {
	switch c {
	case CueSuccess:
		return "success"
	case CueFailure:
		return "failure"
	case CueSpawn:
		return "spawn"
	}
	return "unknown"
}

// Wave shapes for the tone oscillator.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
)

type tone struct {
	freq     float64
	phase    float64
	length   int
	position int
	wave     Wave
	rate     beep.SampleRate
}

// Tone returns a streamer producing freq Hz for duration.
func Tone(freq float64, duration time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &tone{freq: freq, length: rate.N(duration), wave: wave, rate: rate}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.length {
			return i, i > 0
		}
		var v float64
		switch t.wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case WaveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (t.phase - 0.5)
		}
		samples[i][0] = v
		samples[i][1] = v
		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

type envelope struct {
	s        beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// Envelope fades s in over attack and out over the final release of duration.
func Envelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{s: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(duration)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	if e.position >= e.total {
		return 0, false
	}
	if rest := e.total - e.position; len(samples) > rest {
		samples = samples[:rest]
	}
	n, ok = e.s.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if start := e.total - e.release; e.release > 0 && e.position >= start {
			vol = math.Min(vol, float64(e.total-e.position)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

func note(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return Envelope(Tone(freq, d, wave, rate), d, 5*time.Millisecond, d/3, rate)
}

// Stream builds the streamer for c scaled by vol in [0,1].
func Stream(c Cue, vol float64, rate beep.SampleRate) beep.Streamer {
	var s beep.Streamer
	switch c {
	case CueSuccess:
		// C5 E5 G5
		s = beep.Seq(
			note(523.25, 90*time.Millisecond, WaveSine, rate),
			note(659.25, 90*time.Millisecond, WaveSine, rate),
			note(783.99, 160*time.Millisecond, WaveSine, rate),
		)
	case CueFailure:
		s = beep.Seq(
			note(220, 120*time.Millisecond, WaveSaw, rate),
			note(165, 200*time.Millisecond, WaveSaw, rate),
		)
	default:
		s = note(440, 60*time.Millisecond, WaveSquare, rate)
	}
	return volume(s, vol)
}

// Length reports how many samples c renders to at rate.
func Length(c Cue, rate beep.SampleRate) int {
	switch c {
	case CueSuccess:
		return 2*rate.N(90*time.Millisecond) + rate.N(160*time.Millisecond)
	case CueFailure:
		return rate.N(120*time.Millisecond) + rate.N(200*time.Millisecond)
	}
	return rate.N(60 * time.Millisecond)
}
