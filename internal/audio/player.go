package audio

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Player mixes cues onto the speaker. A Player whose speaker failed to
// initialize stays silent; cues are dropped.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	logger      *log.Logger
}

// NewPlayer creates a player at the given master volume.
func NewPlayer(volume float64, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Player{mixer: &beep.Mixer{}, volume: volume, logger: logger}
}

// Init opens the speaker. Terminals without an audio device return the
// error and the player remains usable.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		p.logger.Printf("audio: speaker unavailable: %v", err)
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Play queues c. It is a no-op before Init succeeds.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	s := Stream(c, p.volume, SampleRate)
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close stops everything queued.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Ready reports whether the speaker is open.
func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}
