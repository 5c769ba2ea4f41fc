package main

import (
	"fmt"
	"sort"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/internal/audio"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

// panel is the on-screen side of the chapter: it keeps what the HUD shows
// and plays cue tones. It is only touched from the main loop.
type panel struct {
	text   func(key string) string
	player *audio.Player

	section   string
	skip      bool
	highlight map[region.EntityID]int // ticks left
	dialogue  string
	err       string
	outcome   string
	goals     map[string]string
}

func newPanel(text func(string) string, player *audio.Player) *panel {
	return &panel{
		text:      text,
		player:    player,
		highlight: make(map[region.EntityID]int),
		goals:     make(map[string]string),
	}
}

func (p *panel) ShowSkip(show bool) { p.skip = show }

func (p *panel) Highlight(batch []region.Entity) {
	for _, e := range batch {
		p.highlight[e.ID] = 40
	}
	p.player.Play(audio.CueSpawn)
}

func (p *panel) SectionStarted(name string) { p.section = p.text("ui.section_started") }

func (p *panel) PublishOutcome(o stacking.Outcome) {
	if o.Success {
		p.outcome = fmt.Sprintf("try %d: stacked (%d)", o.Tries, o.Stacks)
		p.player.Play(audio.CueSuccess)
		return
	}
	p.outcome = fmt.Sprintf("try %d: no stack", o.Tries)
	p.player.Play(audio.CueFailure)
}

func (p *panel) ShowError(_ creepstack.PlayerID, text string) { p.err = text }

func (p *panel) Play(key string) { p.dialogue = p.text(key) }

func (p *panel) Start(goal string) { p.goals[goal] = "[ ] " + p.text(goal) }

func (p *panel) Complete(goal string) { p.goals[goal] = "[x] " + p.text(goal) }

func (p *panel) SetValue(goal string, v int) {
	p.goals[goal] = fmt.Sprintf("[%d] %s", v, p.text(goal))
}

// tick ages highlights.
func (p *panel) tick() {
	for id, n := range p.highlight {
		if n <= 1 {
			delete(p.highlight, id)
			continue
		}
		p.highlight[id] = n - 1
	}
}

func (p *panel) goalLines() []string {
	keys := make([]string, 0, len(p.goals))
	for k := range p.goals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = p.goals[k]
	}
	return out
}
