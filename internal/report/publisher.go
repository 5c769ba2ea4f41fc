package report

import "github.com/comalice/creepstack/stacking"

// Entry is one streamed record. Exactly one of Outcome and Stage is set.
type Entry struct {
	Outcome *stacking.Outcome `json:"outcome,omitempty"`
	Stage   *Stage            `json:"stage,omitempty"`
}

// ChannelPublisher forwards outcomes and stage changes to a channel.
// Publishing never blocks the tick loop; entries are dropped when the
// channel is full.
type ChannelPublisher struct {
	ch      chan<- Entry
	dropped int
}

func NewChannelPublisher(ch chan<- Entry) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) PublishOutcome(o stacking.Outcome) {
	p.send(Entry{Outcome: &o})
}

func (p *ChannelPublisher) StageChanged(from, to string) {
	p.send(Entry{Stage: &Stage{From: from, To: to}})
}

func (p *ChannelPublisher) send(e Entry) {
	select {
	case p.ch <- e:
	default:
		p.dropped++
	}
}

// Dropped returns how many entries did not fit. Read it from the publishing
// goroutine.
func (p *ChannelPublisher) Dropped() int {
	return p.dropped
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
