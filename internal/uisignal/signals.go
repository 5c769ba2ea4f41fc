package uisignal

import (
	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

func (h *Hub) ShowSkip(show bool) {
	h.Broadcast(Message{Type: TypeShowSkip, Show: &show})
}

func (h *Hub) Highlight(batch []region.Entity) {
	ids := make([]region.EntityID, len(batch))
	for i, e := range batch {
		ids[i] = e.ID
	}
	h.Broadcast(Message{Type: TypeHighlight, Entities: ids})
}

func (h *Hub) SectionStarted(name string) {
	h.Broadcast(Message{Type: TypeSectionStarted, Section: name})
}

func (h *Hub) PublishOutcome(o stacking.Outcome) {
	h.Broadcast(Message{Type: TypeOutcome, Outcome: &o})
}

// ShowError sends an already localized order-denial message.
func (h *Hub) ShowError(player creepstack.PlayerID, text string) {
	h.Broadcast(Message{Type: TypeError, Player: &player, Text: text})
}

func (h *Hub) Play(key string) {
	h.Broadcast(Message{Type: TypeDialogue, Key: key, Text: h.localize(key)})
}

func (h *Hub) Start(goal string) {
	h.Broadcast(Message{Type: TypeGoal, Goal: goal, Text: h.localize(goal), State: "started"})
}

func (h *Hub) Complete(goal string) {
	h.Broadcast(Message{Type: TypeGoal, Goal: goal, Text: h.localize(goal), State: "completed"})
}

func (h *Hub) SetValue(goal string, v int) {
	h.Broadcast(Message{Type: TypeGoal, Goal: goal, State: "value", Value: &v})
}
