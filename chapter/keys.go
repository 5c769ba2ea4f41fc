package chapter

import "math/rand"

// SectionName is announced through SectionStarted.
const SectionName = "chapter3"

// Dialogue keys.
const (
	DialoguePracticeIntro     = "dialogue.chapter3.practice_intro"
	DialoguePracticeFailure   = "dialogue.chapter3.practice_failure"
	DialoguePracticeDone      = "dialogue.chapter3.practice_done"
	DialogueChampionshipIntro = "dialogue.chapter3.championship_intro"
	DialogueKillStack         = "dialogue.chapter3.kill_stack"
	DialogueNeutralSlot       = "dialogue.chapter3.neutral_slot"
	DialogueThirdSpawn        = "dialogue.chapter3.third_spawn"
	DialogueStash             = "dialogue.chapter3.stash"
	DialogueStashed           = "dialogue.chapter3.stashed"
	DialogueSwapped           = "dialogue.chapter3.swapped"
)

// Goal keys.
const (
	GoalStackCreeps   = "goal.chapter3.stack_creeps"
	GoalTryStack      = "goal.chapter3.try_stack"
	GoalOptionalStack = "goal.chapter3.optional_stack"
	GoalKillStack     = "goal.chapter3.kill_stack"
	GoalPickupItem    = "goal.chapter3.pickup_item"
	GoalKillSpawn     = "goal.chapter3.kill_third_spawn"
	GoalPickupSecond  = "goal.chapter3.pickup_second_item"
	GoalStash         = "goal.chapter3.stash"
	GoalSwapItems     = "goal.chapter3.swap_items"
)

// stackLines is indexed by the total stack count; index 0 is a miss. The
// last entry covers every count past it.
var stackLines = [][]string{
	{"dialogue.chapter3.stack_failure_1", "dialogue.chapter3.stack_failure_2"},
	{"dialogue.chapter3.stack_1"},
	{"dialogue.chapter3.stack_2"},
	{"dialogue.chapter3.stack_3"},
	{"dialogue.chapter3.stack_many_1", "dialogue.chapter3.stack_many_2"},
}

// StackLine picks the commentary for a championship outcome. Pass 0 for a
// miss.
func StackLine(stacks int, rng *rand.Rand) string {
	stacks = max(0, min(stacks, len(stackLines)-1))
	lines := stackLines[stacks]
	return lines[rng.Intn(len(lines))]
}
