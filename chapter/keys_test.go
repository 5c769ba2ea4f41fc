package chapter_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/comalice/creepstack/chapter"
)

func TestStackLine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tests := []struct {
		stacks int
		prefix string
	}{
		{-1, "dialogue.chapter3.stack_failure_"},
		{0, "dialogue.chapter3.stack_failure_"},
		{1, "dialogue.chapter3.stack_1"},
		{2, "dialogue.chapter3.stack_2"},
		{3, "dialogue.chapter3.stack_3"},
		{4, "dialogue.chapter3.stack_many_"},
		{12, "dialogue.chapter3.stack_many_"},
	}
	for _, tt := range tests {
		for i := 0; i < 5; i++ {
			if got := chapter.StackLine(tt.stacks, rng); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("StackLine(%d) = %q, want prefix %q", tt.stacks, got, tt.prefix)
			}
		}
	}
}

// Test the same seed picks the same lines
func TestStackLineSeeded(t *testing.T) {
	a, b := rand.New(rand.NewSource(3)), rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		if chapter.StackLine(5, a) != chapter.StackLine(5, b) {
			t.Fatal("lines diverged for the same seed")
		}
	}
}
