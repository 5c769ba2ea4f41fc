package stacking_test

import (
	"testing"

	"github.com/comalice/creepstack/stacking"
)

func TestDefaultScheduleAdmission(t *testing.T) {
	s := stacking.DefaultSchedule()
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		phase float64
		want  bool
	}{
		{44, false},
		{58.9, false},
		{59, true},
		{59.5, true},
		{0, true},
		{0.5, true},
		{1, false},
		{30, false},
	}
	for _, tc := range cases {
		if got := s.AdmitAt(tc.phase); got != tc.want {
			t.Errorf("AdmitAt(%v) = %v, want %v", tc.phase, got, tc.want)
		}
	}
}

// The default window opens one second before the minute and closes one
// second after it. The inverse marks stay expressible as a custom schedule.
func TestDefaultScheduleWindow(t *testing.T) {
	def := stacking.DefaultSchedule()
	if !def.AdmitAt(59.25) {
		t.Error("default schedule should admit just before the minute")
	}
	if def.AdmitAt(1.5) {
		t.Error("default schedule should reject just after the minute")
	}

	inverse := stacking.Schedule{
		Start: 44,
		Reset: 3,
		Marks: []stacking.Mark{
			{At: 59, Admit: false},
			{At: 0, Admit: true, Spawn: true},
			{At: 1, Admit: true},
		},
	}
	if err := inverse.Validate(); err != nil {
		t.Fatal(err)
	}
	if inverse.AdmitAt(59.25) {
		t.Error("inverse schedule should reject at 59")
	}
	if !inverse.AdmitAt(1.5) {
		t.Error("inverse schedule should admit at 1")
	}
}

func TestScheduleValidate(t *testing.T) {
	cases := []struct {
		name string
		s    stacking.Schedule
	}{
		{"no spawn", stacking.Schedule{Start: 44, Reset: 3, Marks: []stacking.Mark{{At: 0, Admit: true}}}},
		{"two spawns", stacking.Schedule{Start: 44, Reset: 3, Marks: []stacking.Mark{{At: 0, Spawn: true}, {At: 30, Spawn: true}}}},
		{"duplicate", stacking.Schedule{Start: 44, Reset: 3, Marks: []stacking.Mark{{At: 0, Spawn: true}, {At: 60}}}},
		{"reset on mark", stacking.Schedule{Start: 44, Reset: 0, Marks: []stacking.Mark{{At: 0, Spawn: true}}}},
		{"start is reset", stacking.Schedule{Start: 3, Reset: 3, Marks: []stacking.Mark{{At: 0, Spawn: true}}}},
	}
	for _, tc := range cases {
		if err := tc.s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
