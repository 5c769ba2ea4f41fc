// Package benchmarks provides shared fixtures for the per-tick benchmarks.
package benchmarks

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/chapter"
	"github.com/comalice/creepstack/internal/report"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
	"github.com/comalice/creepstack/testutil"
	"github.com/comalice/creepstack/world"
)

var camp = region.MustNew(region.Vec2{X: -2911, Y: 4373}, region.Vec2{X: -2142, Y: 5203})

// GenCampWorld spawns n neutral creeps inside the camp and n outside it.
// Natural spawns are off so the population stays fixed.
func GenCampWorld(n int) *world.World {
	w := world.New(world.WithNaturalSpawns(false))
	w.SpawnHero(region.Vec2{X: -3500, Y: 4500})
	for i := 0; i < n; i++ {
		in := region.Vec2{X: camp.Min.X + float64(i%700), Y: camp.Min.Y + float64(i%800)}
		out := region.Vec2{X: float64(i), Y: float64(-i)}
		w.Spawn(region.ArchetypeNeutralCreep, region.TeamNeutrals, in)
		w.Spawn(region.ArchetypeNeutralCreep, region.TeamNeutrals, out)
	}
	return w
}

// GenChapter builds a chapter over w with recording collaborators. The real
// clock is pinned mid-minute.
func GenChapter(w *world.World) (*chapter.Chapter, error) {
	ch, err := chapter.New(w, creepstack.NewSession(0),
		&testutil.Signals{}, &testutil.Notifier{}, testutil.NewGoals(), &testutil.Dialogue{},
		chapter.DefaultConfig(),
		chapter.WithRealClock(&testutil.FixedClock{T: 30}),
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// GenReport fills a report with n outcomes and one stage change per outcome.
func GenReport(n int) report.Report {
	r := report.Report{Session: fmt.Sprintf("bench_%d", n)}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		r.Outcomes = append(r.Outcomes, stacking.Outcome{Success: i%2 == 0, Tries: i, Stacks: i / 2})
		r.Stages = append(r.Stages, report.Stage{From: "practice", To: "championship", At: at.Add(time.Duration(i) * time.Second)})
	}
	return r
}

// GenReportYAML marshals GenReport(n).
func GenReportYAML(n int) []byte {
	data, err := yaml.Marshal(GenReport(n))
	if err != nil {
		panic(err)
	}
	return data
}
