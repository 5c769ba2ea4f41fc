package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/vclock"
)

func BenchmarkTrackerUpdate(b *testing.B) {
	for _, n := range []int{3, 30, 300} {
		b.Run(fmt.Sprintf("creeps=%d", n), func(b *testing.B) {
			w := GenCampWorld(n)
			tr := region.NewTracker(camp, w, region.WithRemoveNew(false))
			tr.Update(0.05)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tr.Update(0.05)
			}
		})
	}
}

func BenchmarkClockAdvance(b *testing.B) {
	for _, marks := range []int{0, 3, 60} {
		b.Run(fmt.Sprintf("marks=%d", marks), func(b *testing.B) {
			c := vclock.New()
			c.Enable()
			fired := 0
			for m := 0; m < marks; m++ {
				c.Register(float64(m%60), func() { fired++ })
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c.Advance(0.05)
			}
			b.ReportMetric(float64(fired)/float64(b.N), "fires/op")
		})
	}
}

// BenchmarkChapterStep measures one full tick: world, clock, tracker and the
// stage logic, with the camp pulled once per cycle.
func BenchmarkChapterStep(b *testing.B) {
	w := GenCampWorld(0)
	ch, err := GenChapter(w)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	if err := ch.Start(ctx); err != nil {
		b.Fatal(err)
	}
	pulled := false
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch.Step(ctx)
		switch p := vclock.Phase(ch.Clock().Time()); {
		case p >= 57 && p < 59 && !pulled:
			_ = ch.Pull(region.Vec2{})
			pulled = true
		case p < 57:
			pulled = false
		}
	}
}
