// Command stackdemo is a terminal playground for the stacking chapter.
//
//	p  pull the camp towards the hero
//	s  skip stacking (while offered)
//	k  clear the camp
//	d / t / m  issue drop, stash and move item orders
//	Esc / Ctrl-C  quit
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/chapter"
	"github.com/comalice/creepstack/internal/audio"
	"github.com/comalice/creepstack/internal/config"
	"github.com/comalice/creepstack/internal/i18n"
	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/vclock"
	"github.com/comalice/creepstack/world"
)

// Visible world rectangle around the camp.
var view = region.MustNew(region.Vec2{X: -3800, Y: 3900}, region.Vec2{X: -1300, Y: 5600})

type demo struct {
	screen tcell.Screen
	ch     *chapter.Chapter
	panel  *panel
	hero   region.Vec2
	items  orders.Items
}

func main() {
	logger := log.New(io.Discard, "", 0)
	if fn := os.Getenv("CREEPSTACK_LOG"); fn != "" {
		f, err := os.Create(fn)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logger = log.New(f, "", log.Ltime|log.Lmicroseconds)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	loc, err := i18n.LoadEmbedded()
	if err != nil {
		log.Fatal(err)
	}
	text := loc.For(cfg.Locale)

	player := audio.NewPlayer(0.4, logger)
	if err := player.Init(); err != nil {
		// Non-fatal, the demo runs without sound
		logger.Printf("audio disabled: %v", err)
	}
	defer player.Close()

	d, err := newDemo(cfg, text, player, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer d.screen.Fini()

	ctx := context.Background()
	if err := d.ch.Start(ctx); err != nil {
		d.screen.Fini()
		log.Fatal(err)
	}
	d.run(ctx, cfg.TickDuration())
	d.ch.Stop(ctx)
}

func newDemo(cfg config.Config, text func(string) string, player *audio.Player, logger *log.Logger) (*demo, error) {
	chCfg, err := cfg.Chapter()
	if err != nil {
		return nil, err
	}

	w := world.New(
		world.WithStartTime(cfg.StartTime),
		world.WithLeashDelay(cfg.LeashDelay),
		world.WithNaturalSpawns(cfg.NaturalSpawns),
		world.WithLogger(logger),
	)
	w.SpawnHero(cfg.Hero.Vec())

	p := newPanel(text, player)
	ch, err := chapter.New(w, creepstack.NewSession(0), p, p, p, p, chCfg,
		chapter.WithLogger(logger),
		chapter.WithLocalizer(text),
	)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return &demo{screen: screen, ch: ch, panel: p, hero: cfg.Hero.Vec(), items: cfg.Items}, nil
}

func (d *demo) run(ctx context.Context, step time.Duration) {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			events <- d.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-events:
			if !d.handleInput(ev) {
				return
			}
		case <-ticker.C:
			d.ch.Step(ctx)
			d.panel.tick()
			d.draw()
		}
	}
}

func (d *demo) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		player := d.ch.Session().PlayerID()
		var err error
		switch ev.Rune() {
		case 'p':
			err = d.ch.Pull(d.hero)
		case 's':
			err = d.ch.Skip()
		case 'k':
			for _, e := range d.ch.World().Neutrals() {
				_ = d.ch.World().Kill(e.ID)
			}
		case 'g':
			for _, it := range d.ch.World().GroundItems() {
				err = d.ch.PickUp(it.Name)
			}
		case 'd':
			err = d.ch.Order(orders.Order{Kind: orders.KindDropItem, Issuer: player, Item: d.items.First})
		case 't':
			err = d.ch.Order(orders.Order{Kind: orders.KindDropItemAtFountain, Issuer: player, Item: d.items.First})
		case 'm':
			err = d.ch.Order(orders.Order{Kind: orders.KindMoveItem, Issuer: player, Item: d.items.Second})
		}
		if err != nil {
			d.panel.err = err.Error()
		}
	case *tcell.EventResize:
		d.screen.Sync()
	}
	return true
}

func (d *demo) draw() {
	s := d.screen
	s.Clear()
	w, h := s.Size()
	top := 7
	if h <= top+2 {
		s.Show()
		return
	}

	clock := d.ch.Clock()
	coord := d.ch.Coordinator()
	lines := []string{
		fmt.Sprintf("%s | stage %s", d.panel.section, d.ch.Stage()),
		fmt.Sprintf("clock %05.2f (%s)  real %06.2f  tries %d  stacks %d", vclock.Phase(clock.Time()), onOff(clock.Enabled()), d.ch.World().Seconds(), coord.Tries(), coord.Stacks()),
		d.panel.dialogue,
		d.panel.outcome,
		d.panel.err,
		inventoryLine(d.ch.World().Inventory()),
	}
	if d.panel.skip {
		lines[0] += "  [s] " + d.panel.text("ui.skip_stacking")
	}
	for i, l := range lines {
		drawText(s, 0, i, tcell.StyleDefault, l)
	}
	for i, g := range d.panel.goalLines() {
		drawText(s, w/2, 2+i, tcell.StyleDefault.Foreground(tcell.ColorGray), g)
	}

	area := func(p region.Vec2) (int, int) {
		x := int((p.X - view.Min.X) / (view.Max.X - view.Min.X) * float64(w-1))
		y := top + int((view.Max.Y-p.Y)/(view.Max.Y-view.Min.Y)*float64(h-top-1))
		return x, y
	}

	camp := d.ch.Tracker().Region()
	x0, y0 := area(region.Vec2{X: camp.Min.X, Y: camp.Max.Y})
	x1, y1 := area(region.Vec2{X: camp.Max.X, Y: camp.Min.Y})
	border := tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	for x := x0; x <= x1; x++ {
		s.SetContent(x, y0, '.', nil, border)
		s.SetContent(x, y1, '.', nil, border)
	}
	for y := y0; y <= y1; y++ {
		s.SetContent(x0, y, '.', nil, border)
		s.SetContent(x1, y, '.', nil, border)
	}

	for _, it := range d.ch.World().GroundItems() {
		if view.Contains(it.Pos) {
			x, y := area(it.Pos)
			s.SetContent(x, y, '*', nil, tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true))
		}
	}
	for _, e := range d.ch.World().Entities() {
		if !view.Contains(e.Pos) {
			continue
		}
		x, y := area(e.Pos)
		switch e.Archetype {
		case world.ArchetypeHero:
			s.SetContent(x, y, '@', nil, tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true))
		case region.ArchetypeNeutralCreep:
			style := tcell.StyleDefault.Foreground(tcell.ColorRed)
			if _, ok := d.panel.highlight[e.ID]; ok {
				style = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
			}
			s.SetContent(x, y, 'c', nil, style)
		}
	}
	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func inventoryLine(inv world.Inventory) string {
	return fmt.Sprintf("neutral slot %q  backpack %v  stash %v", inv.Neutral, inv.Backpack, inv.Stash)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
