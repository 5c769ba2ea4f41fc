// Command stackserver runs the stacking chapter on a fixed tick and exposes
// it to browser clients over websocket.
//
//	GET /ws          UI signaling
//	GET /report      JSON run report
//	GET /stages.dot  stage machine as Graphviz DOT
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/chapter"
	"github.com/comalice/creepstack/internal/config"
	"github.com/comalice/creepstack/internal/i18n"
	"github.com/comalice/creepstack/internal/report"
	"github.com/comalice/creepstack/internal/uisignal"
	"github.com/comalice/creepstack/realtime"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/world"
)

const eventRenderStages = "render_stages"

func main() {
	logger := log.Default()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal(err)
	}
	env, err := config.ParseEnv()
	if err != nil {
		logger.Fatal(err)
	}
	loc, err := i18n.LoadEmbedded()
	if err != nil {
		logger.Fatal(err)
	}
	text := loc.For(cfg.Locale)
	chCfg, err := cfg.Chapter()
	if err != nil {
		logger.Fatal(err)
	}

	w := world.New(
		world.WithStartTime(cfg.StartTime),
		world.WithLeashDelay(cfg.LeashDelay),
		world.WithNaturalSpawns(cfg.NaturalSpawns),
		world.WithLogger(logger),
	)
	w.SpawnHero(cfg.Hero.Vec())

	session := creepstack.NewSession(0)

	// The hub reads client messages before the chapter exists; ch is set
	// before the HTTP server starts.
	var ch *chapter.Chapter
	hub := uisignal.NewHub(func(m uisignal.ClientMessage) { route(ch, m, logger) },
		uisignal.WithLogger(logger),
		uisignal.WithLocalizer(text),
		uisignal.WithSession(session.ID),
	)

	rec := report.NewRecorder()
	feed := make(chan report.Entry, 64)
	pub := report.NewChannelPublisher(feed)

	opts := []chapter.Option{
		chapter.WithLogger(logger),
		chapter.WithLocalizer(text),
		chapter.WithObserver(rec),
		chapter.WithObserver(pub),
	}
	// The session ID is reassigned on start, so the event log is named by
	// wall time instead.
	var events *report.EventLog
	if env.ReportDir != "" {
		events, err = report.OpenEventLog(env.ReportDir, "events-"+time.Now().UTC().Format("20060102T150405"), logger)
		if err != nil {
			logger.Fatal(err)
		}
		opts = append(opts, chapter.WithObserver(events))
	}

	ch, err = chapter.New(w, session, hub, hub, hub, hub, chCfg, opts...)
	if err != nil {
		logger.Fatal(err)
	}

	rt := ch.Runtime()
	rt.Handle(eventRenderStages, func(_ context.Context, ev realtime.Event) {
		out, ok := ev.Payload.(chan string)
		if !ok {
			return
		}
		m, names := ch.StageMachine()
		out <- report.ExportDOT(m, names)
	})

	go func() {
		for e := range feed {
			switch {
			case e.Outcome != nil:
				logger.Printf("outcome: try %d success=%t stacks=%d", e.Outcome.Tries, e.Outcome.Success, e.Outcome.Stacks)
			case e.Stage != nil:
				logger.Printf("stage: %s -> %s", e.Stage.From, e.Stage.To)
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ch.Start(ctx); err != nil {
		logger.Fatal(err)
	}
	if err := rt.Start(ctx); err != nil {
		logger.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	mux.HandleFunc("/report", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rec.Snapshot(session.ID()))
	})
	mux.HandleFunc("/stages.dot", func(rw http.ResponseWriter, r *http.Request) {
		out := make(chan string, 1)
		if err := rt.SendEvent(realtime.Event{Type: eventRenderStages, Payload: out}); err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		select {
		case dot := <-out:
			rw.Header().Set("Content-Type", "text/vnd.graphviz")
			_, _ = rw.Write([]byte(dot))
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			http.Error(rw, "tick loop busy", http.StatusServiceUnavailable)
		}
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Printf("listening on %s (session %s)", cfg.ListenAddr, session.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("http: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	hub.Close()
	_ = rt.Stop()

	id := session.ID()
	ch.Stop(shutdownCtx)
	_ = pub.Close()

	if env.ReportDir != "" {
		if err := events.Close(); err != nil {
			logger.Printf("event log: %v", err)
		}
		if err := saveReport(shutdownCtx, env.ReportDir, rec.Snapshot(id)); err != nil {
			logger.Printf("report: %v", err)
		} else {
			logger.Printf("report: saved session %s to %s", id, env.ReportDir)
		}
	}
}

// saveReport writes r as YAML next to the run database.
func saveReport(ctx context.Context, dir string, r report.Report) error {
	y, err := report.NewYAMLPersister(dir)
	if err != nil {
		return err
	}
	if err := y.Save(ctx, r); err != nil {
		return err
	}
	db, err := report.OpenSQLite(filepath.Join(dir, "reports.db"))
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Save(ctx, r)
}

// route turns client messages into chapter events. It runs on the hub's
// reader goroutines.
func route(ch *chapter.Chapter, m uisignal.ClientMessage, logger *log.Logger) {
	var err error
	switch m.Type {
	case uisignal.TypeSkip:
		err = ch.Skip()
	case uisignal.TypePull:
		if m.Target == nil {
			return
		}
		err = ch.Pull(region.Vec2{X: m.Target[0], Y: m.Target[1]})
	case uisignal.TypeOrder:
		if m.Order == nil {
			return
		}
		err = ch.Order(*m.Order)
	case uisignal.TypePickUp:
		err = ch.PickUp(m.Item)
	default:
		logger.Printf("unknown client message %q", m.Type)
		return
	}
	if err != nil {
		logger.Printf("%s: %v", m.Type, err)
	}
}
