package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/chaoswave/audio"
	"github.com/lixenwraith/chaoswave/config"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/hud"
	"github.com/lixenwraith/chaoswave/journal"
	"github.com/lixenwraith/chaoswave/server"
	"github.com/lixenwraith/chaoswave/service"
	"github.com/lixenwraith/chaoswave/session"
	"github.com/lixenwraith/chaoswave/status"
)

var (
	configFlag   = flag.String("config", "", "YAML config file")
	seedFlag     = flag.Int64("seed", 0, "Override the simulation seed (0 keeps config)")
	headlessFlag = flag.Bool("headless", false, "Run without the terminal HUD")
	httpFlag     = flag.String("http", "", "Serve the HTTP/WebSocket API on this address")
	journalFlag  = flag.String("journal", "", "Journal events to this SQLite file")
	logJSONFlag  = flag.Bool("log-json", false, "Log as JSON")
	dumpFlag     = flag.Bool("dump-config", false, "Print the effective config and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chaoswave: %v\n", err)
		os.Exit(2)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "chaoswave: %v\n", err)
		os.Exit(2)
	}
	if *dumpFlag {
		if err := cfg.Encode(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "chaoswave: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "chaoswave: %v\n", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.File) {
	if *seedFlag != 0 {
		cfg.Session.Seed = *seedFlag
	}
	if *headlessFlag {
		cfg.HUD.Enabled = false
	}
	if *httpFlag != "" {
		cfg.Server.Enabled = true
		cfg.Server.Addr = *httpFlag
	}
	if *journalFlag != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = *journalFlag
	}
	if *logJSONFlag {
		cfg.Log.Format = "json"
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func run(cfg config.File) error {
	if cfg.HUD.Enabled && !isTerminal(os.Stdout) {
		cfg.HUD.Enabled = false
	}
	// The HUD owns the terminal, logs go to a file or nowhere
	if cfg.HUD.Enabled && cfg.Log.File == "" {
		cfg.Log.File = os.DevNull
	}
	log, closeLog, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := status.NewRegistry()
	queue := event.NewQueue()
	sinks := []event.Sink{event.QueueSink{Queue: queue}}
	group := service.NewGroup(log)

	var (
		writer *journal.Writer
		runs   server.RunSource
	)
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		writer = journal.NewWriter(cfg.Journal, store, log, reg)
		runs = store
		sinks = append(sinks, writer)
		group.Add(writer)
	}

	if cfg.Audio.Enabled {
		player, closeSpeaker, err := audio.OpenSpeaker(cfg.Audio)
		if err != nil {
			log.Warn("audio unavailable, continuing without cues", "error", err)
		} else {
			defer closeSpeaker()
			cues := audio.NewCues(cfg.Audio, player, log, reg)
			sinks = append(sinks, cues)
			group.Add(cues)
		}
	}

	wall := engine.NewPausableClock(engine.NewMonotonicTimeProvider())
	sess, err := session.New(cfg.Session, session.Options{
		Sink:     event.WithLogger(event.Multi(sinks...), log),
		Log:      log,
		Registry: reg,
		Wall:     wall,
	})
	if err != nil {
		return err
	}
	if writer != nil {
		sess.OnRun(func(r session.Run) { writer.BeginRun(r.ID, r.Seed, r.StartedAt) })
	}

	if cfg.Server.Enabled {
		group.Add(server.New(cfg.Server, sess, queue, runs, reg, log))
	}

	var quit <-chan struct{}
	if cfg.HUD.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer screen.Fini()
		// Restore the terminal before the crash report reaches stderr
		defer func() {
			if r := recover(); r != nil {
				screen.Fini()
				fmt.Fprintf(os.Stderr, "chaoswave crashed: %v\n%s\n", r, debug.Stack())
				os.Exit(1)
			}
		}()
		h := hud.New(cfg.HUD, screen, sess, log)
		quit = h.Quit()
		group.Add(h)
	}

	if err := group.Start(ctx); err != nil {
		return err
	}
	defer group.Stop()

	sess.Start()
	loop := engine.NewLoop(wall, cfg.TickInterval, sess.Step, log)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if quit != nil {
		go func() {
			select {
			case <-quit:
				cancel()
			case <-loopCtx.Done():
			}
		}()
	}

	log.Info("chaoswave started", "run", sess.Run().ID, "seed", sess.Run().Seed, "services", group.Names())
	err = loop.Run(loopCtx)
	log.Info("chaoswave stopping", "ticks", loop.TickCount(), "metrics", reg.Count())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
