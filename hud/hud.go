// Package hud renders the simulation snapshot to a terminal
package hud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/pool"
	"github.com/lixenwraith/chaoswave/session"
)

// Source is what the HUD reads and commands
type Source interface {
	Snapshot() *session.Snapshot
	Submit(cmd session.Command) error
}

var (
	styleText    = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleAlert   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleFaction = [2]tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
	}
)

// HUD draws one snapshot per frame and maps keys to session commands
type HUD struct {
	cfg    Config
	screen tcell.Screen
	src    Source
	log    *slog.Logger

	width, height int

	cancel context.CancelFunc
	done   chan struct{}
	quit   chan struct{}
}

// New wraps an initialized screen; the caller owns Init and Fini
func New(cfg Config, screen tcell.Screen, src Source, log *slog.Logger) *HUD {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ChaosBarWidth < 3 {
		cfg.ChaosBarWidth = 3
	}
	h := &HUD{
		cfg:    cfg,
		screen: screen,
		src:    src,
		log:    log.With("component", "hud"),
		quit:   make(chan struct{}),
	}
	h.width, h.height = screen.Size()
	return h
}

func (h *HUD) Name() string { return "hud" }

// Start runs the draw loop in the background; Quit closes when the user exits
func (h *HUD) Start(ctx context.Context) error {
	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	core.Go(func() {
		defer close(h.done)
		if err := h.Run(ctx); err == nil {
			close(h.quit)
		}
	}, func(err error) {
		h.log.Error("hud loop panic", "error", err)
	})
	return nil
}

// Stop ends the draw loop; the screen owner calls Fini afterwards
func (h *HUD) Stop() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	<-h.done
	h.cancel = nil
	return nil
}

// Quit is closed when the user asks to leave
func (h *HUD) Quit() <-chan struct{} {
	return h.quit
}

// Run redraws every frame until ctx ends or the user quits
func (h *HUD) Run(ctx context.Context) error {
	interval := h.cfg.FrameInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 64)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return // Screen finalized
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	h.Draw(h.src.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !h.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			h.Draw(h.src.Snapshot())
		}
	}
}

// HandleEvent applies one terminal event; false means quit
func (h *HUD) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			var cmd session.Command
			switch ev.Rune() {
			case 'q':
				return false
			case 'n':
				cmd = session.CommandNextWave
			case 'r':
				cmd = session.CommandRestart
			case 'p', ' ':
				cmd = session.CommandPause
			default:
				return true
			}
			if err := h.src.Submit(cmd); err != nil {
				h.log.Warn("command not queued", "command", cmd.String(), "error", err)
			}
		}
	case *tcell.EventResize:
		h.width, h.height = h.screen.Size()
		h.screen.Sync()
	}
	return true
}

// Draw renders snap; nil draws the waiting banner
func (h *HUD) Draw(snap *session.Snapshot) {
	h.screen.Clear()
	if snap == nil {
		h.text(0, 0, styleDim, "waiting for simulation...")
		h.screen.Show()
		return
	}

	y := 0
	title := fmt.Sprintf("chaoswave  run %s  tick %s", shortID(snap.RunID), humanize.Comma(int64(snap.Tick)))
	h.text(0, y, styleTitle, title)
	if snap.Paused {
		h.text(len(title)+2, y, styleWarn, "[PAUSED]")
	}
	y += 2

	h.text(0, y, styleText, waveLine(snap))
	y++
	y = h.chaosBar(y, snap.Chaos)
	y++

	for _, f := range snap.Factions {
		if !f.ID.IsCombatant() {
			continue
		}
		h.text(0, y, factionStyle(f.ID), factionLine(f))
		y++
	}
	y++

	h.text(0, y, styleText, arenaLine(snap))
	y++
	h.text(0, y, styleDim, poolLine("enemies", snap.Arena.Enemies)+"  "+poolLine("bullets", snap.Arena.Bullets))
	y++
	if n := len(snap.Skirmishes); n > 0 {
		h.text(0, y, styleWarn, fmt.Sprintf("skirmishes %d", n))
	}
	y += 2

	h.text(0, y, styleTitle, "events")
	y++
	shown := 0
	for i := len(snap.Events) - 1; i >= 0 && shown < h.cfg.EventLines && y < h.height-1; i-- {
		e := snap.Events[i]
		if e.Type == event.ChaosChanged {
			continue // Fires per kill, the bar already shows it
		}
		h.text(0, y, eventStyle(e), eventLine(e))
		y++
		shown++
	}

	h.text(0, h.height-1, styleDim, "n next wave  r restart  p pause  q quit")
	h.screen.Show()
}

func (h *HUD) text(x, y int, style tcell.Style, s string) {
	if y < 0 || y >= h.height {
		return
	}
	for _, r := range s {
		if x >= h.width {
			return
		}
		h.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// chaosBar draws A on the left and B on the right; positive chaos fills toward B
func (h *HUD) chaosBar(y int, c session.ChaosView) int {
	w := h.cfg.ChaosBarWidth
	mid := w / 2
	pos := int(math.Round((c.Value + 100) / 200 * float64(w-1)))
	pos = max(0, min(w-1, pos))

	h.text(0, y, styleFaction[0], "A ")
	x0 := 2
	for i := 0; i < w; i++ {
		r, style := '-', styleDim
		switch {
		case i == mid:
			r, style = '|', styleText
		case pos > mid && i > mid && i <= pos:
			r, style = '#', styleFaction[1]
		case pos < mid && i < mid && i >= pos:
			r, style = '#', styleFaction[0]
		}
		h.screen.SetContent(x0+i, y, r, nil, style)
	}
	h.text(x0+w, y, styleFaction[1], " B")

	label := fmt.Sprintf("  %+.1f (%.0f%%) momentum %.2f", c.Value, c.Percentage, c.Momentum)
	h.text(x0+w+2, y, styleText, label)
	if c.Locked {
		h.text(x0+w+2+len(label)+1, y, styleAlert, "LOCKED "+c.Dominant.String())
	}
	return y + 1
}

func waveLine(s *session.Snapshot) string {
	w := s.Wave
	line := fmt.Sprintf("wave %d %s  spawned %d/%d  alive %d", w.Number, w.State, w.EnemiesSpawned, w.EnemiesToSpawn, w.ActiveEnemies)
	if w.IsBossWave {
		line += fmt.Sprintf("  boss %d", w.ActiveBosses)
	}
	return line
}

func factionLine(f session.FactionView) string {
	m := f.Multipliers
	return fmt.Sprintf("%s  weight %5.1f%%  members %4d  hp x%.2f  dmg x%.2f  rate x%.2f  dodge x%.2f  %s",
		f.ID, f.Weight, f.Members, m.HP, m.Damage, m.FireRate, m.Dodge, f.Mood)
}

func arenaLine(s *session.Snapshot) string {
	a := s.Arena
	return fmt.Sprintf("kills %s  shots %s  hits %s  dodges %s  damage taken %s",
		humanize.Comma(int64(a.Kills)), humanize.SIWithDigits(float64(a.Shots), 1, ""),
		humanize.Comma(int64(a.Hits)), humanize.Comma(int64(a.Dodges)),
		humanize.FormatFloat("#,###.#", a.DamageTaken))
}

func poolLine(name string, st pool.Stats) string {
	return fmt.Sprintf("%s %d/%d (%s created)", name, st.Active, st.Total, humanize.Comma(int64(st.Created)))
}

func eventLine(e session.EventView) string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(string(e.Type))
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

func factionStyle(f core.FactionID) tcell.Style {
	switch f {
	case core.FactionA:
		return styleFaction[0]
	case core.FactionB:
		return styleFaction[1]
	}
	return styleText
}

func eventStyle(e session.EventView) tcell.Style {
	if e.Type == event.MajorChaos {
		return styleAlert
	}
	switch e.Fields["faction"] {
	case core.FactionA.String():
		return styleFaction[0]
	case core.FactionB.String():
		return styleFaction[1]
	}
	return styleText
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
