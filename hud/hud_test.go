package hud

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/session"
	"github.com/lixenwraith/chaoswave/wave"
)

type fakeSource struct {
	mu   sync.Mutex
	snap *session.Snapshot
	cmds []session.Command
}

func (f *fakeSource) Snapshot() *session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) Submit(cmd session.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return nil
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(120, 30)
	t.Cleanup(screen.Fini)
	return screen
}

// rows reads the simulation buffer back as text
func rows(screen tcell.SimulationScreen) []string {
	cells, w, h := screen.GetContents()
	out := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		out[y] = strings.TrimRight(b.String(), " ")
	}
	return out
}

func find(lines []string, sub string) int {
	for i, l := range lines {
		if strings.Contains(l, sub) {
			return i
		}
	}
	return -1
}

func testSnapshot() *session.Snapshot {
	at := time.Date(2024, 1, 1, 12, 0, 3, 0, time.UTC)
	return &session.Snapshot{
		RunID: "0123456789abcdef",
		Tick:  12345,
		Wave: wave.Wave{
			Number: 5, IsBossWave: true, EnemiesToSpawn: 20, EnemiesSpawned: 7,
			ActiveEnemies: 6, ActiveBosses: 1, State: wave.StateActive,
		},
		Chaos: session.ChaosView{Value: 50, Percentage: 50, Polarity: 1, Dominant: core.FactionB},
		Factions: []session.FactionView{
			{ID: core.FactionA, Weight: 40, Members: 3, Multipliers: core.IdentityMultipliers, Mood: "rage"},
			{ID: core.FactionB, Weight: 60, Members: 4, Multipliers: core.IdentityMultipliers, Mood: "calm"},
		},
		Events: []session.EventView{
			{Type: event.WaveStart, Time: at, Fields: map[string]any{"wave": 5}},
			{Type: event.ChaosChanged, Time: at, Fields: map[string]any{"value": 50.0}},
			{Type: event.MajorChaos, Time: at, Fields: map[string]any{"faction": "B", "value": 100.0}},
		},
	}
}

func TestDrawSnapshot(t *testing.T) {
	screen := newScreen(t)
	cfg := DefaultConfig()
	h := New(cfg, screen, &fakeSource{}, nil)
	h.Draw(testSnapshot())
	lines := rows(screen)

	for _, want := range []string{"run 01234567", "tick 12,345", "wave 5 active", "spawned 7/20", "boss 1", "members    3", "rage", "MAJOR_CHAOS faction=B value=100"} {
		if find(lines, want) < 0 {
			t.Errorf("screen missing %q:\n%s", want, strings.Join(lines, "\n"))
		}
	}
	if find(lines, string(event.ChaosChanged)) >= 0 {
		t.Error("chaos-changed events should not be listed")
	}

	// Newest event is listed first
	if major, start := find(lines, "MAJOR_CHAOS"), find(lines, "wave-start"); major < 0 || start < 0 || major > start {
		t.Errorf("event order: MAJOR_CHAOS at %d, wave-start at %d", major, start)
	}
}

func TestChaosBarFillsTowardDominant(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		left  int
		right int
	}{
		{"neutral", 0, 0, 0},
		{"b dominant", 100, 0, 20},
		{"a dominant", -50, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newScreen(t)
			h := New(DefaultConfig(), screen, &fakeSource{}, nil)
			snap := testSnapshot()
			snap.Chaos = session.ChaosView{Value: tt.value}
			h.Draw(snap)

			lines := rows(screen)
			row := find(lines, "A -")
			if row < 0 {
				row = find(lines, "A #")
			}
			if row < 0 {
				t.Fatalf("chaos bar not found:\n%s", strings.Join(lines, "\n"))
			}
			bar := lines[row][2 : 2+h.cfg.ChaosBarWidth]
			mid := h.cfg.ChaosBarWidth / 2
			if bar[mid] != '|' {
				t.Errorf("centre mark = %q, want '|'", bar[mid])
			}
			if got := strings.Count(bar[:mid], "#"); got != tt.left {
				t.Errorf("left fill = %d, want %d (%s)", got, tt.left, bar)
			}
			if got := strings.Count(bar[mid+1:], "#"); got != tt.right {
				t.Errorf("right fill = %d, want %d (%s)", got, tt.right, bar)
			}
		})
	}
}

func TestDrawPausedAndLocked(t *testing.T) {
	screen := newScreen(t)
	h := New(DefaultConfig(), screen, &fakeSource{}, nil)
	snap := testSnapshot()
	snap.Paused = true
	snap.Chaos.Locked = true
	h.Draw(snap)
	lines := rows(screen)
	if find(lines, "[PAUSED]") < 0 {
		t.Error("paused banner missing")
	}
	if find(lines, "LOCKED B") < 0 {
		t.Error("lock marker missing")
	}
}

func TestDrawNilSnapshot(t *testing.T) {
	screen := newScreen(t)
	h := New(DefaultConfig(), screen, &fakeSource{}, nil)
	h.Draw(nil)
	if find(rows(screen), "waiting") < 0 {
		t.Error("waiting banner missing")
	}
}

func TestHandleKeys(t *testing.T) {
	src := &fakeSource{}
	h := New(DefaultConfig(), newScreen(t), src, nil)

	keys := []struct {
		ev   *tcell.EventKey
		keep bool
	}{
		{tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false},
	}
	for _, k := range keys {
		if got := h.HandleEvent(k.ev); got != k.keep {
			t.Errorf("HandleEvent(%v) = %v, want %v", k.ev.Name(), got, k.keep)
		}
	}

	want := []session.Command{session.CommandNextWave, session.CommandPause, session.CommandRestart}
	if len(src.cmds) != len(want) {
		t.Fatalf("commands = %v, want %v", src.cmds, want)
	}
	for i := range want {
		if src.cmds[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, src.cmds[i], want[i])
		}
	}
}

func TestServiceQuitOnKey(t *testing.T) {
	screen := newScreen(t)
	src := &fakeSource{snap: testSnapshot()}
	cfg := DefaultConfig()
	cfg.FrameInterval = 5 * time.Millisecond
	h := New(cfg, screen, src, nil)

	if err := h.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-h.Quit():
	case <-time.After(2 * time.Second):
		t.Fatal("hud did not quit on q")
	}
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
