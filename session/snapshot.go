package session

import (
	"time"

	"github.com/lixenwraith/chaoswave/arena"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/skirmish"
	"github.com/lixenwraith/chaoswave/vmath"
	"github.com/lixenwraith/chaoswave/wave"
)

// Snapshot is an immutable view of the simulation published after every tick
// Readers on any goroutine must treat it as read-only
type Snapshot struct {
	RunID  string    `json:"run_id"`
	Tick   uint64    `json:"tick"`
	Time   time.Time `json:"time"`
	Paused bool      `json:"paused"`

	PausedFor time.Duration `json:"paused_for"` // Cumulative wall time spent paused, zero without a wall clock

	Wave       wave.Wave           `json:"wave"`
	Chaos      ChaosView           `json:"chaos"`
	Factions   []FactionView       `json:"factions"`
	Player     vmath.Vec2          `json:"player"`
	Arena      arena.Stats         `json:"arena"`
	Skirmishes []skirmish.Skirmish `json:"skirmishes"`
	Events     []EventView         `json:"events"` // Oldest first
}

type ChaosView struct {
	Value      float64        `json:"value"`
	Percentage float64        `json:"percentage"`
	Polarity   int            `json:"polarity"`
	Momentum   float64        `json:"momentum"`
	Locked     bool           `json:"locked"`
	Dominant   core.FactionID `json:"dominant"`
}

type FactionView struct {
	ID          core.FactionID   `json:"id"`
	Weight      float64          `json:"weight"`
	Members     int              `json:"members"`
	Multipliers core.Multipliers `json:"multipliers"`
	Mood        string           `json:"mood"`
}

// EventView is the transport-neutral form of an event
type EventView struct {
	Type   event.Type     `json:"type"`
	Time   time.Time      `json:"time"`
	Fields map[string]any `json:"fields"`
}

func ViewOf(e event.Event) EventView {
	return EventView{Type: e.Type, Time: e.Time, Fields: e.Fields()}
}

// Faction returns the view of f, zero for neutral
func (s *Snapshot) Faction(f core.FactionID) FactionView {
	for _, v := range s.Factions {
		if v.ID == f {
			return v
		}
	}
	return FactionView{}
}

// history is a bounded ring of recent events
type history struct {
	buf  []EventView
	next int
	full bool
}

func newHistory(n int) *history {
	return &history{buf: make([]EventView, max(n, 1))}
}

func (h *history) push(v EventView) {
	h.buf[h.next] = v
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) list() []EventView {
	if !h.full {
		return append([]EventView(nil), h.buf[:h.next]...)
	}
	out := make([]EventView, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

func (h *history) reset() {
	clear(h.buf)
	h.next, h.full = 0, false
}
