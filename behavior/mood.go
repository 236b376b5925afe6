package behavior

import (
	"time"

	"github.com/lixenwraith/chaoswave/core"
)

// Mood is the faction-wide stimulus source, derived from balance events
// Entities of a faction converge on its mood as they tick
type Mood struct {
	kind  moodKind
	until time.Time
}

type moodKind uint8

const (
	moodCalm moodKind = iota
	moodPanic
	moodRage
)

// CalmMood is the zero Mood
var CalmMood = Mood{}

func PanicMood() Mood {
	return Mood{kind: moodPanic}
}

func RageMood(until time.Time) Mood {
	return Mood{kind: moodRage, until: until}
}

func (m Mood) String() string {
	switch m.kind {
	case moodPanic:
		return "panic"
	case moodRage:
		return "rage"
	}
	return "calm"
}

// Active reports whether the mood still applies at now; rage expires, panic holds until replaced
func (m Mood) Active(now time.Time) bool {
	switch m.kind {
	case moodPanic:
		return true
	case moodRage:
		return now.Before(m.until)
	}
	return false
}

// Stimulus converts the mood into the stimulus an entity receives, threat is the panic source
func (m Mood) Stimulus(now time.Time, threat core.PlayerPositionProvider) Stimulus {
	switch m.kind {
	case moodPanic:
		if threat == nil {
			return Calm{}
		}
		return Panic{From: threat.PlayerPosition()}
	case moodRage:
		if now.Before(m.until) {
			return Enrage{Until: m.until}
		}
		return Tick{Now: now}
	}
	return Calm{}
}

// Moods holds the current mood of each combatant faction
type Moods struct {
	byFaction [2]Mood
}

func (ms *Moods) Set(f core.FactionID, m Mood) {
	if i := f.Normalize().Index(); i >= 0 {
		ms.byFaction[i] = m
	}
}

// Get returns f's mood, calm for neutral
func (ms *Moods) Get(f core.FactionID) Mood {
	if i := f.Normalize().Index(); i >= 0 {
		return ms.byFaction[i]
	}
	return CalmMood
}

// Reset calms both factions
func (ms *Moods) Reset() {
	ms.byFaction = [2]Mood{}
}
