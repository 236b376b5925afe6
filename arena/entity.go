package arena

import (
	"time"

	"github.com/lixenwraith/chaoswave/behavior"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/vmath"
)

// Enemy is the pooled enemy record
type Enemy struct {
	Kind       core.Kind
	Faction    core.FactionID
	Pos        vmath.Vec2
	Vel        vmath.Vec2
	Dir        vmath.Vec2
	Health     float64
	MaxHealth  float64
	Speed      float64
	Boost      float64
	BoostUntil time.Time
	Mood       behavior.State
}

// Reset overwrites every field so a recycled slot carries nothing from its last user
func (e *Enemy) Reset() {
	*e = Enemy{Mood: behavior.Normal{}, Boost: 1}
}

func (e *Enemy) boost(now time.Time) float64 {
	if now.Before(e.BoostUntil) {
		return e.Boost
	}
	return 1
}

// Bullet is the pooled projectile record; Trail is a bounded child buffer reused across acquisitions
type Bullet struct {
	Pos     vmath.Vec2
	Vel     vmath.Vec2
	Expires time.Time
	Trail   []vmath.Vec2
}

func (b *Bullet) Reset() {
	trail := b.Trail[:0]
	*b = Bullet{Trail: trail}
}

// pushTrail records the current position, dropping the oldest point past limit
func (b *Bullet) pushTrail(limit int) {
	if limit <= 0 {
		return
	}
	if len(b.Trail) >= limit {
		copy(b.Trail, b.Trail[1:])
		b.Trail = b.Trail[:limit-1]
	}
	b.Trail = append(b.Trail, b.Pos)
}

// Cause records why an entity died
type Cause uint8

const (
	CausePlayer   Cause = iota // Player bullet
	CauseSkirmish              // Fatal damage from an autonomous battle
	CauseCulled                // Left the arena bounds
)

var causeNames = [...]string{"player", "skirmish", "culled"}

func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

// Death is reported once per entity after it has been released
type Death struct {
	Entity  core.Entity
	Kind    core.Kind
	Faction core.FactionID
	Pos     vmath.Vec2
	Cause   Cause
}
