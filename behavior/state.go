// Package behavior models per-enemy mood as a closed set of states with a pure transition function
package behavior

import (
	"time"

	"github.com/lixenwraith/chaoswave/vmath"
)

// State is one of Normal, Panicking or Enraged
type State interface {
	isState()
	Name() string
}

type Normal struct{}

// Panicking flees away from FleeFrom
type Panicking struct {
	FleeFrom vmath.Vec2
}

// Enraged lasts until ExpiresAt
type Enraged struct {
	ExpiresAt time.Time
}

func (Normal) isState()    {}
func (Panicking) isState() {}
func (Enraged) isState()   {}

func (Normal) Name() string    { return "normal" }
func (Panicking) Name() string { return "panicking" }
func (Enraged) Name() string   { return "enraged" }

// Stimulus is one of Calm, Panic, Enrage or Tick
type Stimulus interface {
	isStimulus()
}

// Calm returns to Normal unconditionally
type Calm struct{}

// Panic starts fleeing from From; replaces rage
type Panic struct {
	From vmath.Vec2
}

// Enrage starts or extends rage until Until; ignored while panicking
type Enrage struct {
	Until time.Time
}

// Tick expires timed states at Now
type Tick struct {
	Now time.Time
}

func (Calm) isStimulus()   {}
func (Panic) isStimulus()  {}
func (Enrage) isStimulus() {}
func (Tick) isStimulus()   {}

// Transition returns the state after applying stim to s; nil s is treated as Normal
func Transition(s State, stim Stimulus) State {
	if s == nil {
		s = Normal{}
	}
	switch st := stim.(type) {
	case Calm:
		return Normal{}
	case Panic:
		return Panicking{FleeFrom: st.From}
	case Enrage:
		switch cur := s.(type) {
		case Panicking:
			return cur
		case Enraged:
			if cur.ExpiresAt.After(st.Until) {
				return cur
			}
		}
		return Enraged{ExpiresAt: st.Until}
	case Tick:
		if cur, ok := s.(Enraged); ok && !st.Now.Before(cur.ExpiresAt) {
			return Normal{}
		}
		return s
	}
	return s
}

// SpeedFactor scales base movement speed for s
func SpeedFactor(s State, enraged, panicking float64) float64 {
	switch s.(type) {
	case Enraged:
		return enraged
	case Panicking:
		return panicking
	}
	return 1
}

// Heading returns the unit movement direction for an entity at pos chasing target
func Heading(s State, pos, target vmath.Vec2) vmath.Vec2 {
	switch st := s.(type) {
	case Panicking:
		return vmath.V2Toward(st.FleeFrom, pos)
	}
	return vmath.V2Toward(pos, target)
}
