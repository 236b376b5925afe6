// Package balance tracks the bounded chaos value driven by player kill choices
//
// Polarity: positive value means faction B dominates and faction A is disadvantaged
// Killing an A member moves the value toward +100
package balance

import (
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/status"
)

// WeightListener is told about value changes once movement exceeds the recompute delta
type WeightListener interface {
	UpdateWeights(value float64)
}

// State is a copy of the meter's mutable state
type State struct {
	Value              float64        `json:"value"`
	Momentum           float64        `json:"momentum"`
	ConsecutiveFaction core.FactionID `json:"consecutive_faction"`
	ConsecutiveCount   int            `json:"consecutive_count"`
	LockoutActive      bool           `json:"lockout_active"`
	LockoutFaction     core.FactionID `json:"lockout_faction"`
	FiredMin           bool           `json:"fired_min"`
	FiredMax           bool           `json:"fired_max"`
	LastKillAt         time.Time      `json:"-"`
}

// Meter owns the chaos value; mutated only through RegisterKill, SetValue and Nudge
// Single-threaded: all calls and timer callbacks run on the simulation goroutine
type Meter struct {
	cfg      Config
	clock    engine.Clock
	timers   *engine.TimerSet
	sink     event.Sink
	log      *slog.Logger
	listener WeightListener

	state        State
	lockTimer    engine.Timer
	armedPos     []bool // Per threshold, true = may fire on the B side
	armedNeg     []bool
	lastNotified float64

	multA, multB core.Multipliers
	recomputes   uint64

	mValue    *status.Float
	mMomentum *status.Float
	mLocked   *atomic.Bool
	mIgnored  *atomic.Int64
}

// New creates a meter at value 0; sink, log and reg may be nil
func New(cfg Config, clock engine.Clock, sink event.Sink, log *slog.Logger, reg *status.Registry) *Meter {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg = status.OrNew(reg)
	m := &Meter{
		cfg:       cfg,
		clock:     clock,
		timers:    engine.NewTimerSet(clock),
		sink:      event.OrNop(sink),
		log:       log.With("component", "balance"),
		mValue:    reg.Floats.Get("balance.value"),
		mMomentum: reg.Floats.Get("balance.momentum"),
		mLocked:   reg.Bools.Get("balance.locked"),
		mIgnored:  reg.Ints.Get("balance.kills_ignored"),
	}
	m.Reset()
	return m
}

// SetWeightListener wires the faction weight recompute; nil disables it
func (m *Meter) SetWeightListener(l WeightListener) {
	m.listener = l
}

// Reset cancels the lockout timer and returns to a balanced state
func (m *Meter) Reset() {
	m.timers.CancelAll()
	m.lockTimer = 0
	m.state = State{}
	m.armedPos = make([]bool, len(m.cfg.Thresholds))
	m.armedNeg = make([]bool, len(m.cfg.Thresholds))
	for i := range m.armedPos {
		m.armedPos[i] = true
		m.armedNeg[i] = true
	}
	m.lastNotified = 0
	m.multA, m.multB = core.IdentityMultipliers, core.IdentityMultipliers
	m.publishMetrics()
}

// RegisterKill applies one player kill of a member of faction f
// Returns false when the kill was ignored: neutral or invalid faction, or lockout
func (m *Meter) RegisterKill(f core.FactionID) bool {
	f = f.Normalize()
	if !f.IsCombatant() {
		return false
	}
	if m.state.LockoutActive {
		m.mIgnored.Add(1)
		m.log.Debug("kill ignored during lockout", "faction", f.String())
		return false
	}

	now := m.clock.Now()
	chained := m.state.ConsecutiveFaction == f && m.state.ConsecutiveCount > 0
	if chained && m.cfg.MomentumWindow > 0 && now.Sub(m.state.LastKillAt) > m.cfg.MomentumWindow {
		chained = false
	}
	if chained {
		m.state.ConsecutiveCount++
		m.state.Momentum = math.Min(m.state.Momentum+m.cfg.MomentumIncrement, m.cfg.MomentumCap)
	} else {
		m.state.ConsecutiveFaction = f
		m.state.ConsecutiveCount = 1
		m.state.Momentum = math.Min(m.cfg.MomentumIncrement, m.cfg.MomentumCap)
	}
	m.state.LastKillAt = now

	dir := -1.0
	if f == core.FactionA {
		dir = 1.0
	}
	step := m.cfg.BaseWeight * (1 + m.state.Momentum)
	m.apply(m.state.Value + dir*step)
	return true
}

// Nudge moves the value by delta unless locked out
func (m *Meter) Nudge(delta float64) bool {
	if m.state.LockoutActive {
		return false
	}
	m.apply(m.state.Value + delta)
	return true
}

// SetValue overwrites the value, clamped to bounds; NaN is ignored
func (m *Meter) SetValue(v float64) {
	m.apply(v)
}

func (m *Meter) apply(v float64) {
	if math.IsNaN(v) {
		m.log.Warn("non-numeric chaos value ignored")
		return
	}
	v = clamp(v)
	old := m.state.Value
	if v == old {
		return
	}
	m.state.Value = v
	m.recomputeMultipliers()
	m.publishMetrics()

	m.sink.Publish(event.New(m.clock.Now(), event.ChaosChangedPayload{
		OldValue:     old,
		NewValue:     v,
		Polarity:     polarity(v),
		MultipliersA: m.multA,
		MultipliersB: m.multB,
	}))

	m.checkThresholds(v)
	m.checkExtremes(v)
	m.notifyListener(v)
}

func (m *Meter) checkThresholds(v float64) {
	for i, th := range m.cfg.Thresholds {
		switch {
		case m.armedPos[i] && v >= th:
			m.armedPos[i] = false
			m.publishThreshold(core.FactionB, v, th)
		case !m.armedPos[i] && v <= th-m.cfg.Hysteresis:
			m.armedPos[i] = true
		}
		switch {
		case m.armedNeg[i] && v <= -th:
			m.armedNeg[i] = false
			m.publishThreshold(core.FactionA, v, -th)
		case !m.armedNeg[i] && v >= -th+m.cfg.Hysteresis:
			m.armedNeg[i] = true
		}
	}
}

func (m *Meter) publishThreshold(dominant core.FactionID, v, th float64) {
	m.sink.Publish(event.New(m.clock.Now(), event.ThresholdChaosPayload{
		Faction:   dominant,
		Value:     v,
		Threshold: th,
	}))
}

func (m *Meter) checkExtremes(v float64) {
	if v < parameter.ChaosMax {
		m.state.FiredMax = false
	}
	if v > parameter.ChaosMin {
		m.state.FiredMin = false
	}

	switch {
	case v >= parameter.ChaosMax && !m.state.FiredMax:
		m.state.FiredMax = true
		m.reachExtreme(core.FactionB, v)
	case v <= parameter.ChaosMin && !m.state.FiredMin:
		m.state.FiredMin = true
		m.reachExtreme(core.FactionA, v)
	}
}

func (m *Meter) reachExtreme(dominant core.FactionID, v float64) {
	m.sink.Publish(event.New(m.clock.Now(), event.MajorChaosPayload{Faction: dominant, Value: v}))
	if m.state.LockoutActive {
		m.state.LockoutFaction = dominant
		return
	}

	m.state.LockoutActive = true
	m.state.LockoutFaction = dominant
	m.mLocked.Store(true)
	m.lockTimer = m.timers.After(m.cfg.LockoutDuration, m.unlock)
	m.log.Info("chaos lockout started", "faction", dominant.String(), "duration", m.cfg.LockoutDuration)
	m.sink.Publish(event.New(m.clock.Now(), event.ChaosLockedPayload{
		Duration: m.cfg.LockoutDuration,
		Faction:  dominant,
	}))
}

func (m *Meter) unlock() {
	prev := m.state.Value
	// Grace lands on the side the value sits on now; SetValue may have crossed zero during the lockout
	dominant := m.state.LockoutFaction
	switch {
	case prev > 0:
		dominant = core.FactionB
	case prev < 0:
		dominant = core.FactionA
	}
	m.state.LockoutActive = false
	m.state.LockoutFaction = core.FactionNeutral
	m.lockTimer = 0
	m.mLocked.Store(false)

	extreme := parameter.ChaosMax
	if dominant == core.FactionA {
		extreme = parameter.ChaosMin
	}
	m.apply(extreme * m.cfg.GraceFraction)

	m.log.Info("chaos lockout ended", "faction", dominant.String(), "value", m.state.Value)
	m.sink.Publish(event.New(m.clock.Now(), event.ChaosUnlockedPayload{
		Value:         m.state.Value,
		PreviousValue: prev,
		Faction:       dominant,
	}))
}

func (m *Meter) notifyListener(v float64) {
	if m.listener == nil {
		return
	}
	if math.Abs(v-m.lastNotified) < m.cfg.WeightRecomputeDelta {
		return
	}
	m.lastNotified = v
	m.listener.UpdateWeights(v)
}

func (m *Meter) recomputeMultipliers() {
	m.recomputes++
	m.multA, m.multB = core.IdentityMultipliers, core.IdentityMultipliers
	v := m.state.Value
	if v == 0 {
		return
	}
	f := math.Abs(v) / parameter.ChaosMax
	boosted := core.Multipliers{
		HP:       m.cfg.HP.Apply(f),
		Damage:   m.cfg.Damage.Apply(f),
		FireRate: m.cfg.FireRate.Apply(f),
		Dodge:    m.cfg.Dodge.Apply(f),
	}
	if v > 0 {
		m.multA = boosted
	} else {
		m.multB = boosted
	}
}

func (m *Meter) publishMetrics() {
	m.mValue.Store(m.state.Value)
	m.mMomentum.Store(m.state.Momentum)
	m.mLocked.Store(m.state.LockoutActive)
}

// Multipliers returns cached stat multipliers; only the disadvantaged faction gets values above 1
func (m *Meter) Multipliers(f core.FactionID) core.Multipliers {
	switch f.Normalize() {
	case core.FactionA:
		return m.multA
	case core.FactionB:
		return m.multB
	}
	return core.IdentityMultipliers
}

func (m *Meter) Value() float64 {
	return m.state.Value
}

func (m *Meter) Momentum() float64 {
	return m.state.Momentum
}

func (m *Meter) Locked() bool {
	return m.state.LockoutActive
}

// Polarity returns 1 when B dominates, -1 when A dominates, 0 when balanced
func (m *Meter) Polarity() int {
	return polarity(m.state.Value)
}

// Dominant returns the faction currently ahead, neutral when balanced
func (m *Meter) Dominant() core.FactionID {
	switch polarity(m.state.Value) {
	case 1:
		return core.FactionB
	case -1:
		return core.FactionA
	}
	return core.FactionNeutral
}

// Disadvantaged returns the faction currently behind, neutral when balanced
func (m *Meter) Disadvantaged() core.FactionID {
	return m.Dominant().Opponent()
}

// Percentage places the value on a 0..100 meter, 0 = A extreme, 50 = balanced, 100 = B extreme
func (m *Meter) Percentage() float64 {
	return (m.state.Value - parameter.ChaosMin) / (parameter.ChaosMax - parameter.ChaosMin) * 100
}

func (m *Meter) Snapshot() State {
	return m.state
}

func (m *Meter) Config() Config {
	return m.cfg
}

func clamp(v float64) float64 {
	return math.Max(parameter.ChaosMin, math.Min(parameter.ChaosMax, v))
}

func polarity(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
