package event

import (
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/vmath"
)

type WaveStartPayload struct {
	Wave       int
	IsBossWave bool
	EnemyCount int
}

func (WaveStartPayload) Type() Type { return WaveStart }

func (p WaveStartPayload) Fields() map[string]any {
	return map[string]any{"wave": p.Wave, "is_boss_wave": p.IsBossWave, "enemy_count": p.EnemyCount}
}

type WaveCompletedPayload struct {
	Wave       int
	IsLastWave bool
}

func (WaveCompletedPayload) Type() Type { return WaveCompleted }

func (p WaveCompletedPayload) Fields() map[string]any {
	return map[string]any{"wave": p.Wave, "is_last_wave": p.IsLastWave}
}

// VictoryPayload carries the number of waves cleared
type VictoryPayload struct {
	Waves int
}

func (VictoryPayload) Type() Type { return Victory }

func (p VictoryPayload) Fields() map[string]any {
	return map[string]any{"waves": p.Waves}
}

// ChaosChangedPayload carries both factions' multipliers after the change
// Polarity is the sign of NewValue: 1 = B dominant, -1 = A dominant, 0 = balanced
type ChaosChangedPayload struct {
	OldValue     float64
	NewValue     float64
	Polarity     int
	MultipliersA core.Multipliers
	MultipliersB core.Multipliers
}

func (ChaosChangedPayload) Type() Type { return ChaosChanged }

func (p ChaosChangedPayload) Fields() map[string]any {
	return map[string]any{
		"old_value":     p.OldValue,
		"new_value":     p.NewValue,
		"polarity":      p.Polarity,
		"multipliers_a": p.MultipliersA,
		"multipliers_b": p.MultipliersB,
	}
}

// MajorChaosPayload names the dominant faction at the extreme
type MajorChaosPayload struct {
	Faction core.FactionID
	Value   float64
}

func (MajorChaosPayload) Type() Type { return MajorChaos }

func (p MajorChaosPayload) Fields() map[string]any {
	return map[string]any{"faction": p.Faction.String(), "value": p.Value}
}

// ThresholdChaosPayload names the dominant faction and the crossed threshold
type ThresholdChaosPayload struct {
	Faction   core.FactionID
	Value     float64
	Threshold float64
}

func (ThresholdChaosPayload) Type() Type { return ThresholdChaos }

func (p ThresholdChaosPayload) Fields() map[string]any {
	return map[string]any{"faction": p.Faction.String(), "value": p.Value, "threshold": p.Threshold}
}

type ChaosLockedPayload struct {
	Duration time.Duration
	Faction  core.FactionID
}

func (ChaosLockedPayload) Type() Type { return ChaosLocked }

func (p ChaosLockedPayload) Fields() map[string]any {
	return map[string]any{"duration": p.Duration.String(), "faction": p.Faction.String()}
}

type ChaosUnlockedPayload struct {
	Value         float64
	PreviousValue float64
	Faction       core.FactionID
}

func (ChaosUnlockedPayload) Type() Type { return ChaosUnlocked }

func (p ChaosUnlockedPayload) Fields() map[string]any {
	return map[string]any{"value": p.Value, "previous_value": p.PreviousValue, "faction": p.Faction.String()}
}

type BattleStartPayload struct {
	BattleID string
	Position vmath.Vec2
	CountA   int
	CountB   int
}

func (BattleStartPayload) Type() Type { return BattleStart }

func (p BattleStartPayload) Fields() map[string]any {
	return map[string]any{
		"battle_id": p.BattleID,
		"x":         p.Position.X,
		"y":         p.Position.Y,
		"count_a":   p.CountA,
		"count_b":   p.CountB,
	}
}

// BattleEndPayload reports pairing wins per side, Winner is neutral on a tie
type BattleEndPayload struct {
	BattleID string
	Winner   core.FactionID
	WinsA    int
	WinsB    int
}

func (BattleEndPayload) Type() Type { return BattleEnd }

func (p BattleEndPayload) Fields() map[string]any {
	return map[string]any{
		"battle_id": p.BattleID,
		"winner":    p.Winner.String(),
		"wins_a":    p.WinsA,
		"wins_b":    p.WinsB,
	}
}

// SurgePayload reports the confirmed size of a reinforcement group
type SurgePayload struct {
	GroupID  string
	Faction  core.FactionID
	Strength int
	Position vmath.Vec2
}

func (SurgePayload) Type() Type { return Surge }

func (p SurgePayload) Fields() map[string]any {
	return map[string]any{
		"group_id": p.GroupID,
		"faction":  p.Faction.String(),
		"strength": p.Strength,
		"x":        p.Position.X,
		"y":        p.Position.Y,
	}
}
