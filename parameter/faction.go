package parameter

import "time"

// Spawn Weights, percentages over the two combatant factions
const (
	FactionBaseWeight  = 50.0
	FactionMinWeight   = 20.0
	FactionWeightTotal = 100.0

	// FactionBiasExp and FactionBiasScale shape adj = |value/100|^Exp * Scale
	FactionBiasExp   = 1.3
	FactionBiasScale = 35.0
)

// Reinforcement
const (
	// ReinforcementPerKill is the weight bonus a faction gains per member lost
	ReinforcementPerKill = 0.5

	// ReinforcementMax bounds the accumulated reinforcement bonus per faction
	ReinforcementMax = 10.0

	// ReinforcementDecayInterval and ReinforcementDecayFactor shrink the tally over time
	ReinforcementDecayInterval = 2 * time.Second
	ReinforcementDecayFactor   = 0.8
)
