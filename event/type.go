package event

import "time"

// Type is the wire name of an exposed event
type Type string

const (
	// WaveStart fires when a wave enters Active
	// Payload: WaveStartPayload
	WaveStart Type = "wave-start"

	// WaveCompleted fires exactly once per wave number
	// Payload: WaveCompletedPayload
	WaveCompleted Type = "wave-completed"

	// Victory fires after the last wave completes
	// Payload: VictoryPayload
	Victory Type = "victory"

	// ChaosChanged fires on every balance value change
	// Payload: ChaosChangedPayload
	ChaosChanged Type = "chaos-changed"

	// MajorChaos fires once per visit to an extreme, naming the dominant faction
	// Payload: MajorChaosPayload
	MajorChaos Type = "MAJOR_CHAOS"

	// ThresholdChaos fires once per threshold crossing
	// Payload: ThresholdChaosPayload
	ThresholdChaos Type = "THRESHOLD_CHAOS"

	// ChaosLocked fires when lockout starts
	// Payload: ChaosLockedPayload
	ChaosLocked Type = "CHAOS_LOCKED"

	// ChaosUnlocked fires when lockout expires and the grace value is applied
	// Payload: ChaosUnlockedPayload
	ChaosUnlocked Type = "CHAOS_UNLOCKED"

	// BattleStart fires when a skirmish is triggered
	// Payload: BattleStartPayload
	BattleStart Type = "FACTION_BATTLE_START"

	// BattleEnd fires when a skirmish resolves
	// Payload: BattleEndPayload
	BattleEnd Type = "FACTION_BATTLE_END"

	// Surge fires when a faction spawns a reinforcement group
	// Payload: SurgePayload
	Surge Type = "faction-surge"
)

// Types lists every exposed event type
var Types = []Type{
	WaveStart, WaveCompleted, Victory,
	ChaosChanged, MajorChaos, ThresholdChaos, ChaosLocked, ChaosUnlocked,
	BattleStart, BattleEnd, Surge,
}

// Payload is implemented by every typed event body
type Payload interface {
	// Type names the event the payload belongs to
	Type() Type
	// Fields returns a flat map view for logs and wire encoding
	Fields() map[string]any
}

// Event is one published notification, stamped with game time
type Event struct {
	Type    Type
	Time    time.Time
	Payload Payload
}

// New stamps payload with game time
func New(at time.Time, p Payload) Event {
	return Event{Type: p.Type(), Time: at, Payload: p}
}

// Fields returns the payload fields, nil payload yields an empty map
func (e Event) Fields() map[string]any {
	if e.Payload == nil {
		return map[string]any{}
	}
	return e.Payload.Fields()
}
