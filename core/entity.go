package core

import (
	"fmt"
	"strings"
)

// Entity is an opaque handle to a live simulation entity
// Zero is never a valid handle; the factory owns encoding
type Entity uint64

// Kind identifies the archetype of a pooled entity
type Kind uint8

const (
	// KindAny matches every kind in enumeration queries
	KindAny Kind = iota
	KindGrunt
	KindRunner
	KindTank
	KindElite
	KindBoss
	KindBullet
)

var kindNames = [...]string{
	KindAny:    "any",
	KindGrunt:  "grunt",
	KindRunner: "runner",
	KindTank:   "tank",
	KindElite:  "elite",
	KindBoss:   "boss",
	KindBullet: "bullet",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsEnemy reports whether the kind counts toward wave enemy totals (bosses excluded)
func (k Kind) IsEnemy() bool {
	return k >= KindGrunt && k <= KindElite
}

func (k Kind) IsBoss() bool {
	return k == KindBoss
}

// ParseKind maps a config name to a Kind
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name && Kind(k) != KindAny {
			return Kind(k), nil
		}
	}
	return KindAny, fmt.Errorf("unknown entity kind %q", name)
}

// MarshalText encodes the kind by name for YAML/JSON config
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FactionID identifies one of the two combatant factions or the neutral group
type FactionID uint8

const (
	FactionNeutral FactionID = iota
	FactionA
	FactionB
)

// Combatants lists the weighted factions in draw order
var Combatants = [2]FactionID{FactionA, FactionB}

func (f FactionID) String() string {
	switch f {
	case FactionNeutral:
		return "neutral"
	case FactionA:
		return "A"
	case FactionB:
		return "B"
	default:
		return fmt.Sprintf("faction(%d)", f)
	}
}

// IsCombatant reports whether f is A or B; invalid ids are not combatants
func (f FactionID) IsCombatant() bool {
	return f == FactionA || f == FactionB
}

// Normalize maps invalid ids to neutral
func (f FactionID) Normalize() FactionID {
	if f.IsCombatant() {
		return f
	}
	return FactionNeutral
}

// Opponent returns the opposing combatant, neutral for neutral
func (f FactionID) Opponent() FactionID {
	switch f {
	case FactionA:
		return FactionB
	case FactionB:
		return FactionA
	default:
		return FactionNeutral
	}
}

// Index returns 0 for A and 1 for B, -1 otherwise
func (f FactionID) Index() int {
	switch f {
	case FactionA:
		return 0
	case FactionB:
		return 1
	default:
		return -1
	}
}

func (f FactionID) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FactionID) UnmarshalText(b []byte) error {
	parsed, err := ParseFaction(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFaction maps a config name to a FactionID
func ParseFaction(name string) (FactionID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neutral", "":
		return FactionNeutral, nil
	case "a":
		return FactionA, nil
	case "b":
		return FactionB, nil
	default:
		return FactionNeutral, fmt.Errorf("unknown faction %q", name)
	}
}
