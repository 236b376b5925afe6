package core

// Multipliers are faction-wide stat scalars derived from the chaos value
type Multipliers struct {
	HP       float64 `json:"hp" msgpack:"hp"`
	Damage   float64 `json:"damage" msgpack:"damage"`
	FireRate float64 `json:"fire_rate" msgpack:"fire_rate"`
	Dodge    float64 `json:"dodge" msgpack:"dodge"`
}

// IdentityMultipliers leaves every stat unchanged
var IdentityMultipliers = Multipliers{HP: 1, Damage: 1, FireRate: 1, Dodge: 1}

// IsIdentity reports whether m changes no stat
func (m Multipliers) IsIdentity() bool {
	return m == IdentityMultipliers
}
