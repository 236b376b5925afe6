package session

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/chaoswave/arena"
	"github.com/lixenwraith/chaoswave/balance"
	"github.com/lixenwraith/chaoswave/faction"
	"github.com/lixenwraith/chaoswave/skirmish"
	"github.com/lixenwraith/chaoswave/spatial"
	"github.com/lixenwraith/chaoswave/wave"
)

// Config aggregates every simulation component config
type Config struct {
	Seed      int64 `yaml:"seed"`       // 0 seeds from the wall clock
	AutoStart bool  `yaml:"auto_start"` // Start wave 1 on every run start

	Balance  balance.Config  `yaml:"balance"`
	Faction  faction.Config  `yaml:"faction"`
	Wave     wave.Config     `yaml:"wave"`
	Skirmish skirmish.Config `yaml:"skirmish"`
	Spatial  spatial.Config  `yaml:"spatial"`
	Arena    arena.Config    `yaml:"arena"`
}

func DefaultConfig() Config {
	return Config{
		AutoStart: true,
		Balance:   balance.DefaultConfig(),
		Faction:   faction.DefaultConfig(),
		Wave:      wave.DefaultConfig(),
		Skirmish:  skirmish.DefaultConfig(),
		Spatial:   spatial.DefaultConfig(),
		Arena:     arena.DefaultConfig(),
	}
}

// Validate reports every invalid component section at once
func (c Config) Validate() error {
	var errs []error
	check := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	check("balance", c.Balance.Validate())
	check("faction", c.Faction.Validate())
	check("wave", c.Wave.Validate())
	check("skirmish", c.Skirmish.Validate())
	check("arena", c.Arena.Validate())
	if c.Spatial.CellSize <= 0 {
		errs = append(errs, errors.New("spatial: cell_size must be positive"))
	}
	return errors.Join(errs...)
}
