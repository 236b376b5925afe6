package hud

import (
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

type Config struct {
	Enabled       bool          `yaml:"enabled"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	ChaosBarWidth int           `yaml:"chaos_bar_width"` // Odd widths centre the neutral mark
	EventLines    int           `yaml:"event_lines"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		FrameInterval: parameter.HUDFrameInterval,
		ChaosBarWidth: parameter.HUDChaosBarWidth,
		EventLines:    parameter.HUDEventLines,
	}
}
