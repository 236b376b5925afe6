package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

// Config holds cue playback settings
type Config struct {
	Enabled    bool          `yaml:"enabled"`
	SampleRate int           `yaml:"sample_rate"`
	Volume     float64       `yaml:"volume"` // Base-2 offset, 0 is unity gain
	CueMinGap  time.Duration `yaml:"cue_min_gap"`
	QueueSize  int           `yaml:"queue_size"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate: parameter.AudioSampleRate,
		Volume:     parameter.AudioVolume,
		CueMinGap:  parameter.CueMinGap,
		QueueSize:  parameter.CueQueueSize,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("sample_rate %d below 8000", c.SampleRate))
	}
	if c.CueMinGap < 0 {
		errs = append(errs, fmt.Errorf("cue_min_gap %s is negative", c.CueMinGap))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size %d must be positive", c.QueueSize))
	}
	return errors.Join(errs...)
}
