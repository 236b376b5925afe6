package journal

import (
	"errors"
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

type Config struct {
	Enabled       bool          `yaml:"enabled"`
	Path          string        `yaml:"path"`
	BufferSize    int           `yaml:"buffer_size"` // Events queued before drops start
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

func DefaultConfig() Config {
	return Config{
		Path:          parameter.JournalPath,
		BufferSize:    parameter.JournalBufferSize,
		BatchSize:     parameter.JournalBatchSize,
		FlushInterval: parameter.JournalFlushInterval,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Path == "" {
		errs = append(errs, errors.New("path must be set when enabled"))
	}
	if c.BufferSize <= 0 || c.BatchSize <= 0 {
		errs = append(errs, errors.New("buffer_size and batch_size must be positive"))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, errors.New("flush_interval must be positive"))
	}
	return errors.Join(errs...)
}
