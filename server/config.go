package server

import (
	"errors"
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

type Config struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	FrameInterval  time.Duration `yaml:"frame_interval"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
	ClientBuffer   int           `yaml:"client_buffer"`    // Frames queued per websocket client
	MaxEventsFrame int           `yaml:"max_events_frame"` // Events per event frame
}

func DefaultConfig() Config {
	return Config{
		Addr:           parameter.ServerAddr,
		FrameInterval:  parameter.ServerFrameInterval,
		WriteTimeout:   parameter.ServerWriteTimeout,
		ShutdownGrace:  parameter.ServerShutdownGrace,
		ClientBuffer:   parameter.ServerClientBuffer,
		MaxEventsFrame: parameter.ServerMaxEventsFrame,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must be set when enabled"))
	}
	if c.FrameInterval <= 0 || c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("frame_interval and write_timeout must be positive"))
	}
	if c.ClientBuffer <= 0 || c.MaxEventsFrame <= 0 {
		errs = append(errs, errors.New("client_buffer and max_events_frame must be positive"))
	}
	return errors.Join(errs...)
}
