// Package config loads the chaoswave YAML file over built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/chaoswave/audio"
	"github.com/lixenwraith/chaoswave/hud"
	"github.com/lixenwraith/chaoswave/journal"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/server"
	"github.com/lixenwraith/chaoswave/session"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // Empty writes to stderr
}

// File is the on-disk document; simulation keys sit at the top level
type File struct {
	Session      session.Config `yaml:",inline"`
	TickInterval time.Duration  `yaml:"tick_interval"`

	Log     LogConfig      `yaml:"log"`
	Server  server.Config  `yaml:"server"`
	Journal journal.Config `yaml:"journal"`
	HUD     hud.Config     `yaml:"hud"`
	Audio   audio.Config   `yaml:"audio"`
}

func Default() File {
	return File{
		Session:      session.DefaultConfig(),
		TickInterval: parameter.TickInterval,
		Log:          LogConfig{Level: "info", Format: "text"},
		Server:       server.DefaultConfig(),
		Journal:      journal.DefaultConfig(),
		HUD:          hud.DefaultConfig(),
		Audio:        audio.DefaultConfig(),
	}
}

// Load reads path over the defaults; an empty path returns the defaults
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}
	if err := f.Decode(bytes.NewReader(data)); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, f.Validate()
}

// Decode overlays YAML from r; unknown keys are rejected
func (f *File) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate reports every invalid section, each wrapping ErrInvalid
func (f File) Validate() error {
	var errs []error
	check := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalid, section, err))
		}
	}
	check("session", f.Session.Validate())
	check("server", f.Server.Validate())
	check("journal", f.Journal.Validate())
	check("audio", f.Audio.Validate())
	if f.TickInterval <= 0 {
		check("tick_interval", fmt.Errorf("%s must be positive", f.TickInterval))
	}
	if _, err := ParseLevel(f.Log.Level); err != nil {
		check("log", err)
	}
	switch f.Log.Format {
	case "", "text", "json":
	default:
		check("log", fmt.Errorf("unknown format %q", f.Log.Format))
	}
	return errors.Join(errs...)
}

// Encode writes f as YAML
func (f File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}

// NewLogger builds the process logger from cfg; close releases a log file
func NewLogger(cfg LogConfig, stderr io.Writer) (log *slog.Logger, closeFn func() error, err error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	out, closeFn := stderr, func() error { return nil }
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = file, file.Close
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), closeFn, nil
	}
	return slog.New(slog.NewTextHandler(out, opts)), closeFn, nil
}
