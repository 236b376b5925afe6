package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Group starts services in registration order and stops them in reverse
type Group struct {
	services []Service
	started  []Service
	log      *slog.Logger
}

func NewGroup(log *slog.Logger) *Group {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Group{log: log}
}

// Add registers s; nil services are skipped so optional subsystems can be passed directly
func (g *Group) Add(s Service) {
	if s != nil {
		g.services = append(g.services, s)
	}
}

// Start starts every service; on failure the already started ones are stopped
func (g *Group) Start(ctx context.Context) error {
	for _, s := range g.services {
		if err := s.Start(ctx); err != nil {
			stopErr := g.Stop()
			return errors.Join(fmt.Errorf("start %s: %w", s.Name(), err), stopErr)
		}
		g.started = append(g.started, s)
		g.log.Info("service started", "service", s.Name())
	}
	return nil
}

// Stop stops started services in reverse order and joins their errors
func (g *Group) Stop() error {
	var errs []error
	for i := len(g.started) - 1; i >= 0; i-- {
		s := g.started[i]
		if err := s.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.Name(), err))
			continue
		}
		g.log.Info("service stopped", "service", s.Name())
	}
	g.started = nil
	return errors.Join(errs...)
}

// Names lists registered services in start order
func (g *Group) Names() []string {
	names := make([]string, len(g.services))
	for i, s := range g.services {
		names[i] = s.Name()
	}
	return names
}
