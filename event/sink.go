package event

import (
	"context"
	"log/slog"
)

// Sink receives published events; Publish must not block the simulation
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(e Event)

func (f SinkFunc) Publish(e Event) {
	f(e)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// Nop discards every event
var Nop Sink = nopSink{}

// OrNop returns s, or Nop when s is nil
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

type multiSink []Sink

func (m multiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

// Multi fans out to each non-nil sink in argument order
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Nop
	case 1:
		return out[0]
	}
	return out
}

// WithLogger logs each event at debug level before forwarding to next
func WithLogger(next Sink, log *slog.Logger) Sink {
	next = OrNop(next)
	if log == nil {
		return next
	}
	return SinkFunc(func(e Event) {
		if log.Enabled(context.Background(), slog.LevelDebug) {
			attrs := make([]any, 0, 2+2*len(e.Fields()))
			attrs = append(attrs, "event", string(e.Type))
			for k, v := range e.Fields() {
				attrs = append(attrs, k, v)
			}
			log.Debug("event published", attrs...)
		}
		next.Publish(e)
	})
}
