// Package events defines the lifecycle notifications emitted by the
// cycle loop. Emission is fire and forget: a sink must never block or
// fail the cycle that produced the event.
package events

import (
	"time"

	"github.com/rs/zerolog"
)

// EventType represents the type of event emitted during a cycle.
type EventType string

const (
	// EventTypeCycleStarting indicates a scheduled slot fired and a cycle began
	EventTypeCycleStarting EventType = "cycle_starting"
	// EventTypeAnalyzing indicates repository scanning and target selection started
	EventTypeAnalyzing EventType = "analyzing"
	// EventTypeGenerating indicates documentation generation started for a target
	EventTypeGenerating EventType = "generating"
	// EventTypeDocumentationCommitted indicates a cycle produced a commit
	EventTypeDocumentationCommitted EventType = "documentation_committed"
	// EventTypeCycleSkipped indicates a cycle ended with no eligible target
	EventTypeCycleSkipped EventType = "cycle_skipped"
	// EventTypeCycleFailed indicates a cycle failed after selection
	EventTypeCycleFailed EventType = "cycle_failed"
	// EventTypeNextCycle announces when the next slot will fire
	EventTypeNextCycle EventType = "next_cycle"
	// EventTypeScheduleGenerated indicates a new day's slots were persisted
	EventTypeScheduleGenerated EventType = "schedule_generated"
)

// Event is a single lifecycle notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]any
}

// New builds an event stamped with the current time.
func New(typ EventType, data map[string]any) Event {
	return Event{Type: typ, Timestamp: time.Now().UTC(), Data: data}
}

// Sink receives events. Implementations must be safe for concurrent use
// and must not block.
type Sink interface {
	Emit(ev Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// LoggerSink writes events as structured log lines.
type LoggerSink struct {
	log *zerolog.Logger
}

// NewLoggerSink creates a sink that logs every event at info level.
func NewLoggerSink(log *zerolog.Logger) *LoggerSink {
	return &LoggerSink{log: log}
}

// Emit implements Sink.
func (s *LoggerSink) Emit(ev Event) {
	e := s.log.Info().Str("event", string(ev.Type)).Time("at", ev.Timestamp)
	for k, v := range ev.Data {
		e = e.Interface(k, v)
	}
	e.Msg("cycle event")
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
