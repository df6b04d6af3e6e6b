package logger

import "sync"

// Event is a structured failure report: what kind, which component, and why.
type Event struct {
	Kind      string
	Component string
	Op        string
	Message   string
	Err       error
}

// Sink receives error events. Implementations must not block for long.
type Sink interface {
	Emit(Event)
}

// ZapSink writes events as structured error log entries.
type ZapSink struct {
	log *Logger
}

func NewZapSink(log *Logger) *ZapSink {
	if log == nil {
		log = NewNop()
	}
	return &ZapSink{log: log.With("sink", "perception")}
}

func (s *ZapSink) Emit(e Event) {
	s.log.Error(e.Message,
		"kind", e.Kind,
		"component", e.Component,
		"op", e.Op,
		"error", e.Err,
	)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// RecordingSink keeps events in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *RecordingSink) Emit(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
