package passportr

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent records one session lifecycle step. StoreID correlates every
// event of a single store; Surface is the label set with WithSurface.
type AuditEvent struct {
	EventID   string            `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	StoreID   string            `json:"store_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Surface   string            `json:"surface,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine. Emit must not
// call back into the engine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a reader over a buffered channel, optionally
// keeping only the listed event types.
type ChannelSink struct {
	events chan AuditEvent
	only   map[string]struct{}
}

// NewChannelSink returns a sink that holds the dispatcher until the event is
// read from Events or the emit context ends. With no eventTypes every event
// is delivered.
func NewChannelSink(buffer int, eventTypes ...string) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	s := &ChannelSink{events: make(chan AuditEvent, buffer)}
	if len(eventTypes) > 0 {
		s.only = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			s.only[t] = struct{}{}
		}
	}
	return s
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	if s.only != nil {
		if _, ok := s.only[event.EventType]; !ok {
			return
		}
	}
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events is the receive side; it is never closed.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink writes one JSON document per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
