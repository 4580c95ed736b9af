package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrSinkClosed is returned when emitting to a closed sink.
var ErrSinkClosed = errors.New("stream sink closed")

// Sink receives stream events in order. Close is called exactly once when
// the stream ends, successfully or not.
type Sink interface {
	Emit(Event) error
	Close() error
}

// NDJSONSink writes each event as one JSON line and flushes it immediately
// when the writer supports http.Flusher.
type NDJSONSink struct {
	w       io.Writer
	flusher http.Flusher
	enc     *json.Encoder
	closed  bool
}

// NewNDJSONSink creates a sink writing to w.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &NDJSONSink{w: w, flusher: flusher, enc: enc}
}

// Emit implements Sink.
func (s *NDJSONSink) Emit(ev Event) error {
	if s.closed {
		return ErrSinkClosed
	}
	// Encode appends the newline terminator.
	if err := s.enc.Encode(ev); err != nil {
		return fmt.Errorf("failed to write %s event: %w", ev.Type, err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close implements Sink. It does not close the underlying writer.
func (s *NDJSONSink) Close() error {
	s.closed = true
	return nil
}

// MemorySink collects events in memory.
type MemorySink struct {
	// FailAfter makes Emit fail once this many events were accepted
	// (0 = never).
	FailAfter int

	mu     sync.Mutex
	events []Event
	closed int
}

// Emit implements Sink.
func (s *MemorySink) Emit(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 {
		return ErrSinkClosed
	}
	if s.FailAfter > 0 && len(s.events) >= s.FailAfter {
		return errors.New("memory sink: write failed")
	}
	s.events = append(s.events, ev)
	return nil
}

// Close implements Sink.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

// Events returns a copy of the collected events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Types returns the type of every collected event, in order.
func (s *MemorySink) Types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

// CloseCount reports how many times Close was called.
func (s *MemorySink) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
