package event

import (
	"sync"

	"go.uber.org/zap"
)

// LogSink writes every event to a structured logger at debug level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink backed by the given logger.
//
// Precondition: logger must not be nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the event with its populated fields.
func (s *LogSink) Emit(e Event) {
	fields := []zap.Field{zap.String("type", string(e.Type))}
	if e.Actor != "" {
		fields = append(fields, zap.String("actor", e.Actor))
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Weapon != "" {
		fields = append(fields, zap.String("weapon", e.Weapon))
	}
	if e.Status != "" {
		fields = append(fields, zap.String("status", e.Status))
	}
	if e.Item != "" {
		fields = append(fields, zap.String("item", e.Item))
	}
	if e.Roll != 0 {
		fields = append(fields, zap.Int("roll", e.Roll))
	}
	if e.Accuracy != 0 {
		fields = append(fields, zap.Int("accuracy", e.Accuracy))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Int("amount", e.Amount))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	s.logger.Debug("combat event", fields...)
}

// Recorder is a Sink that retains every event it receives, in order. Safe
// for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends e to the recorded stream.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded stream.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns just the recorded event types, in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
