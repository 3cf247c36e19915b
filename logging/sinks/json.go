package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"driftfield/server/logging"
)

// JSON emits newline-delimited structured events. Writes are buffered;
// the batch cap and the periodic flush together bound how stale the file
// can get under steady traffic.
type JSON struct {
	mu      sync.Mutex
	writer  *bufio.Writer
	encoder *json.Encoder
	cfg     logging.JSONConfig
	pending int
	stop    chan struct{}
	once    sync.Once
}

// jsonEvent fixes the NDJSON field layout; empty fields stay off the wire.
type jsonEvent struct {
	Type     logging.EventType   `json:"type"`
	Tick     uint64              `json:"tick"`
	Time     string              `json:"time"`
	Severity string              `json:"severity"`
	Category string              `json:"category,omitempty"`
	Actor    logging.EntityRef   `json:"actor"`
	Targets  []logging.EntityRef `json:"targets,omitempty"`
	Payload  any                 `json:"payload,omitempty"`
	Extra    map[string]any      `json:"extra,omitempty"`
}

// NewJSON constructs a JSON sink writing to the provided io.Writer. A
// non-positive flush interval flushes after every event instead.
func NewJSON(w io.Writer, cfg logging.JSONConfig) *JSON {
	if w == nil {
		w = io.Discard
	}
	buf := bufio.NewWriter(w)
	sink := &JSON{
		writer:  buf,
		encoder: json.NewEncoder(buf),
		cfg:     cfg,
		stop:    make(chan struct{}),
	}
	if cfg.FlushInterval > 0 {
		go sink.flushLoop(cfg.FlushInterval)
	}
	return sink
}

// Write satisfies logging.Sink.
func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wire := jsonEvent{
		Type:     event.Type,
		Tick:     event.Tick,
		Time:     event.Time.Format(time.RFC3339Nano),
		Severity: event.Severity.String(),
		Category: event.Category,
		Actor:    event.Actor,
		Targets:  event.Targets,
		Payload:  event.Payload,
		Extra:    event.Extra,
	}
	if err := s.encoder.Encode(wire); err != nil {
		return err
	}
	s.pending++
	if s.cfg.FlushInterval <= 0 || s.pending >= s.cfg.MaxBatch {
		return s.flushLocked()
	}
	return nil
}

// Close stops the flush loop and drains the buffer.
func (s *JSON) Close(context.Context) error {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *JSON) flushLocked() error {
	s.pending = 0
	return s.writer.Flush()
}

func (s *JSON) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.flushLocked()
			s.mu.Unlock()
		}
	}
}
