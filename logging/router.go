package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts time for the router so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Sink consumes routed events. Each sink writes on its own goroutine; a
// failing sink backs off without slowing the others.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

const (
	minSinkQueue   = 32
	maxSinkQueue   = 1024
	initialBackoff = 2 * time.Second
	maxSinkBackoff = 32 * time.Second
)

// Router fans published events out to its sinks through a buffered queue.
// Publish never blocks: when the queue is full the event is counted as
// dropped and a rate-limited warning goes to the fallback logger.
type Router struct {
	cfg      Config
	queue    chan Event
	workers  []*sinkWorker
	clock    Clock
	ambient  map[string]any
	fallback *log.Logger
	stop     context.CancelFunc
	stopped  atomic.Bool
	done     sync.WaitGroup

	published atomic.Uint64
	dropped   atomic.Uint64
	nextWarn  atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64 `json:"eventsTotal"`
	DroppedTotal uint64 `json:"droppedTotal"`
}

// NewRouter builds a router over the given sinks and starts its dispatch
// goroutines. A nil clock falls back to the system clock.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	cfg = cfg.normalized()
	if clock == nil {
		clock = SystemClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:      cfg,
		queue:    make(chan Event, cfg.BufferSize),
		clock:    clock,
		ambient:  cfg.CloneFields(),
		fallback: log.New(os.Stderr, "[logging] ", log.LstdFlags),
		stop:     cancel,
	}

	queueLen := min(max(cfg.BufferSize, minSinkQueue), maxSinkQueue)
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.workers = append(r.workers, &sinkWorker{
			name:     named.Name,
			sink:     named.Sink,
			queue:    make(chan Event, queueLen),
			fallback: r.fallback,
		})
	}

	r.done.Add(1)
	go r.dispatch(ctx)
	for _, worker := range r.workers {
		r.done.Add(1)
		go func(w *sinkWorker) {
			defer r.done.Done()
			w.run()
		}(worker)
	}
	return r, nil
}

// dispatch owns the fan-out. Closing the worker queues here, after the
// final flush, is what lets workers exit their range loops.
func (r *Router) dispatch(ctx context.Context) {
	defer func() {
		for _, worker := range r.workers {
			close(worker.queue)
		}
		r.done.Done()
	}()
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case event := <-r.queue:
			r.deliver(event)
		}
	}
}

func (r *Router) flush() {
	for {
		select {
		case event := <-r.queue:
			r.deliver(event)
		default:
			return
		}
	}
}

func (r *Router) deliver(event Event) {
	if event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.ambient) > 0 {
		event = cloneEvent(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.ambient))
		}
		for k, v := range r.ambient {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	r.published.Add(1)
	for _, worker := range r.workers {
		worker.enqueue(event)
	}
}

// Publish satisfies Publisher. Events without a type are ignored; a closed
// router drops silently.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || r.stopped.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.noteDrop(event)
	}
}

func (r *Router) noteDrop(event Event) {
	r.dropped.Add(1)
	now := time.Now().UnixNano()
	next := r.nextWarn.Load()
	if next != 0 && now < next {
		return
	}
	if r.nextWarn.CompareAndSwap(next, now+r.cfg.DropWarnInterval.Nanoseconds()) {
		r.fallback.Printf("dropping event type=%s tick=%d", event.Type, event.Tick)
	}
}

// Close flushes the queue, stops every worker, and closes the sinks. The
// context bounds how long the flush may take. Closing twice is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}
	r.stop()

	done := make(chan struct{})
	go func() {
		r.done.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, worker := range r.workers {
		if err := worker.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.published.Load(),
		DroppedTotal: r.dropped.Load(),
	}
}

type sinkWorker struct {
	name     string
	sink     Sink
	queue    chan Event
	fallback *log.Logger
	backoff  time.Duration
	retryAt  time.Time
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.queue <- cloneEvent(event):
	default:
		w.fallback.Printf("sink %s backlog full dropping event type=%s", w.name, event.Type)
	}
}

func (w *sinkWorker) run() {
	for event := range w.queue {
		if wait := time.Until(w.retryAt); wait > 0 {
			time.Sleep(wait)
		}
		if err := w.sink.Write(event); err != nil {
			w.noteFailure(err)
			continue
		}
		w.backoff = 0
		w.retryAt = time.Time{}
	}
}

// noteFailure doubles the retry delay up to a cap so a dead sink does not
// spin the worker.
func (w *sinkWorker) noteFailure(err error) {
	if w.backoff == 0 {
		w.backoff = initialBackoff
	} else {
		w.backoff = min(w.backoff*2, maxSinkBackoff)
	}
	w.retryAt = time.Now().Add(w.backoff)
	w.fallback.Printf("sink %s failed: %v (retry in %s)", w.name, err, w.backoff)
}
