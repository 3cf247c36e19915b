package sim

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop drives an engine at its configured tick rate on a dedicated
// goroutine. Each step result is handed to the onTick callback in order.
type Loop struct {
	engine  *Engine
	onTick  func(StepResult)
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
	once    sync.Once
}

// NewLoop pairs an engine with a per-tick callback. The callback may be nil.
func NewLoop(engine *Engine, onTick func(StepResult)) *Loop {
	return &Loop{
		engine: engine,
		onTick: onTick,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start seeds the engine and launches the tick loop. Calling Start again is
// a no-op.
func (l *Loop) Start() {
	if l == nil || l.engine == nil {
		return
	}
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	l.engine.Start(time.Now())
	go l.run()
}

// Stop tears the loop down and waits for the final tick to finish. Stop is
// idempotent; the engine itself stays queryable afterwards.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() { close(l.stop) })
	if l.started.Load() {
		<-l.done
	}
}

func (l *Loop) run() {
	defer close(l.done)

	interval := time.Second / time.Duration(l.engine.TickRate())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			result := l.engine.Advance(now)
			if l.onTick != nil {
				l.onTick(result)
			}
		}
	}
}
