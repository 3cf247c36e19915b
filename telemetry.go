package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent          atomic.Uint64
	bodiesSent         atomic.Uint64
	tickDurationMillis atomic.Int64
	lastBroadcastBytes atomic.Uint64
	lastBroadcastBody  atomic.Uint64
	stateBroadcasts    atomic.Uint64
	layoutBroadcasts   atomic.Uint64
	pointerEvents      atomic.Uint64
	selections         atomic.Uint64
	debug              bool
}

type telemetrySnapshot struct {
	BytesSent        uint64 `json:"bytesSent"`
	BodiesSent       uint64 `json:"bodiesSent"`
	TickDuration     int64  `json:"tickDurationMillis"`
	StateBroadcasts  uint64 `json:"stateBroadcasts"`
	LayoutBroadcasts uint64 `json:"layoutBroadcasts"`
	PointerEvents    uint64 `json:"pointerEvents"`
	Selections       uint64 `json:"selections"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, bodies int) {
	if bytes < 0 {
		bytes = 0
	}
	if bodies < 0 {
		bodies = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.bodiesSent.Add(uint64(bodies))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastBody.Store(uint64(bodies))
	t.stateBroadcasts.Add(1)
}

func (t *telemetryCounters) RecordLayoutBroadcast(bytes int) {
	if bytes < 0 {
		bytes = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.layoutBroadcasts.Add(1)
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d bodies=%d totalBodies=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.lastBroadcastBody.Load(),
			t.bodiesSent.Load(),
		)
	}
}

func (t *telemetryCounters) RecordPointer() {
	t.pointerEvents.Add(1)
}

func (t *telemetryCounters) RecordSelection() {
	t.selections.Add(1)
}

func (t *telemetryCounters) DebugEnabled() bool {
	return t.debug
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:        t.bytesSent.Load(),
		BodiesSent:       t.bodiesSent.Load(),
		TickDuration:     t.tickDurationMillis.Load(),
		StateBroadcasts:  t.stateBroadcasts.Load(),
		LayoutBroadcasts: t.layoutBroadcasts.Load(),
		PointerEvents:    t.pointerEvents.Load(),
		Selections:       t.selections.Load(),
	}
}
