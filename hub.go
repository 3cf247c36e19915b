package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"driftfield/server/catalog"
	"driftfield/server/internal/field"
	"driftfield/server/internal/geom"
	"driftfield/server/internal/sim"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging"
	"driftfield/server/logging/lifecycle"
	"driftfield/server/logging/network"
	"driftfield/server/logging/simulation"
)

// Hub owns the shared field engine and the set of connected viewers. Every
// viewer observes the same simulation; the only per-viewer state is the
// heartbeat clock and the hovered project id.
type Hub struct {
	mu          sync.Mutex
	viewers     map[string]*viewerState
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	currentTick atomic.Uint64

	engine   *sim.Engine
	fieldCfg FieldConfig
	projects []catalog.Project

	logger    telemetry.Logger
	publisher logging.Publisher
	metrics   *logging.Metrics
	counters  *telemetryCounters

	// Loop-goroutine state, see handleTick.
	lastEpoch     uint64
	overrunStreak uint64
}

type viewerState struct {
	ID            string
	lastHeartbeat time.Time
	lastRTT       time.Duration
	hover         string
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage serializes writes on the underlying connection and applies the
// shared write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	if s == nil || s.conn == nil {
		return fmt.Errorf("subscriber connection unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// NewHub constructs a hub with the default configuration and no publisher.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig(), nil)
}

// NewHubWithConfig constructs a hub and seeds the field immediately. The
// simulation does not advance until RunSimulation is started.
func NewHubWithConfig(cfg HubConfig, publisher logging.Publisher) *Hub {
	cfg = cfg.normalized()
	h := &Hub{
		viewers:     make(map[string]*viewerState),
		subscribers: make(map[string]*subscriber),
		fieldCfg:    cfg.Field,
		projects:    cfg.Projects,
		logger:      cfg.Logger,
		publisher:   publisher,
		metrics:     cfg.Metrics,
		counters:    newTelemetryCounters(),
	}
	h.engine = sim.NewEngine(sim.Config{
		Seed:          cfg.Field.Seed,
		Specs:         catalog.FieldSpecs(cfg.Projects),
		Frame:         cfg.Field.Frame,
		TickRate:      tickRate,
		ReducedMotion: cfg.Field.ReducedMotion,
		Metrics:       telemetry.WrapMetrics(cfg.Metrics),
		Publisher:     publisher,
	})
	h.engine.Start(time.Now())
	return h
}

// Join registers a new viewer and returns the catalog together with the
// current layout keyframe.
func (h *Hub) Join() joinResponse {
	id := fmt.Sprintf("viewer-%d", h.nextID.Add(1))
	now := time.Now()

	h.mu.Lock()
	h.viewers[id] = &viewerState{ID: id, lastHeartbeat: now}
	total := len(h.viewers)
	projects := h.projects
	h.mu.Unlock()

	lifecycle.ViewerJoined(context.Background(), h.publisher, h.currentTick.Load(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindViewer},
		lifecycle.ViewerPayload{Viewers: total}, nil)
	h.logf("viewer %s joined (%d connected)", id, total)

	return joinResponse{
		Ver:             ProtocolVersion,
		ID:              id,
		Projects:        projects,
		Layout:          h.engine.Layout(),
		HeartbeatMillis: heartbeatInterval.Milliseconds(),
	}
}

// Subscribe attaches a websocket connection to a joined viewer, replacing
// any previous connection under the same id.
func (h *Hub) Subscribe(viewerID string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	if _, ok := h.viewers[viewerID]; !ok {
		h.mu.Unlock()
		return nil, false
	}
	existing := h.subscribers[viewerID]
	sub := &subscriber{conn: conn}
	h.subscribers[viewerID] = sub
	h.mu.Unlock()

	if existing != nil && existing.conn != nil {
		existing.conn.Close()
	}
	return sub, true
}

// Disconnect removes a viewer and closes its connection. Hover state held by
// the viewer clears with it.
func (h *Hub) Disconnect(viewerID, reason string) {
	h.mu.Lock()
	if _, ok := h.viewers[viewerID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.viewers, viewerID)
	sub := h.subscribers[viewerID]
	delete(h.subscribers, viewerID)
	total := len(h.viewers)
	h.mu.Unlock()

	if sub != nil && sub.conn != nil {
		sub.conn.Close()
	}
	lifecycle.ViewerDisconnected(context.Background(), h.publisher, h.currentTick.Load(),
		logging.EntityRef{ID: viewerID, Kind: logging.EntityKindViewer},
		lifecycle.ViewerPayload{Reason: reason, Viewers: total}, nil)
	h.logf("viewer %s disconnected (%s)", viewerID, reason)
}

// UpdateHeartbeat records a heartbeat for the viewer and derives RTT from
// the client timestamp when it is plausible.
func (h *Hub) UpdateHeartbeat(viewerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	viewer, ok := h.viewers[viewerID]
	if !ok {
		return 0, false
	}
	viewer.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		// Reject client clocks that are more than five seconds ahead.
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			viewer.lastRTT = rtt
		}
	}
	return viewer.lastRTT, true
}

// UpdatePointer resolves a pointer position against the field and records
// the hover for this viewer. The returned id is empty when nothing is hit.
func (h *Hub) UpdatePointer(viewerID string, x, y float64, down bool) (string, bool) {
	hover, _ := h.engine.HitTest(geom.Vec2{X: x, Y: y})

	h.mu.Lock()
	viewer, ok := h.viewers[viewerID]
	if !ok {
		h.mu.Unlock()
		return "", false
	}
	viewer.hover = hover
	h.mu.Unlock()

	h.counters.RecordPointer()
	h.metrics.TelemetryAdd("hub_pointer_events", 1)
	if down {
		h.counters.RecordSelection()
		h.metrics.TelemetryAdd("hub_selections", 1)
	}
	return hover, true
}

// UpdateViewport stages a new frame through the debounced resize path.
func (h *Hub) UpdateViewport(viewerID string, width, height float64) bool {
	if !h.viewerExists(viewerID) {
		return false
	}
	h.engine.SetViewport(time.Now(), field.Frame{Width: width, Height: height})
	return true
}

// SetReducedMotion switches the shared field between live and static motion.
func (h *Hub) SetReducedMotion(viewerID string, reduced bool) bool {
	if !h.viewerExists(viewerID) {
		return false
	}
	h.engine.SetReducedMotion(time.Now(), reduced)
	h.mu.Lock()
	h.fieldCfg.ReducedMotion = reduced
	h.mu.Unlock()
	return true
}

// ResetField applies a new seed, frame, or motion mode and reseeds the field
// immediately.
func (h *Hub) ResetField(cfg FieldConfig) FieldConfig {
	cfg = cfg.Normalized()
	h.mu.Lock()
	h.fieldCfg = cfg
	h.mu.Unlock()
	h.engine.Reset(time.Now(), cfg.Seed, cfg.Frame, cfg.ReducedMotion)
	h.logf("field reset (seed=%q frame=%.0fx%.0f reduced=%t)", cfg.Seed, cfg.Frame.Width, cfg.Frame.Height, cfg.ReducedMotion)
	return cfg
}

// CurrentConfig reports the live field configuration, used as the base for
// reset patches.
func (h *Hub) CurrentConfig() FieldConfig {
	h.mu.Lock()
	cfg := h.fieldCfg
	h.mu.Unlock()
	if snap := h.engine.Snapshot(); snap.Frame.Width > 0 && snap.Frame.Height > 0 {
		cfg.Frame = snap.Frame
	}
	return cfg
}

// ProjectsSnapshot returns the catalog currently backing the field.
func (h *Hub) ProjectsSnapshot() []catalog.Project {
	h.mu.Lock()
	defer h.mu.Unlock()
	projects := make([]catalog.Project, len(h.projects))
	copy(projects, h.projects)
	return projects
}

// ReloadProjects swaps the catalog and reseeds so new bodies pick up their
// normalized anchors. Empty catalogs are ignored.
func (h *Hub) ReloadProjects(projects []catalog.Project) {
	if len(projects) == 0 {
		return
	}
	h.mu.Lock()
	h.projects = projects
	h.mu.Unlock()
	h.engine.SwapProjects(time.Now(), catalog.FieldSpecs(projects))
	h.logf("catalog reloaded (%d projects)", len(projects))
}

// RunSimulation advances the field at the tick rate and fans snapshots out
// to subscribers until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	loop := sim.NewLoop(h.engine, h.handleTick)
	loop.Start()
	<-stop
	loop.Stop()
}

// handleTick runs on the loop goroutine; lastEpoch and overrunStreak are
// touched nowhere else.
func (h *Hub) handleTick(result sim.StepResult) {
	started := time.Now()
	h.pruneViewers(result.Now)
	h.currentTick.Store(result.Tick)
	if result.Snapshot.Epoch != h.lastEpoch {
		h.lastEpoch = result.Snapshot.Epoch
		h.broadcastLayout()
	}
	h.broadcastState(result)

	duration := time.Since(started)
	h.counters.RecordTickDuration(duration)
	budget := time.Second / tickRate
	if duration > budget {
		h.overrunStreak++
		// Power-of-two backoff keeps a persistent overrun from flooding the
		// event stream.
		if h.overrunStreak&(h.overrunStreak-1) == 0 {
			simulation.TickBudgetOverrun(context.Background(), h.publisher, result.Tick,
				simulation.TickBudgetOverrunPayload{
					DurationMillis: duration.Milliseconds(),
					BudgetMillis:   budget.Milliseconds(),
					Ratio:          float64(duration) / float64(budget),
					Streak:         h.overrunStreak,
				}, nil)
		}
	} else {
		h.overrunStreak = 0
	}
}

// MarshalLayout encodes the current layout keyframe.
func (h *Hub) MarshalLayout() ([]byte, error) {
	h.mu.Lock()
	projects := h.projects
	h.mu.Unlock()
	return json.Marshal(layoutMessage{
		Ver:        ProtocolVersion,
		Type:       "layout",
		Projects:   projects,
		Layout:     h.engine.Layout(),
		ServerTime: time.Now().UnixMilli(),
	})
}

// RecordTelemetryBroadcast feeds connection-scoped writes, such as the
// keyframe sent on subscribe, into the shared counters.
func (h *Hub) RecordTelemetryBroadcast(bytes int) {
	h.counters.RecordLayoutBroadcast(bytes)
}

// RecordMalformedMessage reports a client message that failed to decode and
// was discarded.
func (h *Hub) RecordMalformedMessage(viewerID string, decodeErr error) {
	h.logf("discarding malformed message from %s: %v", viewerID, decodeErr)
	network.MalformedMessage(context.Background(), h.publisher, h.currentTick.Load(),
		logging.EntityRef{ID: viewerID, Kind: logging.EntityKindViewer},
		network.MalformedMessagePayload{Error: decodeErr.Error()}, nil)
	h.metrics.TelemetryAdd("net_malformed_messages", 1)
}

// DiagnosticsSnapshot lists per-viewer heartbeat health, sorted by id.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsViewer {
	h.mu.Lock()
	defer h.mu.Unlock()
	viewers := make([]diagnosticsViewer, 0, len(h.viewers))
	for _, viewer := range h.viewers {
		viewers = append(viewers, diagnosticsViewer{
			ID:            viewer.ID,
			LastHeartbeat: viewer.lastHeartbeat.UnixMilli(),
			RTTMillis:     viewer.lastRTT.Milliseconds(),
			Hover:         viewer.hover,
		})
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i].ID < viewers[j].ID })
	return viewers
}

// TelemetrySnapshot reports the broadcast counters.
func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.counters.Snapshot()
}

// MetricsSnapshot reports the structured metrics registry.
func (h *Hub) MetricsSnapshot() map[string]uint64 {
	return h.metrics.Snapshot()
}

// FieldStatus summarizes the engine for diagnostics.
func (h *Hub) FieldStatus() fieldStatus {
	snap := h.engine.Snapshot()
	return fieldStatus{
		State:  snap.State,
		Tick:   snap.Tick,
		Epoch:  snap.Epoch,
		Bodies: len(snap.Bodies),
		Frame:  snap.Frame,
	}
}

func (h *Hub) pruneViewers(now time.Time) {
	h.mu.Lock()
	var stale []string
	for id, viewer := range h.viewers {
		if now.Sub(viewer.lastHeartbeat) > disconnectAfter {
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.logf("disconnecting %s due to heartbeat timeout", id)
		h.Disconnect(id, "heartbeat_timeout")
	}
}

func (h *Hub) broadcastLayout() {
	data, err := h.MarshalLayout()
	if err != nil {
		h.logf("failed to marshal layout message: %v", err)
		return
	}
	for id, sub := range h.snapshotSubscribers() {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logf("failed to send layout to %s: %v", id, err)
			h.Disconnect(id, "write_error")
		}
	}
	h.counters.RecordLayoutBroadcast(len(data))
}

func (h *Hub) broadcastState(result sim.StepResult) {
	msg := stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		Tick:       result.Snapshot.Tick,
		Epoch:      result.Snapshot.Epoch,
		State:      result.Snapshot.State,
		Frame:      result.Snapshot.Frame,
		Bodies:     result.Snapshot.Bodies,
		ServerTime: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	hovers := make(map[string]string, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
		if viewer, ok := h.viewers[id]; ok {
			hovers[id] = viewer.hover
		}
	}
	h.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	// Hover is the only per-viewer field, so the frame is marshalled once
	// per distinct hover value and the empty-hover encoding is shared.
	encoded := make(map[string][]byte, 2)
	totalBytes := 0
	for id, sub := range subs {
		hover := hovers[id]
		data, ok := encoded[hover]
		if !ok {
			msg.Hover = hover
			var err error
			data, err = json.Marshal(msg)
			if err != nil {
				h.logf("failed to marshal state message: %v", err)
				return
			}
			encoded[hover] = data
		}
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logf("failed to send update to %s: %v", id, err)
			network.SlowConsumer(context.Background(), h.publisher, result.Tick,
				logging.EntityRef{ID: id, Kind: logging.EntityKindViewer},
				network.SlowConsumerPayload{Error: err.Error()}, nil)
			h.Disconnect(id, "write_error")
			continue
		}
		totalBytes += len(data)
	}
	h.counters.RecordBroadcast(totalBytes, len(msg.Bodies))
}

func (h *Hub) snapshotSubscribers() map[string]*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	return subs
}

func (h *Hub) viewerExists(viewerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.viewers[viewerID]
	return ok
}

func (h *Hub) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
