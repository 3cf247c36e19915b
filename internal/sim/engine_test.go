package sim

import (
	"context"
	"testing"
	"time"

	"driftfield/server/internal/field"
	"driftfield/server/internal/geom"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging"
	"driftfield/server/logging/lifecycle"
)

func testSpecs() []field.Spec {
	return []field.Spec{
		{ID: "alpha", NormX: 0.25, NormY: 0.3, Size: 80, Color: "teal"},
		{ID: "beta", NormX: 0.7, NormY: 0.4, Size: 64, Color: "amber"},
		{ID: "gamma", NormX: 0.5, NormY: 0.6, Size: 72, Color: "rose"},
	}
}

func testConfig() Config {
	return Config{
		Seed:  "driftfield-test",
		Specs: testSpecs(),
		Frame: field.Frame{Width: 1600, Height: 1000},
	}
}

func collectEvents(cfg *Config) *[]logging.Event {
	events := &[]logging.Event{}
	cfg.Publisher = logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		*events = append(*events, event)
	})
	return events
}

func findReseedReason(events []logging.Event) (string, bool) {
	for _, event := range events {
		if event.Type != lifecycle.EventFieldReseeded {
			continue
		}
		payload, ok := event.Payload.(lifecycle.FieldReseededPayload)
		if !ok {
			continue
		}
		return payload.Reason, true
	}
	return "", false
}

func TestStartSeedsField(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)

	if res := e.Advance(base); res.Snapshot.State != StateUninitialized {
		t.Fatalf("expected uninitialized snapshot before Start, got %q", res.Snapshot.State)
	}

	e.Start(base)
	snap := e.Snapshot()
	if snap.State != StateLive {
		t.Fatalf("expected live state after Start, got %q", snap.State)
	}
	if snap.Epoch != 1 {
		t.Fatalf("expected epoch 1, got %d", snap.Epoch)
	}
	if len(snap.Bodies) != 3 {
		t.Fatalf("expected 3 bodies, got %d", len(snap.Bodies))
	}

	e.Start(base.Add(time.Second))
	if got := e.Snapshot().Epoch; got != 1 {
		t.Fatalf("expected second Start to be a no-op, epoch %d", got)
	}
}

func TestAdvanceMovesLiveBodies(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)
	e.Start(base)

	before := e.Snapshot()
	res := e.Advance(base.Add(time.Second / DefaultTickRate))
	if res.ClampedDelta {
		t.Fatalf("expected nominal delta to pass unclamped, multiplier %f", res.Multiplier)
	}
	if res.Tick != 1 {
		t.Fatalf("expected tick 1, got %d", res.Tick)
	}
	// Spin is never zero, so every body rotates each tick.
	if res.Snapshot.Bodies[0].Rotation == before.Bodies[0].Rotation {
		t.Fatalf("expected rotation to advance")
	}
}

func TestAdvanceClampsFrameMultiplier(t *testing.T) {
	cfg := testConfig()
	metrics := &logging.Metrics{}
	cfg.Metrics = telemetry.WrapMetrics(metrics)
	e := NewEngine(cfg)
	base := time.Unix(0, 0)
	e.Start(base)

	res := e.Advance(base.Add(time.Second))
	if !res.ClampedDelta || res.Multiplier != maxFrameMultiplier {
		t.Fatalf("expected stall to clamp at %f, got %f (clamped=%v)", maxFrameMultiplier, res.Multiplier, res.ClampedDelta)
	}

	res = e.Advance(base.Add(time.Second + time.Millisecond))
	if !res.ClampedDelta || res.Multiplier != minFrameMultiplier {
		t.Fatalf("expected burst to clamp at %f, got %f (clamped=%v)", minFrameMultiplier, res.Multiplier, res.ClampedDelta)
	}

	// A non-positive delta falls back to the nominal budget.
	res = e.Advance(base.Add(time.Second + time.Millisecond))
	if res.ClampedDelta {
		t.Fatalf("expected zero delta to pass as nominal, multiplier %f", res.Multiplier)
	}
	if res.Multiplier != 1 {
		t.Fatalf("expected nominal multiplier 1, got %f", res.Multiplier)
	}

	counters := metrics.Snapshot()
	if counters["sim_clamped_deltas"] != 2 {
		t.Fatalf("expected 2 clamped deltas, got %d", counters["sim_clamped_deltas"])
	}
	if counters["sim_ticks"] != 3 {
		t.Fatalf("expected 3 ticks, got %d", counters["sim_ticks"])
	}
	if counters["sim_settle_passes"] == 0 {
		t.Fatalf("expected settle passes to be recorded")
	}
}

func TestViewportDebounceAppliesLatest(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)
	e.Start(base)

	e.SetViewport(base.Add(10*time.Millisecond), field.Frame{Width: 1800, Height: 1000})
	e.SetViewport(base.Add(60*time.Millisecond), field.Frame{Width: 3200, Height: 1000})

	res := e.Advance(base.Add(100 * time.Millisecond))
	if res.Snapshot.Frame.Width != 1600 {
		t.Fatalf("expected debounce to hold the original frame, got %f", res.Snapshot.Frame.Width)
	}

	res = e.Advance(base.Add(60*time.Millisecond + DefaultDebounceWindow))
	if res.Snapshot.Frame.Width != 3200 {
		t.Fatalf("expected latest viewport after the window, got %f", res.Snapshot.Frame.Width)
	}
	if res.Snapshot.Epoch != 1 {
		t.Fatalf("expected width-only change to rescale, not reseed; epoch %d", res.Snapshot.Epoch)
	}
}

func TestStructuralResizeReseeds(t *testing.T) {
	cfg := testConfig()
	events := collectEvents(&cfg)
	e := NewEngine(cfg)
	base := time.Unix(0, 0)
	e.Start(base)

	e.SetViewport(base.Add(time.Millisecond), field.Frame{Width: 1600, Height: 1400})
	res := e.Advance(base.Add(time.Millisecond + DefaultDebounceWindow))
	if res.Snapshot.Epoch != 2 {
		t.Fatalf("expected structural resize to reseed, epoch %d", res.Snapshot.Epoch)
	}
	if res.Snapshot.Frame.Height != 1400 {
		t.Fatalf("expected new frame height 1400, got %f", res.Snapshot.Frame.Height)
	}
	reason, ok := findReseedReason(*events)
	if !ok {
		t.Fatalf("expected a reseed event")
	}
	if reason != lifecycle.ReasonStructuralResize {
		t.Fatalf("expected reason %q, got %q", lifecycle.ReasonStructuralResize, reason)
	}
}

func TestIgnoresDegenerateViewport(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)
	e.Start(base)

	e.SetViewport(base, field.Frame{Width: 0, Height: 900})
	e.SetViewport(base, field.Frame{Width: 1200, Height: -1})
	res := e.Advance(base.Add(time.Second))
	if res.Snapshot.Frame != (field.Frame{Width: 1600, Height: 1000}) {
		t.Fatalf("expected degenerate viewports to be dropped, got %+v", res.Snapshot.Frame)
	}
}

func TestReducedMotionHoldsLayout(t *testing.T) {
	cfg := testConfig()
	cfg.ReducedMotion = true
	events := collectEvents(&cfg)
	e := NewEngine(cfg)
	base := time.Unix(0, 0)
	e.Start(base)

	snap := e.Snapshot()
	if snap.State != StateStatic {
		t.Fatalf("expected static state, got %q", snap.State)
	}

	res := e.Advance(base.Add(time.Second / DefaultTickRate))
	for i := range res.Snapshot.Bodies {
		if res.Snapshot.Bodies[i] != snap.Bodies[i] {
			t.Fatalf("expected static field to hold body %d in place", i)
		}
	}

	e.SetReducedMotion(base.Add(time.Second), false)
	if e.Snapshot().State != StateLive {
		t.Fatalf("expected live state after disabling reduced motion")
	}
	res = e.Advance(base.Add(time.Second + time.Second/DefaultTickRate))
	if res.Snapshot.Bodies[0].Rotation == snap.Bodies[0].Rotation {
		t.Fatalf("expected bodies to drift again once live")
	}

	e.SetReducedMotion(base.Add(2*time.Second), true)
	if e.Snapshot().State != StateStatic {
		t.Fatalf("expected static state after re-enabling reduced motion")
	}

	changes := 0
	for _, event := range *events {
		if event.Type == lifecycle.EventMotionModeChanged {
			changes++
		}
	}
	if changes != 2 {
		t.Fatalf("expected 2 motion mode events, got %d", changes)
	}
}

func TestReseedIsDeterministicForSeed(t *testing.T) {
	cfg := testConfig()
	events := collectEvents(&cfg)
	e := NewEngine(cfg)
	base := time.Unix(0, 0)
	e.Start(base)

	first := e.Snapshot()
	e.Reseed(base, "")
	second := e.Snapshot()
	if second.Epoch != 2 {
		t.Fatalf("expected epoch 2 after reseed, got %d", second.Epoch)
	}
	for i := range second.Bodies {
		if second.Bodies[i] != first.Bodies[i] {
			t.Fatalf("expected identical layout for identical seed, body %d differs", i)
		}
	}
	reason, ok := findReseedReason(*events)
	if !ok || reason != lifecycle.ReasonManual {
		t.Fatalf("expected manual reseed reason, got %q", reason)
	}

	e.SetSeed("another-seed")
	e.Reseed(base, lifecycle.ReasonManual)
	third := e.Snapshot()
	same := true
	for i := range third.Bodies {
		if third.Bodies[i] != first.Bodies[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected a different seed to produce a different layout")
	}
}

func TestSwapProjectsReseeds(t *testing.T) {
	cfg := testConfig()
	events := collectEvents(&cfg)
	e := NewEngine(cfg)
	base := time.Unix(0, 0)
	e.Start(base)

	e.SwapProjects(base, testSpecs()[:2])
	snap := e.Snapshot()
	if len(snap.Bodies) != 2 {
		t.Fatalf("expected 2 bodies after swap, got %d", len(snap.Bodies))
	}
	if snap.Epoch != 2 {
		t.Fatalf("expected epoch 2 after swap, got %d", snap.Epoch)
	}
	reason, ok := findReseedReason(*events)
	if !ok || reason != lifecycle.ReasonCatalogReload {
		t.Fatalf("expected catalog reload reason, got %q", reason)
	}
}

func TestHitTestDelegatesToField(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)

	if _, ok := e.HitTest(geom.Vec2{X: 10, Y: 10}); ok {
		t.Fatalf("expected no hit before Start")
	}

	e.Start(base)
	snap := e.Snapshot()
	target := snap.Bodies[0]
	id, ok := e.HitTest(geom.Vec2{X: target.X, Y: target.Y})
	if !ok || id != target.ID {
		t.Fatalf("expected hit on %q, got %q (ok=%v)", target.ID, id, ok)
	}
	if _, ok := e.HitTest(geom.Vec2{X: -5000, Y: -5000}); ok {
		t.Fatalf("expected miss far outside the frame")
	}
}

func TestLayoutCarriesRenderingData(t *testing.T) {
	e := NewEngine(testConfig())
	base := time.Unix(0, 0)
	e.Start(base)

	layout := e.Layout()
	if layout.TickRate != DefaultTickRate {
		t.Fatalf("expected tick rate %d, got %d", DefaultTickRate, layout.TickRate)
	}
	if layout.Epoch != 1 {
		t.Fatalf("expected epoch 1, got %d", layout.Epoch)
	}
	if layout.Label.Width != 280 || layout.Label.Height != 44 {
		t.Fatalf("expected desktop caption 280x44, got %fx%f", layout.Label.Width, layout.Label.Height)
	}
	if layout.Label.Gap != field.LabelGap {
		t.Fatalf("expected caption gap %f, got %f", field.LabelGap, layout.Label.Gap)
	}
	if len(layout.Bodies) != 3 {
		t.Fatalf("expected 3 body profiles, got %d", len(layout.Bodies))
	}
	for _, profile := range layout.Bodies {
		if len(profile.Silhouette) != 18 {
			t.Fatalf("expected 18 silhouette vertices for %q, got %d", profile.ID, len(profile.Silhouette))
		}
		if profile.Radius <= 0 {
			t.Fatalf("expected positive radius for %q", profile.ID)
		}
	}
}

func TestNilEngineIsSafe(t *testing.T) {
	var e *Engine
	e.Start(time.Unix(0, 0))
	if res := e.Advance(time.Unix(0, 0)); res.Tick != 0 {
		t.Fatalf("expected empty result from nil engine")
	}
	e.SetViewport(time.Unix(0, 0), field.Frame{Width: 100, Height: 100})
	e.SetReducedMotion(time.Unix(0, 0), true)
	e.SetSeed("seed")
	e.Reseed(time.Unix(0, 0), "")
	e.SwapProjects(time.Unix(0, 0), nil)
	if _, ok := e.HitTest(geom.Vec2{}); ok {
		t.Fatalf("expected no hit from nil engine")
	}
	if snap := e.Snapshot(); snap.State != "" {
		t.Fatalf("expected zero snapshot from nil engine")
	}
	if layout := e.Layout(); layout.Seed != "" {
		t.Fatalf("expected zero layout from nil engine")
	}
}
