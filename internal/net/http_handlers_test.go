package net

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"driftfield/server"
	"driftfield/server/catalog"
	"driftfield/server/internal/observability"
	"driftfield/server/internal/sim"
)

func TestHTTPHealthReportsOK(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestHTTPJoinReturnsCatalogAndLayout(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/join", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode join payload: %v", err)
	}

	if ver, ok := payload["ver"].(float64); !ok || int(ver) != server.ProtocolVersion {
		t.Fatalf("expected protocol version %d, got %v", server.ProtocolVersion, payload["ver"])
	}
	if id, ok := payload["id"].(string); !ok || id == "" {
		t.Fatalf("expected non-empty viewer id, got %v", payload["id"])
	}
	if millis, ok := payload["heartbeatMillis"].(float64); !ok || int64(millis) != server.HeartbeatInterval().Milliseconds() {
		t.Fatalf("expected heartbeatMillis %d, got %v", server.HeartbeatInterval().Milliseconds(), payload["heartbeatMillis"])
	}

	projects, ok := payload["projects"].([]any)
	if !ok || len(projects) != len(catalog.Default()) {
		t.Fatalf("expected %d projects, got %v", len(catalog.Default()), payload["projects"])
	}

	layout, ok := payload["layout"].(map[string]any)
	if !ok {
		t.Fatalf("expected layout object, got %T", payload["layout"])
	}
	bodies, ok := layout["bodies"].([]any)
	if !ok || len(bodies) != len(projects) {
		t.Fatalf("expected one body per project, got %d bodies for %d projects", len(bodies), len(projects))
	}
	if seed, ok := layout["seed"].(string); !ok || seed == "" {
		t.Fatalf("expected non-empty layout seed, got %v", layout["seed"])
	}
}

func TestHTTPJoinRejectsWrongMethod(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/join", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 Method Not Allowed, got %d", resp.Code)
	}
}

func TestHTTPProjectsListsCatalog(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode projects payload: %v", err)
	}

	projects, ok := payload["projects"].([]any)
	if !ok || len(projects) != len(catalog.Default()) {
		t.Fatalf("expected %d projects, got %v", len(catalog.Default()), payload["projects"])
	}
	first, ok := projects[0].(map[string]any)
	if !ok {
		t.Fatalf("expected project to decode as object, got %T", projects[0])
	}
	if id, ok := first["id"].(string); !ok || id == "" {
		t.Fatalf("expected project id, got %v", first["id"])
	}
	if _, ok := first["asteroid"].(map[string]any); !ok {
		t.Fatalf("expected asteroid placement in project, got %v", first["asteroid"])
	}
}

func TestHTTPProjectsRejectsWrongMethod(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/projects", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 Method Not Allowed, got %d", resp.Code)
	}
}

func TestHTTPFieldResetPatchesCurrentConfig(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/field/reset", bytes.NewBufferString(`{"seed":"aurora"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload struct {
		Status string `json:"status"`
		Config struct {
			Seed  string `json:"seed"`
			Frame struct {
				Width  float64 `json:"width"`
				Height float64 `json:"height"`
			} `json:"frame"`
			ReducedMotion bool `json:"reducedMotion"`
		} `json:"config"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode reset payload: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("expected status ok, got %q", payload.Status)
	}
	if payload.Config.Seed != "aurora" {
		t.Fatalf("expected seed %q, got %q", "aurora", payload.Config.Seed)
	}
	// Fields left out of the request keep their current values.
	if payload.Config.Frame.Width != sim.DefaultFrame.Width || payload.Config.Frame.Height != sim.DefaultFrame.Height {
		t.Fatalf("expected untouched frame %+v, got %+v", sim.DefaultFrame, payload.Config.Frame)
	}

	req = httptest.NewRequest(http.MethodPost, "/field/reset", bytes.NewBufferString(`{"width":900,"height":640}`))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode reset payload: %v", err)
	}
	if payload.Config.Seed != "aurora" {
		t.Fatalf("expected earlier seed to persist, got %q", payload.Config.Seed)
	}
	if payload.Config.Frame.Width != 900 || payload.Config.Frame.Height != 640 {
		t.Fatalf("expected frame 900x640, got %+v", payload.Config.Frame)
	}

	if got := hub.CurrentConfig(); got.Seed != "aurora" || got.Frame.Width != 900 {
		t.Fatalf("expected hub config to reflect resets, got %+v", got)
	}
}

func TestHTTPFieldResetRejectsInvalidPayload(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/field/reset", bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 Bad Request, got %d", resp.Code)
	}
}

func TestHTTPFieldResetRejectsWrongMethod(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/field/reset", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 Method Not Allowed, got %d", resp.Code)
	}
}

func TestHTTPDiagnosticsReportsFieldAndViewers(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})

	joinReq := httptest.NewRequest(http.MethodPost, "/join", nil)
	joinResp := httptest.NewRecorder()
	handler.ServeHTTP(joinResp, joinReq)

	var join struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(joinResp.Body.Bytes(), &join); err != nil {
		t.Fatalf("failed to decode join payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}

	if status, ok := payload["status"].(string); !ok || status != "ok" {
		t.Fatalf("expected status ok, got %v", payload["status"])
	}
	if rate, ok := payload["tickRate"].(float64); !ok || int(rate) != server.TickRate() {
		t.Fatalf("expected tickRate %d, got %v", server.TickRate(), payload["tickRate"])
	}

	field, ok := payload["field"].(map[string]any)
	if !ok {
		t.Fatalf("expected field status object, got %T", payload["field"])
	}
	if state, ok := field["state"].(string); !ok || state != string(sim.StateLive) {
		t.Fatalf("expected live field, got %v", field["state"])
	}
	if bodies, ok := field["bodies"].(float64); !ok || int(bodies) != len(catalog.Default()) {
		t.Fatalf("expected %d bodies, got %v", len(catalog.Default()), field["bodies"])
	}

	viewers, ok := payload["viewers"].([]any)
	if !ok || len(viewers) != 1 {
		t.Fatalf("expected one viewer, got %v", payload["viewers"])
	}
	viewer, ok := viewers[0].(map[string]any)
	if !ok {
		t.Fatalf("expected viewer to decode as object, got %T", viewers[0])
	}
	if id, ok := viewer["id"].(string); !ok || id != join.ID {
		t.Fatalf("expected viewer id %q, got %v", join.ID, viewer["id"])
	}

	if _, ok := payload["telemetry"].(map[string]any); !ok {
		t.Fatalf("expected telemetry object, got %T", payload["telemetry"])
	}
	if _, ok := payload["counters"].(map[string]any); !ok {
		t.Fatalf("expected counters object, got %T", payload["counters"])
	}
}

func TestHTTPPprofFollowsObservabilityConfig(t *testing.T) {
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), nil)

	handler := NewHTTPHandler(hub, HTTPHandlerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected pprof to be disabled by default, got %d", resp.Code)
	}

	handler = NewHTTPHandler(hub, HTTPHandlerConfig{
		Observability: observability.Config{EnablePprofTrace: true},
	})
	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pprof index when enabled, got %d", resp.Code)
	}
}
