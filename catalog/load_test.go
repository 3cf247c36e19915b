package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"driftfield/server/internal/telemetry"
)

func captureLog(lines *[]string) telemetry.Logger {
	return telemetry.LoggerFunc(func(format string, args ...any) {
		*lines = append(*lines, fmt.Sprintf(format, args...))
	})
}

func TestParseValidCatalog(t *testing.T) {
	data := []byte(`
projects:
  - id: relay-queue
    name: Relay Queue
    tagline: Job delivery over Postgres
    tech: [Go, PostgreSQL]
    links:
      github: https://github.com/example/relay-queue
    asteroid:
      x: 0.2
      y: 0.3
      size: 80
      color: teal
  - id: glasshouse
    name: Glasshouse
    asteroid:
      x: 0.6
      y: 0.5
      size: 64
`)
	projects, err := Parse(nil, data, "test.yaml")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].Links.GitHub != "https://github.com/example/relay-queue" {
		t.Fatalf("expected github link, got %q", projects[0].Links.GitHub)
	}
	if len(projects[0].Tech) != 2 {
		t.Fatalf("expected 2 tech entries, got %d", len(projects[0].Tech))
	}
	if projects[1].Asteroid.Color != DefaultColor {
		t.Fatalf("expected missing color to default to %q, got %q", DefaultColor, projects[1].Asteroid.Color)
	}
}

func TestParseSkipsInvalidRecords(t *testing.T) {
	data := []byte(`
projects:
  - id: Bad_ID
    name: Broken
    asteroid: {x: 0.5, y: 0.5, size: 60}
  - id: keeper
    name: Keeper
    asteroid: {x: 0.4, y: 0.2, size: 72}
  - id: keeper
    name: Duplicate
    asteroid: {x: 0.1, y: 0.1, size: 40}
  - id: out-of-range
    name: Out Of Range
    asteroid: {x: 1.4, y: 0.5, size: 60}
  - id: flat
    name: Flat
    asteroid: {x: 0.5, y: 0.5, size: 0}
`)
	var lines []string
	projects, err := Parse(captureLog(&lines), data, "test.yaml")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 surviving project, got %d", len(projects))
	}
	if projects[0].ID != "keeper" {
		t.Fatalf("expected keeper to survive, got %q", projects[0].ID)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(lines), lines)
	}
}

func TestParseUnknownColorFallsBack(t *testing.T) {
	data := []byte(`
projects:
  - id: odd-color
    name: Odd Color
    asteroid: {x: 0.5, y: 0.5, size: 60, color: chartreuse}
`)
	var lines []string
	projects, err := Parse(captureLog(&lines), data, "test.yaml")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if projects[0].Asteroid.Color != DefaultColor {
		t.Fatalf("expected fallback color %q, got %q", DefaultColor, projects[0].Asteroid.Color)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "unknown color") {
		t.Fatalf("expected an unknown color warning, got %v", lines)
	}
}

func TestParseRejectsEmptyCatalog(t *testing.T) {
	if _, err := Parse(nil, []byte("projects: []\n"), "test.yaml"); err == nil {
		t.Fatalf("expected empty catalog to fail")
	}
	data := []byte(`
projects:
  - id: NOPE
    name: All Invalid
    asteroid: {x: 0.5, y: 0.5, size: 60}
`)
	if _, err := Parse(nil, data, "test.yaml"); err == nil {
		t.Fatalf("expected all-invalid catalog to fail")
	}
}

func TestLoadReadsFirstExistingPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	data := []byte(`
projects:
  - id: solo
    name: Solo
    asteroid: {x: 0.5, y: 0.5, size: 60}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	projects, err := Load(nil, filepath.Join(dir, "missing.yaml"), path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "solo" {
		t.Fatalf("unexpected projects %+v", projects)
	}

	if _, err := Load(nil, filepath.Join(dir, "missing.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist for missing catalogs, got %v", err)
	}
}

func TestResolvePathSkipsBlankAndMissingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	if err := os.WriteFile(path, []byte("projects: []\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	resolved, ok := ResolvePath("", "  ", filepath.Join(dir, "missing.yaml"), path)
	if !ok || resolved != path {
		t.Fatalf("expected %q, got %q (ok=%t)", path, resolved, ok)
	}

	if resolved, ok := ResolvePath("", filepath.Join(dir, "missing.yaml")); ok {
		t.Fatalf("expected no match, got %q", resolved)
	}
}

func TestDefaultProjectsAreValid(t *testing.T) {
	projects := Default()
	if len(projects) == 0 {
		t.Fatalf("expected a non-empty default set")
	}
	seen := make(map[string]struct{})
	for _, p := range projects {
		if !idPattern.MatchString(p.ID) {
			t.Fatalf("default project id %q fails the id pattern", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			t.Fatalf("duplicate default id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Asteroid.X < 0 || p.Asteroid.X > 1 || p.Asteroid.Y < 0 || p.Asteroid.Y > 1 {
			t.Fatalf("default project %q has out-of-range coordinates", p.ID)
		}
		if p.Asteroid.Size <= 0 {
			t.Fatalf("default project %q has non-positive size", p.ID)
		}
		if !ValidColor(p.Asteroid.Color) {
			t.Fatalf("default project %q has unknown color %q", p.ID, p.Asteroid.Color)
		}
	}
}

func TestFieldSpecsMapping(t *testing.T) {
	projects := []Project{{
		ID:       "mapped",
		Name:     "Mapped",
		Asteroid: Asteroid{X: 0.25, Y: 0.75, Size: 90, Color: "amber"},
	}}
	specs := FieldSpecs(projects)
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	spec := specs[0]
	if spec.ID != "mapped" || spec.NormX != 0.25 || spec.NormY != 0.75 || spec.Size != 90 || spec.Color != "amber" {
		t.Fatalf("unexpected spec %+v", spec)
	}
}

func TestWatcherReportsCatalogWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	if err := os.WriteFile(path, []byte("projects: []\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("projects: []\n# touched\n"), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}

	select {
	case name := <-w.Events:
		if filepath.Clean(name) != filepath.Clean(path) {
			t.Fatalf("expected event for %s, got %s", path, name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a change event before the timeout")
	}
}
