package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"driftfield/server/internal/telemetry"
)

var idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Document is the on-disk catalog shape. It is exported so the schema
// generator can reflect over the contract shared with authors.
type Document struct {
	Projects []Project `yaml:"projects" json:"projects" jsonschema:"title=Projects,description=Portfolio entries rendered as asteroids.,required"`
}

// DefaultPaths returns the canonical catalog locations relative to the
// server module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "projects.yaml"),
		filepath.Join("..", "config", "projects.yaml"),
	}
}

// ResolvePath returns the first of paths that exists on disk, so callers
// can point a watcher at the same file Load would read.
func ResolvePath(paths ...string) (string, bool) {
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, err := os.Stat(trimmed); err == nil {
			return trimmed, true
		}
	}
	return "", false
}

// Load reads the first catalog file that exists among paths and parses it.
// It returns fs.ErrNotExist when none of the paths resolve, so callers can
// fall back to the built-in set.
func Load(logger telemetry.Logger, paths ...string) ([]Project, error) {
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		data, err := os.ReadFile(trimmed)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("catalog: failed loading %s: %w", trimmed, err)
		}
		return Parse(logger, data, trimmed)
	}
	return nil, fmt.Errorf("catalog: no catalog file found: %w", fs.ErrNotExist)
}

// Parse decodes a YAML catalog and validates each record. Records with a
// bad id, out-of-range coordinates, or a non-positive size are skipped with
// a warning; an unknown palette color falls back to the default. A catalog
// with no valid records is an error.
func Parse(logger telemetry.Logger, data []byte, source string) ([]Project, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: failed parsing %s: %w", source, err)
	}

	projects := make([]Project, 0, len(doc.Projects))
	seen := make(map[string]struct{}, len(doc.Projects))
	for i, p := range doc.Projects {
		p.ID = strings.TrimSpace(p.ID)
		if !idPattern.MatchString(p.ID) {
			logf(logger, "[catalog] skipping entry %d in %s: invalid id %q", i, source, p.ID)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			logf(logger, "[catalog] skipping duplicate id %q in %s", p.ID, source)
			continue
		}
		if p.Asteroid.X < 0 || p.Asteroid.X > 1 || p.Asteroid.Y < 0 || p.Asteroid.Y > 1 {
			logf(logger, "[catalog] skipping %q in %s: coordinates (%f, %f) outside [0,1]", p.ID, source, p.Asteroid.X, p.Asteroid.Y)
			continue
		}
		if p.Asteroid.Size <= 0 {
			logf(logger, "[catalog] skipping %q in %s: non-positive size %f", p.ID, source, p.Asteroid.Size)
			continue
		}
		if p.Asteroid.Color == "" {
			p.Asteroid.Color = DefaultColor
		} else if !ValidColor(p.Asteroid.Color) {
			logf(logger, "[catalog] %q in %s: unknown color %q, using %q", p.ID, source, p.Asteroid.Color, DefaultColor)
			p.Asteroid.Color = DefaultColor
		}
		seen[p.ID] = struct{}{}
		projects = append(projects, p)
	}

	if len(projects) == 0 {
		return nil, fmt.Errorf("catalog: no valid projects in %s", source)
	}
	return projects, nil
}

func logf(logger telemetry.Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}
