package logging

import (
	"maps"
	"slices"
	"time"
)

// Config selects the active sinks and tunes the router's buffering.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	Console          ConsoleConfig
	DropWarnInterval time.Duration
}

// JSONConfig tunes the NDJSON file sink.
type JSONConfig struct {
	FilePath      string
	MaxBatch      int
	FlushInterval time.Duration
}

// ConsoleConfig tunes the human-readable sink.
type ConsoleConfig struct {
	UseColor bool
}

// DefaultConfig enables the console sink with info-level filtering.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:    []string{"console"},
		MinimumSeverity: SeverityInfo,
	}.normalized()
}

// normalized fills buffer sizes and intervals so callers can leave zero
// values in place.
func (c Config) normalized() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 512
	}
	if c.DropWarnInterval <= 0 {
		c.DropWarnInterval = 5 * time.Second
	}
	if c.JSON.MaxBatch <= 0 {
		c.JSON.MaxBatch = 32
	}
	if c.JSON.FlushInterval <= 0 {
		c.JSON.FlushInterval = 2 * time.Second
	}
	return c
}

func (c Config) HasSink(name string) bool {
	return slices.Contains(c.EnabledSinks, name)
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	return maps.Clone(c.Fields)
}
