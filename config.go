package server

import (
	"log"
	"strings"

	"driftfield/server/catalog"
	"driftfield/server/internal/field"
	"driftfield/server/internal/sim"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging"
)

// FieldConfig captures the field settings a reset can change: the seed the
// layout derives from, the frame bodies are laid out in, and whether the
// field holds still.
type FieldConfig struct {
	Seed          string      `json:"seed"`
	Frame         field.Frame `json:"frame"`
	ReducedMotion bool        `json:"reducedMotion"`
}

// Normalized trims the seed and substitutes defaults for missing values.
func (cfg FieldConfig) Normalized() FieldConfig {
	cfg.Seed = strings.TrimSpace(cfg.Seed)
	if cfg.Seed == "" {
		cfg.Seed = field.DefaultSeed
	}
	if cfg.Frame.Width <= 0 || cfg.Frame.Height <= 0 {
		cfg.Frame = sim.DefaultFrame
	}
	return cfg
}

// DefaultFieldConfig returns the boot configuration for the field.
func DefaultFieldConfig() FieldConfig {
	return FieldConfig{Seed: field.DefaultSeed, Frame: sim.DefaultFrame}
}

// HubConfig bundles the dependencies a hub needs at construction.
type HubConfig struct {
	Field    FieldConfig
	Projects []catalog.Project
	Logger   telemetry.Logger
	Metrics  *logging.Metrics
}

// DefaultHubConfig returns a config seeded with the built-in catalog.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Field:    DefaultFieldConfig(),
		Projects: catalog.Default(),
	}
}

func (cfg HubConfig) normalized() HubConfig {
	cfg.Field = cfg.Field.Normalized()
	if len(cfg.Projects) == 0 {
		cfg.Projects = catalog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(log.Default())
	}
	if cfg.Metrics == nil {
		cfg.Metrics = logging.NewMetrics()
	}
	return cfg
}
