// Package telemetry defines the narrow logging and metrics interfaces inner
// packages depend on, so the simulation never imports the logging router
// directly.
package telemetry

import (
	"log"

	"driftfield/server/logging"
)

// Logger exposes the printf-style logging inner components need.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface. A nil func drops
// everything.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	if logger == nil {
		return LoggerFunc(nil)
	}
	return LoggerFunc(logger.Printf)
}

// Metrics exposes the counter surface inner components record into.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts the logging metrics registry into the Metrics
// interface. The registry tolerates a nil receiver.
func WrapMetrics(registry *logging.Metrics) Metrics {
	return registryMetrics{registry: registry}
}

type registryMetrics struct {
	registry *logging.Metrics
}

func (m registryMetrics) Add(key string, delta uint64) {
	m.registry.TelemetryAdd(key, delta)
}

func (m registryMetrics) Store(key string, value uint64) {
	m.registry.TelemetryStore(key, value)
}
