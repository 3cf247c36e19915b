// Package observability holds the opt-in debug surfaces of the field server.
package observability

import (
	"os"
	"strconv"

	"driftfield/server/internal/telemetry"
)

// Config toggles debug endpoints that stay off in normal operation.
type Config struct {
	// EnablePprofTrace mounts net/http/pprof handlers under /debug/pprof.
	EnablePprofTrace bool
}

// FromEnv layers environment overrides onto cfg. Values that fail to parse
// are reported and leave the config untouched.
func FromEnv(cfg Config, logger telemetry.Logger) Config {
	if raw := os.Getenv("DRIFTFIELD_PPROF"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			if logger != nil {
				logger.Printf("invalid DRIFTFIELD_PPROF=%q: %v", raw, err)
			}
			return cfg
		}
		cfg.EnablePprofTrace = value
	}
	return cfg
}
