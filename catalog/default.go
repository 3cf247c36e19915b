package catalog

// Default returns the built-in project set used when no catalog file is
// configured. The placements are hand-tuned to spread across the field.
func Default() []Project {
	return []Project{
		{
			ID:      "relay-queue",
			Name:    "Relay Queue",
			Tagline: "At-least-once job delivery over plain Postgres",
			Tech:    []string{"Go", "PostgreSQL"},
			Links:   Links{GitHub: "https://github.com/example/relay-queue"},
			Asteroid: Asteroid{
				X:     0.18,
				Y:     0.30,
				Size:  88,
				Color: "teal",
			},
		},
		{
			ID:      "glasshouse",
			Name:    "Glasshouse",
			Tagline: "Greenhouse telemetry on a solar-powered ESP32",
			Tech:    []string{"C", "MQTT", "Grafana"},
			Asteroid: Asteroid{
				X:     0.42,
				Y:     0.18,
				Size:  64,
				Color: "amber",
			},
		},
		{
			ID:      "inkwell",
			Name:    "Inkwell",
			Tagline: "A distraction-free writing room for the terminal",
			Tech:    []string{"Go", "tcell"},
			Links:   Links{GitHub: "https://github.com/example/inkwell"},
			Asteroid: Asteroid{
				X:     0.68,
				Y:     0.26,
				Size:  72,
				Color: "violet",
			},
		},
		{
			ID:      "tidepool",
			Name:    "Tidepool",
			Tagline: "Shoreline sensor buoys with a live map",
			Tech:    []string{"TypeScript", "WebSockets"},
			Links:   Links{Demo: "https://tidepool.example.com"},
			Asteroid: Asteroid{
				X:     0.30,
				Y:     0.58,
				Size:  96,
				Color: "slate",
			},
		},
		{
			ID:      "chorus",
			Name:    "Chorus",
			Tagline: "Multi-room audio sync for mismatched speakers",
			Tech:    []string{"Go", "Opus"},
			Asteroid: Asteroid{
				X:     0.56,
				Y:     0.52,
				Size:  60,
				Color: "rose",
			},
		},
		{
			ID:      "quarry",
			Name:    "Quarry",
			Tagline: "Static site search that ships as one binary",
			Tech:    []string{"Go", "Wasm"},
			Links:   Links{GitHub: "https://github.com/example/quarry"},
			Asteroid: Asteroid{
				X:     0.82,
				Y:     0.48,
				Size:  76,
				Color: "copper",
			},
		},
	}
}
