// Package app wires the field server together: logging router, project
// catalog, hub, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	server "driftfield/server"
	"driftfield/server/catalog"
	servernet "driftfield/server/internal/net"
	"driftfield/server/internal/observability"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging"
	loggingSinks "driftfield/server/logging/sinks"
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	if raw := os.Getenv("DRIFTFIELD_LOG_SINKS"); raw != "" {
		names := strings.Split(raw, ",")
		logConfig.EnabledSinks = logConfig.EnabledSinks[:0]
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				logConfig.EnabledSinks = append(logConfig.EnabledSinks, trimmed)
			}
		}
	}
	if raw := os.Getenv("DRIFTFIELD_LOG_JSON"); raw != "" {
		logConfig.JSON.FilePath = raw
	}

	var namedSinks []logging.NamedSink
	if logConfig.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsole(os.Stdout, logConfig.Console),
		})
	}
	var jsonFile *os.File
	if logConfig.HasSink("json") && logConfig.JSON.FilePath != "" {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			telemetryLogger.Printf("failed to open json log sink %s: %v", logConfig.JSON.FilePath, err)
		} else {
			jsonFile = file
			namedSinks = append(namedSinks, logging.NamedSink{
				Name: "json",
				Sink: loggingSinks.NewJSON(file, logConfig.JSON),
			})
		}
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	hubCfg := server.DefaultHubConfig()
	hubCfg.Logger = telemetryLogger

	if raw := os.Getenv("DRIFTFIELD_SEED"); raw != "" {
		hubCfg.Field.Seed = raw
	}
	if raw := os.Getenv("DRIFTFIELD_REDUCED_MOTION"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			hubCfg.Field.ReducedMotion = value
		} else {
			telemetryLogger.Printf("invalid DRIFTFIELD_REDUCED_MOTION=%q: %v", raw, err)
		}
	}

	catalogPaths := catalog.DefaultPaths()
	if raw := os.Getenv("DRIFTFIELD_PROJECTS"); raw != "" {
		catalogPaths = []string{raw}
	}
	projects, err := catalog.Load(telemetryLogger, catalogPaths...)
	if err != nil {
		telemetryLogger.Printf("using built-in catalog: %v", err)
	} else {
		hubCfg.Projects = projects
	}

	observabilityCfg := observability.FromEnv(cfg.Observability, telemetryLogger)

	hub := server.NewHubWithConfig(hubCfg, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	if path, ok := catalog.ResolvePath(catalogPaths...); ok {
		watcher, werr := catalog.NewWatcher(path)
		if werr != nil {
			telemetryLogger.Printf("catalog watcher disabled: %v", werr)
		} else {
			defer watcher.Close()
			go func() {
				for {
					select {
					case changed, ok := <-watcher.Events:
						if !ok {
							return
						}
						reloaded, lerr := catalog.Load(telemetryLogger, changed)
						if lerr != nil {
							telemetryLogger.Printf("catalog reload skipped: %v", lerr)
							continue
						}
						hub.ReloadProjects(reloaded)
					case werr, ok := <-watcher.Errors:
						if !ok {
							return
						}
						telemetryLogger.Printf("catalog watcher error: %v", werr)
					}
				}
			}()
		}
	}

	clientDir, cerr := server.ResolveClientAssetsDir()
	if cerr != nil {
		clientDir = filepath.Clean(filepath.Join("..", "client"))
		telemetryLogger.Printf("client assets not found, serving %s: %v", clientDir, cerr)
	}
	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir:     clientDir,
		Logger:        telemetryLogger,
		Observability: observabilityCfg,
	})

	addr := ":8080"
	if raw := os.Getenv("DRIFTFIELD_ADDR"); raw != "" {
		addr = raw
	}
	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
