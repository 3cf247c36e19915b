package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"driftfield/server/logging"
)

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// Console writes one human-readable line per event through the standard
// library logger.
type Console struct {
	logger   *log.Logger
	useColor bool
}

func NewConsole(w io.Writer, cfg logging.ConsoleConfig) *Console {
	return &Console{
		logger:   log.New(w, "", log.LstdFlags),
		useColor: cfg.UseColor,
	}
}

func (s *Console) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}

	var line strings.Builder
	fmt.Fprintf(&line, "[%s] tick=%d actor=%s severity=%s",
		event.Type, event.Tick, entityLabel(event.Actor), s.severityLabel(event.Severity))
	if len(event.Targets) > 0 {
		labels := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			labels = append(labels, entityLabel(target))
		}
		fmt.Fprintf(&line, " targets=%s", strings.Join(labels, ","))
	}
	if event.Payload != nil {
		if data, err := json.Marshal(event.Payload); err == nil {
			fmt.Fprintf(&line, " payload=%s", data)
		} else {
			fmt.Fprintf(&line, " payload=%v", event.Payload)
		}
	}

	s.logger.Print(line.String())
	return nil
}

func (s *Console) Close(context.Context) error {
	return nil
}

func (s *Console) severityLabel(sev logging.Severity) string {
	label := sev.String()
	if !s.useColor {
		return label
	}
	switch sev {
	case logging.SeverityWarn:
		return colorYellow + label + colorReset
	case logging.SeverityError:
		return colorRed + label + colorReset
	default:
		return label
	}
}

func entityLabel(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return string(ref.Kind) + ":" + ref.ID
}
