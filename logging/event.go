// Package logging routes structured simulation events to a set of sinks
// without blocking the tick loop. Publishers enqueue events; a router
// goroutine fans them out to per-sink workers that absorb slow or failing
// sinks with backoff.
package logging

import (
	"maps"
	"slices"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindBody    EntityKind = "body"
	EntityKindViewer  EntityKind = "viewer"
	EntityKindField   EntityKind = "field"
	EntityKindCatalog EntityKind = "catalog"
)

// EntityRef names the entity an event is about.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryField   = "field"
	CategoryNetwork = "network"
	CategoryCatalog = "catalog"
	CategorySystem  = "system"
)

// Event is the unit every sink receives. Payload carries the typed
// per-event struct; Extra carries ambient fields attached by WithFields or
// the router configuration.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// WithExtra returns a copy of the event with one ambient field added.
func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}

func cloneEvent(event Event) Event {
	event.Targets = slices.Clone(event.Targets)
	event.Extra = maps.Clone(event.Extra)
	return event
}
