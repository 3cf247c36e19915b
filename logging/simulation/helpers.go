package simulation

import (
	"context"

	"driftfield/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a simulation tick exceeds its time budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventDeltaClamped is emitted when the frame delta is clamped after a stall.
	EventDeltaClamped logging.EventType = "simulation.delta_clamped"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// TickBudgetOverrun publishes a warning when the simulation exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	})
}

// DeltaClampedPayload captures a frame delta that fell outside the allowed
// multiplier range.
type DeltaClampedPayload struct {
	DeltaSeconds float64 `json:"deltaSeconds"`
	Multiplier   float64 `json:"multiplier"`
}

// DeltaClamped publishes a debug event when a frame delta is clamped.
func DeltaClamped(ctx context.Context, pub logging.Publisher, tick uint64, payload DeltaClampedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeltaClamped,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	})
}
