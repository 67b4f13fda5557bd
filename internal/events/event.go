// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Tracking Domain Events
// =============================================================================

// ConversionRecorded is published when a monetized conversion envelope has
// been pushed to the sink.
type ConversionRecorded struct {
	BaseEvent
	EventID   string  `json:"eventId"`
	Name      string  `json:"name"`
	LeadID    string  `json:"leadId,omitempty"`
	Value     float64 `json:"value"`
	HasBridge bool    `json:"hasBridge"`
}

func (e ConversionRecorded) EventName() string { return "tracking.conversion.recorded" }

// DuplicateSuppressed is published when a dedup guard rejects a fire.
type DuplicateSuppressed struct {
	BaseEvent
	Name   string `json:"name"`
	LeadID string `json:"leadId,omitempty"`
	Reason string `json:"reason"` // "session_guard", "attempt_guard", "upload_supersedes", "already_pushed"
}

func (e DuplicateSuppressed) EventName() string { return "tracking.duplicate.suppressed" }

// =============================================================================
// Sink Domain Events
// =============================================================================

// SinkDeliveryFailed is published when a record could not be forwarded to
// the collector. The pipeline never retries; this is diagnostics only.
type SinkDeliveryFailed struct {
	BaseEvent
	EventID string `json:"eventId"`
	Name    string `json:"name"`
	Error   string `json:"error"`
}

func (e SinkDeliveryFailed) EventName() string { return "sink.delivery.failed" }
