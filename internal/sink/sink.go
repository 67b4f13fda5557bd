// Package sink implements the event sink: every envelope record lands in a
// local journal, is optionally persisted for audit, and — only when the
// record is marked send=true — is handed to the async dispatcher for
// delivery to the ad-platform collector.
package sink

import (
	"context"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
)

// Sink receives envelope records, one per emitter call. Forget clears the
// sink's own dedup state for one event id so a reset lead can re-fire.
type Sink interface {
	Push(ctx context.Context, env envelope.Envelope) error
	Forget(eventID string)
}
